package router

import (
	"errors"
	"fmt"
	"strings"
)

const (
	wildcardSuffix = "/*"
	paramMarker    = ':'
)

// Matcher types.
const (
	TypeWildcard  = "wildcard"
	TypeParameter = "parameter"
)

// ErrNotDynamic is returned by Compile for a path with neither parameters
// nor a trailing wildcard.
var ErrNotDynamic = errors.New("path is not dynamic")

// PathMatcher is a precompiled dynamic route pattern.
type PathMatcher interface {
	Match(path string) (bool, map[string]string)
	Type() string
	Pattern() string
}

// IsDynamic reports whether a normalized path is a dynamic pattern.
func IsDynamic(path string) bool {
	if strings.HasSuffix(path, wildcardSuffix) {
		return true
	}
	for _, seg := range strings.Split(path, "/") {
		if seg != "" && seg[0] == paramMarker {
			return true
		}
	}
	return false
}

// Compile builds the matcher for a normalized dynamic path.
func Compile(path string) (PathMatcher, error) {
	if strings.HasSuffix(path, wildcardSuffix) {
		prefix := strings.TrimSuffix(strings.TrimPrefix(path, "/"), wildcardSuffix)
		if prefix == "*" {
			prefix = ""
		}
		if strings.Contains(prefix, "/:") || strings.HasPrefix(prefix, ":") {
			return nil, fmt.Errorf("wildcard pattern %q cannot contain parameters", path)
		}
		return &WildcardMatcher{pattern: path, prefix: prefix}, nil
	}

	segments := strings.Split(path, "/")
	m := &ParameterMatcher{pattern: path, segments: segments}
	for i, seg := range segments {
		if seg == "" || seg[0] != paramMarker {
			continue
		}
		if len(seg) == 1 {
			return nil, fmt.Errorf("parameter in %q has no name", path)
		}
		m.paramPositions = append(m.paramPositions, i)
	}
	if len(m.paramPositions) == 0 {
		return nil, ErrNotDynamic
	}
	return m, nil
}

// WildcardMatcher matches every path under a prefix.
type WildcardMatcher struct {
	pattern string
	prefix  string
}

// Match checks whether path, with its leading slash removed, starts with
// the prefix.
func (m *WildcardMatcher) Match(path string) (matched bool, params map[string]string) {
	return strings.HasPrefix(strings.TrimPrefix(path, "/"), m.prefix), nil
}

// Type returns the matcher type.
func (m *WildcardMatcher) Type() string {
	return TypeWildcard
}

// Pattern returns the pattern.
func (m *WildcardMatcher) Pattern() string {
	return m.pattern
}

// ParameterMatcher matches paths with ":name" segments.
type ParameterMatcher struct {
	pattern        string
	segments       []string
	paramPositions []int
}

// Match compares path segment by segment. Fixed segments are compared
// case-insensitively; parameter segments accept any value.
func (m *ParameterMatcher) Match(path string) (matched bool, params map[string]string) {
	parts := strings.Split(path, "/")
	if len(parts) != len(m.segments) {
		return false, nil
	}

	next := 0
	for i, seg := range m.segments {
		if next < len(m.paramPositions) && m.paramPositions[next] == i {
			next++
			continue
		}
		if !strings.EqualFold(seg, parts[i]) {
			return false, nil
		}
	}

	params = make(map[string]string, len(m.paramPositions))
	for _, pos := range m.paramPositions {
		params[m.segments[pos][1:]] = parts[pos]
	}
	return true, params
}

// Type returns the matcher type.
func (m *ParameterMatcher) Type() string {
	return TypeParameter
}

// Pattern returns the pattern.
func (m *ParameterMatcher) Pattern() string {
	return m.pattern
}

// ParamNames returns the parameter names in path order.
func (m *ParameterMatcher) ParamNames() []string {
	names := make([]string, len(m.paramPositions))
	for i, pos := range m.paramPositions {
		names[i] = m.segments[pos][1:]
	}
	return names
}
