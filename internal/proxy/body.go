package proxy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

// Body content types that a parsed body is re-serialized as.
const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

// ParsedBodyKey is the gin context key holding a parsed request body. When
// set, the body is serialized again according to the request content type
// before forwarding, so earlier middleware may rewrite it.
const ParsedBodyKey = "managedproxy.parsedBody"

// writeParsedBody replaces out's body with the serialized form of body. It
// does nothing for content types other than JSON and form data.
func writeParsedBody(out *http.Request, body any) error {
	mediaType, _, err := mime.ParseMediaType(out.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}

	var data []byte
	switch mediaType {
	case ContentTypeJSON:
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding JSON body: %w", err)
		}
	case ContentTypeForm:
		values, err := formValues(body)
		if err != nil {
			return err
		}
		data = []byte(values.Encode())
	default:
		return nil
	}

	out.Body = io.NopCloser(bytes.NewReader(data))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	out.ContentLength = int64(len(data))
	out.Header.Set("Content-Length", strconv.Itoa(len(data)))
	return nil
}

func formValues(body any) (url.Values, error) {
	switch v := body.(type) {
	case url.Values:
		return v, nil
	case map[string][]string:
		return url.Values(v), nil
	case map[string]string:
		values := make(url.Values, len(v))
		for k, s := range v {
			values.Set(k, s)
		}
		return values, nil
	case map[string]any:
		values := make(url.Values, len(v))
		for k, x := range v {
			values.Set(k, fmt.Sprint(x))
		}
		return values, nil
	default:
		return nil, fmt.Errorf("cannot encode %T as form data", body)
	}
}
