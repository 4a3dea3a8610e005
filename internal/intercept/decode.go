package intercept

import (
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Content encodings understood by the pipeline.
const (
	EncodingGzip    = "gzip"
	EncodingDeflate = "deflate"
	EncodingBrotli  = "br"
)

// decoder returns a reader producing the decoded body for the given
// Content-Encoding. Unknown encodings pass through unchanged. The returned
// closer releases decoder state and must be called after reading.
func decoder(encoding string, body io.Reader) (io.Reader, func() error, error) {
	nop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case EncodingGzip, "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case EncodingDeflate:
		zr, err := zlib.NewReader(body)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case EncodingBrotli:
		return brotli.NewReader(body), nop, nil
	default:
		return body, nop, nil
	}
}
