package toolkit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRenderer struct {
	out []byte
	err error
}

func (s stubRenderer) Render(string, any) ([]byte, error) {
	return s.out, s.err
}

func TestRenderView(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		renderer *stubRenderer
		wantCode int
		wantMsg  string
		wantBody string
	}{
		{
			name:     "success",
			renderer: &stubRenderer{out: []byte("<h1>hi</h1>")},
			wantCode: http.StatusOK,
			wantMsg:  "OK",
			wantBody: "<h1>hi</h1>",
		},
		{
			name:     "render failure",
			renderer: &stubRenderer{err: errors.New("boom")},
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
		},
		{
			name:     "no renderer",
			wantCode: http.StatusInternalServerError,
			wantMsg:  "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var tk *Toolkit
			if tt.renderer != nil {
				tk = New(*tt.renderer)
			} else {
				tk = New(nil)
			}
			rec := httptest.NewRecorder()

			res := tk.RenderView(context.Background(), rec, "view", nil)

			assert.Equal(t, tt.wantCode, res.Status.Code)
			assert.Equal(t, tt.wantMsg, res.Status.Message)
			assert.Equal(t, tt.wantBody, string(res.Body))
			assert.Equal(t, HTMLContentType, rec.Header().Get("Content-Type"))
		})
	}
}

func TestErrorCodeAndUnmodified(t *testing.T) {
	t.Parallel()

	tk := New(nil)

	res := tk.ErrorCode(http.StatusTeapot, "teapot")
	assert.Empty(t, res.Body)
	assert.Equal(t, http.StatusTeapot, res.Status.Code)
	assert.Equal(t, "teapot", res.Status.Message)

	res = tk.RespondUnmodified()
	assert.Empty(t, res.Body)
	assert.Equal(t, http.StatusNotModified, res.Status.Code)
	assert.Equal(t, "", res.Status.Message)
}

func TestParseJSON(t *testing.T) {
	t.Parallel()

	tk := New(nil)

	var v map[string]any
	require.NoError(t, tk.ParseJSON([]byte(`{"a":1,"s":"é"}`), &v))
	assert.Equal(t, float64(1), v["a"])
	assert.Equal(t, "é", v["s"])

	assert.Error(t, tk.ParseJSON([]byte(`{"a":`), &v))

	type user struct {
		ID int `json:"id"`
	}
	u, err := DecodeJSON[user]([]byte(`{"id":42}`))
	require.NoError(t, err)
	assert.Equal(t, 42, u.ID)

	_, err = DecodeJSON[user]([]byte(`nope`))
	assert.Error(t, err)
}
