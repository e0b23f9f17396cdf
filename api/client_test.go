package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	base, err := url.Parse(ts.URL)
	require.NoError(t, err)
	return NewClient(base, ts.Client())
}

func TestClientFromEnvironment(t *testing.T) {
	t.Setenv("VAEMESH_HOST", "10.0.0.1:8080")

	c, err := ClientFromEnvironment()
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", c.base.String())
}

func TestClientGenerate(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), "vaemesh/"))

		f, fh, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()

		data, _ := io.ReadAll(f)
		assert.Equal(t, "pixels", string(data))
		assert.Equal(t, "chair.png", fh.Filename)
		assert.Equal(t, "stl", r.FormValue("format"))

		w.Header().Set("Content-Type", "model/stl")
		w.Header().Set("Content-Disposition", `attachment; filename="generated_model.stl"`)
		w.Write([]byte("solid"))
	})

	resp, err := c.Generate(t.Context(), &GenerateRequest{
		Filename: "/tmp/chair.png",
		Image:    strings.NewReader("pixels"),
		Format:   "stl",
	})
	require.NoError(t, err)

	assert.Equal(t, "generated_model.stl", resp.Filename)
	assert.Equal(t, "model/stl", resp.ContentType)
	assert.Equal(t, "solid", string(resp.Data))
}

func TestClientGenerateNoImage(t *testing.T) {
	c := NewClient(&url.URL{Scheme: "http", Host: "127.0.0.1:1"}, http.DefaultClient)

	_, err := c.Generate(t.Context(), &GenerateRequest{})
	assert.Error(t, err)
}

func TestClientErrors(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json", http.StatusBadRequest, `{"error":"No image uploaded"}`, "No image uploaded"},
		{"plain", http.StatusInternalServerError, "boom", "boom"},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.Generate(t.Context(), &GenerateRequest{Image: strings.NewReader("x")})

			var se StatusError
			require.True(t, errors.As(err, &se), "erwartet StatusError, bekommen %v", err)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.message, se.ErrorMessage)
		})
	}
}

func TestClientVersionAndInfo(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/version":
			json.NewEncoder(w).Encode(VersionResponse{Version: "1.2.3"})
		case "/api/info":
			json.NewEncoder(w).Encode(InfoResponse{GridSize: 32, LatentDim: 256, Threshold: 0.1})
		default:
			http.NotFound(w, r)
		}
	})

	v, err := c.Version(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "1.2.3", v)

	info, err := c.Info(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 32, info.GridSize)
	assert.Equal(t, 256, info.LatentDim)

	require.NoError(t, c.Heartbeat(t.Context()))
}

func TestStatusError(t *testing.T) {
	cases := []struct {
		err  StatusError
		want string
	}{
		{StatusError{Status: "400 Bad Request", ErrorMessage: "No image uploaded"}, "400 Bad Request: No image uploaded"},
		{StatusError{Status: "500 Internal Server Error"}, "500 Internal Server Error"},
		{StatusError{ErrorMessage: "boom"}, "boom"},
	}

	for _, tt := range cases {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
