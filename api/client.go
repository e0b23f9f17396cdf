// Package api - Go-Client fuer den vaemesh Server.
// Dieses Modul enthaelt die Client-Struktur und Basis-Methoden.
// API-Methoden sind in client_api.go.
//
// Package api implements the client-side API for code wishing to interact
// with the vaemesh service. The methods of the [Client] type correspond to
// the REST endpoints under /api.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"

	"github.com/7blacky7/vaemesh/envconfig"
	"github.com/7blacky7/vaemesh/version"
)

// Client encapsulates client state for interacting with the vaemesh
// service. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	err := json.Unmarshal(body, &apiError)
	if err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
	}

	return apiError
}

// ClientFromEnvironment creates a new [Client] using configuration from the
// environment variable VAEMESH_HOST, which points to the network host and
// port on which the vaemesh service is listening. The format of this
// variable is:
//
//	<scheme>://<host>:<port>
//
// If the variable is not specified, http://127.0.0.1:5000 is used.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func userAgent() string {
	return fmt.Sprintf("vaemesh/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version())
}

// send fuehrt die Anfrage aus und liefert Antwort samt gelesenem Body.
func (c *Client) send(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, []byte, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return nil, nil, err
	}

	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("User-Agent", userAgent())

	resp, err := c.http.Do(request)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if err := checkError(resp, respBody); err != nil {
		return nil, nil, err
	}

	return resp, respBody, nil
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	var contentType string

	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	_, respBody, err := c.send(ctx, method, path, contentType, reqBody)
	if err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}
