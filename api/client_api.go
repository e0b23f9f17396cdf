// Package api - API-Methoden des Clients.

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
)

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version VersionResponse
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &version); err != nil {
		return "", err
	}
	return version.Version, nil
}

// Info describes the model loaded by the server.
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var info InfoResponse
	if err := c.do(ctx, http.MethodGet, "/api/info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Heartbeat checks if the server has started and is responsive; if yes, it
// returns nil, otherwise an error.
func (c *Client) Heartbeat(ctx context.Context) error {
	_, _, err := c.send(ctx, http.MethodHead, "/api/version", "", nil)
	return err
}

// Generate uploads an image and returns the generated mesh file.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if req == nil || req.Image == nil {
		return nil, errors.New("generate: no image")
	}

	filename := req.Filename
	if filename == "" {
		filename = "image"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(part, req.Image); err != nil {
		return nil, err
	}

	if req.Format != "" {
		if err := mw.WriteField("format", req.Format); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}

	resp, data, err := c.send(ctx, http.MethodPost, "/api/generate", mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	out := &GenerateResponse{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		out.Filename = params["filename"]
	}

	return out, nil
}
