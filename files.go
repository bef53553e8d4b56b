package anthropic

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// filesBeta is required on all Files API requests.
const filesBeta = "files-api-2025-04-14"

// File is metadata about an uploaded file.
type File struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mime_type"`
	SizeBytes    int64  `json:"size_bytes"`
	CreatedAt    string `json:"created_at"`
	Downloadable bool   `json:"downloadable"`
}

func (c *Client) filesClient() *Client {
	for _, beta := range c.betas {
		if beta == filesBeta {
			return c
		}
	}
	fc := *c
	fc.betas = append(append([]string{}, c.betas...), filesBeta)
	return &fc
}

// UploadFile uploads a file for later use in messages.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*File, error) {
	if filename == "" {
		return nil, &ConfigError{Reason: "filename is required"}
	}
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, &ConfigError{Reason: "building upload: " + err.Error()}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &ConnectionError{Cause: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &ConfigError{Reason: "building upload: " + err.Error()}
	}

	fc := c.filesClient()
	res, err := fc.request(ctx, http.MethodPost, "/v1/files", mw.FormDataContentType(), "application/json", body.Bytes())
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	file := new(File)
	if err := decodeBody(res, file); err != nil {
		return nil, err
	}
	return file, nil
}

// Files lists uploaded files.
func (c *Client) Files(ctx context.Context) (files []*File, err error) {
	fc := c.filesClient()
	afterID := ""
	for {
		path := "/v1/files?limit=100"
		if afterID != "" {
			path += "&after_id=" + url.QueryEscape(afterID)
		}
		var page struct {
			Data    []*File `json:"data"`
			HasMore bool    `json:"has_more"`
			LastID  string  `json:"last_id"`
		}
		if err := fc.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("anthropic: listing files: %w", err)
		}
		files = append(files, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return files, nil
		}
		afterID = page.LastID
	}
}

// File returns a file's metadata by id.
func (c *Client) File(ctx context.Context, id string) (*File, error) {
	if id == "" {
		return nil, &ConfigError{Reason: "file id is required"}
	}
	file := new(File)
	if err := c.filesClient().do(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id), nil, file); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile removes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if id == "" {
		return &ConfigError{Reason: "file id is required"}
	}
	return c.filesClient().do(ctx, http.MethodDelete, "/v1/files/"+url.PathEscape(id), nil, nil)
}

// DownloadFile returns the content of a downloadable file. The caller
// must close the returned reader.
func (c *Client) DownloadFile(ctx context.Context, id string) (io.ReadCloser, error) {
	if id == "" {
		return nil, &ConfigError{Reason: "file id is required"}
	}
	res, err := c.filesClient().request(ctx, http.MethodGet, "/v1/files/"+url.PathEscape(id)+"/content", "", "application/octet-stream", nil)
	if err != nil {
		return nil, err
	}
	return res.Body, nil
}
