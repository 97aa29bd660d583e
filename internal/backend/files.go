package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrEmptyUploadPath is returned when the upload endpoint answers without a path.
var ErrEmptyUploadPath = errors.New("backend: upload returned no path")

// Export formats served by the backend.
const (
	FormatPDF  = "pdf"
	FormatHTML = "html"
)

// Artifact is a server-rendered export.
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
}

type uploadResponse struct {
	Path     string `json:"path"`
	FilePath string `json:"file_path"`
	URL      string `json:"url"`
}

func (u uploadResponse) relativePath() string {
	for _, candidate := range []string{u.Path, u.FilePath, u.URL} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// UploadFile sends a file to the shared upload endpoint and returns the server-relative path.
func (c *Client) UploadFile(ctx context.Context, fileName string, r io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", path.Base(fileName))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("buffer upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/uploads", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}
	var out uploadResponse
	if err := decodeInto(raw, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	rel := out.relativePath()
	if rel == "" {
		return "", ErrEmptyUploadPath
	}
	return rel, nil
}

// DownloadCV fetches the server-rendered export of a saved CV.
func (c *Client) DownloadCV(ctx context.Context, id, format string) (Artifact, error) {
	if format != FormatPDF && format != FormatHTML {
		return Artifact{}, fmt.Errorf("unsupported export format %q", format)
	}
	endpoint := fmt.Sprintf("%s/user-cvs/%s/download/%s", c.baseURL, url.PathEscape(id), format)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Artifact{}, err
	}
	resp, err := c.send(req)
	if err != nil {
		return Artifact{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("read export: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/pdf"
		if format == FormatHTML {
			contentType = "text/html; charset=utf-8"
		}
	}
	name := fmt.Sprintf("cv-%s.%s", id, format)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		if fn := path.Base(params["filename"]); fn != "" && fn != "." && fn != "/" {
			name = fn
		}
	}
	return Artifact{FileName: name, ContentType: contentType, Data: data}, nil
}
