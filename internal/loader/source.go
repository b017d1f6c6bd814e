package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Source fetches the raw tabular text of the observation file.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// NewSource picks a source by URL scheme: http(s) URLs are fetched over HTTP,
// file:// URLs and bare paths are read from disk.
func NewSource(rawURL string, timeout time.Duration) Source {
	u, err := url.Parse(rawURL)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return NewHTTPSource(rawURL, timeout)
		case "file":
			return FileSource{Path: u.Path}
		}
	}
	return FileSource{Path: rawURL}
}

// HTTPSource fetches the observation file with a GET request.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

// NewHTTPSource creates an HTTP source with the given client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the body. Any status other than 200 is an error.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", s.url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func (s *HTTPSource) String() string { return s.url }

// FileSource reads the observation file from local disk.
type FileSource struct {
	Path string
}

// Fetch reads the whole file.
func (s FileSource) Fetch(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return data, nil
}

func (s FileSource) String() string { return s.Path }
