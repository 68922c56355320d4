package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
)

var (
	_ Store = (*HTTPStore)(nil)
	_ Store = (*DirStore)(nil)
)

// HTTPStore fetches <baseURL>/posts/<filename>.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewHTTPStore(baseURL string, httpClient *http.Client, userAgent string) *HTTPStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, filename string) ([]byte, error) {
	target := s.baseURL + "/posts/" + url.PathEscape(filename)

	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

// DirStore reads posts from a local directory. Filenames must be plain relative
// paths inside it.
type DirStore struct {
	fsys fs.FS
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{fsys: os.DirFS(dir)}
}

func NewFSStore(fsys fs.FS) *DirStore {
	return &DirStore{fsys: fsys}
}

func (s *DirStore) Fetch(ctx context.Context, filename string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if !fs.ValidPath(filename) {
		return nil, fmt.Errorf("invalid post filename: %q", filename)
	}

	data, err := fs.ReadFile(s.fsys, filename)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read post: %w", err)
	}

	return data, nil
}
