package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/viewhost/pkg/domain"
)

const maxPackageSize = 8 << 20

// HTTPFetcher fetches packages over HTTP.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher uses client, or a client with a 30s timeout when nil.
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPackageSize))
}

// DirOverride serves packages from <dir>/<name>/<version>/document.json.
func DirOverride(dir string) OverrideFunc {
	return func(ctx context.Context, req domain.ImportRequest) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, req.Name, req.Version, PackageFileName))
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPackageNotFound, req.Key())
		}
		return data, err
	}
}
