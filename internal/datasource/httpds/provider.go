package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"churnetl/internal/datasource"
)

// Provider downloads the dataset from a URL into the bronze layer.
type Provider struct {
	client *Client
	url    string
	dest   string
	now    func() time.Time
}

// NewProvider returns a Provider that downloads url into dest using
// client.
func NewProvider(client *Client, url, dest string) *Provider {
	return &Provider{client: client, url: url, dest: dest, now: time.Now}
}

// Fetch downloads the file. Non-2xx terminal responses fail the fetch;
// retryable failures are handled inside the client.
func (p *Provider) Fetch(ctx context.Context) (string, datasource.Metadata, error) {
	resp, err := p.client.Get(ctx, p.url)
	if err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("download %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", datasource.Metadata{}, fmt.Errorf("download %s: unexpected status %s", p.url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(p.dest), 0o755); err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.Create(p.dest)
	if err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("create %s: %w", p.dest, err)
	}
	size, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return "", datasource.Metadata{}, fmt.Errorf("write %s: %w", p.dest, err)
	}
	if err := out.Close(); err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("close %s: %w", p.dest, err)
	}

	meta := datasource.Metadata{
		Source:      p.url,
		RetrievedAt: p.now().UTC(),
		SizeBytes:   size,
	}
	return p.dest, meta, nil
}
