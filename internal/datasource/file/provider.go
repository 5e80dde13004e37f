// Package file provides a datasource.Provider backed by a file that is
// already on local disk.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"churnetl/internal/datasource"
)

// Provider copies a local source file to a destination path inside the
// bronze layer. When source and destination are the same path the copy is
// skipped and the file is only described.
type Provider struct {
	src  string
	dest string
	now  func() time.Time
}

// NewProvider returns a Provider that fetches src into dest.
func NewProvider(src, dest string) *Provider {
	return &Provider{src: src, dest: dest, now: time.Now}
}

// Fetch copies the source file into place and reports its size.
func (p *Provider) Fetch(ctx context.Context) (string, datasource.Metadata, error) {
	select {
	case <-ctx.Done():
		return "", datasource.Metadata{}, ctx.Err()
	default:
	}

	info, err := os.Stat(p.src)
	if err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("stat source %s: %w", p.src, err)
	}
	if info.IsDir() {
		return "", datasource.Metadata{}, fmt.Errorf("source %s is a directory", p.src)
	}

	if sameFile(p.src, p.dest) {
		return p.dest, p.metadata(info.Size()), nil
	}

	if err := os.MkdirAll(filepath.Dir(p.dest), 0o755); err != nil {
		return "", datasource.Metadata{}, fmt.Errorf("create destination dir: %w", err)
	}
	size, err := copyFile(p.src, p.dest)
	if err != nil {
		return "", datasource.Metadata{}, err
	}
	return p.dest, p.metadata(size), nil
}

func (p *Provider) metadata(size int64) datasource.Metadata {
	return datasource.Metadata{
		Source:      p.src,
		RetrievedAt: p.now().UTC(),
		SizeBytes:   size,
	}
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}

func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}
	size, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, fmt.Errorf("copy to %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", dest, err)
	}
	return size, nil
}
