// Package datasource defines how the pipeline obtains the raw dataset
// file. A Provider fetches the source into the bronze layer and describes
// what it fetched; implementations live in the file and httpds
// subpackages.
package datasource

import (
	"context"
	"time"
)

// Metadata describes one fetched dataset file. It is persisted beside the
// raw file as the bronze metadata artifact.
type Metadata struct {
	Source      string    `json:"source"`
	RetrievedAt time.Time `json:"retrieved_at"`
	SizeBytes   int64     `json:"size_bytes"`
}

// Provider fetches the raw dataset and returns the local path it now
// lives at plus descriptive metadata. A failed fetch is fatal to the run;
// providers do not partially succeed.
type Provider interface {
	Fetch(ctx context.Context) (string, Metadata, error)
}
