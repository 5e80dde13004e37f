// Package all wires all built-in storage backends into the storage
// factory.
//
// This package exists purely for side effects: importing it (even as a
// blank import) runs the init functions of each concrete backend, which
// register their factories with the storage package. It makes the
// following storage kinds available at runtime:
//
//   - "postgres" (churnetl/internal/storage/postgres)
//   - "mssql"    (churnetl/internal/storage/mssql)
//   - "sqlite"   (churnetl/internal/storage/sqlite)
//
// Typical usage, in cmd/churnetl or a similar wiring layer:
//
//	import _ "churnetl/internal/storage/all" // enable all built-in backends
//
//	repo, err := storage.New(ctx, storage.Config{
//	    Kind: cfg.Storage.Kind,
//	    DSN:  cfg.Storage.DSN,
//	})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
//
// A binary that supports only a subset of backends can import the
// required backend packages directly instead of this one.
package all

import (
	_ "churnetl/internal/storage/mssql"
	_ "churnetl/internal/storage/postgres"
	_ "churnetl/internal/storage/sqlite"
)
