// Package all registers every registry backend with the factory.
//
// Blank-import from main packages:
//
//	import _ "ingest/internal/registry/all"
//
// The config selects which backend to use, but support for all of them must
// be compiled in.
package all

import (
	_ "ingest/internal/registry/jsonfile"
	_ "ingest/internal/registry/mssql"
	_ "ingest/internal/registry/postgres"
	_ "ingest/internal/registry/sqlite"
)
