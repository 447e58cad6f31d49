// Package migrations embeds the versioned SQL schema for each supported driver.
package migrations

import "embed"

// FS holds postgres/*.sql and mysql/*.sql
//
//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS
