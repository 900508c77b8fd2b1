package schemas

import "embed"

// SchemasFS содержит JSON-схемы контрактов событий.
//
//go:embed events
var SchemasFS embed.FS
