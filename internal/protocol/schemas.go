package protocol

import "embed"

// Schemas holds the JSON schemas for every trace line type.
//
//go:embed schemas/*.schema.json
var Schemas embed.FS
