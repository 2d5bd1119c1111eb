// Package schemas holds the JSON Schemas for the persisted documents.
package schemas

import "embed"

// BaseURI prefixes every schema $id. Relative $refs between files resolve against it.
const BaseURI = "https://resume-memory.dev/schemas/"

// Schema file names
const (
	Common         = "common.schema.json"
	MemoryProfile  = "memory_profile.schema.json"
	ResumeDocument = "resume_document.schema.json"
)

// FS contains every *.schema.json file in this directory
//
//go:embed *.schema.json
var FS embed.FS
