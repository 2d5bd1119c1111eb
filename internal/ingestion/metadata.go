package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// Metadata describes one ingested document
type Metadata struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Timestamp string `json:"timestamp"` // RFC3339 format
	Hash      string `json:"hash"`      // SHA256 hex digest of the raw bytes
	Bytes     int    `json:"bytes"`
	Chars     int    `json:"chars"` // extracted text length in runes
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(name string, raw []byte, text string) *Metadata {
	return &Metadata{
		Filename:  name,
		Format:    string(DetectFormat(name, raw)),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(raw),
		Bytes:     len(raw),
		Chars:     utf8.RuneCountInString(text),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
