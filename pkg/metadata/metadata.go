// Package metadata signs generated reports with a run footer and verifies them later.
package metadata

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// TagStart is the start of the metadata block.
	TagStart = "<!-- METADATA_START"
	// TagEnd is the end of the metadata block.
	TagEnd = "METADATA_END -->"
)

// Metadata verification errors.
var (
	ErrNoMetadataBlock = errors.New("no metadata block found")
	ErrNoHashFound     = errors.New("no hash found in metadata")
	ErrHashMismatch    = errors.New("hash mismatch")
)

// Metadata describes the run that produced a report.
type Metadata struct {
	Generated time.Time
	RunID     string
	Hash      string
	Sources   []string
	Records   int
}

// metadataRegex matches the entire metadata block including tags.
var metadataRegex = regexp.MustCompile(`(?s)<!--\s*METADATA_START\s*\n(.*?)\n\s*METADATA_END\s*-->`)

// Extract removes the metadata block from content and returns both the metadata and the cleaned content.
// The cleaned content is what gets hashed.
func Extract(content string) (*Metadata, string) {
	match := metadataRegex.FindStringSubmatch(content)
	cleanContent := strings.TrimRight(metadataRegex.ReplaceAllString(content, ""), "\n")

	if len(match) < 2 {
		return nil, cleanContent
	}

	meta := &Metadata{}

	for line := range strings.SplitSeq(match[1], "\n") {
		key, val, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}

		val = strings.TrimSpace(val)

		switch strings.TrimSpace(key) {
		case "RUN_ID":
			meta.RunID = val
		case "GENERATED":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				meta.Generated = t
			}
		case "RECORDS":
			meta.Records, _ = strconv.Atoi(val)
		case "SOURCES":
			if val != "" {
				meta.Sources = strings.Split(val, ",")
			}
		case "HASH":
			meta.Hash = val
		}
	}

	return meta, cleanContent
}

// CalculateHash computes the SHA-256 hash of the content, excluding any metadata block.
func CalculateHash(content string) string {
	_, clean := Extract(content)
	hash := sha256.Sum256([]byte(clean))

	return hex.EncodeToString(hash[:])
}

// Sign replaces any existing block with one describing meta, a fresh hash and, when
// meta.Generated is zero, the current time.
func Sign(content string, meta Metadata) string {
	_, clean := Extract(content)

	generated := meta.Generated
	if generated.IsZero() {
		generated = time.Now()
	}

	block := fmt.Sprintf("\n\n%s\nRUN_ID: %s\nGENERATED: %s\nRECORDS: %d\nSOURCES: %s\nHASH: %s\n%s",
		TagStart, meta.RunID, generated.UTC().Format(time.RFC3339), meta.Records,
		strings.Join(meta.Sources, ","), CalculateHash(clean), TagEnd)

	return clean + block
}

// Verify checks that the content matches the hash in its metadata.
func Verify(content string) (*Metadata, error) {
	meta, clean := Extract(content)
	if meta == nil {
		return nil, ErrNoMetadataBlock
	}

	if meta.Hash == "" {
		return meta, ErrNoHashFound
	}

	if calculated := CalculateHash(clean); calculated != meta.Hash {
		return meta, fmt.Errorf("%w: expected %s, got %s", ErrHashMismatch, meta.Hash, calculated)
	}

	return meta, nil
}
