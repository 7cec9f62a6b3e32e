// Package policy holds the limits the evaluator enforces. A Limits value is
// plain data: build it once, pass it in, never mutate it afterwards.
package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits configures every ceiling the evaluator enforces.
type Limits struct {
	// MaxCompressionRatio is the uncompressed:compressed ceiling per entry
	// (integer ratio). Entries with zero compressed size are never flagged
	// by ratio.
	MaxCompressionRatio uint64 `yaml:"max_compression_ratio"`

	// MaxEntrySize is the per-entry uncompressed size ceiling in bytes.
	MaxEntrySize uint64 `yaml:"max_entry_size"`

	// MaxTotalSize is the ceiling for the sum of uncompressed sizes across
	// an archive's directory, in bytes.
	MaxTotalSize uint64 `yaml:"max_total_size"`

	// MaxEntryCount caps the number of directory entries. 0 disables it.
	MaxEntryCount int `yaml:"max_entry_count"`

	// MaxDepth is the deepest nesting level evaluated. A file at depth
	// MaxDepth+1 is rejected without inspection.
	MaxDepth int `yaml:"max_depth"`

	// MaxExtractSize caps the bytes physically copied out of one nested
	// entry during extraction, independent of its declared size.
	MaxExtractSize uint64 `yaml:"max_extract_size"`

	// RecursableExtensions is the set of extensions worth extracting and
	// re-evaluating when found inside an archive.
	RecursableExtensions []string `yaml:"recursable_extensions"`
}

// Default returns the stock limits.
func Default() Limits {
	return Limits{
		MaxCompressionRatio: 100,
		MaxEntrySize:        1 << 30,  // 1 GiB
		MaxTotalSize:        10 << 30, // 10 GiB
		MaxEntryCount:       65536,
		MaxDepth:            10,
		MaxExtractSize:      100 << 20, // 100 MiB
		RecursableExtensions: []string{
			"zip", "jar", "war", "ear", "7z",
			"xlsx", "docx", "pptx",
			"ods", "odt", "odp",
			"xls", "doc", "ppt",
			"pdf",
		},
	}
}

// Recursable reports whether a normalized extension is in the recursable set.
func (l Limits) Recursable(ext string) bool {
	for _, e := range l.RecursableExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Validate rejects limit combinations the evaluator cannot enforce.
func (l Limits) Validate() error {
	if l.MaxCompressionRatio == 0 {
		return fmt.Errorf("max_compression_ratio must be positive")
	}
	if l.MaxEntrySize == 0 {
		return fmt.Errorf("max_entry_size must be positive")
	}
	if l.MaxTotalSize < l.MaxEntrySize {
		return fmt.Errorf("max_total_size (%d) must be at least max_entry_size (%d)", l.MaxTotalSize, l.MaxEntrySize)
	}
	if l.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative")
	}
	if l.MaxExtractSize == 0 {
		return fmt.Errorf("max_extract_size must be positive")
	}
	return nil
}

// LoadFile reads limits from a YAML file. Fields absent from the file keep
// their defaults.
func LoadFile(path string) (Limits, error) {
	limits := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("reading limits file: %w", err)
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return limits, fmt.Errorf("parsing limits file %s: %w", path, err)
	}
	if err := limits.Validate(); err != nil {
		return limits, fmt.Errorf("invalid limits in %s: %w", path, err)
	}
	return limits, nil
}
