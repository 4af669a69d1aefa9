package repo

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// MaxFileSize skips files larger than this many bytes.
	MaxFileSize = 256 * 1024
	// ChunkSize is the target size of a text chunk in bytes.
	ChunkSize = 1500
	// MaxChunks bounds how many chunks one repository contributes to an index.
	MaxChunks = 2000
)

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
	".venv":        true,
	".next":        true,
}

// Chunk is a piece of a repository file used for retrieval.
type Chunk struct {
	Path string
	Text string
}

// String renders the chunk with its path for inclusion in a prompt.
func (c Chunk) String() string {
	return fmt.Sprintf("File: %s\n%s", c.Path, c.Text)
}

// LoadDocuments walks dir and returns text chunks of every readable source file.
// Hidden and dependency directories, binary files and oversized files are skipped.
func LoadDocuments(dir string) ([]Chunk, error) {
	var chunks []Chunk
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() == 0 || info.Size() > MaxFileSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if isBinary(data) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		for _, text := range chunkText(string(data), ChunkSize) {
			chunks = append(chunks, Chunk{Path: filepath.ToSlash(rel), Text: text})
			if len(chunks) >= MaxChunks {
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load repository documents: %w", err)
	}
	return chunks, nil
}

func isBinary(data []byte) bool {
	sample := data[:min(len(data), 8000)]
	if bytes.IndexByte(sample, 0) >= 0 {
		return true
	}
	// The sample may end inside a multi-byte rune.
	for i := 0; i < utf8.UTFMax-1 && len(sample) > 0 && !utf8.Valid(sample); i++ {
		sample = sample[:len(sample)-1]
	}
	return !utf8.Valid(sample)
}

// chunkText splits text on line boundaries into pieces of roughly size bytes.
// A single line longer than size becomes its own chunk.
func chunkText(text string, size int) []string {
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		if cur.Len() > 0 && cur.Len()+len(line) > size {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if strings.TrimSpace(cur.String()) != "" {
		chunks = append(chunks, cur.String())
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}
