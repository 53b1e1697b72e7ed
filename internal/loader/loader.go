// Package loader reads the input documents named on the command line or in
// the config. Entries may be plain paths or doublestar glob patterns.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"ragloc/internal/domain"
)

// Load reads every file named by patterns, in order. A plain path that does
// not exist, or a pattern that matches nothing, is an error. A file named
// twice, under any spelling of its path, is loaded once.
func Load(patterns []string) ([]domain.Document, error) {
	if len(patterns) == 0 {
		return nil, domain.ErrNoDocuments
	}
	seen := make(map[string]struct{})
	var docs []domain.Document
	for _, p := range patterns {
		paths, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			key, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("input %s: %w", path, err)
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read input %s: %w", path, err)
			}
			docs = append(docs, domain.Document{ID: hashString(path), Path: path, Content: string(data)})
		}
	}
	return docs, nil
}

func expand(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[{") {
		if _, err := os.Stat(pattern); err != nil {
			return nil, fmt.Errorf("input %s: %w", pattern, err)
		}
		return []string{pattern}, nil
	}
	matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("bad input pattern %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match %q: %w", pattern, domain.ErrNoDocuments)
	}
	sort.Strings(matches)
	return matches, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
