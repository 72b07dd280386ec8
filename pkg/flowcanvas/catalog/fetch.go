package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Fetcher retrieves catalog entries from wherever the palette is authored.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]Entry, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// StaticFetcher serves a fixed list of entries.
type StaticFetcher []Entry

// Fetch implements Fetcher.
func (s StaticFetcher) Fetch(context.Context) ([]Entry, error) {
	out := make([]Entry, len(s))
	copy(out, s)
	return out, nil
}

// document is the on-disk catalog layout:
//
//	nodes:
//	  - id: openai-chat
//	    displayName: llm
//	    tags: [llm]
type document struct {
	Nodes []Entry `json:"nodes" yaml:"nodes"`
}

// FileFetcher reads a YAML (.yaml, .yml) or JSON (.json) catalog file.
type FileFetcher struct {
	Path string
}

// Fetch implements Fetcher.
func (f FileFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data, filepath.Ext(f.Path))
}

// Parse decodes catalog data. ext selects the format (".json" or YAML).
func Parse(data []byte, ext string) ([]Entry, error) {
	var doc document
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog file extension: %s", ext)
	}
	return doc.Nodes, nil
}
