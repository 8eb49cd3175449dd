package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/studiowebux/perfscope/internal/config"
	"github.com/studiowebux/perfscope/internal/types"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// FileSource reads a snapshot saved as JSON, JSON with comments, or YAML
type FileSource struct {
	Path string
}

// NewFile creates a file source
func NewFile(path string) *FileSource {
	return &FileSource{Path: path}
}

// Name implements Source
func (f *FileSource) Name() string {
	return "file:" + filepath.Base(f.Path)
}

// Fetch implements Source
func (f *FileSource) Fetch(ctx context.Context) (*types.Snapshot, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	snap, err := DecodeSnapshot(data, filepath.Ext(f.Path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", f.Path, err)
	}
	return snap, nil
}

// DecodeSnapshot decodes a snapshot. ext selects YAML for .yaml/.yml; anything
// else is read as JSON with optional comments and trailing commas.
func DecodeSnapshot(data []byte, ext string) (*types.Snapshot, error) {
	var snap types.Snapshot

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &snap); err != nil {
			return nil, err
		}
	}

	if snap.PageDomain == "" && snap.PageURL != "" {
		snap.PageDomain = hostOf(snap.PageURL)
	}
	return &snap, nil
}

// SaveSnapshot writes a snapshot as indented JSON
func SaveSnapshot(path string, snap *types.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}
