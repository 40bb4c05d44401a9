// Package dataset persists generated episodes as gzip compressed JSON.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/AssemSadek/habitat-sim2real/pkg/episode"
)

// Dataset is the on-disk document: {"episodes": [...]}.
type Dataset struct {
	Episodes []episode.Episode `json:"episodes"`
}

// OutputPath substitutes split for every {split} placeholder in template.
func OutputPath(template, split string) string {
	return strings.ReplaceAll(template, "{split}", split)
}

// Encode writes d to w as gzip compressed JSON. The gzip header carries no
// name or timestamp, so equal datasets encode to equal bytes.
func Encode(w io.Writer, d *Dataset) error {
	episodes := d.Episodes
	if episodes == nil {
		episodes = []episode.Episode{}
	}
	data, err := json.Marshal(Dataset{Episodes: episodes})
	if err != nil {
		return fmt.Errorf("encoding dataset JSON: %w", err)
	}

	zw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := zw.Write(data); err != nil {
		return fmt.Errorf("compressing dataset: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compressing dataset: %w", err)
	}
	return nil
}

// Write stores d at path, creating parent directories as needed.
func Write(path string, d *Dataset) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dataset directory: %w", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, d); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing dataset file: %w", err)
	}
	return nil
}

// ReadRaw returns the decompressed JSON document stored at path.
func ReadRaw(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset file: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip header of %s: %w", path, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", path, err)
	}
	return data, nil
}

// Read loads a dataset written by Write.
func Read(path string) (*Dataset, error) {
	data, err := ReadRaw(path)
	if err != nil {
		return nil, err
	}
	var d Dataset
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing dataset JSON: %w", err)
	}
	return &d, nil
}
