package savegame

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

const schemaURL = "https://drowned-chart/save.schema.json"

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)

	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		c.Draft = jsonschema.Draft2020
		if err := c.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add save schema: %w", err)
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// Marshal renders doc as plain JSON.
func Marshal(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Unmarshal parses plain JSON, migrating legacy saves and validating
// against the save schema. Failures wrap ErrCorrupt.
func Unmarshal(data []byte) (Document, error) {
	var doc Document

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if raw == nil {
		return doc, fmt.Errorf("%w: empty document", ErrCorrupt)
	}
	migrate(raw)

	s, err := compiledSchema()
	if err != nil {
		return doc, err
	}
	if err := s.Validate(raw); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	clean, err := json.Marshal(raw)
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if err := json.Unmarshal(clean, &doc); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}

// Encode renders doc as zstd-compressed JSON.
func Encode(doc Document) ([]byte, error) {
	b, err := Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal save: %w", err)
	}
	return encoder.EncodeAll(b, make([]byte, 0, len(b)/4)), nil
}

// Decode reverses Encode.
func Decode(data []byte) (Document, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return Unmarshal(b)
}

// WriteFile exports doc to path, creating parent directories.
func WriteFile(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(doc); err != nil {
		enc.Close()
		return fmt.Errorf("encode save: %w", err)
	}
	return enc.Close()
}

// ReadFile imports a document written by WriteFile.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer dec.Close()

	b, err := io.ReadAll(dec)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return Unmarshal(b)
}
