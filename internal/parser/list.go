package parser

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	streamListSchemaURL       = "https://benthic.example/schemas/stream_list.json"
	invertebrateListSchemaURL = "https://benthic.example/schemas/invertebrate_list.json"
)

// ListEntry is one item of a top-level list document.
type ListEntry struct {
	ID        string
	Name      string
	UpdatedAt int64
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		files := map[string]string{
			streamListSchemaURL:       "schemas/stream_list.json",
			invertebrateListSchemaURL: "schemas/invertebrate_list.json",
		}

		c := jsonschema.NewCompiler()
		for url, name := range files {
			data, err := schemaFS.ReadFile(name)
			if err != nil {
				schemasErr = err
				return
			}
			doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
			if err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
			if err := c.AddResource(url, doc); err != nil {
				schemasErr = fmt.Errorf("schema %s: %w", name, err)
				return
			}
		}

		compiled := make(map[string]*jsonschema.Schema, len(files))
		for url := range files {
			sch, err := c.Compile(url)
			if err != nil {
				schemasErr = fmt.Errorf("compile %s: %w", url, err)
				return
			}
			compiled[url] = sch
		}
		schemas = compiled
	})
	return schemas, schemasErr
}

// ParseStreamList parses {"streams":[{"id":..., "name":..., "updated":...}]}.
func ParseStreamList(body []byte) ([]ListEntry, error) {
	return parseList("stream list", streamListSchemaURL, "streams", body)
}

// ParseInvertebrateList parses {"invertebrates":[{"id":..., "name":...}]}.
func ParseInvertebrateList(body []byte) ([]ListEntry, error) {
	return parseList("invertebrate list", invertebrateListSchemaURL, "invertebrates", body)
}

func parseList(document, schemaURL, key string, body []byte) ([]ListEntry, error) {
	compiled, err := loadSchemas()
	if err != nil {
		return nil, parseErr(document, err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return nil, parseErrf(document, "invalid JSON: %w", err)
	}
	if err := compiled[schemaURL].Validate(inst); err != nil {
		return nil, parseErrf(document, "schema violation: %w", err)
	}

	items := gjson.GetBytes(body, key).Array()
	entries := make([]ListEntry, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.Get("id").String()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		entries = append(entries, ListEntry{
			ID:        id,
			Name:      item.Get("name").String(),
			UpdatedAt: item.Get("updated").Int(),
		})
	}
	return entries, nil
}
