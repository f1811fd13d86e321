// Package openapi fetches the target API's schema and derives the chat
// context and tool definition from it.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"apitui/config"
)

// Document is the subset of an OpenAPI schema this tool reads.
type Document struct {
	Info  Info                       `json:"info"`
	Paths map[string]json.RawMessage `json:"paths"`
}

type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

type Operation struct {
	Summary     string       `json:"summary"`
	Parameters  []Parameter  `json:"parameters"`
	RequestBody *RequestBody `json:"requestBody"`
}

type Parameter struct {
	Name     string `json:"name"`
	In       string `json:"in"`
	Required bool   `json:"required"`
}

type RequestBody struct {
	Content map[string]MediaType `json:"content"`
}

type MediaType struct {
	Schema *BodySchema `json:"schema"`
}

type BodySchema struct {
	Properties map[string]Property `json:"properties"`
}

type Property struct {
	Type string `json:"type"`
}

// Load fetches and decodes the schema. Called once per session; the
// summary and tool definition are derived from the result.
func Load(ctx context.Context, schemaURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, schemaURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create schema request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schema: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch schema: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	return Parse(body)
}

// Parse decodes a schema document from JSON.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[SCHEMA] Loaded '%s' v%s with %d paths",
			doc.Info.Title, doc.Info.Version, len(doc.Paths))
	}

	return &doc, nil
}

// methodOrder keeps endpoint listings stable across runs.
var methodOrder = []string{"get", "post", "put", "patch", "delete", "head", "options"}

// Summary renders a compact endpoint listing for the chat context.
// Descriptions are capped at 500 characters; path-level parameter
// blocks and unrecognized entries are skipped.
func (d *Document) Summary() string {
	if d == nil {
		return ""
	}

	var lines []string

	title := d.Info.Title
	if title == "" {
		title = "Untitled"
	}
	version := d.Info.Version
	if version == "" {
		version = "?"
	}
	lines = append(lines, "## API: "+title+" v"+version)
	if d.Info.Description != "" {
		desc := d.Info.Description
		if len(desc) > 500 {
			desc = desc[:500]
		}
		lines = append(lines, desc)
	}
	lines = append(lines, "", "## Endpoints")

	paths := make([]string, 0, len(d.Paths))
	for p := range d.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		var methods map[string]json.RawMessage
		if err := json.Unmarshal(d.Paths[path], &methods); err != nil {
			continue
		}

		for _, method := range methodOrder {
			raw, ok := methods[method]
			if !ok {
				continue
			}
			var op Operation
			if err := json.Unmarshal(raw, &op); err != nil {
				continue
			}
			lines = append(lines, formatOperation(method, path, op)...)
		}
	}

	return strings.Join(lines, "\n")
}

func formatOperation(method, path string, op Operation) []string {
	line := "- " + strings.ToUpper(method) + " " + path
	if op.Summary != "" {
		line += " - " + op.Summary
	}
	lines := []string{line}

	if len(op.Parameters) > 0 {
		descs := make([]string, len(op.Parameters))
		for i, p := range op.Parameters {
			in := p.In
			if in == "" {
				in = "?"
			}
			req := "optional"
			if p.Required {
				req = "required"
			}
			descs[i] = p.Name + " (" + in + ", " + req + ")"
		}
		lines = append(lines, "  - Params: "+strings.Join(descs, ", "))
	} else {
		lines = append(lines, "  - No parameters")
	}

	if op.RequestBody != nil {
		if props := bodyProperties(op.RequestBody); len(props) > 0 {
			lines = append(lines, "  - Body: { "+strings.Join(props, ", ")+" }")
		}
	}

	return lines
}

func bodyProperties(rb *RequestBody) []string {
	contentTypes := make([]string, 0, len(rb.Content))
	for ct := range rb.Content {
		contentTypes = append(contentTypes, ct)
	}
	sort.Strings(contentTypes)

	for _, ct := range contentTypes {
		schema := rb.Content[ct].Schema
		if schema == nil || len(schema.Properties) == 0 {
			continue
		}

		names := make([]string, 0, len(schema.Properties))
		for name := range schema.Properties {
			names = append(names, name)
		}
		sort.Strings(names)

		props := make([]string, len(names))
		for i, name := range names {
			t := schema.Properties[name].Type
			if t == "" {
				t = "any"
			}
			props[i] = name + ": " + t
		}
		return props
	}

	return nil
}
