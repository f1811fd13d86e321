package openapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const sampleSchema = `{
	"info": {
		"title": "Pet Store",
		"version": "1.2.0",
		"description": "A store for pets."
	},
	"paths": {
		"/pets": {
			"get": {
				"summary": "List pets",
				"parameters": [
					{"name": "limit", "in": "query", "required": false}
				]
			},
			"post": {
				"summary": "Create a pet",
				"requestBody": {
					"content": {
						"application/json": {
							"schema": {
								"properties": {
									"name": {"type": "string"},
									"age": {"type": "integer"}
								}
							}
						}
					}
				}
			}
		},
		"/pets/{id}": {
			"parameters": [{"name": "id", "in": "path", "required": true}],
			"get": {
				"summary": "Get one pet",
				"parameters": [
					{"name": "id", "in": "path", "required": true}
				]
			},
			"delete": {}
		}
	}
}`

func TestParseAndSummary(t *testing.T) {
	doc, err := Parse([]byte(sampleSchema))
	if err != nil {
		t.Fatal(err)
	}

	if doc.Info.Title != "Pet Store" {
		t.Errorf("Title = %q", doc.Info.Title)
	}

	summary := doc.Summary()

	checks := []string{
		"## API: Pet Store v1.2.0",
		"A store for pets.",
		"## Endpoints",
		"- GET /pets - List pets",
		"  - Params: limit (query, optional)",
		"- POST /pets - Create a pet",
		"  - Body: { age: integer, name: string }",
		"- GET /pets/{id} - Get one pet",
		"  - Params: id (path, required)",
		"- DELETE /pets/{id}",
	}
	for _, want := range checks {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q\n%s", want, summary)
		}
	}

	// GET comes before POST for the same path
	if strings.Index(summary, "- GET /pets") > strings.Index(summary, "- POST /pets") {
		t.Error("methods not in canonical order")
	}
}

func TestSummaryMissingInfo(t *testing.T) {
	doc, err := Parse([]byte(`{"paths":{}}`))
	if err != nil {
		t.Fatal(err)
	}

	summary := doc.Summary()
	if !strings.Contains(summary, "## API: Untitled v?") {
		t.Errorf("summary = %q, want Untitled placeholder", summary)
	}
}

func TestSummaryCapsLongDescription(t *testing.T) {
	long := strings.Repeat("d", 800)
	doc, err := Parse([]byte(fmt.Sprintf(`{"info":{"title":"T","version":"1","description":%q},"paths":{}}`, long)))
	if err != nil {
		t.Fatal(err)
	}

	summary := doc.Summary()
	if strings.Contains(summary, long) {
		t.Error("description was not capped")
	}
	if !strings.Contains(summary, strings.Repeat("d", 500)) {
		t.Error("capped description missing")
	}
}

func TestParseRejectsInvalidJSON(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("invalid JSON did not return an error")
	}
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleSchema)
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL+"/openapi.json")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Info.Title != "Pet Store" {
		t.Errorf("Title = %q", doc.Info.Title)
	}
}

func TestLoadNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), srv.URL+"/openapi.json"); err == nil {
		t.Error("404 schema fetch did not return an error")
	}
}

func TestRequestToolSchema(t *testing.T) {
	tool := RequestTool()

	if tool.Name != ToolName {
		t.Errorf("Name = %q, want %q", tool.Name, ToolName)
	}
	if tool.InputSchema.Type != "object" {
		t.Errorf("schema type = %q", tool.InputSchema.Type)
	}

	for _, prop := range []string{"method", "path", "query_params", "path_params", "body"} {
		if _, ok := tool.InputSchema.Properties[prop]; !ok {
			t.Errorf("property %q missing", prop)
		}
	}

	required := tool.InputSchema.Required
	if len(required) != 2 || required[0] != "method" || required[1] != "path" {
		t.Errorf("required = %v, want [method path]", required)
	}
}

func TestSystemPrompt(t *testing.T) {
	summary := "## API: Pet Store v1.2.0"

	withTools := SystemPrompt(summary, true)
	if !strings.Contains(withTools, summary) {
		t.Error("prompt missing schema summary")
	}
	if !strings.Contains(withTools, ToolName) {
		t.Error("tool-mode prompt does not mention the tool")
	}

	withoutTools := SystemPrompt(summary, false)
	if strings.Contains(withoutTools, ToolName) {
		t.Error("curl-mode prompt mentions the tool")
	}
	if !strings.Contains(withoutTools, "curl") {
		t.Error("curl-mode prompt missing curl guidance")
	}

	bare := SystemPrompt("", false)
	if strings.Contains(bare, "OpenAPI context") {
		t.Error("empty summary still produced a context block")
	}
}
