package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sseServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n", line)
		}
	}))
}

func collect(t *testing.T, stream *Stream) []Chunk {
	t.Helper()
	var chunks []Chunk
	for stream.Next() {
		chunks = append(chunks, stream.Current())
	}
	return chunks
}

func TestStreamChatDecodesFrames(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		``,
		`data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		``,
		`data: [DONE]`,
	)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Model: "test", HTTPClient: srv.Client()})
	stream, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	chunks := collect(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Choices[0].Delta.Content != "Hel" {
		t.Errorf("chunks[0] content = %q", chunks[0].Choices[0].Delta.Content)
	}
	if chunks[2].Choices[0].FinishReason != FinishStop {
		t.Errorf("finish_reason = %q, want stop", chunks[2].Choices[0].FinishReason)
	}
}

func TestStreamSkipsMalformedFrames(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: {not valid json`,
		`: comment line`,
		`event: ping`,
		`data: {"choices":[{"delta":{"content":"!"}}]}`,
		`data: [DONE]`,
	)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Model: "test", HTTPClient: srv.Client()})
	stream, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	chunks := collect(t, stream)
	if err := stream.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Choices[0].Delta.Content+chunks[1].Choices[0].Delta.Content != "ok!" {
		t.Error("malformed frames corrupted surrounding content")
	}
}

func TestStreamEOFWithoutSentinelEndsCleanly(t *testing.T) {
	srv := sseServer(t,
		`data: {"choices":[{"delta":{"content":"partial"}}]}`,
	)
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Model: "test", HTTPClient: srv.Client()})
	stream, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer stream.Close()

	chunks := collect(t, stream)
	if err := stream.Err(); err != nil {
		t.Errorf("EOF without [DONE] reported error: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(chunks))
	}
}

func TestStreamChatNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Model: "test", HTTPClient: srv.Client()})
	_, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("non-200 did not return an error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error type = %T, want *StatusError", err)
	}
	if statusErr.Code != 401 {
		t.Errorf("Code = %d, want 401", statusErr.Code)
	}
	if !strings.Contains(statusErr.Body, "bad key") {
		t.Errorf("Body = %q, want response payload", statusErr.Body)
	}
}

func TestStreamChatRequestShape(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	c := NewClient(Options{
		BaseURL:     srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-test",
		MaxTokens:   512,
		Temperature: 0.7,
		HTTPClient:  srv.Client(),
	})

	tools := []Tool{{Type: "function", Function: FunctionDef{Name: "api_request"}}}
	stream, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, tools)
	if err != nil {
		t.Fatal(err)
	}
	stream.Close()

	if got.Model != "gpt-test" || !got.Stream {
		t.Errorf("request = %+v, want streaming gpt-test", got)
	}
	if got.MaxTokens != 512 {
		t.Errorf("MaxTokens = %d, want 512", got.MaxTokens)
	}
	if got.ToolChoice != "auto" || len(got.Tools) != 1 {
		t.Errorf("tools not forwarded: choice=%q tools=%d", got.ToolChoice, len(got.Tools))
	}
}

func TestStreamChatOmitsToolChoiceWithoutTools(t *testing.T) {
	var got ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		fmt.Fprint(w, "data: [DONE]\n")
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Model: "test", HTTPClient: srv.Client()})
	stream, err := c.StreamChat(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	stream.Close()

	if got.ToolChoice != "" || len(got.Tools) != 0 {
		t.Errorf("empty tools leaked into request: choice=%q tools=%d", got.ToolChoice, len(got.Tools))
	}
}

func TestErrorFieldShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		message string
		isError bool
	}{
		{
			name:    "string error",
			payload: `{"error":"model overloaded"}`,
			message: "model overloaded",
			isError: true,
		},
		{
			name:    "object error",
			payload: `{"error":{"message":"invalid request"}}`,
			message: "invalid request",
			isError: true,
		},
		{
			name:    "error with details",
			payload: `{"error":"upstream failed","details":"timeout after 30s"}`,
			message: "upstream failed: timeout after 30s",
			isError: true,
		},
		{
			name:    "unrecognized error shape",
			payload: `{"error":[1,2,3]}`,
			isError: false,
		},
		{
			name:    "no error",
			payload: `{"choices":[{"delta":{"content":"hi"}}]}`,
			isError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var chunk Chunk
			if err := json.Unmarshal([]byte(tt.payload), &chunk); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			msg, ok := chunk.ErrorMessage()
			if ok != tt.isError {
				t.Fatalf("ErrorMessage ok = %v, want %v", ok, tt.isError)
			}
			if ok && msg != tt.message {
				t.Errorf("message = %q, want %q", msg, tt.message)
			}
		})
	}
}
