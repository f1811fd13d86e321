package executor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recordedRequest struct {
	Method string
	URL    string
	Body   string
	Header http.Header
}

func recordingServer(status int, responseBody string) (*httptest.Server, func() recordedRequest) {
	var mu sync.Mutex
	var last recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		last = recordedRequest{
			Method: r.Method,
			URL:    r.URL.String(),
			Body:   string(body),
			Header: r.Header.Clone(),
		}
		mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, responseBody)
	}))

	return srv, func() recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestDoSubstitutesPathAndQuery(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, `{"id":42}`)
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	result, err := e.Do(context.Background(), Args{
		Method:      "GET",
		Path:        "/users/{id}",
		PathParams:  map[string]string{"id": "42"},
		QueryParams: map[string]string{"active": "true", "limit": "10"},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := last()
	if req.URL != "/users/42?active=true&limit=10" {
		t.Errorf("URL = %q, want /users/42?active=true&limit=10", req.URL)
	}
	if !result.OK || result.Status != 200 {
		t.Errorf("result = %+v, want OK 200", result)
	}
	if result.Body != `{"id":42}` {
		t.Errorf("Body = %q", result.Body)
	}
}

func TestDoEscapesPathParams(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "{}")
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	_, err := e.Do(context.Background(), Args{
		Method:     "GET",
		Path:       "/files/{name}",
		PathParams: map[string]string{"name": "a b/c"},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := last()
	if strings.Contains(req.URL, " ") {
		t.Errorf("URL contains unescaped space: %q", req.URL)
	}
}

func TestDoGetNeverSendsBody(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "{}")
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	_, err := e.Do(context.Background(), Args{
		Method: "GET",
		Path:   "/items",
		Body:   map[string]any{"ignored": true},
	})
	if err != nil {
		t.Fatal(err)
	}

	if req := last(); req.Body != "" {
		t.Errorf("GET sent a body: %q", req.Body)
	}
}

func TestDoPostSendsJSONBody(t *testing.T) {
	srv, last := recordingServer(http.StatusCreated, `{"ok":true}`)
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	result, err := e.Do(context.Background(), Args{
		Method: "POST",
		Path:   "/items",
		Body:   map[string]any{"name": "widget"},
	})
	if err != nil {
		t.Fatal(err)
	}

	req := last()
	if req.Body != `{"name":"widget"}` {
		t.Errorf("Body = %q", req.Body)
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", req.Header.Get("Content-Type"))
	}
	if !result.OK || result.Status != 201 {
		t.Errorf("result = %+v, want OK 201", result)
	}
}

func TestDoSendsBearerToken(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "{}")
	defer srv.Close()

	e := NewWithClient(srv.URL, "secret-token", srv.Client())
	if _, err := e.Do(context.Background(), Args{Method: "GET", Path: "/me"}); err != nil {
		t.Fatal(err)
	}

	if got := last().Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestDoNonOKIsResultNotError(t *testing.T) {
	srv, _ := recordingServer(http.StatusNotFound, `{"error":"no such user"}`)
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	result, err := e.Do(context.Background(), Args{Method: "GET", Path: "/users/999"})
	if err != nil {
		t.Fatalf("4xx returned an error: %v", err)
	}

	if result.OK {
		t.Error("OK = true for 404")
	}
	if result.Status != 404 || result.StatusText != "Not Found" {
		t.Errorf("status = %d %q", result.Status, result.StatusText)
	}
	if result.Body != `{"error":"no such user"}` {
		t.Errorf("Body = %q", result.Body)
	}
}

func TestDoNetworkFailureIsResult(t *testing.T) {
	srv, _ := recordingServer(http.StatusOK, "{}")
	srv.Close() // nothing listening anymore

	e := NewWithClient(srv.URL, "", nil)
	result, err := e.Do(context.Background(), Args{Method: "GET", Path: "/items"})
	if err != nil {
		t.Fatalf("network failure returned an error: %v", err)
	}
	if result.Error == "" {
		t.Error("Error is empty for unreachable target")
	}
	if result.OK {
		t.Error("OK = true for unreachable target")
	}
}

func TestDoCancelledContextIsError(t *testing.T) {
	srv, _ := recordingServer(http.StatusOK, "{}")
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewWithClient(srv.URL, "", srv.Client())
	if _, err := e.Do(ctx, Args{Method: "GET", Path: "/items"}); err == nil {
		t.Error("cancelled context did not return an error")
	}
}

func TestDoTruncatesLongBody(t *testing.T) {
	long := strings.Repeat("x", MaxBodyChars+500)
	srv, _ := recordingServer(http.StatusOK, long)
	defer srv.Close()

	e := NewWithClient(srv.URL, "", srv.Client())
	result, err := e.Do(context.Background(), Args{Method: "GET", Path: "/big"})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Body) != MaxBodyChars {
		t.Errorf("Body length = %d, want %d", len(result.Body), MaxBodyChars)
	}
	if !result.Truncated {
		t.Error("Truncated = false for oversized body")
	}
}

func TestDoEmptyPathIsError(t *testing.T) {
	e := NewWithClient("http://localhost:0", "", nil)
	if _, err := e.Do(context.Background(), Args{Method: "GET"}); err == nil {
		t.Error("empty path did not return an error")
	}
}

func TestBuildURLQueryAppend(t *testing.T) {
	e := NewWithClient("http://api.test", "", nil)

	got, err := e.buildURL(Args{
		Method:      "GET",
		Path:        "/search?sort=asc",
		QueryParams: map[string]string{"q": "widget"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got != "http://api.test/search?sort=asc&q=widget" {
		t.Errorf("buildURL = %q", got)
	}
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want Args
	}{
		{
			name: "full arguments",
			raw: map[string]any{
				"method":       "post",
				"path":         "/items",
				"query_params": map[string]any{"limit": float64(5)},
				"path_params":  map[string]any{"id": "7"},
			},
			want: Args{
				Method:      "POST",
				Path:        "/items",
				QueryParams: map[string]string{"limit": "5"},
				PathParams:  map[string]string{"id": "7"},
			},
		},
		{
			name: "method defaults to GET",
			raw:  map[string]any{"path": "/health"},
			want: Args{Method: "GET", Path: "/health"},
		},
		{
			name: "mistyped params ignored",
			raw: map[string]any{
				"method":       "GET",
				"path":         "/x",
				"query_params": "not-an-object",
			},
			want: Args{Method: "GET", Path: "/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArgs(tt.raw)
			if got.Method != tt.want.Method || got.Path != tt.want.Path {
				t.Errorf("ParseArgs = %+v, want %+v", got, tt.want)
			}
			for k, v := range tt.want.QueryParams {
				if got.QueryParams[k] != v {
					t.Errorf("QueryParams[%s] = %q, want %q", k, got.QueryParams[k], v)
				}
			}
			for k, v := range tt.want.PathParams {
				if got.PathParams[k] != v {
					t.Errorf("PathParams[%s] = %q, want %q", k, got.PathParams[k], v)
				}
			}
		})
	}
}

func TestFormatResult(t *testing.T) {
	got := FormatResult(Result{Status: 200, StatusText: "OK", OK: true, Body: `{"a":1}`})
	if !strings.Contains(got, `"status":200`) || !strings.Contains(got, `"ok":true`) {
		t.Errorf("FormatResult = %q", got)
	}
}
