// Package executor performs HTTP requests against the target API on
// behalf of model tool calls.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"apitui/config"
)

// MaxBodyChars caps the response body included in a tool result.
const MaxBodyChars = 4000

// Args is a tool invocation request. Path may contain {name}
// placeholders filled from PathParams.
type Args struct {
	Method      string            `json:"method"`
	Path        string            `json:"path"`
	QueryParams map[string]string `json:"query_params,omitempty"`
	PathParams  map[string]string `json:"path_params,omitempty"`
	Body        any               `json:"body,omitempty"`
}

// ParseArgs builds Args from a decoded tool-call arguments object.
// Missing or mistyped fields degrade to zero values; param values are
// stringified since the model may send numbers.
func ParseArgs(raw map[string]any) Args {
	args := Args{
		Method: strings.ToUpper(stringField(raw, "method")),
		Path:   stringField(raw, "path"),
		Body:   raw["body"],
	}
	if args.Method == "" {
		args.Method = http.MethodGet
	}
	args.QueryParams = paramField(raw, "query_params")
	args.PathParams = paramField(raw, "path_params")
	return args
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func paramField(raw map[string]any, key string) map[string]string {
	obj, ok := raw[key].(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	params := make(map[string]string, len(obj))
	for k, v := range obj {
		params[k] = fmt.Sprint(v)
	}
	return params
}

// Result is the outcome of an executed call. Non-2xx responses and
// network failures are results, not errors: they go back to the model
// as tool output.
type Result struct {
	Status     int    `json:"status"`
	StatusText string `json:"status_text,omitempty"`
	OK         bool   `json:"ok"`
	Body       string `json:"body,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Executor routes tool call requests to the target API.
type Executor struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
}

func New(cfg config.TargetConfig) *Executor {
	return &Executor{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		bearerToken: cfg.BearerToken,
		httpClient:  &http.Client{},
	}
}

// NewWithClient builds an Executor with an explicit bearer token and
// HTTP client. A nil client gets a default one.
func NewWithClient(baseURL, bearerToken string, hc *http.Client) *Executor {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Executor{
		baseURL:     strings.TrimRight(baseURL, "/"),
		bearerToken: bearerToken,
		httpClient:  hc,
	}
}

// Do executes the call. Only transport-independent failures (bad
// arguments, context cancellation) return an error; everything the
// target said, including 4xx and 5xx, comes back in the Result.
func (e *Executor) Do(ctx context.Context, args Args) (Result, error) {
	reqURL, err := e.buildURL(args)
	if err != nil {
		return Result{}, err
	}

	var bodyReader io.Reader
	if args.Body != nil && args.Method != http.MethodGet {
		payload, err := json.Marshal(args.Body)
		if err != nil {
			return Result{}, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, args.Method, reqURL, bodyReader)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if e.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.bearerToken)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[EXEC] %s %s", args.Method, reqURL)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		// Network failure is a result the model can react to
		return Result{Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	result := Result{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
	}
	if readErr != nil {
		result.Error = fmt.Sprintf("failed to read response body: %v", readErr)
		return result, nil
	}

	text := string(body)
	if len(text) > MaxBodyChars {
		text = text[:MaxBodyChars]
		result.Truncated = true
	}
	result.Body = text

	return result, nil
}

// buildURL substitutes {name} path placeholders and appends query
// parameters. Each placeholder is replaced at its first occurrence,
// with the value URL-encoded. Query keys are sorted for deterministic
// URLs.
func (e *Executor) buildURL(args Args) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("tool call has no path")
	}

	path := args.Path
	for name, value := range args.PathParams {
		path = strings.Replace(path, "{"+name+"}", url.PathEscape(value), 1)
	}

	full := e.baseURL + "/" + strings.TrimLeft(path, "/")

	if len(args.QueryParams) > 0 {
		keys := make([]string, 0, len(args.QueryParams))
		for k := range args.QueryParams {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		values := url.Values{}
		for _, k := range keys {
			values.Set(k, args.QueryParams[k])
		}

		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + values.Encode()
	}

	return full, nil
}

// FormatResult renders a Result as the tool message content the model
// receives.
func FormatResult(result Result) string {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(payload)
}
