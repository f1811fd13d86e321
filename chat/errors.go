package chat

import (
	"errors"
	"net"
	"strings"

	"apitui/llm"
)

// ClassifyError maps a transport or provider error onto a title and
// guidance for display. Matching is heuristic: status codes when the
// provider returned a response, substring checks otherwise, since
// OpenAI-compatible backends disagree on error body shapes.
func ClassifyError(err error) *ErrorInfo {
	if err == nil {
		return nil
	}

	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ErrorInfo{
			Title:        "Connection Failed",
			Message:      "Could not reach the LLM endpoint. Check the base URL and that the server is running.",
			OpenSettings: true,
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial tcp"),
		strings.Contains(msg, "network is unreachable"):
		return &ErrorInfo{
			Title:        "Connection Failed",
			Message:      "Could not reach the LLM endpoint. Check the base URL and that the server is running.",
			OpenSettings: true,
		}
	case strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "incorrect api key"):
		return &ErrorInfo{
			Title:        "Authentication Failed",
			Message:      "The API key was rejected. Update it in settings.",
			OpenSettings: true,
		}
	case strings.Contains(msg, "rate limit"):
		return &ErrorInfo{
			Title:   "Rate Limited",
			Message: "The provider is rate limiting requests. Wait a moment and try again.",
		}
	}

	return &ErrorInfo{
		Title:   "Request Failed",
		Message: err.Error(),
	}
}

func classifyStatus(statusErr *llm.StatusError) *ErrorInfo {
	switch {
	case statusErr.Code == 401 || statusErr.Code == 403:
		return &ErrorInfo{
			Title:        "Authentication Failed",
			Message:      "The API key was rejected. Update it in settings.",
			OpenSettings: true,
		}
	case statusErr.Code == 404:
		return &ErrorInfo{
			Title:        "Not Found",
			Message:      "The endpoint or model was not found. Check the base URL and model name in settings.",
			OpenSettings: true,
		}
	case statusErr.Code == 429:
		return &ErrorInfo{
			Title:   "Rate Limited",
			Message: "The provider is rate limiting requests. Wait a moment and try again.",
		}
	case statusErr.Code >= 500:
		return &ErrorInfo{
			Title:   "Server Error",
			Message: "The provider returned a server error. Try again shortly.",
		}
	}

	msg := statusErr.Body
	if msg == "" {
		msg = statusErr.Status
	}
	return &ErrorInfo{
		Title:   "Request Failed",
		Message: msg,
	}
}
