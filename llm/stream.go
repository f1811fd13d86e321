package llm

import (
	"bufio"
	"io"
	"strings"

	"encoding/json"

	"apitui/config"
)

// Stream iterates over server-sent chat completion chunks. Usage:
//
//	for st.Next() {
//	    chunk := st.Current()
//	    ...
//	}
//	if err := st.Err(); err != nil { ... }
type Stream struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	current Chunk
	err     error
	done    bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next advances to the next decoded chunk. It returns false when the
// stream ends, either via the [DONE] sentinel or EOF. Lines that are
// not data frames, and data frames that fail to decode, are skipped.
func (s *Stream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	for {
		line, err := s.reader.ReadString('\n')
		if len(line) > 0 {
			trimmed := strings.TrimSpace(line)
			payload, ok := strings.CutPrefix(trimmed, "data: ")
			if ok {
				if payload == "[DONE]" {
					s.done = true
					return false
				}

				var chunk Chunk
				if jsonErr := json.Unmarshal([]byte(payload), &chunk); jsonErr != nil {
					if config.DebugLog != nil {
						config.DebugLog.Printf("[STREAM] Skipping malformed frame: %v", jsonErr)
					}
				} else {
					s.current = chunk
					return true
				}
			}
		}

		if err != nil {
			if err != io.EOF {
				s.err = err
			}
			s.done = true
			return false
		}
	}
}

// Current returns the chunk decoded by the last successful Next call.
func (s *Stream) Current() Chunk {
	return s.current
}

// Err returns the first transport error encountered, if any. A stream
// that ends cleanly (via [DONE] or EOF) returns nil.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying response body. Safe to call more than
// once.
func (s *Stream) Close() error {
	s.done = true
	return s.body.Close()
}
