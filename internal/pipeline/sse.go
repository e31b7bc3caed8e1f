package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteEvent frames one SSE message: "event: <name>\ndata: <json>\n\n".
func WriteEvent(w io.Writer, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", name, err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
		return fmt.Errorf("failed to write %s event: %w", name, err)
	}
	return nil
}

// Scanner reads an SSE byte stream as discrete, ordered events. Comment
// lines (leading colon) are skipped; multiple data lines within one message
// concatenate with newlines per the SSE format.
type Scanner struct {
	r *bufio.Scanner
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 1024*1024)
	return &Scanner{r: s}
}

// Next returns the next complete event, or io.EOF when the stream ends.
func (s *Scanner) Next() (Event, error) {
	var name string
	var data []string
	sawField := false

	for s.r.Scan() {
		line := s.r.Text()

		if line == "" {
			if sawField {
				return Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}, nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
			sawField = true
		case "data":
			data = append(data, value)
			sawField = true
		}
	}

	if err := s.r.Err(); err != nil {
		return Event{}, err
	}
	if sawField {
		// Stream ended mid-message without the terminating blank line.
		return Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}, nil
	}
	return Event{}, io.EOF
}

// ReadAll drains the stream into an ordered event slice.
func ReadAll(r io.Reader) ([]Event, error) {
	sc := NewScanner(r)
	var events []Event
	for {
		ev, err := sc.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
