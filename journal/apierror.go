package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the journal service.
type APIError struct {
	StatusCode int
	// Detail is the service's "detail" field flattened to one line; empty
	// when the body carried none.
	Detail string
	Body   string
}

func (e *APIError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Body
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("journal API error (status %d): %s", e.StatusCode, msg)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{
		StatusCode: status,
		Detail:     FlattenDetail(body),
		Body:       strings.TrimSpace(string(body)),
	}
}

type detailItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

// FlattenDetail turns a {"detail": ...} error body into one display line.
// A list of {loc, msg} validation items becomes "body > price: msg, ...";
// a string detail is returned as is; any other JSON value is returned
// compacted. It returns "" when there is no detail.
func FlattenDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	raw := bytes.TrimSpace(env.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var items []detailItem
	if err := json.Unmarshal(raw, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, formatLoc(it.Loc)+": "+it.Msg)
		}
		return strings.Join(parts, ", ")
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func formatLoc(loc []any) string {
	if len(loc) == 0 {
		return "field"
	}
	parts := make([]string, len(loc))
	for i, l := range loc {
		parts[i] = fmt.Sprint(l)
	}
	return strings.Join(parts, " > ")
}
