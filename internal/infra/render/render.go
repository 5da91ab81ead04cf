// Package render turns tool outputs into the JSON text carried by MCP results.
package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sfinmcp/internal/domain"
)

const indent = "  "

// Object renders v as an indented JSON document.
func Object(v any) (string, error) {
	raw, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return "", fmt.Errorf("render object: %w", err)
	}
	return string(raw), nil
}

// Table renders t as a JSON array of row objects whose keys follow column
// order. An empty table renders as domain.NoDataSentinel.
func Table(t domain.Table) (string, error) {
	if t.Empty() {
		return domain.NoDataSentinel, nil
	}
	records, err := Records(t)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, records, "", indent); err != nil {
		return "", fmt.Errorf("render table: %w", err)
	}
	return buf.String(), nil
}

// Records renders t as a compact JSON array for embedding in an object.
// An empty table renders as an empty array.
func Records(t domain.Table) (json.RawMessage, error) {
	rows := make([]orderedRow, 0, len(t.Rows))
	for _, cells := range t.Rows {
		rows = append(rows, orderedRow{columns: t.Columns, cells: cells})
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("render records: %w", err)
	}
	return raw, nil
}

// ErrorPayload is the body of every error result.
type ErrorPayload struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
	Hint  string           `json:"hint,omitempty"`
	Trace string           `json:"trace,omitempty"`
}

// NewErrorPayload classifies err. Recovered panics carry their stack and
// other unclassified errors carry the op chain they passed through.
func NewErrorPayload(err error) ErrorPayload {
	if err == nil {
		err = errors.New("unknown error")
	}
	kind := domain.KindOf(err)
	payload := ErrorPayload{
		Error: message(err),
		Kind:  kind,
		Hint:  domain.Hint(kind),
	}
	var panicErr *domain.PanicError
	switch {
	case errors.As(err, &panicErr):
		payload.Trace = string(panicErr.Stack)
	case kind == domain.KindUnclassified:
		payload.Trace = opTrace(err)
	}
	return payload
}

// opTrace lists each domain op in the unwrap chain, outermost first, then
// the root cause. It is empty when no link names an op.
func opTrace(err error) string {
	var lines []string
	var root error
	for e := err; e != nil; e = errors.Unwrap(e) {
		root = e
		domainErr, ok := e.(*domain.Error)
		if !ok || domainErr.Op == "" {
			continue
		}
		msg := domainErr.Message
		if msg == "" {
			msg = string(domainErr.Kind)
		}
		lines = append(lines, domainErr.Op+": "+msg)
	}
	if len(lines) == 0 {
		return ""
	}
	if _, ok := root.(*domain.Error); !ok {
		lines = append(lines, "cause: "+root.Error())
	}
	return strings.Join(lines, "\n")
}

// Error renders err as an error payload. It never fails.
func Error(err error) string {
	payload := NewErrorPayload(err)
	raw, marshalErr := json.MarshalIndent(payload, "", indent)
	if marshalErr != nil {
		return fmt.Sprintf(`{"error": %q, "kind": %q}`, payload.Error, payload.Kind)
	}
	return string(raw)
}

// message prefers the domain message over the op-prefixed Error() text.
func message(err error) string {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

type orderedRow struct {
	columns []string
	cells   []any
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, column := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(column)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var cell any
		if i < len(r.cells) {
			cell = r.cells[i]
		}
		value, err := json.Marshal(cell)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", column, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
