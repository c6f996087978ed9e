package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is the single normalized shape of every remote result. Data holds
// whatever the remote returned: an object, a list, a scalar or null.
type Response struct {
	Status int
	Data   json.RawMessage
	Count  int64
}

// Rows normalizes Data into a list: null gives an empty list, a list gives its
// elements and anything else is treated as a single row.
func (r *Response) Rows() []json.RawMessage {
	if r == nil {
		return nil
	}
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '[' {
		var rows []json.RawMessage
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows
		}
	}
	return []json.RawMessage{data}
}

// First returns the first row, if any.
func (r *Response) First() (json.RawMessage, bool) {
	rows := r.Rows()
	if len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// IsEmpty reports whether the response carries no rows.
func (r *Response) IsEmpty() bool {
	return len(r.Rows()) == 0
}

// Decode unmarshals Data into dst.
func (r *Response) Decode(dst any) error {
	if r == nil || len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, dst); err != nil {
		return &Error{Kind: KindDecode, Op: "decode", Message: fmt.Sprintf("decode %T", dst), Err: err}
	}
	return nil
}

// DecodeRows unmarshals the normalized row list into dst, which must be a
// pointer to a slice.
func (r *Response) DecodeRows(dst any) error {
	rows := r.Rows()
	if rows == nil {
		rows = []json.RawMessage{}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return &Error{Kind: KindDecode, Op: "decode", Err: err}
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &Error{Kind: KindDecode, Op: "decode", Message: fmt.Sprintf("decode rows into %T", dst), Err: err}
	}
	return nil
}

// Truthy mirrors how the remote procedures signal success: null, false, 0,
// "" and empty collections are all falsy.
func (r *Response) Truthy() bool {
	if r == nil {
		return false
	}
	return truthy(r.Data)
}

func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	}
	return true
}
