package models

import "encoding/json"

// ID is an opaque remote identifier. The remote store hands out both bigint
// and uuid keys, so numbers and strings are accepted alike.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	*id = ID(scalarString(data))
	return nil
}

func (id ID) String() string { return string(id) }

// MarshalJSON keeps the zero ID as null so it is never sent as "".
func (id ID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}
