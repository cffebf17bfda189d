package query

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// OptionalID distinguishes the three states a nullable reference can
// take in a JSON body: absent (leave unchanged), null (clear it) and a
// value (set it).
type OptionalID struct {
	Present bool
	Value   *uint
}

// UnmarshalJSON records presence even for an explicit null
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v uint64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	id := uint(v)
	o.Value = &id
	return nil
}

// OptionalString is OptionalID for string-keyed references (photos)
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON records presence even for an explicit null
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ParseUintParam parses a numeric path parameter
func ParseUintParam(raw string) (uint, bool) {
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(v), true
}
