package api

import (
	"bytes"
	"fmt"
	"strconv"
)

// StateFlag decodes the envelope "state" field, which the service emits as
// either a bool or 0/1 depending on the endpoint.
type StateFlag bool

func (s *StateFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*s = true
	case "false", "0", "null":
		*s = false
	default:
		return fmt.Errorf("invalid state flag %q", data)
	}
	return nil
}

// Int64String decodes numeric fields the service emits as either a JSON
// number or a quoted string (file sizes and ids come back both ways).
type Int64String int64

func (i *Int64String) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %q: %w", data, err)
	}
	*i = Int64String(v)
	return nil
}

func (i Int64String) Int64() int64 { return int64(i) }
