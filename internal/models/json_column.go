package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// scanJSON decodes a JSON column. Drivers hand back []byte or string
// depending on the dialect.
func scanJSON(value, dst any) error {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}
	return json.Unmarshal(raw, dst)
}

// StringArray is a []string stored as a JSON array. NULL reads as empty
// and empty writes as [] so the column is never NULL.
type StringArray []string

func (s *StringArray) Scan(value any) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}
	var out []string
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		s = StringArray{}
	}
	return json.Marshal([]string(s))
}

func (s StringArray) Join(sep string) string { return strings.Join(s, sep) }

// AuditDetails is free-form event context stored as a JSON object.
type AuditDetails map[string]any

func (a *AuditDetails) Scan(value any) error {
	if value == nil {
		*a = nil
		return nil
	}
	out := AuditDetails{}
	if err := scanJSON(value, &out); err != nil {
		return err
	}
	*a = out
	return nil
}

func (a AuditDetails) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil //nolint:nilnil // SQL NULL
	}
	return json.Marshal(map[string]any(a))
}
