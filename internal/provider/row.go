package provider

import (
	"fmt"
)

// Row is one provider record as decoded from the JSON response. Column
// names are provider-native (mostly Chinese headers); the normalizer maps
// them to canonical fields.
type Row map[string]interface{}

// Str returns the value for key rendered as a string, or "" when absent or nil.
func (r Row) Str(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Get returns the raw value for key, or nil when absent.
func (r Row) Get(key string) interface{} {
	return r[key]
}
