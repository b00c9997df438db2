package display

import "encoding/json"

// Compact selects single-line JSON, for piping into other tools.
var Compact bool

// MarshalJSON marshals v indented for people, or compact when Compact is set.
func MarshalJSON(v interface{}) ([]byte, error) {
	if Compact {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
