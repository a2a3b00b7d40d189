package fcmrelay

import (
	"encoding/json"
	"strings"
)

// Placeholder markers, highest index first so "#var1" is never read as "#var" + "1".
var templateMarkers = []struct {
	marker string
	index  int
}{
	{"#var2", 2},
	{"#var1", 1},
	{"#var", 0},
}

// RenderTemplate replaces #var, #var1 and #var2 with vars[0], vars[1] and vars[2].
// A marker without a corresponding entry in vars is left as is.
// Substituted values are not scanned for markers again.
func RenderTemplate(tmpl string, vars []string) string {
	oldnew := make([]string, 0, len(templateMarkers)*2)
	for _, m := range templateMarkers {
		if m.index < len(vars) {
			oldnew = append(oldnew, m.marker, vars[m.index])
		} else {
			oldnew = append(oldnew, m.marker, m.marker)
		}
	}
	return strings.NewReplacer(oldnew...).Replace(tmpl)
}

// ParseTemplateVars decodes per-recipient vars. Anything but a JSON array yields no vars;
// non-string elements are used by their JSON text.
func ParseTemplateVars(raw json.RawMessage) []string {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil {
		return []string{}
	}
	vars := make([]string, 0, len(elems))
	for _, e := range elems {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			vars = append(vars, s)
		} else {
			vars = append(vars, string(e))
		}
	}
	return vars
}
