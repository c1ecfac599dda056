package agreement

import (
	"strings"
	"time"
)

// AcknowledgementsKey is the reserved top-level key in FormValues holding the
// acknowledgement-id -> initials map.
const AcknowledgementsKey = "acknowledgements"

// FormValues is the nested form value tree addressed by dot-paths.
// Leaves are scalars (string or number); intermediate nodes are maps.
type FormValues map[string]interface{}

// InitializeValues builds the value tree for a freshly loaded document:
// prefilled server data wins, schema defaults fill only undefined paths and
// the acknowledgement sub-map always exists. The DefaultToday sentinel is
// resolved here, once: the date must not silently advance if the signing
// session spans midnight.
func InitializeValues(schema *AgreementSchema, prefilled FormValues) FormValues {
	values := deepCopy(prefilled)
	if values == nil {
		values = make(FormValues)
	}
	if _, ok := values[AcknowledgementsKey].(map[string]interface{}); !ok {
		values[AcknowledgementsKey] = make(map[string]interface{})
	}

	today := time.Now().Format("2006-01-02")
	for _, fld := range schema.Fields() {
		if _, ok := GetValue(values, fld.Name); ok {
			continue
		}
		def := fld.DefaultValue
		if def == "" {
			continue
		}
		if def == DefaultToday {
			def = today
		}
		values = SetValue(values, fld.Name, def)
	}
	return values
}

// GetValue traverses the dot-path and reports whether a value is present.
// A missing intermediate segment yields (nil, false), never a panic.
func GetValue(values FormValues, path string) (interface{}, bool) {
	var node interface{} = map[string]interface{}(values)
	for _, seg := range strings.Split(path, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if node == nil {
		return nil, false
	}
	return node, true
}

// GetString returns the value at path as a string; absent or non-string values
// collapse to "".
func GetString(values FormValues, path string) string {
	v, ok := GetValue(values, path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// SetValue writes a value at the dot-path, creating intermediate maps as
// needed. The input tree is never mutated: maps along the written path are
// copied so callers can rely on reference change to detect updates.
func SetValue(values FormValues, path string, value interface{}) FormValues {
	segs := strings.Split(path, ".")
	return FormValues(setIn(map[string]interface{}(values), segs, value))
}

func setIn(m map[string]interface{}, segs []string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	if len(segs) == 1 {
		out[segs[0]] = value
		return out
	}
	child, _ := out[segs[0]].(map[string]interface{})
	if child == nil {
		child = make(map[string]interface{})
	}
	out[segs[0]] = setIn(child, segs[1:], value)
	return out
}

// Initials returns the initials entered for the given acknowledgement id.
func Initials(values FormValues, ackID string) string {
	return GetString(values, AcknowledgementsKey+"."+ackID)
}

// SetInitials records initials for the given acknowledgement id.
func SetInitials(values FormValues, ackID, initials string) FormValues {
	return SetValue(values, AcknowledgementsKey+"."+ackID, initials)
}

// SanitizeCurrency strips everything but digits and the first decimal point,
// so currency fields always store a clean numeric string.
func SanitizeCurrency(raw string) string {
	var b strings.Builder
	var dotSeen bool
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' && !dotSeen:
			dotSeen = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

func deepCopy(values FormValues) FormValues {
	if values == nil {
		return nil
	}
	return FormValues(copyTree(map[string]interface{}(values)))
}

func copyTree(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		if child, ok := v.(map[string]interface{}); ok {
			out[k] = copyTree(child)
		} else {
			out[k] = v
		}
	}
	return out
}
