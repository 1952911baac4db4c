package browserstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ItemKey returns the physical key of record id in collection name.
func ItemKey(name string, id any) string {
	return name + "-" + IDString(id)
}

// IndexKey returns the physical key of the index of collection name.
func IndexKey(name string) string {
	return name
}

// IDFromItemKey returns the record id encoded in an item key of collection name.
func IDFromItemKey(name, key string) (string, bool) {
	return strings.CutPrefix(key, name+"-")
}

// IDString returns the text form of an identifier. Numbers are written without an
// exponent, so an id read back from JSON as a float names the same key it was stored under.
func IDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(id)
	}
}

// isNew reports whether id is unset.
func isNew(id any) bool {
	if id == nil {
		return true
	}
	s, ok := id.(string)
	return ok && s == ""
}

// itemPattern matches every item key of collection name and nothing else.
func itemPattern(name string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(name) + "-")
}
