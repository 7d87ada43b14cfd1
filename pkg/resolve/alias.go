package resolve

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/leapstack-labs/tdiff/pkg/core"
)

// BaseKey keeps only the ASCII capitals and digits of a table name.
// A name without any falls back to its first character, uppercased.
func BaseKey(name string) string {
	key := strings.Map(func(r rune) rune {
		if ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return -1
	}, name)
	if key != "" {
		return key
	}
	if name == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

// AllocateAliases assigns Alias on every table in place.
//
// Tables are grouped by BaseKey. Within a group, in slice order, the first
// table gets the base key, the second base key + "0", the third + "1", and
// so on.
func AllocateAliases(tables []core.TableRef) {
	seen := make(map[string]int, len(tables))
	for i := range tables {
		key := BaseKey(tables[i].Name)
		n := seen[key]
		seen[key] = n + 1
		if n == 0 {
			tables[i].Alias = key
			continue
		}
		tables[i].Alias = key + strconv.Itoa(n-1)
	}
}
