package dialect

import (
	"sort"
	"strings"
	"sync"
)

// Dialect registry, keyed by lowercase name or alias.
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]*Dialect)
)

// Register adds a dialect under its name and any aliases. Adapter types are
// used as aliases so a target type finds its dialect.
func Register(d *Dialect, aliases ...string) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
	for _, a := range aliases {
		dialects[strings.ToLower(a)] = d
	}
}

// Get returns a dialect by name or alias, ignoring case.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// List returns the registered dialect names without aliases, sorted.
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	seen := make(map[string]struct{}, len(dialects))
	for _, d := range dialects {
		seen[d.Name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
