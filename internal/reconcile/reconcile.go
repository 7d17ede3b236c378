// Package reconcile classifies files as added, modified, deleted, or
// unchanged by diffing two fingerprint maps. It holds no state and performs
// no I/O, so every cycle of the watch loop passes the previous map in
// explicitly and persists the next one externally.
package reconcile

import (
	"fmt"
	"sort"
)

// InputError reports a malformed fingerprint map. It is fatal to the cycle
// that produced it but not to the process.
type InputError struct {
	Map    string // "previous" or "current"
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("reconcile: malformed %s fingerprint map: %s", e.Map, e.Reason)
}

// Changes partitions the union of two fingerprint maps' keys. Every path
// appears in exactly one slice; all slices are sorted.
type Changes struct {
	Added     []string
	Modified  []string
	Deleted   []string
	Unchanged []string
}

// NeedsRescan returns added ∪ modified, sorted. Callers process Deleted
// before rescanning so a moved file is a delete plus an add, never conflated.
func (c Changes) NeedsRescan() []string {
	out := make([]string, 0, len(c.Added)+len(c.Modified))
	out = append(out, c.Added...)
	out = append(out, c.Modified...)
	sort.Strings(out)
	return out
}

// Empty reports whether no file changed in any way.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

// Diff compares the previous and current fingerprint maps.
//
//   - Added: in current, not in previous.
//   - Deleted: in previous, not in current.
//   - Modified: in both with differing hash.
//   - Unchanged: in both with equal hash.
func Diff(previous, current map[string]string) (Changes, error) {
	if err := validate("previous", previous); err != nil {
		return Changes{}, err
	}
	if err := validate("current", current); err != nil {
		return Changes{}, err
	}

	var c Changes
	for path, hash := range current {
		prev, ok := previous[path]
		switch {
		case !ok:
			c.Added = append(c.Added, path)
		case prev != hash:
			c.Modified = append(c.Modified, path)
		default:
			c.Unchanged = append(c.Unchanged, path)
		}
	}
	for path := range previous {
		if _, ok := current[path]; !ok {
			c.Deleted = append(c.Deleted, path)
		}
	}

	sort.Strings(c.Added)
	sort.Strings(c.Modified)
	sort.Strings(c.Deleted)
	sort.Strings(c.Unchanged)
	return c, nil
}

func validate(name string, m map[string]string) error {
	for path, hash := range m {
		if path == "" {
			return &InputError{Map: name, Reason: "empty file path key"}
		}
		if hash == "" {
			return &InputError{Map: name, Reason: fmt.Sprintf("empty hash for %s", path)}
		}
	}
	return nil
}
