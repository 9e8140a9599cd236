// Package catalog loads the static label and sight mappings.
// Values are built once at startup and never mutated afterwards.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ClassLabelMap maps classifier output indices to landmark names and back.
type ClassLabelMap struct {
	byIndex map[int]string
	byName  map[string]int
	order   []int
}

// NewClassLabelMap builds the bijection from index->name pairs.
func NewClassLabelMap(m map[int]string) (*ClassLabelMap, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("label map is empty")
	}
	l := &ClassLabelMap{
		byIndex: make(map[int]string, len(m)),
		byName:  make(map[string]int, len(m)),
		order:   make([]int, 0, len(m)),
	}
	for idx, name := range m {
		if idx < 0 {
			return nil, fmt.Errorf("negative class index %d", idx)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty label for class index %d", idx)
		}
		if other, dup := l.byName[name]; dup {
			return nil, fmt.Errorf("label %q used by class %d and %d", name, other, idx)
		}
		l.byIndex[idx] = name
		l.byName[name] = idx
		l.order = append(l.order, idx)
	}
	sort.Ints(l.order)
	// indices are dense: 0..Len-1
	for i, idx := range l.order {
		if idx != i {
			return nil, fmt.Errorf("class indices must be 0..%d, index %d has no label", len(l.order)-1, i)
		}
	}
	return l, nil
}

// LoadLabels reads a JSON object of stringified indices to names,
// e.g. {"0": "Erbdrostenhof", "1": "Kiepenkerl"}.
func LoadLabels(path string) (*ClassLabelMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse labels %s: %w", path, err)
	}
	m := make(map[int]string, len(raw))
	for k, v := range raw {
		idx, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return nil, fmt.Errorf("parse labels %s: class index %q is not an integer", path, k)
		}
		m[idx] = v
	}
	l, err := NewClassLabelMap(m)
	if err != nil {
		return nil, fmt.Errorf("labels %s: %w", path, err)
	}
	return l, nil
}

func (l *ClassLabelMap) Len() int { return len(l.byIndex) }

func (l *ClassLabelMap) Name(idx int) (string, bool) {
	n, ok := l.byIndex[idx]
	return n, ok
}

func (l *ClassLabelMap) Index(name string) (int, bool) {
	i, ok := l.byName[name]
	return i, ok
}

// Names returns the labels in ascending index order.
func (l *ClassLabelMap) Names() []string {
	out := make([]string, 0, len(l.order))
	for _, idx := range l.order {
		out = append(out, l.byIndex[idx])
	}
	return out
}

// Equal reports whether both maps assign the same name to every index.
func (l *ClassLabelMap) Equal(o *ClassLabelMap) bool {
	if o == nil || l.Len() != o.Len() {
		return false
	}
	for idx, name := range l.byIndex {
		if o.byIndex[idx] != name {
			return false
		}
	}
	return true
}

// Diff describes the first mismatches between l and o, for startup errors.
func (l *ClassLabelMap) Diff(o *ClassLabelMap) string {
	var parts []string
	seen := map[int]bool{}
	for _, idx := range append(append([]int{}, l.order...), o.order...) {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		a, b := l.byIndex[idx], o.byIndex[idx]
		if a != b {
			parts = append(parts, fmt.Sprintf("%d: %q != %q", idx, a, b))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
