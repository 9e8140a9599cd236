package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SightIDMap bridges classifier labels to Datenportal POI ids.
type SightIDMap struct {
	ids map[string]int64
}

func NewSightIDMap(m map[string]int64) (*SightIDMap, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("sight id map is empty")
	}
	ids := make(map[string]int64, len(m))
	for name, id := range m {
		if id <= 0 {
			return nil, fmt.Errorf("sight %q has non-positive id %d", name, id)
		}
		ids[strings.TrimSpace(name)] = id
	}
	return &SightIDMap{ids: ids}, nil
}

// LoadSightIDs reads a JSON object of landmark name to POI id.
func LoadSightIDs(path string) (*SightIDMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sight ids: %w", err)
	}
	var raw map[string]int64
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("parse sight ids %s: %w", path, err)
	}
	s, err := NewSightIDMap(raw)
	if err != nil {
		return nil, fmt.Errorf("sight ids %s: %w", path, err)
	}
	return s, nil
}

func (s *SightIDMap) ID(name string) (int64, bool) {
	id, ok := s.ids[name]
	return id, ok
}

func (s *SightIDMap) Len() int { return len(s.ids) }
