package onnx

import (
	"encoding/json"
	"fmt"
	"os"

	"sightseeing_ms/internal/catalog"
)

// Metadata is the sidecar JSON exported next to the .onnx weights.
// ClassToIdx is the dictionary the training run assigned (name -> index).
type Metadata struct {
	Architecture string         `json:"architecture"`
	InputName    string         `json:"input_name"`
	OutputName   string         `json:"output_name"`
	InputShape   []int64        `json:"input_shape"`
	OutputShape  []int64        `json:"output_shape"`
	ClassToIdx   map[string]int `json:"class_to_idx"`
}

func LoadMetadata(path string) (Metadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read model metadata: %w", err)
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse model metadata: %w", err)
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
	if err := m.validate(); err != nil {
		return Metadata{}, fmt.Errorf("model metadata %s: %w", path, err)
	}
	return m, nil
}

func (m Metadata) validate() error {
	if len(m.InputShape) != 4 {
		return fmt.Errorf("expected 4D input shape, got %v", m.InputShape)
	}
	if len(m.OutputShape) != 2 {
		return fmt.Errorf("expected 2D output shape, got %v", m.OutputShape)
	}
	for _, d := range append(append([]int64{}, m.InputShape...), m.OutputShape...) {
		if d <= 0 {
			return fmt.Errorf("dynamic or invalid dimension in %v / %v", m.InputShape, m.OutputShape)
		}
	}
	if len(m.ClassToIdx) == 0 {
		return fmt.Errorf("class_to_idx is empty")
	}
	if int(m.OutputShape[1]) != len(m.ClassToIdx) {
		return fmt.Errorf("output has %d classes, class_to_idx has %d", m.OutputShape[1], len(m.ClassToIdx))
	}
	if _, err := m.Classes(); err != nil {
		return fmt.Errorf("class_to_idx: %w", err)
	}
	return nil
}

// Classes inverts ClassToIdx into the index -> label legend.
func (m Metadata) Classes() (*catalog.ClassLabelMap, error) {
	inv := make(map[int]string, len(m.ClassToIdx))
	for name, idx := range m.ClassToIdx {
		if other, dup := inv[idx]; dup {
			return nil, fmt.Errorf("class index %d assigned to %q and %q", idx, other, name)
		}
		inv[idx] = name
	}
	return catalog.NewClassLabelMap(inv)
}

func (m Metadata) InputLen() int {
	n := int64(1)
	for _, d := range m.InputShape {
		n *= d
	}
	return int(n)
}
