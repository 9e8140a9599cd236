package vision

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"sightseeing_ms/internal/adapters/observability"
	"sightseeing_ms/internal/catalog"
	"sightseeing_ms/internal/domain"
)

var ErrInvalidTensor = errors.New("invalid input tensor")

// Engine runs one forward pass and returns the raw logits.
type Engine interface {
	Run(input []float32) ([]float32, error)
	Close()
}

// Classifier maps a preprocessed tensor to a landmark label.
// Labels come from the class dictionary stored with the weights.
type Classifier struct {
	mu      sync.Mutex
	engine  Engine
	classes *catalog.ClassLabelMap
}

func NewClassifier(e Engine, classes *catalog.ClassLabelMap) (*Classifier, error) {
	if e == nil {
		return nil, fmt.Errorf("nil engine")
	}
	if classes == nil || classes.Len() == 0 {
		return nil, fmt.Errorf("classifier needs at least one class")
	}
	return &Classifier{engine: e, classes: classes}, nil
}

func (c *Classifier) Classes() *catalog.ClassLabelMap { return c.classes }

// PredictClassLabel returns only the most likely label.
func (c *Classifier) PredictClassLabel(tensor []float32) (string, error) {
	p, err := c.Predict(tensor)
	if err != nil {
		return "", err
	}
	return p.Label, nil
}

func (c *Classifier) Predict(tensor []float32) (domain.Prediction, error) {
	if len(tensor) != TensorLen {
		return domain.Prediction{}, fmt.Errorf("%w: got %d values, want %d (shape %v)",
			ErrInvalidTensor, len(tensor), TensorLen, TensorShape)
	}

	start := time.Now()
	c.mu.Lock()
	logits, err := c.engine.Run(tensor)
	c.mu.Unlock()
	observability.ObserveInference(time.Since(start))
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("inference failed: %w", err)
	}
	if len(logits) != c.classes.Len() {
		return domain.Prediction{}, fmt.Errorf("model returned %d scores for %d classes", len(logits), c.classes.Len())
	}

	probs := Softmax(logits)
	idx := ArgMax(probs)
	label, ok := c.classes.Name(idx)
	if !ok {
		return domain.Prediction{}, fmt.Errorf("class index %d has no label", idx)
	}

	dist := make(map[string]float32, len(probs))
	for i, p := range probs {
		if name, ok := c.classes.Name(i); ok {
			dist[name] = p
		}
	}
	observability.ObservePrediction(label)

	return domain.Prediction{
		Label:         label,
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: dist,
	}, nil
}

func (c *Classifier) Close() {
	if c.engine != nil {
		c.engine.Close()
	}
}

// Softmax is the max-shifted softmax over logits.
func Softmax(logits []float32) []float32 {
	out := make([]float32, len(logits))
	if len(logits) == 0 {
		return out
	}
	maxLogit := logits[0]
	for _, v := range logits[1:] {
		if v > maxLogit {
			maxLogit = v
		}
	}
	var sum float64
	exps := make([]float64, len(logits))
	for i, v := range logits {
		exps[i] = math.Exp(float64(v - maxLogit))
		sum += exps[i]
	}
	for i := range exps {
		out[i] = float32(exps[i] / sum)
	}
	return out
}

// ArgMax returns the first index holding the largest value.
func ArgMax(v []float32) int {
	idx := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[idx] {
			idx = i
		}
	}
	return idx
}
