// Package metrics reads the static model-quality figures shown next to every prediction.
package metrics

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/mitchellh/mapstructure"
)

const (
	KeyAccuracy = "Accuracy"
	KeyF1Score  = "F1_Score"
)

// ErrMalformed is returned when the metrics file cannot be used.
var ErrMalformed = errors.New("malformed metrics")

// Metrics is the evaluation summary produced when the model was trained.
type Metrics struct {
	Accuracy float64 `mapstructure:"Accuracy" json:"accuracy"`
	F1Score  float64 `mapstructure:"F1_Score" json:"f1_score"`
}

// Load reads the metrics file at path. Both Accuracy and F1_Score are required
// and must be numbers in [0,1]; other keys are ignored.
func Load(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metrics{}, fmt.Errorf("reading metrics file %q: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return Metrics{}, fmt.Errorf("metrics file %q: %w", path, err)
	}

	return m, nil
}

// Parse decodes metrics from a JSON object.
func Parse(data []byte) (Metrics, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Metrics{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	for _, key := range []string{KeyAccuracy, KeyF1Score} {
		if v, ok := raw[key]; ok && v == nil {
			return Metrics{}, fmt.Errorf("%w: %s is null", ErrMalformed, key)
		}
	}

	var m Metrics
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     &m,
		ErrorUnset: true,
	})
	if err != nil {
		return Metrics{}, err
	}

	if err := decoder.Decode(raw); err != nil {
		return Metrics{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := checkUnit(KeyAccuracy, m.Accuracy); err != nil {
		return Metrics{}, err
	}
	if err := checkUnit(KeyF1Score, m.F1Score); err != nil {
		return Metrics{}, err
	}

	return m, nil
}

func checkUnit(key string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be within [0,1], got %v", ErrMalformed, key, v)
	}
	return nil
}

// AccuracyPercent renders accuracy as a whole percent, e.g. "85%".
func (m Metrics) AccuracyPercent() string {
	return fmt.Sprintf("%.0f%%", m.Accuracy*100)
}

// F1 renders the F1 score with two decimals.
func (m Metrics) F1() string {
	return fmt.Sprintf("%.2f", m.F1Score)
}
