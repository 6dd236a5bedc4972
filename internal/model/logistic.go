package model

import (
	"context"
	"fmt"
	"math"
)

type logistic struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func newLogistic(raw map[string]any, env envelope) (*logistic, error) {
	var l logistic
	if err := decode(raw, &l); err != nil {
		return nil, err
	}

	if len(l.Coefficients) != env.NumFeatures {
		return nil, fmt.Errorf("%w: %d coefficients for %d features", ErrMalformed, len(l.Coefficients), env.NumFeatures)
	}

	return &l, nil
}

func (l *logistic) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	z := l.Intercept
	for i, w := range l.Coefficients {
		z += w * features[i]
	}

	p := sigmoid(z)
	return []float64{1 - p, p}, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
