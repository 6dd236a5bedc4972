// Package predictor turns a candidate profile into an offer-acceptance verdict.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/candidate"
	"github.com/spigell/offer-predictor/internal/logger"
	"github.com/spigell/offer-predictor/internal/metrics"
	"github.com/spigell/offer-predictor/internal/model"
)

const (
	acceptedClass = 1
	sumTolerance  = 1e-6
)

// ErrInference wraps every failure of the classifier call.
var ErrInference = errors.New("inference failed")

// Prediction is the outcome of one explicit predict action.
type Prediction struct {
	ID          string            `json:"id"`
	Profile     candidate.Profile `json:"profile"`
	Probability float64           `json:"probability"`
	Tier        Tier              `json:"tier"`
}

// Percent renders the probability as a whole percent.
func (p *Prediction) Percent() string {
	return Percent(p.Probability)
}

// Message is the banner text for the prediction.
func (p *Prediction) Message() string {
	return p.Tier.Message(p.Probability)
}

// Predictor holds the process-wide read-only model and metrics.
type Predictor struct {
	model   model.Classifier
	metrics metrics.Metrics
	logger  *zap.Logger
}

func New(classifier model.Classifier, m metrics.Metrics, log *zap.Logger) *Predictor {
	return &Predictor{
		model:   classifier,
		metrics: m,
		logger:  logger.WithFields(log),
	}
}

// Metrics returns the static model-quality figures.
func (p *Predictor) Metrics() metrics.Metrics {
	return p.metrics
}

// Insight is the info line shown under every result.
func (p *Predictor) Insight() string {
	return fmt.Sprintf("F1 Score: %s - balances precision & recall", p.metrics.F1())
}

// Predict validates the profile, scores it and buckets the acceptance
// probability. Classifier failures and panics come back as ErrInference.
func (p *Predictor) Predict(ctx context.Context, profile candidate.Profile) (*Prediction, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := logger.WithFields(p.logger, logger.StringFields(
		logger.StringField{Key: logger.FieldPredictionID, Value: id},
		logger.StringField{Key: logger.FieldRole, Value: profile.Role.String()},
	)...)

	prob, err := p.score(ctx, profile.Features())
	if err != nil {
		log.Warn("prediction failed", zap.Error(err))
		return nil, err
	}

	prediction := &Prediction{
		ID:          id,
		Profile:     profile,
		Probability: prob,
		Tier:        TierFor(prob),
	}

	log.Info("prediction",
		zap.Float64(logger.FieldProbability, prob),
		zap.String(logger.FieldTier, string(prediction.Tier)),
	)

	return prediction, nil
}

func (p *Predictor) score(ctx context.Context, features []float64) (prob float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: classifier panicked: %v", ErrInference, r)
		}
	}()

	proba, err := p.model.PredictProba(ctx, features)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInference, err)
	}

	if err := checkProba(proba); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInference, err)
	}

	return proba[acceptedClass], nil
}

func checkProba(proba []float64) error {
	if len(proba) != 2 {
		return fmt.Errorf("expected 2 class probabilities, got %d", len(proba))
	}

	var sum float64
	for i, v := range proba {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return fmt.Errorf("class %d probability %v outside [0,1]", i, v)
		}
		sum += v
	}

	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("class probabilities sum to %v", sum)
	}

	return nil
}
