package cmd

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/logger"
	"github.com/spigell/offer-predictor/internal/metrics"
	"github.com/spigell/offer-predictor/internal/model"
)

// artifacts are loaded once at startup and shared read-only afterwards.
type artifacts struct {
	model      *model.Model
	classifier model.Classifier
	cache      *model.Cached
	metrics    metrics.Metrics
}

func loadArtifacts(config *Config, log *zap.Logger) (*artifacts, error) {
	if config == nil || config.Model == nil || config.Metrics == nil {
		return nil, errors.New("model and metrics configuration is required")
	}

	m, err := model.Load(config.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("loading model: %w", err)
	}

	mtr, err := metrics.Load(config.Metrics.Path)
	if err != nil {
		return nil, fmt.Errorf("loading metrics: %w", err)
	}

	a := &artifacts{
		model:      m,
		classifier: m,
		metrics:    mtr,
	}

	if config.Model.CacheSize > 0 {
		a.cache = model.NewCached(m, config.Model.CacheSize)
		a.classifier = a.cache
	}

	logger.WithModelFields(log, m.Kind, m.Path).Info("artifacts loaded",
		zap.Int("features", m.NumFeatures),
		zap.Strings("feature_names", m.FeatureNames),
		zap.String("accuracy", mtr.AccuracyPercent()),
		zap.String("f1_score", mtr.F1()),
		zap.Bool("cache", a.cache != nil),
	)

	return a, nil
}
