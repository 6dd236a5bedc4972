// Package model loads the exported offer-acceptance classifier and exposes it
// behind a predict-probability contract.
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	TypeLogisticRegression = "logistic_regression"
	TypeDecisionTree       = "decision_tree"
	TypeRandomForest       = "random_forest"
	TypeRemote             = "remote"
)

var (
	// ErrUnsupportedType is returned by Load for an unknown artifact type.
	ErrUnsupportedType = errors.New("unsupported model type")
	// ErrMalformed is returned by Load when the artifact is structurally invalid.
	ErrMalformed = errors.New("malformed model artifact")
	// ErrFeatureShape is returned at inference when the feature row has the wrong length.
	ErrFeatureShape = errors.New("feature vector shape mismatch")
)

// Classifier returns per-class probabilities for a single feature row.
type Classifier interface {
	PredictProba(ctx context.Context, features []float64) ([]float64, error)
}

// Model is a classifier loaded from an artifact file. It is read-only after
// Load and safe for concurrent use.
type Model struct {
	Kind         string
	Path         string
	NumFeatures  int
	FeatureNames []string
	Classes      []int

	classifier Classifier
}

type envelope struct {
	Type         string   `json:"type"`
	NumFeatures  int      `json:"n_features"`
	FeatureNames []string `json:"feature_names"`
	Classes      []int    `json:"classes"`
}

// Load reads the artifact at path and builds the classifier it describes.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model artifact %q: %w", path, err)
	}

	m, err := parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("model artifact %q: %w", path, err)
	}
	m.Path = path

	return m, nil
}

// Parse builds a model from artifact bytes. Relative file references are
// resolved against the working directory.
func Parse(data []byte) (*Model, error) {
	return parse(data, ".")
}

func parse(data []byte, baseDir string) (*Model, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var env envelope
	if err := decode(raw, &env); err != nil {
		return nil, err
	}

	env.Type = strings.TrimSpace(strings.ToLower(env.Type))
	if env.Type == "" {
		return nil, fmt.Errorf("%w: type is required", ErrMalformed)
	}
	if env.NumFeatures <= 0 {
		return nil, fmt.Errorf("%w: n_features must be positive, got %d", ErrMalformed, env.NumFeatures)
	}
	if len(env.Classes) == 0 {
		env.Classes = []int{0, 1}
	}
	if len(env.Classes) != 2 {
		return nil, fmt.Errorf("%w: binary classifier expected, got %d classes", ErrMalformed, len(env.Classes))
	}
	if len(env.FeatureNames) > 0 && len(env.FeatureNames) != env.NumFeatures {
		return nil, fmt.Errorf("%w: %d feature names for %d features", ErrMalformed, len(env.FeatureNames), env.NumFeatures)
	}

	var (
		classifier Classifier
		err        error
	)
	switch env.Type {
	case TypeLogisticRegression:
		classifier, err = newLogistic(raw, env)
	case TypeDecisionTree:
		classifier, err = newDecisionTree(raw, env)
	case TypeRandomForest:
		classifier, err = newRandomForest(raw, env)
	case TypeRemote:
		classifier, err = newRemote(raw, baseDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, env.Type)
	}
	if err != nil {
		return nil, err
	}

	return &Model{
		Kind:         env.Type,
		NumFeatures:  env.NumFeatures,
		FeatureNames: env.FeatureNames,
		Classes:      env.Classes,
		classifier:   classifier,
	}, nil
}

// PredictProba checks the row length and delegates to the underlying classifier.
func (m *Model) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	if len(features) != m.NumFeatures {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureShape, m.NumFeatures, len(features))
	}

	return m.classifier.PredictProba(ctx, features)
}

func decode(input any, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:     target,
		TagName:    "json",
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return nil
}
