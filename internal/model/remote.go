package model

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/offer-predictor/internal/logger"
	"github.com/spigell/offer-predictor/internal/secrets"
)

const (
	contentType      = "application/json"
	contentEncoding  = "gzip"
	userAgent        = "offer-predictor"
	defaultTimeout   = 5 * time.Second
	maxLoggedBodyLen = 200
)

type remoteSpec struct {
	URL       string        `json:"url"`
	Timeout   time.Duration `json:"timeout"`
	TokenFile string        `json:"token_file"`
	TokenEnv  string        `json:"token_env"`
}

// Remote scores feature rows on an external inference endpoint, e.g. a Python
// sidecar serving a pickled scikit-learn estimator.
type Remote struct {
	URL        string
	UserAgent  string
	HTTPClient *http.Client

	token string
}

type scoreRequest struct {
	Instances [][]float64 `json:"instances"`
}

type scoreResponse struct {
	Probabilities [][]float64 `json:"probabilities"`
}

func newRemote(raw map[string]any, baseDir string) (*Remote, error) {
	var spec remoteSpec
	if err := decode(raw, &spec); err != nil {
		return nil, err
	}

	spec.URL = strings.TrimSpace(spec.URL)
	if spec.URL == "" {
		return nil, fmt.Errorf("%w: url is required for remote model", ErrMalformed)
	}
	if spec.Timeout <= 0 {
		spec.Timeout = defaultTimeout
	}

	r := &Remote{
		URL:       spec.URL,
		UserAgent: userAgent,
		HTTPClient: &http.Client{
			Timeout: spec.Timeout,
		},
	}

	tokenFile := strings.TrimSpace(spec.TokenFile)
	if tokenFile != "" && !filepath.IsAbs(tokenFile) {
		tokenFile = filepath.Join(baseDir, tokenFile)
	}

	src := secrets.Source{Name: "remote model token", File: tokenFile, Env: spec.TokenEnv}
	if src.Configured() {
		token, err := secrets.Load(src)
		if err != nil {
			return nil, err
		}
		r.token = token
	}

	return r, nil
}

// PredictProba posts a single instance and returns the first row of probabilities.
func (r *Remote) PredictProba(ctx context.Context, features []float64) ([]float64, error) {
	payload, err := json.Marshal(scoreRequest{Instances: [][]float64{features}})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req = r.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling remote model: %w", err)
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote model bad status: %s: %s", resp.Status, logger.TruncateForLog(string(data), maxLoggedBodyLen))
	}

	var response scoreResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("decoding remote model response: %w", err)
	}

	if len(response.Probabilities) == 0 {
		return nil, fmt.Errorf("remote model returned no probabilities")
	}

	return response.Probabilities[0], nil
}

func (r *Remote) setHeaders(req *http.Request) *http.Request {
	if r.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.token))
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}
