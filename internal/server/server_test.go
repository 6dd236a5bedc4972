package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/offer-predictor/internal/metrics"
	"github.com/spigell/offer-predictor/internal/model"
	"github.com/spigell/offer-predictor/internal/predictor"
)

type fakeModel struct {
	proba []float64
	err   error
	last  []float64
}

func (f *fakeModel) PredictProba(_ context.Context, features []float64) ([]float64, error) {
	f.last = features
	return f.proba, f.err
}

var testMetrics = metrics.Metrics{Accuracy: 0.87, F1Score: 0.8149}

func newTestServer(t *testing.T, m model.Classifier) *Server {
	t.Helper()
	return New(Options{ModelKind: "fake"}, predictor.New(m, testMetrics, zap.NewNop()), zap.NewNop())
}

func do(t *testing.T, s *Server, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}

	return resp, string(body)
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func postJSON(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestIndexRendersFormAndMetrics(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeModel{proba: []float64{0.5, 0.5}})
	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	for _, want := range []string{
		"<strong>Accuracy:</strong> 87%",
		"<strong>F1 Score:</strong> 0.81",
		`name="experience" min="0" max="15" step="1" value="3"`,
		`name="current_ctc" min="3" max="30" step="1" value="6"`,
		`name="expected_ctc" min="4" max="40" step="1" value="8"`,
		`name="days_search" min="1" max="180" step="1" value="30"`,
		`name="apps_count" min="1" max="20" step="1" value="5"`,
		`<option value="IT" selected>IT</option>`,
		`<option value="Operations">Operations</option>`,
		"Predict Acceptance",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected page to contain %q", want)
		}
	}

	if strings.Contains(body, `role="status"`) {
		t.Fatalf("did not expect a result banner before the predict action")
	}
}

func TestIndexPrefillFromQuery(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeModel{proba: []float64{0.5, 0.5}})

	_, body := do(t, s, httptest.NewRequest(http.MethodGet, "/?experience=9&role=HR", nil))
	if !strings.Contains(body, `name="experience" min="0" max="15" step="1" value="9"`) {
		t.Fatalf("expected experience prefilled")
	}
	if !strings.Contains(body, `<option value="HR" selected>HR</option>`) {
		t.Fatalf("expected HR selected")
	}

	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/?experience=99", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "must be between 0 and 15") {
		t.Fatalf("expected range error banner")
	}
}

func TestPredictFormBanners(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		proba  []float64
		level  string
		banner string
	}{
		{name: "high", proba: []float64{0.1, 0.9}, level: "success", banner: "High Chance: 90% likelihood to accept"},
		{name: "moderate boundary", proba: []float64{0.3, 0.7}, level: "warning", banner: "Moderate Chance: 70%"},
		{name: "low boundary", proba: []float64{0.6, 0.4}, level: "error", banner: "Low Chance: 40% - consider negotiation"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, &fakeModel{proba: tt.proba})

			resp, body := do(t, s, postForm(url.Values{"experience": {"3"}, "role": {"Sales"}}))
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200, got %d", resp.StatusCode)
			}
			if !strings.Contains(body, `class="banner `+tt.level+`" role="status"`) {
				t.Fatalf("expected %s banner", tt.level)
			}
			if !strings.Contains(body, tt.banner) {
				t.Fatalf("expected banner text %q", tt.banner)
			}
			if !strings.Contains(body, "F1 Score: 0.81 - balances precision &amp; recall") {
				t.Fatalf("expected F1 insight")
			}
		})
	}
}

func TestPredictFormEncodesRole(t *testing.T) {
	t.Parallel()

	fake := &fakeModel{proba: []float64{0.5, 0.5}}
	s := newTestServer(t, fake)

	do(t, s, postForm(url.Values{
		"experience":   {"10"},
		"current_ctc":  {"20"},
		"expected_ctc": {"15"},
		"days_search":  {"100"},
		"apps_count":   {"12"},
		"role":         {"Operations"},
	}))

	expect := []float64{10, 20, 15, 100, 12, 4}
	if len(fake.last) != len(expect) {
		t.Fatalf("expected features %v, got %v", expect, fake.last)
	}
	for i := range expect {
		if fake.last[i] != expect[i] {
			t.Fatalf("expected features %v, got %v", expect, fake.last)
		}
	}
}

func TestPredictFormErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		model  *fakeModel
		values url.Values
		status int
		expect string
	}{
		{name: "not a number", model: &fakeModel{proba: []float64{0.5, 0.5}}, values: url.Values{"apps_count": {"many"}}, status: http.StatusBadRequest, expect: "must be a whole number"},
		{name: "out of range", model: &fakeModel{proba: []float64{0.5, 0.5}}, values: url.Values{"days_search": {"181"}}, status: http.StatusBadRequest, expect: "must be between 1 and 180"},
		{name: "unknown role", model: &fakeModel{proba: []float64{0.5, 0.5}}, values: url.Values{"role": {"Legal"}}, status: http.StatusBadRequest, expect: "unknown role"},
		{name: "model failure", model: &fakeModel{err: model.ErrFeatureShape}, values: url.Values{}, status: http.StatusUnprocessableEntity, expect: "inference failed"},
		{name: "bad model output", model: &fakeModel{proba: []float64{1}}, values: url.Values{}, status: http.StatusUnprocessableEntity, expect: "inference failed"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, tt.model)

			resp, body := do(t, s, postForm(tt.values))
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if !strings.Contains(body, `class="banner error" role="status"`) || !strings.Contains(body, tt.expect) {
				t.Fatalf("expected error banner containing %q", tt.expect)
			}
		})
	}
}

func TestAPIPredict(t *testing.T) {
	t.Parallel()

	fake := &fakeModel{proba: []float64{0.45, 0.55}}
	s := newTestServer(t, fake)

	resp, body := do(t, s, postJSON(`{"experience": 5, "role": "Finance"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var payload predictResponse
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}

	if payload.Tier != predictor.TierModerate || payload.Percent != "55%" || payload.Level != predictor.LevelWarning {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.ID == "" || payload.F1Score != "0.81" || payload.Message != "Moderate Chance: 55%" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Profile.CurrentCTC != 6 || payload.Profile.Experience != 5 {
		t.Fatalf("expected omitted fields to take defaults: %+v", payload.Profile)
	}
	if fake.last[5] != 3 {
		t.Fatalf("expected Finance to encode as 3, got %v", fake.last[5])
	}
}

func TestAPIPredictErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		model  *fakeModel
		req    *http.Request
		status int
	}{
		{name: "invalid json", model: &fakeModel{proba: []float64{0.5, 0.5}}, req: postJSON(`{"experience":`), status: http.StatusBadRequest},
		{name: "unknown role", model: &fakeModel{proba: []float64{0.5, 0.5}}, req: postJSON(`{"role": "Legal"}`), status: http.StatusBadRequest},
		{name: "out of range", model: &fakeModel{proba: []float64{0.5, 0.5}}, req: postJSON(`{"expected_ctc": 3}`), status: http.StatusBadRequest},
		{name: "inference", model: &fakeModel{err: errors.New("boom")}, req: postJSON(`{}`), status: http.StatusUnprocessableEntity},
		{
			name:   "no content type",
			model:  &fakeModel{proba: []float64{0.5, 0.5}},
			req:    httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{}`)),
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, tt.model)

			resp, body := do(t, s, tt.req)
			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, resp.StatusCode, body)
			}

			var payload map[string]any
			if err := json.Unmarshal([]byte(body), &payload); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if payload["error"] == "" || payload["code"].(float64) != float64(tt.status) {
				t.Fatalf("unexpected error payload: %v", payload)
			}
		})
	}
}

func TestAPIMetricsAndForm(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeModel{proba: []float64{0.5, 0.5}})

	_, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	var m metricsResponse
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if m.Accuracy != 0.87 || m.F1Score != 0.8149 || m.AccuracyDisplay != "87%" || m.F1Display != "0.81" {
		t.Fatalf("unexpected metrics: %+v", m)
	}

	_, body = do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/form", nil))
	var f struct {
		Fields []map[string]any `json:"fields"`
		Roles  []string         `json:"roles"`
	}
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(f.Fields) != 6 || len(f.Roles) != 5 || f.Roles[0] != "IT" {
		t.Fatalf("unexpected form: %+v", f)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	stats := func() model.CacheStats { return model.CacheStats{Entries: 2} }
	s := New(Options{ModelKind: "random_forest", CacheStats: stats},
		predictor.New(&fakeModel{}, testMetrics, nil), nil)

	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if payload["status"] != "healthy" || payload["model"] != "random_forest" {
		t.Fatalf("unexpected health payload: %v", payload)
	}
	if cache, ok := payload["cache"].(map[string]any); !ok || cache["entries"].(float64) != 2 {
		t.Fatalf("expected cache stats, got %v", payload["cache"])
	}
}

func TestNotFoundUsesJSONErrorHandler(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, &fakeModel{})
	resp, body := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, `"code":404`) {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestAccessLog(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.InfoLevel)
	s := New(Options{}, predictor.New(&fakeModel{proba: []float64{0.5, 0.5}}, testMetrics, nil), zap.New(core))

	resp, _ := do(t, s, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}

	entries := observed.FilterMessage("request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["path"] != "/api/v1/metrics" || ctx["status"] != int64(200) {
		t.Fatalf("unexpected access log fields: %v", ctx)
	}
	if ctx["request_id"] != resp.Header.Get("X-Request-ID") {
		t.Fatalf("expected request id %q in log, got %v", resp.Header.Get("X-Request-ID"), ctx["request_id"])
	}
}
