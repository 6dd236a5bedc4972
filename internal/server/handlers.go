package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spigell/offer-predictor/internal/candidate"
	"github.com/spigell/offer-predictor/internal/predictor"
)

var errBadInput = errors.New("invalid input")

type predictResponse struct {
	ID          string            `json:"id"`
	Profile     candidate.Profile `json:"profile"`
	Probability float64           `json:"probability"`
	Percent     string            `json:"percent"`
	Tier        predictor.Tier    `json:"tier"`
	Level       predictor.Level   `json:"level"`
	Message     string            `json:"message"`
	Insight     string            `json:"insight"`
	F1Score     string            `json:"f1_score"`
}

type metricsResponse struct {
	Accuracy        float64 `json:"accuracy"`
	F1Score         float64 `json:"f1_score"`
	AccuracyDisplay string  `json:"accuracy_display"`
	F1Display       string  `json:"f1_display"`
}

type formResponse struct {
	Fields   []candidate.Field `json:"fields"`
	Roles    []string          `json:"roles"`
	Defaults candidate.Profile `json:"defaults"`
}

// handleIndex renders the form. Query parameters prefill the inputs.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	profile, err := parseProfile(c.Query)
	if err == nil {
		err = profile.Validate()
	}
	if err != nil {
		return s.sendPage(c, fiber.StatusBadRequest, newPageData(s.predictor.Metrics(), candidate.DefaultProfile()).withError(err))
	}

	return s.sendPage(c, fiber.StatusOK, newPageData(s.predictor.Metrics(), profile))
}

// handlePredictForm handles the form submission and re-renders the page with the verdict.
func (s *Server) handlePredictForm(c *fiber.Ctx) error {
	profile, err := parseProfile(c.FormValue)
	if err != nil {
		return s.sendPage(c, fiber.StatusBadRequest, newPageData(s.predictor.Metrics(), candidate.DefaultProfile()).withError(err))
	}

	data := newPageData(s.predictor.Metrics(), profile)

	prediction, err := s.predictor.Predict(c.UserContext(), profile)
	if err != nil {
		return s.sendPage(c, statusFor(err), data.withError(err))
	}

	return s.sendPage(c, fiber.StatusOK, data.withPrediction(prediction, s.predictor.Insight()))
}

func (s *Server) sendPage(c *fiber.Ctx, status int, data *pageData) error {
	body, err := renderPage(data)
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	response := fiber.Map{
		"status": "healthy",
		"time":   time.Now(),
	}
	if s.opts.ModelKind != "" {
		response["model"] = s.opts.ModelKind
	}
	if s.opts.CacheStats != nil {
		response["cache"] = s.opts.CacheStats()
	}

	return c.JSON(response)
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	m := s.predictor.Metrics()
	return c.JSON(metricsResponse{
		Accuracy:        m.Accuracy,
		F1Score:         m.F1Score,
		AccuracyDisplay: m.AccuracyPercent(),
		F1Display:       m.F1(),
	})
}

func (s *Server) handleForm(c *fiber.Ctx) error {
	return c.JSON(formResponse{
		Fields:   candidate.Fields(),
		Roles:    candidate.RoleNames(),
		Defaults: candidate.DefaultProfile(),
	})
}

// handlePredict handles POST /api/v1/predict. Omitted fields take the form defaults.
func (s *Server) handlePredict(c *fiber.Ctx) error {
	profile := candidate.DefaultProfile()
	if err := c.BodyParser(&profile); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": fmt.Sprintf("invalid request payload: %v", err),
			"code":  fiber.StatusBadRequest,
		})
	}

	prediction, err := s.predictor.Predict(c.UserContext(), profile)
	if err != nil {
		code := statusFor(err)
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}

	return c.JSON(predictResponse{
		ID:          prediction.ID,
		Profile:     prediction.Profile,
		Probability: prediction.Probability,
		Percent:     prediction.Percent(),
		Tier:        prediction.Tier,
		Level:       prediction.Tier.Level(),
		Message:     prediction.Message(),
		Insight:     s.predictor.Insight(),
		F1Score:     s.predictor.Metrics().F1(),
	})
}

// parseProfile reads the six form values through get, keeping defaults for
// empty ones.
func parseProfile(get func(key string, defaultValue ...string) string) (candidate.Profile, error) {
	profile := candidate.DefaultProfile()

	for _, f := range candidate.Fields() {
		if f.Widget == candidate.WidgetSelect {
			continue
		}

		raw := strings.TrimSpace(get(f.Name))
		if raw == "" {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil {
			return profile, fmt.Errorf("%w: %s must be a whole number, got %q", errBadInput, f.Label, raw)
		}

		if err := profile.Set(f.Name, v); err != nil {
			return profile, err
		}
	}

	if raw := strings.TrimSpace(get(candidate.FieldRole)); raw != "" {
		role, err := candidate.ParseRole(raw)
		if err != nil {
			return profile, err
		}
		profile.Role = role
	}

	return profile, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadInput),
		errors.Is(err, candidate.ErrOutOfRange),
		errors.Is(err, candidate.ErrUnknownRole):
		return fiber.StatusBadRequest
	case errors.Is(err, predictor.ErrInference):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
