package server

import (
	"bytes"
	"embed"
	"html/template"

	"github.com/spigell/offer-predictor/internal/candidate"
	"github.com/spigell/offer-predictor/internal/metrics"
	"github.com/spigell/offer-predictor/internal/predictor"
)

//go:embed templates/index.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const leftColumnFields = 3

var aboutModel = []string{
	"Trained on 1,000+ synthetic profiles",
	"Uses: experience, CTC gap, job search duration",
	"Ideal for IT, Sales, HR roles in India",
}

type pageData struct {
	PageTitle string
	Heading   string
	Subtitle  string
	Accuracy  string
	F1        string
	About     []string
	Tip       string
	Columns   [][]fieldView
	Banner    *banner
	Insight   string
	Caption   string
}

type fieldView struct {
	Name    string
	Label   string
	Widget  candidate.Widget
	Min     int
	Max     int
	Value   int
	Options []optionView
}

type optionView struct {
	Name     string
	Selected bool
}

type banner struct {
	Level predictor.Level
	Icon  string
	Text  string
}

func newPageData(m metrics.Metrics, profile candidate.Profile) *pageData {
	values := profile.Values()

	fields := candidate.Fields()
	views := make([]fieldView, 0, len(fields))
	for _, f := range fields {
		view := fieldView{
			Name:   f.Name,
			Label:  f.Label,
			Widget: f.Widget,
			Min:    f.Min,
			Max:    f.Max,
			Value:  values[f.Name],
		}
		for _, name := range f.Options {
			view.Options = append(view.Options, optionView{Name: name, Selected: name == profile.Role.String()})
		}
		views = append(views, view)
	}

	return &pageData{
		PageTitle: "Offer Acceptance Predictor",
		Heading:   "AI Offer Acceptance Predictor for Recruiters",
		Subtitle:  "Predict if a candidate will accept your job offer before you send it!",
		Accuracy:  m.AccuracyPercent(),
		F1:        m.F1(),
		About:     aboutModel,
		Tip:       "💡 Tip: Lower CTC gap → higher acceptance!",
		Columns:   [][]fieldView{views[:leftColumnFields], views[leftColumnFields:]},
		Caption:   "Made for Indian recruiters",
	}
}

func (d *pageData) withPrediction(p *predictor.Prediction, insight string) *pageData {
	d.Banner = &banner{
		Level: p.Tier.Level(),
		Icon:  p.Tier.Icon(),
		Text:  p.Message(),
	}
	d.Insight = insight
	return d
}

func (d *pageData) withError(err error) *pageData {
	d.Banner = &banner{
		Level: predictor.LevelError,
		Icon:  "❌",
		Text:  err.Error(),
	}
	return d
}

func renderPage(data *pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
