package candidate

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a form value falls outside its widget bounds.
var ErrOutOfRange = errors.New("value out of range")

// Widget is the kind of input control a field is rendered with.
type Widget string

const (
	WidgetSlider Widget = "slider"
	WidgetNumber Widget = "number"
	WidgetSelect Widget = "select"
)

const (
	FieldExperience  = "experience"
	FieldCurrentCTC  = "current_ctc"
	FieldExpectedCTC = "expected_ctc"
	FieldDaysSearch  = "days_search"
	FieldAppsCount   = "apps_count"
	FieldRole        = "role"
)

// Field describes one bounded input of the candidate form.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Widget  Widget   `json:"widget"`
	Min     int      `json:"min,omitempty"`
	Max     int      `json:"max,omitempty"`
	Default any      `json:"default"`
	Options []string `json:"options,omitempty"`
}

// Contains reports whether v lies inside the field bounds, inclusive.
func (f Field) Contains(v int) bool {
	return v >= f.Min && v <= f.Max
}

var numericFields = []Field{
	{Name: FieldExperience, Label: "Years of Experience", Widget: WidgetSlider, Min: 0, Max: 15, Default: 3},
	{Name: FieldCurrentCTC, Label: "Current CTC (LPA)", Widget: WidgetNumber, Min: 3, Max: 30, Default: 6},
	{Name: FieldExpectedCTC, Label: "Expected CTC (LPA)", Widget: WidgetNumber, Min: 4, Max: 40, Default: 8},
	{Name: FieldDaysSearch, Label: "Days in Job Search", Widget: WidgetSlider, Min: 1, Max: 180, Default: 30},
	{Name: FieldAppsCount, Label: "Jobs Applied To", Widget: WidgetSlider, Min: 1, Max: 20, Default: 5},
}

// Fields returns the form inputs in feature order, the role select last.
func Fields() []Field {
	fields := make([]Field, 0, len(numericFields)+1)
	fields = append(fields, numericFields...)
	fields = append(fields, Field{
		Name:    FieldRole,
		Label:   "Role Type",
		Widget:  WidgetSelect,
		Default: RoleIT.String(),
		Options: RoleNames(),
	})

	return fields
}

// Profile holds the recruiter-entered values for one candidate.
type Profile struct {
	Experience  int  `json:"experience"`
	CurrentCTC  int  `json:"current_ctc"`
	ExpectedCTC int  `json:"expected_ctc"`
	DaysSearch  int  `json:"days_search"`
	AppsCount   int  `json:"apps_count"`
	Role        Role `json:"role"`
}

// DefaultProfile returns the values the form starts with.
func DefaultProfile() Profile {
	return Profile{
		Experience:  3,
		CurrentCTC:  6,
		ExpectedCTC: 8,
		DaysSearch:  30,
		AppsCount:   5,
		Role:        RoleIT,
	}
}

// Values returns the numeric fields keyed by field name.
func (p Profile) Values() map[string]int {
	return map[string]int{
		FieldExperience:  p.Experience,
		FieldCurrentCTC:  p.CurrentCTC,
		FieldExpectedCTC: p.ExpectedCTC,
		FieldDaysSearch:  p.DaysSearch,
		FieldAppsCount:   p.AppsCount,
	}
}

// Set assigns a numeric field by name.
func (p *Profile) Set(name string, v int) error {
	switch name {
	case FieldExperience:
		p.Experience = v
	case FieldCurrentCTC:
		p.CurrentCTC = v
	case FieldExpectedCTC:
		p.ExpectedCTC = v
	case FieldDaysSearch:
		p.DaysSearch = v
	case FieldAppsCount:
		p.AppsCount = v
	default:
		return fmt.Errorf("unknown field %q", name)
	}

	return nil
}

// Validate checks every value against its widget range. Values are not checked
// against each other, so an expected CTC below the current one is accepted.
func (p Profile) Validate() error {
	values := p.Values()
	for _, f := range numericFields {
		v := values[f.Name]
		if !f.Contains(v) {
			return fmt.Errorf("%w: %s must be between %d and %d, got %d", ErrOutOfRange, f.Label, f.Min, f.Max, v)
		}
	}

	if !p.Role.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownRole, int(p.Role))
	}

	return nil
}

// Features builds the classifier input row:
// [experience, current_ctc, expected_ctc, days_search, apps_count, role_code].
func (p Profile) Features() []float64 {
	return []float64{
		float64(p.Experience),
		float64(p.CurrentCTC),
		float64(p.ExpectedCTC),
		float64(p.DaysSearch),
		float64(p.AppsCount),
		float64(p.Role.Code()),
	}
}
