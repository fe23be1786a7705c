// Package projects validates and normalizes the project creation and edit forms, computes
// edit diffs and keeps unsent drafts.
package projects

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Input is the project form as filled in by a manager.
type Input struct {
	Name             string               `json:"name"            validate:"required"`
	Description      string               `json:"description"     validate:"required,min=10"`
	ClientName       string               `json:"client_name"`
	RoleTitle        string               `json:"role_title"`
	RequiredSeats    int                  `json:"required_seats"  validate:"gte=1"`
	SeatsByType      map[string]int       `json:"seats_by_type"   validate:"omitempty,dive,gte=0"`
	StartDate        time.Time            `json:"start_date"      validate:"required"`
	EndDate          time.Time            `json:"end_date"        validate:"required,gtefield=StartDate"`
	Status           models.ProjectStatus `json:"status"`
	Priority         models.Priority      `json:"priority"        validate:"omitempty,oneof=low medium high"`
	RequiredSkills   []string             `json:"required_skills"`
	NiceToHaveSkills []string             `json:"nice_to_have_skills"`
	RoleType         string               `json:"role_type"`
	Industry         string               `json:"industry"`
	GeoPreference    string               `json:"geo_preference"`
	Budget           decimal.NullDecimal  `json:"budget"          validate:"omitempty,gte=0"`
	ProjectManager   string               `json:"project_manager"`
}

// FieldErrors maps a form field to its validation message.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return "invalid project: " + strings.Join(parts, "; ")
}

// Validator checks project forms.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator that reports fields by their json names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	v.RegisterCustomTypeFunc(nullDecimalValue, decimal.NullDecimal{})
	return &Validator{validate: v}
}

func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}

func nullDecimalValue(field reflect.Value) any {
	if nd, ok := field.Interface().(decimal.NullDecimal); ok && nd.Valid {
		f, _ := nd.Decimal.Float64()
		return f
	}
	return nil
}

// Validate returns nil for a valid form, or the message of every failing field.
func (v *Validator) Validate(in Input) FieldErrors {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"form": err.Error()}
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if strings.Contains(fe.Namespace(), "[") {
			field = "seats_by_type"
		}
		if _, seen := fields[field]; !seen {
			fields[field] = message(fe)
		}
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gtefield":
		return "must not be before the start date"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid"
	}
}

// Notes are observations about a normalized form that do not block submission.
type Notes struct {
	SeatsMismatch bool
	RequiredSeats int
	SeatsByType   int
}

// Normalize fills derived fields: an unknown priority becomes medium, an empty status
// becomes Open. The seats-by-type total is reported next to required seats when they differ.
func Normalize(in Input) (Input, Notes) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if !models.ValidPriority(in.Priority) {
		in.Priority = models.PriorityMedium
	}
	if in.Status == "" {
		in.Status = models.ProjectOpen
	}
	in.RequiredSkills = cleanList(in.RequiredSkills)
	in.NiceToHaveSkills = cleanList(in.NiceToHaveSkills)

	mismatch, required, byType := in.Project().SeatsMismatch()
	return in, Notes{SeatsMismatch: mismatch, RequiredSeats: required, SeatsByType: byType}
}

func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Project converts the form into the backend payload.
func (in Input) Project() models.Project {
	return models.Project{
		Name:             in.Name,
		Description:      in.Description,
		ClientName:       in.ClientName,
		RoleTitle:        in.RoleTitle,
		RequiredSeats:    in.RequiredSeats,
		SeatsByType:      in.SeatsByType,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		Status:           in.Status,
		Priority:         in.Priority,
		RequiredSkills:   in.RequiredSkills,
		NiceToHaveSkills: in.NiceToHaveSkills,
		RoleType:         in.RoleType,
		Industry:         in.Industry,
		GeoPreference:    in.GeoPreference,
		DurationWeeks:    models.DurationWeeks(in.StartDate, in.EndDate),
		Budget:           in.Budget,
		ProjectManager:   in.ProjectManager,
	}
}

// FromProject fills the edit form from a stored project.
func FromProject(p models.Project) Input {
	return Input{
		Name:             p.Name,
		Description:      p.Description,
		ClientName:       p.ClientName,
		RoleTitle:        p.RoleTitle,
		RequiredSeats:    p.RequiredSeats,
		SeatsByType:      p.SeatsByType,
		StartDate:        p.StartDate,
		EndDate:          p.EndDate,
		Status:           p.Status,
		Priority:         p.Priority,
		RequiredSkills:   p.RequiredSkills,
		NiceToHaveSkills: p.NiceToHaveSkills,
		RoleType:         p.RoleType,
		Industry:         p.Industry,
		GeoPreference:    p.GeoPreference,
		Budget:           p.Budget,
		ProjectManager:   p.ProjectManager,
	}
}
