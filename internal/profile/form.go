// Package profile parses and validates the employee profile dialog.
package profile

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/go-playground/validator/v10"
)

// Employment types accepted by the backend.
const (
	EmploymentFullTime = "Full-time"
	EmploymentContract = "Contract"
)

// EmploymentTypes lists the employment types in display order.
var EmploymentTypes = []string{EmploymentFullTime, EmploymentContract}

// ErrInvalidAnswer is returned when a dialog answer cannot be parsed.
var ErrInvalidAnswer = errors.New("invalid answer")

// Form is the profile being created or edited.
type Form struct {
	Geo               string   `json:"geo"                 validate:"required"`
	Skills            []string `json:"skills"              validate:"required,min=1,dive,required"`
	YearsOfExperience int      `json:"years_of_experience" validate:"gte=0,lte=60"`
	Industry          string   `json:"industry"            validate:"required"`
	EmploymentType    string   `json:"employment_type"     validate:"required,oneof=Full-time Contract"`
	AvailabilityFlag  bool     `json:"availability_flag"`
	DateOfJoining     string   `json:"date_of_joining"     validate:"omitempty,datetime=2006-01-02"`
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	return v
}

// Validate returns the message of every failing field, or nil.
func (f Form) Validate() map[string]string {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field, _, _ := strings.Cut(fe.Field(), "[")
		if _, seen := fields[field]; seen {
			continue
		}
		switch fe.Tag() {
		case "required", "min":
			fields[field] = "is required"
		case "lte", "gte":
			fields[field] = "must be between 0 and 60"
		case "oneof":
			fields[field] = "must be one of: " + strings.Join(EmploymentTypes, ", ")
		case "datetime":
			fields[field] = "must be a date like 2024-01-31"
		default:
			fields[field] = "is invalid"
		}
	}
	return fields
}

// FromProfile fills the form from a stored profile.
func FromProfile(p models.EmployeeProfile) Form {
	form := Form{
		Geo:               p.Geo,
		Skills:            append([]string{}, p.Skills...),
		YearsOfExperience: p.YearsOfExperience,
		Industry:          p.Industry,
		EmploymentType:    p.EmploymentType,
		AvailabilityFlag:  p.AvailabilityFlag,
	}
	if p.DateOfJoining != nil {
		form.DateOfJoining = p.DateOfJoining.Format(time.DateOnly)
	}
	return form
}

// Input converts the form into the backend payload.
func (f Form) Input() talentfit.ProfileInput {
	years := f.YearsOfExperience
	available := f.AvailabilityFlag
	return talentfit.ProfileInput{
		Geo:               f.Geo,
		Skills:            f.Skills,
		YearsOfExperience: &years,
		Industry:          f.Industry,
		AvailabilityFlag:  &available,
		EmploymentType:    f.EmploymentType,
		DateOfJoining:     f.DateOfJoining,
	}
}

// ParseSkills splits a comma separated answer, dropping blanks and duplicates.
func ParseSkills(answer string) []string {
	seen := make(map[string]struct{})
	var skills []string
	for _, part := range strings.Split(answer, ",") {
		skill := strings.TrimSpace(part)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, skill)
	}
	return skills
}

// ParseYears reads a years-of-experience answer.
func ParseYears(answer string) (int, error) {
	years, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidAnswer, answer)
	}
	return years, nil
}

// ParseDate reads an ISO date answer.
func ParseDate(answer string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, strings.TrimSpace(answer))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date like 2024-01-31", ErrInvalidAnswer, answer)
	}
	return date, nil
}

// ParseYesNo reads a yes/no answer.
func ParseYesNo(answer string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "true", "так":
		return true, nil
	case "no", "n", "false", "ні":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected yes or no", ErrInvalidAnswer)
	}
}
