package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PostGradType string

const (
	PostGradWork       PostGradType = "work"
	PostGradSchool     PostGradType = "school"
	PostGradSeeking    PostGradType = "seeking"
	PostGradInternship PostGradType = "internship"
)

// ParsePostGradType accepts the four stored post-grad types.
func ParsePostGradType(s string) (PostGradType, bool) {
	switch t := PostGradType(s); t {
	case PostGradWork, PostGradSchool, PostGradSeeking, PostGradInternship:
		return t, true
	}
	return "", false
}

// IsWorkVariant reports whether the type carries company/title/industry.
func (t PostGradType) IsWorkVariant() bool {
	return t == PostGradWork || t == PostGradInternship
}

// Details is the post-grad variant of a profile. Exactly one variant is set
// per profile and it determines which field group is populated.
type Details interface {
	Type() PostGradType
	validate(ve *ValidationError)
}

// WorkDetails covers full-time work and, for underclassmen, internships.
type WorkDetails struct {
	Internship bool   `json:"-"`
	Company    string `json:"company" validate:"required,max=200"`
	Title      string `json:"title" validate:"required,max=200"`
	Industry   string `json:"industry" validate:"required,industry"`
}

func (d WorkDetails) Type() PostGradType {
	if d.Internship {
		return PostGradInternship
	}
	return PostGradWork
}

func (d WorkDetails) validate(ve *ValidationError) { validateStruct(d, ve) }

type SchoolDetails struct {
	School     string `json:"school" validate:"required,max=200"`
	Program    string `json:"program" validate:"required,max=200"`
	Discipline string `json:"discipline" validate:"max=200"`
}

func (SchoolDetails) Type() PostGradType { return PostGradSchool }

func (d SchoolDetails) validate(ve *ValidationError) { validateStruct(d, ve) }

// SeekingDetails populates neither field group.
type SeekingDetails struct{}

func (SeekingDetails) Type() PostGradType { return PostGradSeeking }

func (SeekingDetails) validate(*ValidationError) {}

// Visibility keys recognized on a profile.
const (
	VisibilityCompany    = "company"
	VisibilityTitle      = "title"
	VisibilitySchool     = "school"
	VisibilityProgram    = "program"
	VisibilityInternship = "internship"
)

var visibilityKeys = map[string]bool{
	VisibilityCompany:    true,
	VisibilityTitle:      true,
	VisibilitySchool:     true,
	VisibilityProgram:    true,
	VisibilityInternship: true,
}

// IsVisibilityKey reports whether key is a recognized visibility key.
func IsVisibilityKey(key string) bool {
	return visibilityKeys[key]
}

// EditableVisibilityKeys returns the keys a user of the given type may toggle.
func EditableVisibilityKeys(t PostGradType) []string {
	switch {
	case t.IsWorkVariant():
		return []string{VisibilityCompany, VisibilityTitle}
	case t == PostGradSchool:
		return []string{VisibilitySchool, VisibilityProgram}
	}
	return nil
}

// VisibilityOptions maps a field name to whether other users may see it.
// Unset keys are visible.
type VisibilityOptions map[string]bool

// IsVisible defaults to true for keys that were never set.
func (v VisibilityOptions) IsVisible(key string) bool {
	visible, ok := v[key]
	return !ok || visible
}

// Value stores the options as JSONB.
func (v VisibilityOptions) Value() (driver.Value, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]bool(v))
}

// Scan reads JSONB written by Value.
func (v *VisibilityOptions) Scan(src interface{}) error {
	var data []byte
	switch s := src.(type) {
	case nil:
		*v = VisibilityOptions{}
		return nil
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("visibility options: unsupported type %T", src)
	}
	m := map[string]bool{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("visibility options: %w", err)
	}
	*v = m
	return nil
}

// Profile is a graduate's directory record.
type Profile struct {
	ID                 uuid.UUID
	Name               string
	Image              *string
	InstitutionalEmail string
	PersonalEmail      *string
	ClassYear          *int
	Details            Details
	Location           *Location
	LocationID         *uuid.UUID
	LookingForRoommate bool
	IsOnboarded        bool
	OnboardingStep     Step
	Visibility         VisibilityOptions
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewProfile builds the minimal record created at first sign-in.
func NewProfile(name, institutionalEmail string, image *string) *Profile {
	return &Profile{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(name),
		Image:              image,
		InstitutionalEmail: strings.ToLower(strings.TrimSpace(institutionalEmail)),
		OnboardingStep:     StepClassYear,
		Visibility:         VisibilityOptions{},
	}
}

// PostGradType returns the discriminator, or "" before the type step.
func (p *Profile) PostGradType() PostGradType {
	if p.Details == nil {
		return ""
	}
	return p.Details.Type()
}

// ResumeStep is the onboarding page to show this profile. A finished profile
// always resumes at StepComplete whatever checkpoint is stored.
func (p *Profile) ResumeStep() Step {
	if p.IsOnboarded {
		return StepComplete
	}
	return ResumeStep(int(p.OnboardingStep))
}

// Work returns the work variant, if any.
func (p *Profile) Work() (WorkDetails, bool) {
	d, ok := p.Details.(WorkDetails)
	return d, ok
}

// School returns the school variant, if any.
func (p *Profile) School() (SchoolDetails, bool) {
	d, ok := p.Details.(SchoolDetails)
	return d, ok
}

// Validate checks the invariants every onboarded profile must hold.
func (p *Profile) Validate() error {
	ve := &ValidationError{}

	if strings.TrimSpace(p.Name) == "" {
		ve.Add("name", "is required")
	}
	if p.PersonalEmail != nil && *p.PersonalEmail != "" {
		if err := validate.Var(*p.PersonalEmail, "email"); err != nil {
			ve.Add("personalEmail", "must be a valid email address")
		}
	}
	if p.ClassYear == nil {
		ve.Add("classYear", "is required")
	}
	if p.Details == nil {
		ve.Add("postGradType", "is required")
	} else {
		p.Details.validate(ve)
		if p.Details.Type() != PostGradSeeking {
			if p.Location == nil {
				ve.Add("location", "is required")
			} else {
				p.Location.validate(ve)
			}
		}
	}
	for key := range p.Visibility {
		if !IsVisibilityKey(key) {
			ve.Add("visibilityOptions", "unknown key "+key)
		}
	}

	return ve.OrNil()
}

// PublicView returns a copy with hidden fields blanked for viewers other
// than the owner.
func (p *Profile) PublicView() *Profile {
	out := *p
	out.PersonalEmail = nil

	switch d := p.Details.(type) {
	case WorkDetails:
		if !p.Visibility.IsVisible(VisibilityCompany) {
			d.Company = ""
		}
		if !p.Visibility.IsVisible(VisibilityTitle) {
			d.Title = ""
		}
		out.Details = d
	case SchoolDetails:
		if !p.Visibility.IsVisible(VisibilitySchool) {
			d.School = ""
		}
		if !p.Visibility.IsVisible(VisibilityProgram) {
			d.Program = ""
		}
		out.Details = d
	}
	return &out
}

// ValidateDetails checks the required fields of a single variant.
func ValidateDetails(d Details) error {
	ve := &ValidationError{}
	if d == nil {
		ve.Add("postGradType", "is required")
	} else {
		d.validate(ve)
	}
	return ve.OrNil()
}
