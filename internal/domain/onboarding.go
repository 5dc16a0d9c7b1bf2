package domain

import (
	"strings"
)

// Step is the persisted onboarding checkpoint.
type Step int

const (
	StepComplete     Step = -1
	StepClassYear    Step = 1
	StepPostGradType Step = 2
	StepDetails      Step = 3
	StepLocation     Step = 4
	StepVisibility   Step = 5
	StepReview       Step = 6
)

// ResumeStep maps a stored checkpoint to the page to show. Unknown values
// resume at the first step.
func ResumeStep(n int) Step {
	switch s := Step(n); s {
	case StepComplete, StepClassYear, StepPostGradType, StepDetails,
		StepLocation, StepVisibility, StepReview:
		return s
	}
	return StepClassYear
}

// ClassYearWindow returns the selectable class years for the given current
// year: the graduating class and the three classes after it.
func ClassYearWindow(currentYear int) []int {
	return []int{currentYear, currentYear + 1, currentYear + 2, currentYear + 3}
}

// Draft accumulates onboarding input across steps before it is committed.
type Draft struct {
	Step               Step              `json:"step"`
	ClassYear          *int              `json:"classYear,omitempty"`
	PersonalEmail      string            `json:"personalEmail,omitempty"`
	PostGradType       PostGradType      `json:"postGradType,omitempty"`
	Company            string            `json:"company,omitempty"`
	Title              string            `json:"title,omitempty"`
	Industry           string            `json:"industry,omitempty"`
	School             string            `json:"school,omitempty"`
	Program            string            `json:"program,omitempty"`
	Discipline         string            `json:"discipline,omitempty"`
	Country            string            `json:"country,omitempty"`
	State              string            `json:"state,omitempty"`
	City               string            `json:"city,omitempty"`
	BoroughDistrict    string            `json:"boroughDistrict,omitempty"`
	LookingForRoommate bool              `json:"lookingForRoommate"`
	Visibility         VisibilityOptions `json:"visibilityOptions,omitempty"`
}

// NewDraft starts an empty draft at the first step.
func NewDraft() *Draft {
	return &Draft{Step: StepClassYear}
}

// DraftFromProfile re-seeds a draft from whatever the profile already holds,
// so a lost draft cache resumes instead of starting over.
func DraftFromProfile(p *Profile) *Draft {
	d := &Draft{
		Step:               p.ResumeStep(),
		ClassYear:          p.ClassYear,
		LookingForRoommate: p.LookingForRoommate,
		Visibility:         VisibilityOptions{},
	}
	if p.PersonalEmail != nil {
		d.PersonalEmail = *p.PersonalEmail
	}
	for k, v := range p.Visibility {
		d.Visibility[k] = v
	}

	switch det := p.Details.(type) {
	case WorkDetails:
		d.PostGradType = det.Type()
		d.Company, d.Title, d.Industry = det.Company, det.Title, det.Industry
	case SchoolDetails:
		d.PostGradType = PostGradSchool
		d.School, d.Program, d.Discipline = det.School, det.Program, det.Discipline
	case SeekingDetails:
		d.PostGradType = PostGradSeeking
	}

	if p.Location != nil {
		d.Country = p.Location.Country
		d.State = p.Location.State
		d.City = p.Location.City
		d.BoroughDistrict = p.Location.BoroughDistrict
	}
	return d
}

// Details builds the variant for the draft's declared type.
func (d *Draft) Details() Details {
	switch d.PostGradType {
	case PostGradWork, PostGradInternship:
		return WorkDetails{
			Internship: d.PostGradType == PostGradInternship,
			Company:    strings.TrimSpace(d.Company),
			Title:      strings.TrimSpace(d.Title),
			Industry:   strings.TrimSpace(d.Industry),
		}
	case PostGradSchool:
		return SchoolDetails{
			School:     strings.TrimSpace(d.School),
			Program:    strings.TrimSpace(d.Program),
			Discipline: strings.TrimSpace(d.Discipline),
		}
	case PostGradSeeking:
		return SeekingDetails{}
	}
	return nil
}

// Location builds the location value, or nil for seeking drafts.
func (d *Draft) Location() *Location {
	if d.PostGradType == PostGradSeeking {
		return nil
	}
	loc := Location{
		Country:         d.Country,
		State:           d.State,
		City:            d.City,
		BoroughDistrict: d.BoroughDistrict,
	}.Normalize()
	return &loc
}

// ClearVariantFields drops fields that do not belong to the declared type so
// a user who goes back and switches type does not carry stale input.
func (d *Draft) ClearVariantFields() {
	if !d.PostGradType.IsWorkVariant() {
		d.Company, d.Title, d.Industry = "", "", ""
	}
	if d.PostGradType != PostGradSchool {
		d.School, d.Program, d.Discipline = "", "", ""
	}
	if d.PostGradType == PostGradSeeking {
		d.Country, d.State, d.City, d.BoroughDistrict = "", "", "", ""
	}

	editable := map[string]bool{}
	for _, k := range EditableVisibilityKeys(d.PostGradType) {
		editable[k] = true
	}
	for k := range d.Visibility {
		if !editable[k] {
			delete(d.Visibility, k)
		}
	}
}

// ApplyTo writes the draft onto the profile and marks it onboarded.
func (d *Draft) ApplyTo(p *Profile) {
	year := *d.ClassYear
	p.ClassYear = &year

	if email := strings.TrimSpace(d.PersonalEmail); email != "" {
		p.PersonalEmail = &email
	} else {
		p.PersonalEmail = nil
	}

	p.Details = d.Details()
	p.Location = d.Location()
	if p.Location == nil {
		p.LocationID = nil
	}
	p.LookingForRoommate = d.LookingForRoommate

	p.Visibility = VisibilityOptions{}
	for k, v := range d.Visibility {
		p.Visibility[k] = v
	}

	p.IsOnboarded = true
	p.OnboardingStep = StepComplete
}

// AdjustPostGradType records "work" as an internship for anyone who is not in
// the graduating class.
func AdjustPostGradType(t PostGradType, classYear, currentYear int) PostGradType {
	if t.IsWorkVariant() {
		if classYear == currentYear {
			return PostGradWork
		}
		return PostGradInternship
	}
	return t
}

// InClassYearWindow reports whether year is selectable in currentYear.
func InClassYearWindow(year, currentYear int) bool {
	return year >= currentYear && year <= currentYear+3
}
