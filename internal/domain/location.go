package domain

import (
	"strings"

	"github.com/google/uuid"
)

// CountryUSA is the only country for which a state is required.
const CountryUSA = "USA"

// BoroughedStates lists the states whose cities are split into boroughs or
// districts in the location picker.
var BoroughedStates = map[string]bool{
	"NY": true,
	"CA": true,
	"IL": true,
	"MA": true,
	"DC": true,
}

// Location is where a classmate ends up after graduation.
type Location struct {
	Country         string `json:"country" validate:"required,max=100"`
	State           string `json:"state" validate:"max=100"`
	City            string `json:"city" validate:"required,max=100"`
	BoroughDistrict string `json:"boroughDistrict" validate:"max=100"`
}

// Normalize trims whitespace from every field.
func (l Location) Normalize() Location {
	return Location{
		Country:         strings.TrimSpace(l.Country),
		State:           strings.TrimSpace(l.State),
		City:            strings.TrimSpace(l.City),
		BoroughDistrict: strings.TrimSpace(l.BoroughDistrict),
	}
}

// Validate checks the state and borough rules. State is required iff the
// country is USA; a borough is only accepted for a boroughed state.
func (l Location) Validate() error {
	ve := &ValidationError{}
	l.validate(ve)
	return ve.OrNil()
}

func (l Location) validate(ve *ValidationError) {
	validateStruct(l, ve)

	if l.Country == CountryUSA {
		if l.State == "" && !ve.HasField("state") {
			ve.Add("state", "is required when country is USA")
		}
	} else if l.State != "" {
		ve.Add("state", "is only accepted when country is USA")
	}

	if l.BoroughDistrict != "" && !BoroughedStates[l.State] {
		ve.Add("boroughDistrict", "is only accepted for states with boroughs or districts")
	}
}

// LocationAggregate is the denormalized row the map and city rankings are
// computed from. Many profiles reference one aggregate.
type LocationAggregate struct {
	ID      uuid.UUID `json:"id" db:"id"`
	City    string    `json:"city" db:"city"`
	State   string    `json:"state" db:"state"`
	Country string    `json:"country" db:"country"`
	Lat     *float64  `json:"lat" db:"lat"`
	Lon     *float64  `json:"lon" db:"lon"`
}

// LocationCount is one bar of the state-level or city-level map.
type LocationCount struct {
	Name    string   `json:"name" db:"name"`
	State   string   `json:"state,omitempty" db:"state"`
	Country string   `json:"country" db:"country"`
	Lat     *float64 `json:"lat,omitempty" db:"lat"`
	Lon     *float64 `json:"lon,omitempty" db:"lon"`
	Count   int      `json:"count" db:"count"`
}
