package domain

type DestinationType string

const (
	DestinationCompanies DestinationType = "companies"
	DestinationSchools   DestinationType = "schools"
	DestinationCities    DestinationType = "cities"
)

const (
	DefaultDestinationLimit  = 6
	ExpandedDestinationLimit = 20
	MaxDestinationLimit      = 50
)

func ParseDestinationType(s string) (DestinationType, error) {
	switch t := DestinationType(s); t {
	case DestinationCompanies, DestinationSchools, DestinationCities:
		return t, nil
	}
	return "", ErrUnknownDestinationType
}

// Destination is one ranked entry of the top destinations list.
type Destination struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Count    int                `json:"count"`
	Type     DestinationType    `json:"type"`
	Location *LocationAggregate `json:"location,omitempty"`
}

// GroupCount is a raw grouped count as returned by the store.
type GroupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
}

// LocationGroupCount is a grouped count keyed by a location aggregate.
type LocationGroupCount struct {
	LocationAggregate
	Count int `db:"count"`
}
