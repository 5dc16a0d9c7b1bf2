package domain

// DirectoryFilter narrows the directory listing. Zero values mean no
// constraint.
type DirectoryFilter struct {
	PostGradType       PostGradType
	Country            string
	State              string
	City               string
	LookingForRoommate bool
	ClassYear          *int
	Search             string
	OnboardedOnly      bool
}

// StatsScope narrows aggregate statistics.
type StatsScope struct {
	ClassYear *int
	State     string
}
