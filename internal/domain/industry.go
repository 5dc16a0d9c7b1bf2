package domain

// Industries is the fixed list offered on the work details step.
var Industries = []string{
	"technology",
	"finance",
	"consulting",
	"healthcare",
	"education",
	"government",
	"nonprofit",
	"media",
	"entertainment",
	"energy",
	"manufacturing",
	"retail",
	"real_estate",
	"law",
	"research",
	"arts",
	"other",
}

var industrySet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Industries))
	for _, i := range Industries {
		m[i] = struct{}{}
	}
	return m
}()

// IsIndustry reports whether key is a known industry key.
func IsIndustry(key string) bool {
	_, ok := industrySet[key]
	return ok
}
