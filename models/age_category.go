package models

// AgeCategory is an age band, e.g. +60 (60..64) or +65 (65..120).
// Eligibility is evaluated against the age a player reaches during the
// tournament's calendar year, not against a fixed cut-off date.
type AgeCategory struct {
	ID     int    `json:"id" db:"id"`
	Label  string `json:"label" db:"label"`
	MinAge int    `json:"min_age" db:"min_age"`
	MaxAge int    `json:"max_age" db:"max_age"`
}

// AgeInYear returns the age a player born in birthYear reaches during year.
func AgeInYear(birthYear, year int) int {
	return year - birthYear
}

func (c AgeCategory) Contains(age int) bool {
	return age >= c.MinAge && age <= c.MaxAge
}

// RequiredAgeCategory returns the highest category (by min age) the player is
// eligible for in the given tournament year. Players are not allowed to enter
// a lower band when a higher one applies. The second return value is false
// when no category matches.
func RequiredAgeCategory(birthYear, tournamentYear int, categories []AgeCategory) (AgeCategory, bool) {
	age := AgeInYear(birthYear, tournamentYear)
	var best AgeCategory
	found := false
	for _, c := range categories {
		if !c.Contains(age) {
			continue
		}
		if !found || c.MinAge > best.MinAge {
			best = c
			found = true
		}
	}
	return best, found
}
