package model

import "strings"

// Scope narrows a set of events to a date and optional region, city and
// competition. Empty filters match everything.
type Scope struct {
	Date        string `json:"date"`
	Region      string `json:"region,omitempty"`
	City        string `json:"city,omitempty"`
	Competition string `json:"competition,omitempty"`
}

// Matches reports whether e passes the region, city and competition filters.
// The date is not checked here; it needs a resolved temporal model.
func (s Scope) Matches(e RawEvent) bool {
	return matchFold(s.Region, e.Region) &&
		matchFold(s.City, e.City) &&
		matchFold(s.Competition, e.Competition)
}

// SingleCompetition reports whether the scope is pinned to one competition.
func (s Scope) SingleCompetition() bool {
	return strings.TrimSpace(s.Competition) != ""
}

func matchFold(filter, value string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	return strings.EqualFold(filter, strings.TrimSpace(value))
}
