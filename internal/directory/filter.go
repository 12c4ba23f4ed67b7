// Package directory filters fetched doctor profiles for the public
// directory and the admin console.
package directory

import (
	"strings"

	"careguide/internal/domain/entity"
)

// All is the dropdown value that disables a city or speciality filter.
const All = "all"

type Filter struct {
	Search     string
	City       string
	Speciality string
	// IncludeEmail also matches the search term against e-mail addresses.
	// The admin console sets it.
	IncludeEmail bool
}

// Active reports whether any filter would drop rows.
func (f Filter) Active() bool {
	return strings.TrimSpace(f.Search) != "" || isSet(f.City) || isSet(f.Speciality)
}

// Apply returns the rows that match every active filter, in input order.
// The input slice is not modified.
func Apply(rows []entity.Profile, f Filter) []entity.Profile {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	city := strings.TrimSpace(f.City)
	speciality := strings.TrimSpace(f.Speciality)

	out := make([]entity.Profile, 0, len(rows))
	for _, row := range rows {
		if search != "" && !matchesSearch(row, search, f.IncludeEmail) {
			continue
		}
		if isSet(city) && !equalFold(row.City, city) {
			continue
		}
		if isSet(speciality) && !equalFold(row.Speciality, speciality) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesSearch(row entity.Profile, term string, includeEmail bool) bool {
	if contains(row.FullName, term) || contains(row.Speciality, term) || contains(row.Hospital, term) {
		return true
	}
	return includeEmail && strings.Contains(strings.ToLower(row.Email), term)
}

// contains is a case-insensitive substring match; term is already lower
// case. Null never matches.
func contains(field *string, term string) bool {
	return field != nil && strings.Contains(strings.ToLower(*field), term)
}

func equalFold(field *string, value string) bool {
	return field != nil && strings.EqualFold(strings.TrimSpace(*field), value)
}

func isSet(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && !strings.EqualFold(value, All)
}

// Options lists the distinct non-empty cities and specialities of rows in
// first-seen order, for the filter dropdowns. Values differing only in case
// are listed once.
func Options(rows []entity.Profile) (cities, specialities []string) {
	cities = distinct(rows, func(p entity.Profile) *string { return p.City })
	specialities = distinct(rows, func(p entity.Profile) *string { return p.Speciality })
	return cities, specialities
}

func distinct(rows []entity.Profile, field func(entity.Profile) *string) []string {
	seen := make(map[string]struct{})
	values := []string{}
	for _, row := range rows {
		v := field(row)
		if v == nil {
			continue
		}
		value := strings.TrimSpace(*v)
		if value == "" {
			continue
		}
		key := strings.ToLower(value)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, value)
	}
	return values
}
