package web

import (
	"html/template"
	"strconv"
	"strings"

	"careguide/internal/directory"
	"careguide/internal/domain/entity"
	"careguide/internal/session"
)

// Page guards return the path to redirect to, or "" to render the page.

// doctorGuard sends visitors without a session to the landing page.
func doctorGuard(snap session.Snapshot) string {
	if snap.User == nil {
		return "/"
	}
	return ""
}

// adminGuard sends visitors without a session to the admin sign-in and
// signed-in users whose profile is not an admin to the landing page. A user
// whose profile has not loaded yet is let through and sees a loading state.
func adminGuard(snap session.Snapshot) string {
	if snap.User == nil {
		return "/admin-auth"
	}
	if snap.Profile != nil && snap.Profile.Role != entity.RoleAdmin {
		return "/"
	}
	return ""
}

type doctorCard struct {
	ID           string
	Name         string
	Email        string
	Initials     string
	PhotoURL     string
	Phone        string
	City         string
	Hospital     string
	Speciality   string
	Years        string
	Availability string
	OPD          string
	Notes        template.HTML
}

func newDoctorCard(p entity.Profile) doctorCard {
	card := doctorCard{
		ID:         p.ID.String(),
		Name:       p.DisplayName(),
		Email:      p.Email,
		Initials:   initials(deref(p.FullName)),
		PhotoURL:   deref(p.ProfilePhotoURL),
		Phone:      deref(p.PhoneNumber),
		City:       deref(p.City),
		Hospital:   deref(p.Hospital),
		Speciality: deref(p.Speciality),
		OPD:        deref(p.OPD),
		Notes:      renderNotes(deref(p.Notes)),
	}
	if p.YearsOfExperience != nil {
		card.Years = strconv.Itoa(*p.YearsOfExperience)
	}
	if p.Availability != nil {
		card.Availability = p.Availability.Label()
	}
	return card
}

func newDoctorCards(rows []entity.Profile) []doctorCard {
	cards := make([]doctorCard, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, newDoctorCard(row))
	}
	return cards
}

// initials of "Jane Q Doe" are "JQD".
func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		b.WriteString(strings.ToUpper(string([]rune(part)[0])))
	}
	return b.String()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// profileForm holds the doctor dashboard form values as text.
type profileForm struct {
	FullName          string
	PhoneNumber       string
	City              string
	Hospital          string
	Speciality        string
	YearsOfExperience string
	Availability      string
	OPD               string
	Notes             string
}

func newProfileForm(p *entity.Profile) profileForm {
	if p == nil {
		return profileForm{}
	}
	form := profileForm{
		FullName:    deref(p.FullName),
		PhoneNumber: deref(p.PhoneNumber),
		City:        deref(p.City),
		Hospital:    deref(p.Hospital),
		Speciality:  deref(p.Speciality),
		OPD:         deref(p.OPD),
		Notes:       deref(p.Notes),
	}
	if p.YearsOfExperience != nil {
		form.YearsOfExperience = strconv.Itoa(*p.YearsOfExperience)
	}
	if p.Availability != nil {
		form.Availability = string(*p.Availability)
	}
	return form
}

// filterState echoes the active filters back into the form.
type filterState struct {
	Search       string
	City         string
	Speciality   string
	Cities       []string
	Specialities []string
	Active       bool
}

func newFilterState(f directory.Filter, rows []entity.Profile) filterState {
	cities, specialities := directory.Options(rows)
	return filterState{
		Search:       f.Search,
		City:         f.City,
		Speciality:   f.Speciality,
		Cities:       cities,
		Specialities: specialities,
		Active:       f.Active(),
	}
}
