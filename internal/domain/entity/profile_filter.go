package entity

// ProfileFilter is a domain-level filter for querying profiles.
// Used by repository layer to avoid coupling with delivery DTOs.
type ProfileFilter struct {
	Role        Role
	City        string // equality, case-insensitive
	Speciality  string // equality, case-insensitive
	PublicOnly  bool   // only rows with a non-null full name
	OrderByName bool   // full name ascending; fetch order otherwise
}
