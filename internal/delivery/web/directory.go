package web

import (
	"net/http"

	"careguide/internal/directory"
	"careguide/internal/session"
)

// Directory is the public doctor list: named doctors ordered by name,
// filtered by search term, city and speciality.
func (h *Handler) Directory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.profiles.ListDirectory(r.Context())
	if err != nil {
		h.log.Warnf("Failed to load directory: %+v", err)
		flash(r, "Error", "Failed to load the doctor directory", session.FlashDestructive)
		rows = nil
	}

	filter := filterFromQuery(r)
	filtered := directory.Apply(rows, filter)

	h.render(w, r, http.StatusOK, "directory", "Doctor Directory", map[string]interface{}{
		"Total":   len(rows),
		"Doctors": newDoctorCards(filtered),
		"Filter":  newFilterState(filter, rows),
	})
}
