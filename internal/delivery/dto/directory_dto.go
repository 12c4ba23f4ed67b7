package dto

// DirectoryQuery carries the filter state of a directory or admin listing.
// "all" or an empty value disables a filter.
type DirectoryQuery struct {
	Search     string `json:"search" form:"search"`
	City       string `json:"city" form:"city"`
	Speciality string `json:"speciality" form:"speciality"`
}

type DirectoryResponse struct {
	Doctors      []ProfileResponse `json:"doctors"`
	Total        int               `json:"total"`
	Cities       []string          `json:"cities"`
	Specialities []string          `json:"specialities"`
}

type DeleteDoctorRequest struct {
	DoctorID string `json:"doctorId"`
}

type DeleteDoctorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
