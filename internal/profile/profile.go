// Package profile provides the candidate profile types shared by the API
// client, the résumé upload flow, and the profile editor command.
package profile

import (
	"github.com/go-playground/validator/v10"
)

// ExperienceEntry is one work history entry in the parsed résumé.
type ExperienceEntry struct {
	Company string   `json:"company"`
	Title   string   `json:"title"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

// EducationEntry is one education entry in the parsed résumé.
type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree,omitempty"`
	Year   string `json:"year,omitempty"`
}

// Resume is the backend-parsed résumé content.
type Resume struct {
	Summary    string            `json:"summary,omitempty"`
	Skills     []string          `json:"skills,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`
}

// Empty reports whether no résumé content has been parsed yet.
func (r Resume) Empty() bool {
	return len(r.Skills) == 0 && len(r.Experience) == 0 && r.Summary == ""
}

// CandidateData is the full profile as stored by the backend. Updates are
// full replacements, so the whole record round-trips.
type CandidateData struct {
	Name     string            `json:"name" validate:"required,min=1"`
	Email    string            `json:"email" validate:"omitempty,email"`
	Phone    string            `json:"phone,omitempty"`
	Location string            `json:"location,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
	Resume   Resume            `json:"resume"`
}

// Validate validates the CandidateData using the validator.
func (c *CandidateData) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// HasResume reports whether the profile already carries parsed résumé
// content.
func (c *CandidateData) HasResume() bool {
	return !c.Resume.Empty()
}
