package domain

import "time"

// Mission is the top-level unit of field work. JSON field names follow
// the public API contract inherited from the legacy system.
type Mission struct {
	ID            int64      `json:"id"`
	Title         string     `json:"titre"`
	Status        Status     `json:"statut"`
	ReferentAgent string     `json:"agentReferent"`
	StartDate     *time.Time `json:"dateDebut"`
	EndDate       *time.Time `json:"dateFin"`
	CreatedAt     time.Time  `json:"dateCreation"`
	UpdatedAt     time.Time  `json:"dateModification"`
}

// MissionStep is a sub-task belonging to exactly one mission. Deleting
// the owning mission cascades to its steps.
type MissionStep struct {
	ID            int64      `json:"id"`
	Description   string     `json:"description"`
	Status        Status     `json:"statut"`
	AssignedAgent string     `json:"agentAssigne"`
	Location      string     `json:"localisation,omitempty"`
	StartDate     *time.Time `json:"dateDebut"`
	EndDate       *time.Time `json:"dateFin"`
	CreatedAt     time.Time  `json:"dateCreation"`
	UpdatedAt     time.Time  `json:"dateModification"`
	Mission       *Mission   `json:"mission,omitempty"`
	MissionID     int64      `json:"-"`
}

// MissionReport is a free-text note on a step. Details are encrypted
// at rest by the persistence layer; everything above it sees plaintext.
type MissionReport struct {
	ID            int64        `json:"id"`
	Details       string       `json:"details"`
	AuthorAgent   string       `json:"agentRedacteur"`
	CreatedAt     time.Time    `json:"dateCreation"`
	UpdatedAt     time.Time    `json:"dateModification"`
	MissionStep   *MissionStep `json:"missionStep,omitempty"`
	MissionStepID int64        `json:"-"`
}

// ValidateDateRange rejects a start/end pair where end precedes start.
// Absent dates carry no ordering constraint.
func ValidateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return Validationf("dateFin must be on or after dateDebut")
	}
	return nil
}
