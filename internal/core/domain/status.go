package domain

import "strings"

// Status represents the lifecycle state of a mission or mission step.
type Status string

const (
	StatusEnCours Status = "EN_COURS"
	StatusAnnule  Status = "ANNULE"
	StatusTermine Status = "TERMINE"
)

// AllStatuses lists the canonical values accepted after normalization.
var AllStatuses = []Status{StatusEnCours, StatusAnnule, StatusTermine}

// IsTerminal reports whether the status ends the lifecycle.
func (s Status) IsTerminal() bool {
	return s == StatusAnnule || s == StatusTermine
}

// NormalizeStatus maps a free-text status to its canonical value.
// Matching is case-insensitive and tolerates the accented and feminine
// French spellings of "terminé" and "annulé". The second return value
// is false when the input maps to no canonical status.
func NormalizeStatus(raw string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "EN_COURS":
		return StatusEnCours, true
	case "TERMINE", "TERMINÉ", "TERMINEE", "TERMINÉE":
		return StatusTermine, true
	case "ANNULE", "ANNULÉ", "ANNULEE", "ANNULÉE":
		return StatusAnnule, true
	}
	return "", false
}

// StatusList renders the canonical values for error messages.
func StatusList() string {
	names := make([]string, len(AllStatuses))
	for i, s := range AllStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
