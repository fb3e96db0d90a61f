package domain

import (
	"testing"
	"time"
)

func TestNormalizeStatus(t *testing.T) {
	accepted := map[string]Status{
		"EN_COURS":   StatusEnCours,
		"en_cours":   StatusEnCours,
		" En_Cours ": StatusEnCours,
		"TERMINE":    StatusTermine,
		"TERMINÉ":    StatusTermine,
		"TERMINEE":   StatusTermine,
		"TERMINÉE":   StatusTermine,
		"terminée":   StatusTermine,
		"ANNULE":     StatusAnnule,
		"ANNULÉ":     StatusAnnule,
		"ANNULEE":    StatusAnnule,
		"ANNULÉE":    StatusAnnule,
		"annulée":    StatusAnnule,
	}
	for raw, want := range accepted {
		got, ok := NormalizeStatus(raw)
		if !ok {
			t.Fatalf("NormalizeStatus(%q): not accepted", raw)
		}
		if got != want {
			t.Fatalf("NormalizeStatus(%q) = %s, want %s", raw, got, want)
		}
	}

	for _, raw := range []string{"", "   ", "DONE", "EN COURS", "TERMINADO", "EN_COURS2"} {
		if got, ok := NormalizeStatus(raw); ok {
			t.Fatalf("NormalizeStatus(%q) accepted as %s", raw, got)
		}
	}
}

func TestStatusIsTerminal(t *testing.T) {
	if StatusEnCours.IsTerminal() {
		t.Fatalf("EN_COURS must not be terminal")
	}
	if !StatusAnnule.IsTerminal() || !StatusTermine.IsTerminal() {
		t.Fatalf("ANNULE and TERMINE must be terminal")
	}
}

func TestValidateDateRange(t *testing.T) {
	day := func(d int) *time.Time {
		v := time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	if err := ValidateDateRange(day(1), day(2)); err != nil {
		t.Fatalf("valid range rejected: %v", err)
	}
	if err := ValidateDateRange(day(5), day(5)); err != nil {
		t.Fatalf("equal dates rejected: %v", err)
	}
	if err := ValidateDateRange(nil, day(2)); err != nil {
		t.Fatalf("absent start rejected: %v", err)
	}
	if err := ValidateDateRange(day(1), nil); err != nil {
		t.Fatalf("absent end rejected: %v", err)
	}
	if err := ValidateDateRange(nil, nil); err != nil {
		t.Fatalf("absent pair rejected: %v", err)
	}
	if err := ValidateDateRange(day(9), day(3)); err == nil {
		t.Fatalf("end before start accepted")
	}
}
