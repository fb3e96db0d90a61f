package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// dateField accepts the two date encodings clients historically send:
// a bare date ("2006-01-02") or a full RFC 3339 timestamp. Anything
// else fails to bind.
type dateField struct {
	time.Time
}

func (d *dateField) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("date must be a string")
	}
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		d.Time = t
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t
		return nil
	}
	return fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", raw)
}

// ptr returns the parsed time, or nil when the field was absent.
func (d *dateField) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// relationField accepts a parent reference in any of the shapes the
// legacy contract allowed: a bare number, a numeric string, or a
// nested object carrying an "id" key.
type relationField struct {
	id int64
}

func (r *relationField) UnmarshalJSON(b []byte) error {
	id, err := parseRelationID(b)
	if err != nil {
		return err
	}
	r.id = id
	return nil
}

// ptr returns the referenced ID, or nil when the field was absent.
func (r *relationField) ptr() *int64 {
	if r == nil {
		return nil
	}
	id := r.id
	return &id
}

func parseRelationID(b []byte) (int64, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0, fmt.Errorf("relation reference is empty")
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return 0, fmt.Errorf("invalid relation reference")
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("relation reference %q is not a numeric id", s)
		}
		return id, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return 0, fmt.Errorf("invalid relation object")
		}
		raw, ok := obj["id"]
		if !ok {
			return 0, fmt.Errorf("relation object is missing an id")
		}
		return parseRelationID(raw)
	default:
		var id int64
		if err := json.Unmarshal(b, &id); err != nil {
			return 0, fmt.Errorf("relation reference must be a numeric id")
		}
		return id, nil
	}
}

// bindMessage surfaces the cause of a bind failure, notably the custom
// date and relation parser errors, instead of a generic wrapper.
func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprintf("%v", he.Message)
	}
	return "invalid payload"
}

// pathID parses a numeric :id path parameter.
func pathID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not numeric", raw)
	}
	return id, nil
}

// --- Mission requests ---

type createMissionRequest struct {
	Title         string     `json:"titre"`
	Status        string     `json:"statut"`
	ReferentAgent string     `json:"agentReferent"`
	StartDate     *dateField `json:"dateDebut"`
	EndDate       *dateField `json:"dateFin"`
}

type updateMissionRequest struct {
	Title         *string    `json:"titre"`
	Status        *string    `json:"statut"`
	ReferentAgent *string    `json:"agentReferent"`
	StartDate     *dateField `json:"dateDebut"`
	EndDate       *dateField `json:"dateFin"`
}

// --- Mission step requests ---

// Steps can name their parent either as "missionId" or as a nested
// "mission" object; when both are present "missionId" wins.
type createMissionStepRequest struct {
	Description   string         `json:"description"`
	Status        string         `json:"statut"`
	AssignedAgent string         `json:"agentAssigne"`
	Location      string         `json:"localisation"`
	StartDate     *dateField     `json:"dateDebut"`
	EndDate       *dateField     `json:"dateFin"`
	MissionID     *relationField `json:"missionId"`
	Mission       *relationField `json:"mission"`
}

func (r *createMissionStepRequest) missionID() *int64 {
	if p := r.MissionID.ptr(); p != nil {
		return p
	}
	return r.Mission.ptr()
}

type updateMissionStepRequest struct {
	Description   *string        `json:"description"`
	Status        *string        `json:"statut"`
	AssignedAgent *string        `json:"agentAssigne"`
	Location      *string        `json:"localisation"`
	StartDate     *dateField     `json:"dateDebut"`
	EndDate       *dateField     `json:"dateFin"`
	MissionID     *relationField `json:"missionId"`
	Mission       *relationField `json:"mission"`
}

func (r *updateMissionStepRequest) missionID() *int64 {
	if p := r.MissionID.ptr(); p != nil {
		return p
	}
	return r.Mission.ptr()
}

// --- Mission report requests ---

type createMissionReportRequest struct {
	Details       string         `json:"details"`
	AuthorAgent   string         `json:"agentRedacteur"`
	MissionStepID *relationField `json:"missionStepId"`
	MissionStep   *relationField `json:"missionStep"`
}

func (r *createMissionReportRequest) missionStepID() *int64 {
	if p := r.MissionStepID.ptr(); p != nil {
		return p
	}
	return r.MissionStep.ptr()
}

type updateMissionReportRequest struct {
	Details       *string        `json:"details"`
	AuthorAgent   *string        `json:"agentRedacteur"`
	MissionStepID *relationField `json:"missionStepId"`
	MissionStep   *relationField `json:"missionStep"`
}

func (r *updateMissionReportRequest) missionStepID() *int64 {
	if p := r.MissionStepID.ptr(); p != nil {
		return p
	}
	return r.MissionStep.ptr()
}
