package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionReportHandler handles HTTP requests for mission report
// operations. Details arrive and leave as plaintext; encryption is a
// persistence concern.
type MissionReportHandler struct {
	service ports.MissionReportService
}

func NewMissionReportHandler(service ports.MissionReportService) *MissionReportHandler {
	return &MissionReportHandler{service: service}
}

// List handles GET /api/mission-reports.
func (h *MissionReportHandler) List(c echo.Context) error {
	reports, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reports)
}

// Create handles POST /api/mission-reports.
func (h *MissionReportHandler) Create(c echo.Context) error {
	var req createMissionReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	report, err := h.service.Create(c.Request().Context(), ports.CreateMissionReportInput{
		Details:       req.Details,
		AuthorAgent:   req.AuthorAgent,
		MissionStepID: req.missionStepID(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, report)
}

// Update handles PUT /api/mission-reports/:id.
func (h *MissionReportHandler) Update(c echo.Context) error {
	return h.update(c, false)
}

// Patch handles PATCH /api/mission-reports/:id.
func (h *MissionReportHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *MissionReportHandler) update(c echo.Context, patch bool) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req updateMissionReportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	input := ports.UpdateMissionReportInput{
		Details:       req.Details,
		AuthorAgent:   req.AuthorAgent,
		MissionStepID: req.missionStepID(),
	}

	var report any
	if patch {
		report, err = h.service.PatchByID(c.Request().Context(), id, input)
	} else {
		report, err = h.service.UpdateByID(c.Request().Context(), id, input)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

// Delete handles DELETE /api/mission-reports/:id.
func (h *MissionReportHandler) Delete(c echo.Context) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteByID(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/mission-reports.
func (h *MissionReportHandler) DeleteAll(c echo.Context) error {
	if err := h.service.DeleteAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
