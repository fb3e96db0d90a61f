package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionStepHandler handles HTTP requests for mission step operations.
type MissionStepHandler struct {
	service ports.MissionStepService
}

func NewMissionStepHandler(service ports.MissionStepService) *MissionStepHandler {
	return &MissionStepHandler{service: service}
}

// List handles GET /api/mission-steps. Each step carries its resolved
// parent mission.
func (h *MissionStepHandler) List(c echo.Context) error {
	steps, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, steps)
}

// Create handles POST /api/mission-steps.
func (h *MissionStepHandler) Create(c echo.Context) error {
	var req createMissionStepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	step, err := h.service.Create(c.Request().Context(), ports.CreateMissionStepInput{
		Description:   req.Description,
		Status:        req.Status,
		AssignedAgent: req.AssignedAgent,
		Location:      req.Location,
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
		MissionID:     req.missionID(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, step)
}

// Update handles PUT /api/mission-steps/:id.
func (h *MissionStepHandler) Update(c echo.Context) error {
	return h.update(c, false)
}

// Patch handles PATCH /api/mission-steps/:id.
func (h *MissionStepHandler) Patch(c echo.Context) error {
	return h.update(c, true)
}

func (h *MissionStepHandler) update(c echo.Context, patch bool) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req updateMissionStepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	input := ports.UpdateMissionStepInput{
		Description:   req.Description,
		Status:        req.Status,
		AssignedAgent: req.AssignedAgent,
		Location:      req.Location,
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
		MissionID:     req.missionID(),
	}

	var step any
	if patch {
		step, err = h.service.PatchByID(c.Request().Context(), id, input)
	} else {
		step, err = h.service.UpdateByID(c.Request().Context(), id, input)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, step)
}

// Delete handles DELETE /api/mission-steps/:id. Reports under the step
// are removed with it.
func (h *MissionStepHandler) Delete(c echo.Context) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteByID(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/mission-steps.
func (h *MissionStepHandler) DeleteAll(c echo.Context) error {
	if err := h.service.DeleteAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
