package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fieldops/tracker/internal/core/ports"
)

// MissionHandler handles HTTP requests for mission operations.
type MissionHandler struct {
	service ports.MissionService
}

func NewMissionHandler(service ports.MissionService) *MissionHandler {
	return &MissionHandler{service: service}
}

// List handles GET /api/missions.
func (h *MissionHandler) List(c echo.Context) error {
	missions, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, missions)
}

// Create handles POST /api/missions.
func (h *MissionHandler) Create(c echo.Context) error {
	var req createMissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	mission, err := h.service.Create(c.Request().Context(), ports.CreateMissionInput{
		Title:         req.Title,
		Status:        req.Status,
		ReferentAgent: req.ReferentAgent,
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, mission)
}

// Update handles PUT /api/missions/:id. Absent fields keep their
// stored values, so PUT and PATCH share the same semantics here.
func (h *MissionHandler) Update(c echo.Context) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req updateMissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	mission, err := h.service.UpdateByID(c.Request().Context(), id, ports.UpdateMissionInput{
		Title:         req.Title,
		Status:        req.Status,
		ReferentAgent: req.ReferentAgent,
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, mission)
}

// Patch handles PATCH /api/missions/:id.
func (h *MissionHandler) Patch(c echo.Context) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req updateMissionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, bindMessage(err))
	}

	mission, err := h.service.PatchByID(c.Request().Context(), id, ports.UpdateMissionInput{
		Title:         req.Title,
		Status:        req.Status,
		ReferentAgent: req.ReferentAgent,
		StartDate:     req.StartDate.ptr(),
		EndDate:       req.EndDate.ptr(),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, mission)
}

// Delete handles DELETE /api/missions/:id. Steps and reports under the
// mission are removed with it.
func (h *MissionHandler) Delete(c echo.Context) error {
	id, err := pathID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.DeleteByID(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteAll handles DELETE /api/missions.
func (h *MissionHandler) DeleteAll(c echo.Context) error {
	if err := h.service.DeleteAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
