package httpapi

import (
	"net/http"
	"net/url"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/Freeeeeet/lesson_booking/internal/slotgrid"
	"github.com/labstack/echo/v4"
)

type slotRequest struct {
	Time string `json:"time"`
	// Available по умолчанию true: так приходят слоты из квантизатора
	Available *bool `json:"available,omitempty"`
}

type putAvailabilityRequest struct {
	Slots       []slotRequest `json:"slots"`
	RepeatWeeks int           `json:"repeatWeeks"`
}

type gestureRequest struct {
	WeekStart   string                  `json:"weekStart"`
	Events      []slotgrid.PointerEvent `json:"events"`
	RepeatWeeks int                     `json:"repeatWeeks"`
}

// GetAvailability handles GET /teachers/:id/availability/:date
func (h *Handler) GetAvailability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	availability, err := h.availability.Get(c.Request().Context(), id, c.Param("date"))
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, availability)
}

// PutAvailability handles PUT /teachers/:id/availability/:date
func (h *Handler) PutAvailability(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	var body putAvailabilityRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RepeatWeeks == 0 {
		body.RepeatWeeks = 1
	}

	proposals := make([]model.SlotProposal, 0, len(body.Slots))
	for _, s := range body.Slots {
		available := true
		if s.Available != nil {
			available = *s.Available
		}
		proposals = append(proposals, model.SlotProposal{Time: s.Time, Available: available})
	}

	days, err := h.availability.ApplyProposals(c.Request().Context(), id, c.Param("date"), proposals, body.RepeatWeeks)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, days)
}

// DeleteSlot handles DELETE /teachers/:id/availability/:date/slots/:time
func (h *Handler) DeleteSlot(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	slotTime, err := url.PathUnescape(c.Param("time"))
	if err != nil {
		return badRequest(c, "invalid slot time")
	}

	if err := h.availability.RemoveSlot(c.Request().Context(), id, c.Param("date"), slotTime); err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.NoContent(http.StatusNoContent)
}

// ApplyGesture handles POST /teachers/:id/availability/gesture
func (h *Handler) ApplyGesture(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	var body gestureRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RepeatWeeks == 0 {
		body.RepeatWeeks = 1
	}

	result, err := h.availability.ApplyGesture(c.Request().Context(), id, body.WeekStart, body.Events, body.RepeatWeeks)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, result)
}

// WeekImage handles GET /teachers/:id/availability/week.png?weekStart=
func (h *Handler) WeekImage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	png, err := h.schedule.WeekImage(c.Request().Context(), id, c.QueryParam("weekStart"))
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}
