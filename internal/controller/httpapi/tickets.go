package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/model"
	"github.com/labstack/echo/v4"
)

// GetTickets handles GET /students/:id/tickets
func (h *Handler) GetTickets(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid student id")
	}

	count, err := h.tickets.BalanceOf(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, model.TicketBalance{StudentID: id, Count: count})
}

// AddTickets handles POST /students/:id/tickets with body {count}
func (h *Handler) AddTickets(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid student id")
	}

	var body struct {
		Count int `json:"count"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	count, err := h.tickets.Add(c.Request().Context(), id, body.Count)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, model.TicketBalance{StudentID: id, Count: count})
}
