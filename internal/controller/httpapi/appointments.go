package httpapi

import (
	"net/http"

	"github.com/Freeeeeet/lesson_booking/internal/service"
	"github.com/labstack/echo/v4"
)

// CreateAppointment handles POST /appointments
func (h *Handler) CreateAppointment(c echo.Context) error {
	var body service.CreateInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appointment, err := h.appointments.Create(c.Request().Context(), body)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusCreated, appointment)
}

// BookAppointment handles POST /appointments/book: занятие создаётся только в свободном слоте
func (h *Handler) BookAppointment(c echo.Context) error {
	var body service.CreateInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appointment, err := h.appointments.Book(c.Request().Context(), body)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusCreated, appointment)
}

// GetAppointment handles GET /appointments/:id
func (h *Handler) GetAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid appointment id")
	}

	appointment, err := h.appointments.Get(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, appointment)
}

// UpdateAppointment handles PATCH /appointments/:id
func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid appointment id")
	}

	var body service.UpdateInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appointment, err := h.appointments.Update(c.Request().Context(), id, body)
	if err != nil {
		return h.writeError(c, err, http.StatusBadRequest)
	}

	return c.JSON(http.StatusOK, appointment)
}

// CancelAppointment handles POST /appointments/:id/cancel
func (h *Handler) CancelAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid appointment id")
	}

	var body service.CancelInput
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	appointment, err := h.appointments.Cancel(c.Request().Context(), id, body)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, appointment)
}

// CompleteAppointment handles POST /appointments/:id/complete
func (h *Handler) CompleteAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid appointment id")
	}

	appointment, err := h.appointments.Complete(c.Request().Context(), id)
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment handles DELETE /appointments/:id
func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid appointment id")
	}

	if err := h.appointments.Delete(c.Request().Context(), id); err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTeacherAppointments handles GET /teachers/:id/appointments?date=
func (h *Handler) ListTeacherAppointments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid teacher id")
	}

	appointments, err := h.appointments.ListByTeacher(c.Request().Context(), id, c.QueryParam("date"))
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, nonNil(appointments))
}

// ListStudentAppointments handles GET /students/:id/appointments?date=
func (h *Handler) ListStudentAppointments(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid student id")
	}

	appointments, err := h.appointments.ListByStudent(c.Request().Context(), id, c.QueryParam("date"))
	if err != nil {
		return h.writeError(c, err, http.StatusConflict)
	}

	return c.JSON(http.StatusOK, nonNil(appointments))
}

// nonNil чтобы пустой список отдавался как [], а не null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
