package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// NewRouter собирает echo со всеми маршрутами API.
// limiter может быть nil
func NewRouter(h *Handler, limiter echo.MiddlewareFunc, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger))

	e.GET("/healthz", Health)

	var limited []echo.MiddlewareFunc
	if limiter != nil {
		limited = append(limited, limiter)
	}

	appointments := e.Group("/appointments", limited...)
	appointments.POST("", h.CreateAppointment)
	appointments.POST("/book", h.BookAppointment)
	appointments.GET("/:id", h.GetAppointment)
	appointments.PATCH("/:id", h.UpdateAppointment)
	appointments.DELETE("/:id", h.DeleteAppointment)
	appointments.POST("/:id/cancel", h.CancelAppointment)
	appointments.POST("/:id/complete", h.CompleteAppointment)

	students := e.Group("/students/:id", limited...)
	students.GET("/tickets", h.GetTickets)
	students.POST("/tickets", h.AddTickets)
	students.GET("/appointments", h.ListStudentAppointments)

	teachers := e.Group("/teachers/:id", limited...)
	teachers.GET("/appointments", h.ListTeacherAppointments)
	teachers.GET("/availability/week.png", h.WeekImage)
	teachers.POST("/availability/gesture", h.ApplyGesture)
	teachers.GET("/availability/:date", h.GetAvailability)
	teachers.PUT("/availability/:date", h.PutAvailability)
	teachers.DELETE("/availability/:date/slots/:time", h.DeleteSlot)

	return e
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				logger.Warn("HTTP request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("HTTP request", fields...)
			return nil
		},
	})
}
