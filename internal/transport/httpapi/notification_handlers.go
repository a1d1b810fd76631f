package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	domainnotification "rncflow/internal/domain/notification"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

func (s *Server) listNotifications(c echo.Context) error {
	var filter ports.NotificationFilter
	if err := echo.QueryParamsBinder(c).
		Bool("unread", &filter.UnreadOnly).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError(); err != nil {
		return errs.Validationf("http.list_notifications", "invalid query: %v", err)
	}
	items, err := s.services.Notification.List(c.Request().Context(), actorFrom(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(items, newNotificationResponse))
}

func (s *Server) markNotificationRead(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.services.Notification.MarkRead(c.Request().Context(), actorFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listNotificationSettings(c echo.Context) error {
	settings, err := s.services.Notification.ListSettings(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(settings, func(st domainnotification.Setting) settingResponse {
		return settingResponse{Type: newTypeResponse(st.Type), Enabled: st.Enabled}
	}))
}

func (s *Server) setNotificationSetting(c echo.Context) error {
	var req settingRequest
	if err := bindJSON(c, "http.set_notification_setting", &req); err != nil {
		return err
	}
	code := domainnotification.NormalizeCode(c.Param("code"))
	if err := s.services.Notification.SetEnabled(c.Request().Context(), actorFrom(c), code, *req.Enabled); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"code": code, "enabled": *req.Enabled})
}

func (s *Server) syncNotificationTypes(c echo.Context) error {
	types, err := s.services.Notification.SyncTypes(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, mapAll(types, newTypeResponse))
}

func (s *Server) sweepNotifications(c echo.Context) error {
	report, err := s.services.Notification.Sweep(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) lastSweep(c echo.Context) error {
	report, ok, err := s.services.Notification.LastSweep(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFoundf("http.last_sweep", "no sweep has run yet")
	}
	return c.JSON(http.StatusOK, report)
}

func (s *Server) healthz(c echo.Context) error {
	if s.opts.Health != nil {
		if err := s.opts.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
