package httpapi

import (
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/access"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
)

const actorKey = "actor"

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			metrics.HTTPRequests.WithLabelValues(v.Method, v.RoutePath, strconv.Itoa(v.Status)).Inc()
			logging.Info(
				logging.WithComponent(c.Request().Context(), component),
				"request served",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// authenticate resolves the bearer token to an actor with the user's
// current permission set. Requests without a valid token stop here.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := s.tokens.Verify(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		user, err := s.directory.GetUser(ctx, userID)
		if err != nil {
			if errs.KindOf(err) == errs.KindNotFound {
				return errs.New(errs.KindUnauthorized, "auth.authenticate", "unknown user %d", userID)
			}
			return err
		}

		c.Set(actorKey, access.Actor{UserID: user.ID, Permissions: user.Permissions})
		ctx = logging.WithAttrs(ctx, slog.Uint64("user_id", user.ID))
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequirePermission rejects the request unless the actor holds code or
// admin.all.
func RequirePermission(code string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := actorFrom(c).Require("http.require_permission", code); err != nil {
				return err
			}
			return next(c)
		}
	}
}

func actorFrom(c echo.Context) access.Actor {
	actor, _ := c.Get(actorKey).(access.Actor)
	return actor
}
