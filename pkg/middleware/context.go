package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/context"
)

// HeaderUserID carries the signed-in user of the calling device
const HeaderUserID = "X-User-ID"

// Context attaches context.Request to the request context and echoes the
// request id back. backend may be nil.
func Context(backend func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			r := context.Request{
				ID:       req.Header.Get(echo.HeaderXRequestID),
				UserID:   req.Header.Get(HeaderUserID),
				Method:   req.Method,
				Route:    req.URL.Path,
				RemoteIP: c.RealIP(),
			}
			if r.ID == "" {
				r.ID = uuid.New().String()
			}
			if backend != nil {
				r.Backend = backend()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, r.ID)
			c.SetRequest(req.WithContext(context.WithRequest(req.Context(), r)))

			return next(c)
		}
	}
}
