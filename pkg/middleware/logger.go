package middleware

import (
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/context"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/metrics"
)

// Logger logs every request with its context.Request fields and counts it
// by route template and status
func Logger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()
			ctx := req.Context()
			status := strconv.Itoa(res.Status)

			metrics.HTTPRequestsTotal.WithLabelValues(req.Method, c.Path(), status).Inc()

			fields := context.RequestFrom(ctx).Fields()
			fields["uri"] = req.RequestURI
			fields["route_template"] = c.Path()
			fields["status"] = res.Status
			fields["response_time"] = time.Since(start)
			fields["response_size"] = res.Size
			logger.WithContext(ctx).WithFields(fields).Info("Request")

			return nil
		}
	}
}
