package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger emits one structured line per completed HTTP request. Client
// errors log at warn and handler errors at error, so gateway operators can
// filter rejected HL7 payloads from transport noise.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)

			res := c.Response()
			var evt *zerolog.Event
			switch {
			case err != nil:
				evt = logger.Error().Err(err)
			case res.Status >= http.StatusInternalServerError:
				evt = logger.Error()
			case res.Status >= http.StatusBadRequest:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("http request")

			return err
		}
	}
}
