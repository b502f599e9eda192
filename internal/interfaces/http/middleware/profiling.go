package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/grafana/pyroscope-go"
)

// Profiling label names
const (
	ProfilingLabelRoute    = "route"
	ProfilingLabelMethod   = "method"
	ProfilingLabelResource = "resource"
)

var profilingSkipPaths = []string{"/health", "/metrics"}

// Profiling tags CPU samples taken while a request runs with its method,
// route and resource, so Pyroscope can split profiles per endpoint.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range profilingSkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		route := c.FullPath()
		labels := []string{ProfilingLabelMethod, c.Request.Method}
		if route != "" {
			labels = append(labels, ProfilingLabelRoute, route)
			if res := resourceFromRoute(route); res != "" {
				labels = append(labels, ProfilingLabelResource, res)
			}
		}

		pyroscope.TagWrapper(c.Request.Context(), pyroscope.Labels(labels...), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// resourceFromRoute returns the first segment after the api version,
// "/api/v1/transfers/:id/approve" -> "transfers"
func resourceFromRoute(route string) string {
	for _, part := range strings.Split(route, "/") {
		if part == "" || part == "api" || isVersionSegment(part) || strings.HasPrefix(part, ":") {
			continue
		}
		return part
	}
	return ""
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || (segment[0] != 'v' && segment[0] != 'V') {
		return false
	}
	for i := 1; i < len(segment); i++ {
		if segment[i] < '0' || segment[i] > '9' {
			return false
		}
	}
	return true
}
