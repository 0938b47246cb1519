package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func RouteSkipper(routes ...string) middleware.Skipper {
	routesMap := map[string]struct{}{}
	for _, route := range routes {
		routesMap[route] = struct{}{}
	}

	return func(ec echo.Context) bool {
		_, ok := routesMap[ec.Path()]
		return ok
	}
}

// PrefixSkipper skips routes outside of prefix in addition to the ones skipped by skipper
func PrefixSkipper(prefix string, skipper middleware.Skipper) middleware.Skipper {
	return func(ec echo.Context) bool {
		return skipper(ec) || !strings.HasPrefix(ec.Path(), prefix)
	}
}
