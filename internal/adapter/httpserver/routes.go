package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/signcast/internal/adapter/metrics"
)

const (
	routePublish      = "/api/model-output"
	routePublishAlias = "/publish"
	routeSubscribe    = "/api/model-output"
	routeSubAlias     = "/subscribe"
	routeSubscribeWS  = "/api/model-output/ws"
	routeSubWSAlias   = "/subscribe/ws"
	routeTranslate    = "/api/translate"
	routeTransAlias   = "/translate"
	routeSynthesize   = "/api/tts"
	routeSynthAlias   = "/synthesize"

	maxBodySize = "64K"
)

// streamRoutes hold a request open for the lifetime of a subscription.
var streamRoutes = []string{
	http.MethodGet + " " + routeSubscribe,
	routeSubAlias,
	routeSubscribeWS,
	routeSubWSAlias,
}

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(s.httpMetrics.Middleware())
	s.echo.Use(ErrorHandlingMiddleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}))
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.config.AllowedOrigins(),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, "X-Correlation-ID"},
	}))

	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler(s.registry)))

	s.registerStreamRoutes()
	s.registerSpeechRoutes()
}

func (s *Server) registerStreamRoutes() {
	limit := newPublishLimiter(s.config.PublishRateLimit, s.config.PublishRateBurst)
	body := middleware.BodyLimit(maxBodySize)

	s.echo.POST(routePublish, s.handlePublish, limit, body)
	s.echo.POST(routePublishAlias, s.handlePublish, limit, body)

	s.echo.GET(routeSubscribe, s.handleSubscribe)
	s.echo.GET(routeSubAlias, s.handleSubscribe)
	s.echo.GET(routeSubscribeWS, s.handleSubscribeWS)
	s.echo.GET(routeSubWSAlias, s.handleSubscribeWS)
}

func (s *Server) registerSpeechRoutes() {
	body := middleware.BodyLimit(maxBodySize)

	s.echo.POST(routeTranslate, s.handleTranslate, body)
	s.echo.POST(routeTransAlias, s.handleTranslate, body)
	s.echo.POST(routeSynthesize, s.handleSynthesize, body)
	s.echo.POST(routeSynthAlias, s.handleSynthesize, body)
	s.echo.GET("/api/languages", s.handleLanguages)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
