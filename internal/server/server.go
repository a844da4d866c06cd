package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/shinyyama/order-progress-backend/internal/handler"
	"github.com/shinyyama/order-progress-backend/internal/logger"
	"github.com/shinyyama/order-progress-backend/internal/metrics"
	appmw "github.com/shinyyama/order-progress-backend/internal/middleware"
	"github.com/shinyyama/order-progress-backend/internal/service"
)

type Deps struct {
	Logger   *zap.Logger
	Metrics  *metrics.Registry
	Orders   service.OrderService
	Progress service.ProgressService

	OperatorToken  string
	AllowedOrigins []string
	GitSHA         string
	BuildTime      string
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(requestLoggerConfig(log)))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		AllowOriginFunc: allowOrigin(d.AllowedOrigins),
	}))

	orderHandler := handler.NewOrderHandler(d.Orders)
	progressHandler := handler.NewProgressHandler(d.Progress)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    d.GitSHA,
			"build_time": d.BuildTime,
		})
	})
	e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))

	api := e.Group("/api")
	if authMw := appmw.NewAuthMiddleware(d.OperatorToken); authMw != nil {
		api.Use(authMw.RequireAuth)
	}
	api.GET("/orders", orderHandler.List)
	api.POST("/orders/:id/complete", orderHandler.Complete)
	api.POST("/item-status", progressHandler.SetItem)
	api.GET("/all-status", progressHandler.All)

	return &Server{e: e, log: log}
}

func requestLoggerConfig(log *zap.Logger) middleware.RequestLoggerConfig {
	return middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		BeforeNextFunc: func(c echo.Context) {
			reqLog := log.With(zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context(), reqLog)))
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("path", v.URIPath),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Info("request", fields...)
			return nil
		},
	}
}

// allowOrigin accepts the configured origins, or any localhost origin when
// none are configured.
func allowOrigin(allowed []string) func(origin string) (bool, error) {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			set[strings.ToLower(o)] = struct{}{}
		}
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if len(set) > 0 {
			_, ok := set[low]
			return ok, nil
		}
		u, err := url.Parse(low)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		return host == "localhost" || host == "127.0.0.1", nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.log.Info("starting server", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
