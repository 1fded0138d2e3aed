// Package api serves the finance engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/finance"
	"github.com/jmtruffa/finsim/store"
	"github.com/rs/zerolog"
)

// InstrumentStore is the read side of the instrument repository.
type InstrumentStore interface {
	LoadInstruments(ctx context.Context) ([]store.Instrument, error)
	FindInstrument(ctx context.Context, ticker string) (store.Instrument, error)
}

// Dependencies of the handlers. Calendar and Instruments may be nil; the instrument
// routes then answer 503.
type Dependencies struct {
	Valuer      finance.Valuer
	Calendar    *calendar.Calendar
	Instruments InstrumentStore
}

type Config struct {
	Addr            string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

type WebAPI struct {
	router          *gin.Engine
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	registerValidations()
	h := &handler{deps: config.Dependencies, now: time.Now}

	router := gin.New()
	router.Use(requestLogger(&logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(config.AllowedOrigins)))

	router.GET("/healthz", h.health)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/npv", h.npv)
		v1.POST("/irr", h.irr)
		v1.POST("/loan", h.loan)
		v1.POST("/retirement", h.retirement)
		v1.POST("/compounding", h.compounding)
		v1.POST("/xnpv", h.xnpv)
		v1.POST("/xirr", h.xirr)
		v1.GET("/instruments", h.listInstruments)
		v1.GET("/instruments/:ticker/yield", h.instrumentYield)
		v1.GET("/instruments/:ticker/price", h.instrumentPrice)
	}

	shutdownTimeout := config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &WebAPI{
		router: router,
		logger: &logger,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
	}
}

func (w *WebAPI) Handler() http.Handler {
	return w.router
}

// Start serves until ctx is done, then gives outstanding requests the shutdown timeout
// to finish.
func (w *WebAPI) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}
		return err
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

var registerOnce sync.Once

// registerValidations adds the rate_pct rule: a percentage rate above -100.
func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("rate_pct", func(fl validator.FieldLevel) bool {
			return fl.Field().Float() > -100
		})
	})
}
