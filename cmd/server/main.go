package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/jewelbook/internal/config"
	"github.com/Simplici0/jewelbook/internal/db"
	"github.com/Simplici0/jewelbook/internal/logger"
	"github.com/Simplici0/jewelbook/internal/migrations"
	"github.com/Simplici0/jewelbook/internal/report"
	"github.com/Simplici0/jewelbook/internal/scheduler"
	"github.com/Simplici0/jewelbook/internal/seed"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/workshop"
)

type server struct {
	store    *store.Store
	workshop *workshop.Service
	reports  *report.Service
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func newServer(st *store.Store, baseLogger *zap.Logger, loc *time.Location) *server {
	if loc == nil {
		loc = time.UTC
	}
	return &server{
		store:    st,
		workshop: workshop.NewService(st, logger.Named(baseLogger, "svc.workshop")),
		reports:  report.NewService(st),
		logger:   logger.Named(baseLogger, "http"),
		loc:      loc,
		now:      time.Now,
	}
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		baseLogger.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer database.Close()

	if cfg.IsDev() {
		applied, err := migrations.Up(ctx, database)
		if err != nil {
			baseLogger.Fatal("failed to run database migrations", zap.Error(err))
		}
		stats, err := seed.Run(ctx, database)
		if err != nil {
			baseLogger.Fatal("failed to seed database", zap.Error(err))
		}
		baseLogger.Info("database ready", zap.Int("migrations_applied", applied), zap.Int("seed_inserts", stats.Inserts))
	}

	srv := newServer(store.New(database), baseLogger, cfg.Location())

	sched := scheduler.NewScheduler(cfg, srv.reports, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Get("/karats", s.handleKaratsList)
	r.Get("/karats/{code}/estimate", s.handleKaratEstimate)
	r.Get("/karats/{code}/quote", s.handleKaratQuote)

	r.Get("/customers", s.handleCustomersList)
	r.Post("/customers", s.handleCustomersCreate)
	r.Get("/customers/{id}", s.handleCustomerDetail)
	r.Post("/customers/{id}", s.handleCustomerUpdate)
	r.Delete("/customers/{id}", s.handleCustomerDelete)

	r.Get("/inventory", s.handleInventoryList)
	r.Post("/inventory", s.handleInventoryCreate)

	r.Get("/bills", s.handleBillsList)
	r.Post("/bills", s.handleBillsCreate)
	r.Get("/bills/{id}", s.handleBillDetail)
	r.Post("/bills/{id}/finalize", s.handleBillFinalize)
	r.Post("/bills/{id}/worksheet", s.handleBillWorksheet)

	r.Get("/worksheets", s.handleWorksheetsList)
	r.Post("/worksheets/recalculate", s.handleWorksheetsRecalculate)
	r.Get("/worksheets/{id}", s.handleWorksheetDetail)
	r.Get("/worksheets/{id}/text", s.handleWorksheetText)
	r.Post("/worksheets/{id}", s.handleWorksheetUpdate)

	r.Get("/receipts", s.handleReceiptsList)
	r.Post("/receipts", s.handleReceiptsCreate)

	r.Get("/reports/wastage", s.handleWastageReport)
	r.Get("/reports/wastage.xlsx", s.handleWastageExport)
	r.Get("/reports/sales", s.handleSalesReport)
	r.Get("/reports/deliveries", s.handleDeliveriesReport)

	return r
}

func (s *server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
