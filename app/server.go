// Package app assembles the HTTP API: repositories, handlers, middleware and routes.
package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Romarate18/StockaDoodle-IMS/app/activity"
	"github.com/Romarate18/StockaDoodle-IMS/app/catalog"
	"github.com/Romarate18/StockaDoodle-IMS/app/categories"
	"github.com/Romarate18/StockaDoodle-IMS/app/form"
	"github.com/Romarate18/StockaDoodle-IMS/app/respond"
	"github.com/Romarate18/StockaDoodle-IMS/app/retailers"
	"github.com/Romarate18/StockaDoodle-IMS/cache"
	"github.com/Romarate18/StockaDoodle-IMS/models"
	"github.com/Romarate18/StockaDoodle-IMS/telemetry"
	"github.com/Romarate18/StockaDoodle-IMS/userctx"
)

const APIPrefix = "/api/v1"

type Options struct {
	Log            logrus.FieldLogger
	RequestTimeout time.Duration
	MaxUploadBytes int64
	// Redis is optional; without it leaderboards are always read from the database.
	Redis               *redis.Client
	LeaderboardCacheTTL time.Duration
}

type ServiceInfo struct {
	Message  string `json:"message,omitempty"`
	Status   string `json:"status"`
	Database string `json:"database"`
}

// New wires repositories and handlers over db and returns the routed API.
func New(db *gorm.DB, opts Options) http.Handler {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	formOpts := form.Options{MaxMemory: opts.MaxUploadBytes, Log: opts.Log}

	categoryRepo := models.NewCategoriesRepository(db)
	productRepo := models.NewProductsRepository(db)
	logRepo := models.NewActivityLogRepository(db)
	metricsRepo := models.NewRetailerMetricsRepository(db)

	recorder := activity.NewLogger(logRepo, opts.Log.WithField("component", "activity"))
	leaderboard := cache.NewLeaderboard(opts.Redis, opts.LeaderboardCacheTTL, opts.Log.WithField("component", "cache"))

	categoryHandler := categories.NewCategoryHandler(categoryRepo, recorder, formOpts)
	productHandler := catalog.NewCatalogHandler(productRepo, categoryRepo, recorder, formOpts)
	retailerHandler := retailers.NewRetailerHandler(metricsRepo, leaderboard, recorder, formOpts)
	logHandler := activity.NewLogHandler(logRepo)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: opts.Log, NoColor: true}))
	r.Use(recoverer(opts.Log))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(telemetry.InstrumentHandler)
	r.Use(userctx.Middleware)

	database := db.Dialector.Name()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, ServiceInfo{Message: "Stockadoodle API", Status: "running", Database: database})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(r.Context())
		}
		if err != nil {
			opts.Log.WithError(err).Warn("health check failed")
			respond.JSON(w, http.StatusServiceUnavailable, ServiceInfo{Status: "unhealthy", Database: database})
			return
		}
		respond.JSON(w, http.StatusOK, ServiceInfo{Status: "healthy", Database: database})
	})
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", categoryHandler.HandleGetAll)
			r.Post("/", categoryHandler.HandleCreate)
			r.Get("/{id}", categoryHandler.HandleGet)
			r.Put("/{id}", categoryHandler.HandleReplace)
			r.Patch("/{id}", categoryHandler.HandleUpdate)
			r.Delete("/{id}", categoryHandler.HandleDelete)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.HandleGet)
			r.Post("/", productHandler.HandleCreate)
			r.Get("/{id}", productHandler.HandleGetProduct)
			r.Put("/{id}", productHandler.HandleReplace)
			r.Patch("/{id}", productHandler.HandleUpdate)
			r.Delete("/{id}", productHandler.HandleDelete)
		})

		r.Route("/retailer", func(r chi.Router) {
			r.Get("/leaderboard", retailerHandler.HandleLeaderboard)
			r.Get("/{user_id}", retailerHandler.HandleGetMetrics)
			r.Patch("/{user_id}/quota", retailerHandler.HandleUpdateQuota)
			r.Post("/{user_id}/reset-streak", retailerHandler.HandleResetStreak)
		})

		r.Get("/logs", logHandler.HandleList)
	})

	return r
}
