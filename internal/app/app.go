package app

import (
	"eventoensina-backend/internal/certificates"
	"eventoensina-backend/internal/config"
	"eventoensina-backend/internal/events"
	"eventoensina-backend/internal/health"
	"eventoensina-backend/internal/middleware"
	"eventoensina-backend/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// Deps carries the constructed services CreateApp wires into routes.
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Certificates  *certificates.Service
	Notifications *notifications.Service
	Events        *events.Service
	Dispatcher    *notifications.Dispatcher
}

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration.
func CreateApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var dbPinger health.DBPinger
	if d.DB != nil {
		dbPinger = &gormDBPinger{db: d.DB}
	}
	var queue health.QueueDepther
	if d.Dispatcher != nil {
		queue = d.Dispatcher
	}
	healthHandlers := &health.Handlers{DB: dbPinger, Queue: queue}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Public QR-code verification lookup.
	certHandlers := &certificates.Handlers{Service: d.Certificates}
	app.Get("/certificates/verify/:publicID", certHandlers.Verify)

	eventHandlers := &events.Handlers{Service: d.Events}
	eventGroup := app.Group("/api/v1/events")
	eventGroup.Post("/:id/generate-certificates", certHandlers.Generate)
	eventGroup.Post("/:id/finalize", eventHandlers.Finalize)

	notifHandlers := &notifications.Handlers{Service: d.Notifications}
	notifGroup := app.Group("/api/v1/notifications")
	notifGroup.Post("/enqueue", notifHandlers.Enqueue)
	notifGroup.Get("/jobs/:id", notifHandlers.ViewJob)

	return app
}
