package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/patrolbot/hub/internal/api/docs"
	"github.com/patrolbot/hub/internal/api/handler"
	"github.com/patrolbot/hub/internal/api/middleware"
	"github.com/patrolbot/hub/internal/events"
	"github.com/patrolbot/hub/internal/frame"
	"github.com/patrolbot/hub/internal/nlp"
	"github.com/patrolbot/hub/internal/store"
	"github.com/patrolbot/hub/internal/ws"
)

type Dependencies struct {
	Store       store.Store
	Frames      *frame.Hub
	Bus         *events.Bus
	Interpreter *nlp.Interpreter
	Speaker     handler.Speaker

	APIKey            string
	StoragePath       string
	FrameInterval     time.Duration
	HeartbeatInterval time.Duration
}

type Router struct {
	app          *fiber.App
	logger       *slog.Logger
	deps         *Dependencies
	wsHub        *ws.Hub
	cancelHub    context.CancelFunc
	cancelBridge context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Patrol Hub",
		BodyLimit:    32 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,X-API-Key",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// WebSocket hub plus the bridge that feeds it from the event bus, so
	// SSE and websocket clients see the same stream.
	r.wsHub = ws.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	bridgeCtx, bridgeCancel := context.WithCancel(context.Background())
	r.cancelBridge = bridgeCancel
	go r.runBridge(bridgeCtx)

	auth := middleware.Auth(r.deps.APIKey)

	// System
	// The bridge holds one permanent bus subscription; it is not an
	// external stream consumer, so keep it out of the metrics count.
	healthHandler := handler.NewHealthHandler(r.deps.Store, r.deps.Bus, 1, r.deps.StoragePath)
	r.app.Get("/", healthHandler.Root)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)
	r.app.Get("/metrics", healthHandler.Metrics)

	// Video
	frameHandler := handler.NewFrameHandler(r.deps.Frames, r.deps.FrameInterval, r.logger)
	r.app.Post("/frame", auth, frameHandler.Ingest)
	r.app.Get("/video_feed", frameHandler.VideoFeed)
	r.app.Get("/frame_data", frameHandler.FrameData)

	// Alerts
	alertHandler := handler.NewAlertHandler(r.deps.Store, r.deps.Bus, r.deps.StoragePath, r.logger)
	r.app.Post("/alert", auth, alertHandler.Create)
	r.app.Get("/alerts", alertHandler.List)
	r.app.Get("/alerts/:id", alertHandler.Get)
	r.app.Post("/alerts/:id/ack", alertHandler.Acknowledge)
	r.app.Post("/ack/:id", alertHandler.Acknowledge) // legacy dashboard alias

	// Event streams
	streamHandler := handler.NewStreamHandler(r.deps.Bus, r.deps.HeartbeatInterval, r.logger)
	r.app.Get("/stream", streamHandler.Events)
	r.app.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.wsHub))

	// Commands
	nlpHandler := handler.NewNLPHandler(r.deps.Interpreter, r.deps.Speaker, r.deps.Bus, r.logger)
	r.app.Post("/nlp", nlpHandler.Command)

	// Whitelist
	whitelistHandler := handler.NewWhitelistHandler(r.deps.Store, r.deps.StoragePath, r.logger)
	r.app.Post("/whitelist/add", whitelistHandler.Add)
	r.app.Get("/whitelist", whitelistHandler.List)
	r.app.Post("/whitelist/refresh", whitelistHandler.Refresh)

	// Snapshots, whitelist samples, and speech artifacts
	r.app.Static("/static", r.deps.StoragePath)
}

// runBridge forwards every bus event to the websocket hub. The hub's
// broadcast never blocks, so the bridge always drains its subscription
// faster than the bus can prune it.
func (r *Router) runBridge(ctx context.Context) {
	sub := r.deps.Bus.Subscribe()
	defer r.deps.Bus.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		event, ok := sub.Receive(time.Second)
		if !ok {
			if sub.Closed() {
				return
			}
			continue
		}

		r.wsHub.Broadcast(event)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelBridge != nil {
		r.cancelBridge()
	}
	if r.cancelHub != nil {
		r.cancelHub()
	}
	return r.app.Shutdown()
}
