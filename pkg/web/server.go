// Package web serves the ride dashboard: live status, recent hazards,
// a scan-now control, and an event stream for connected clients.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/chromapath/chromapath/internal/log"
	"github.com/chromapath/chromapath/pkg/alert"
	"github.com/chromapath/chromapath/pkg/hub"
	"github.com/chromapath/chromapath/pkg/pipeline"
	"github.com/chromapath/chromapath/pkg/transport"
)

const (
	maxHazardHistory = 200
	maxSpeedPoints   = 2000
)

// HazardRecord is one alerted hazard kept for the dashboard.
type HazardRecord struct {
	At       time.Time `json:"at"`
	Class    string    `json:"class"`
	Color    string    `json:"color,omitempty"`
	Priority string    `json:"priority"`
	Message  string    `json:"message"`
	Distance float64   `json:"distance_m"`
}

// speedPoint is one sample on the session speed chart.
type speedPoint struct {
	At      time.Time
	KMH     float64
	Hazards int
}

// Server is the dashboard HTTP server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	pipe       *pipeline.Pipeline
	alerts     *alert.Scheduler
	classifier *transport.Classifier
	sessionID  string
	startedAt  time.Time

	eventsHub *hub.Hub

	mu      sync.RWMutex
	hazards []HazardRecord
	speeds  []speedPoint
}

// Deps are the components the dashboard fronts. Classifier may be nil.
type Deps struct {
	Pipeline   *pipeline.Pipeline
	Alerts     *alert.Scheduler
	Classifier *transport.Classifier
	SessionID  string
}

// NewServer builds the dashboard on the given listen address.
func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		addr:       addr,
		logger:     log.Component("web"),
		pipe:       deps.Pipeline,
		alerts:     deps.Alerts,
		classifier: deps.Classifier,
		sessionID:  deps.SessionID,
		startedAt:  time.Now(),
		eventsHub:  hub.New("events"),
		hazards:    make([]HazardRecord, 0, maxHazardHistory),
	}

	app := fiber.New(fiber.Config{
		AppName:               "ChromaPath Dashboard",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/hazards", s.handleHazards)
	api.Post("/scan", s.handleScanNow)
	api.Post("/alerts/enabled", s.handleSetAlertsEnabled)
	api.Post("/profile", s.handleSetProfile)
	api.Post("/speak", s.handleSpeak)

	app.Get("/report", s.handleReport)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/events", websocket.New(s.handleEventsWS))

	s.app = app

	// Every scan report feeds the event stream and session history.
	s.pipe.OnScan(s.recordScan)
	return s
}

// Start runs the server. Blocks until Shutdown.
func (s *Server) Start() error {
	go s.eventsHub.Run()
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server failed", "error", err)
		}
	}()
}

// Shutdown stops the server and disconnects event clients.
func (s *Server) Shutdown() error {
	s.eventsHub.Stop()
	return s.app.Shutdown()
}

// recordScan appends the scan to session history and broadcasts it.
func (s *Server) recordScan(r pipeline.Report) {
	speed := 0.0
	if s.classifier != nil {
		speed = s.classifier.CurrentSpeed()
	}

	s.mu.Lock()
	for i := range r.Hazards {
		h := &r.Hazards[i]
		s.hazards = append(s.hazards, HazardRecord{
			At:       r.StartedAt,
			Class:    h.Detection.Class,
			Color:    string(h.Detection.ColorState),
			Priority: string(h.Priority()),
			Message:  h.Message,
			Distance: h.WarningDistanceMeters,
		})
	}
	if len(s.hazards) > maxHazardHistory {
		s.hazards = s.hazards[len(s.hazards)-maxHazardHistory:]
	}

	s.speeds = append(s.speeds, speedPoint{At: r.StartedAt, KMH: speed, Hazards: len(r.Hazards)})
	if len(s.speeds) > maxSpeedPoints {
		s.speeds = s.speeds[len(s.speeds)-maxSpeedPoints:]
	}
	s.mu.Unlock()

	s.eventsHub.BroadcastJSON(r)
}

// RecentHazards returns a copy of the hazard history, newest last.
func (s *Server) RecentHazards() []HazardRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HazardRecord, len(s.hazards))
	copy(out, s.hazards)
	return out
}

func (s *Server) speedSeries() []speedPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]speedPoint, len(s.speeds))
	copy(out, s.speeds)
	return out
}

// handleEventsWS attaches one dashboard client to the event stream.
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.eventsHub, c)
	if client == nil {
		// Upgrade raced shutdown.
		c.Close()
		return
	}
	client.Run()
}
