package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/chromapath/chromapath/pkg/hazard"
	"github.com/chromapath/chromapath/pkg/vision"
)

// handleStatus reports the live state of the whole pipeline.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	signal, signalConf, signalChangedAt := s.pipe.SignalState()
	status := fiber.Map{
		"session_id":        s.sessionID,
		"uptime_seconds":    int(time.Since(s.startedAt).Seconds()),
		"vision_type":       s.pipe.Profile().Type,
		"signal_state":      signal,
		"signal_confidence": signalConf,
		"signal_changed_at": signalChangedAt,
		"alerts_enabled":    s.alerts.Enabled(),
		"queue_depth":       s.alerts.QueueDepth(),
		"stats":             s.pipe.Stats(),
		"event_clients":     s.eventsHub.ClientCount(),
	}
	if s.classifier != nil {
		status["transport_mode"] = s.classifier.Current()
		status["speed_kmh"] = s.classifier.CurrentSpeed()
	}
	return c.JSON(status)
}

// handleHazards returns the recent hazard history, newest last.
func (s *Server) handleHazards(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"hazards": s.RecentHazards()})
}

// handleScanNow triggers one scan outside the loop cadence.
func (s *Server) handleScanNow(c *fiber.Ctx) error {
	if !s.pipe.TriggerScan(c.Context()) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "a scan is already in flight",
		})
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleSetAlertsEnabled toggles spoken alerts.
func (s *Server) handleSetAlertsEnabled(c *fiber.Ctx) error {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.alerts.SetEnabled(body.Enabled)
	s.logger.Info("alerts toggled", "enabled", body.Enabled)
	return c.JSON(fiber.Map{"enabled": body.Enabled})
}

// handleSetProfile switches the active vision profile.
func (s *Server) handleSetProfile(c *fiber.Ctx) error {
	var body struct {
		Type string `json:"type"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	t := vision.ParseType(body.Type)
	s.pipe.SetProfile(vision.NewProfile(t))
	return c.JSON(fiber.Map{"type": t})
}

// handleSpeak queues a custom announcement. Announcements always rank
// below hazard alerts regardless of the requested priority.
func (s *Server) handleSpeak(c *fiber.Ctx) error {
	var body struct {
		Message  string `json:"message"`
		Priority string `json:"priority"`
	}
	if err := c.BodyParser(&body); err != nil || body.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "message is required"})
	}
	s.alerts.SpeakCustom(body.Message, hazard.Priority(body.Priority))
	return c.JSON(fiber.Map{"ok": true})
}
