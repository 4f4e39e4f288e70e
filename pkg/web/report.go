package web

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gofiber/fiber/v2"
)

// handleReport renders a session chart: speed over time with alerted
// hazards per scan on a second axis.
func (s *Server) handleReport(c *fiber.Ctx) error {
	points := s.speedSeries()
	if len(points) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no session data yet",
		})
	}

	labels := make([]string, len(points))
	speeds := make([]opts.LineData, len(points))
	hazards := make([]opts.LineData, len(points))
	for i, p := range points {
		labels[i] = p.At.Format("15:04:05")
		speeds[i] = opts.LineData{Value: p.KMH}
		hazards[i] = opts.LineData{Value: p.Hazards}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "ChromaPath Session Report",
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Ride Session",
			Subtitle: fmt.Sprintf("session=%s scans=%d", s.sessionID, len(points)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "km/h"}),
	)
	line.SetXAxis(labels)
	line.AddSeries("speed", speeds, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	line.AddSeries("hazards", hazards)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("rendering chart: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}
