package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/worker"
)

// SweepHandler exposes the on-demand expiration sweep. The sweep is
// idempotent and cheap, so triggering it outside the schedule is safe.
type SweepHandler struct {
	sweeper *worker.ExpirationSweeper
	metrics *observability.Metrics
}

// NewSweepHandler constructs handler.
func NewSweepHandler(sweeper *worker.ExpirationSweeper, metrics *observability.Metrics) *SweepHandler {
	return &SweepHandler{sweeper: sweeper, metrics: metrics}
}

// Trigger POST /sweep.
func (h *SweepHandler) Trigger(c *fiber.Ctx) error {
	report, err := h.sweeper.RunOnce(c.Context(), time.Now())
	if err != nil {
		return err
	}
	failures := make([]string, 0, len(report.Errs))
	for _, sweepErr := range report.Errs {
		failures = append(failures, sweepErr.Error())
	}
	cycles, totalExpired := h.metrics.SweepTotals()
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"scanned":  report.Scanned,
			"expired":  report.Expired,
			"events":   report.Events,
			"failures": failures,
			"totals": fiber.Map{
				"cycles":  cycles,
				"expired": totalExpired,
			},
		},
	})
}
