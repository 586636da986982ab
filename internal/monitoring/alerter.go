package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/kinderslides/kinderslides/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertUnavailableRate AlertType = "unavailable_rate"
	AlertDegradedRate    AlertType = "degraded_rate"
	AlertVisionDisabled  AlertType = "vision_disabled"
)

// minSample is the number of resolutions needed before rate alerts fire.
const minSample = 5

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	if snap.Total >= minSample && a.cfg.UnavailableRateThreshold > 0 &&
		snap.UnavailableRate > a.cfg.UnavailableRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertUnavailableRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Unavailable rate %.1f%% exceeds threshold %.1f%% (%d of %d items in last %dh)",
				snap.UnavailableRate*100, a.cfg.UnavailableRateThreshold*100,
				snap.Unavailable, snap.Total, snap.LookbackHours,
			),
			Details: map[string]any{
				"unavailable_rate": snap.UnavailableRate,
				"threshold":        a.cfg.UnavailableRateThreshold,
				"unavailable":      snap.Unavailable,
				"total":            snap.Total,
			},
			Timestamp: now,
		})
	}

	if snap.Total >= minSample && a.cfg.DegradedRateThreshold > 0 &&
		snap.DegradedRate > a.cfg.DegradedRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertDegradedRate,
			Severity: "medium",
			Message: fmt.Sprintf(
				"Unconfirmed image rate %.1f%% exceeds threshold %.1f%% in last %dh",
				snap.DegradedRate*100, a.cfg.DegradedRateThreshold*100, snap.LookbackHours,
			),
			Details: map[string]any{
				"degraded_rate": snap.DegradedRate,
				"threshold":     a.cfg.DegradedRateThreshold,
				"unverified":    snap.Unverified,
				"fallback":      snap.Fallback,
			},
			Timestamp: now,
		})
	}

	if snap.VisionDisabled {
		alerts = append(alerts, Alert{
			Type:     AlertVisionDisabled,
			Severity: "medium",
			Message:  "Vision validation disabled for this process: " + snap.VisionReason,
			Details: map[string]any{
				"reason": snap.VisionReason,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
