// Package notification delivers plan lifecycle alerts (placed, discarded)
// to external channels. Delivery is best effort: a failed alert is logged
// and dropped, never retried, and never blocks the placement loop.
package notification

import (
	"context"
	"fmt"
	"log"

	"signal-enginev1/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo    AlertLevel = "INFO"
	AlertWarning AlertLevel = "WARNING"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// PlanPlaced builds the alert for a successfully placed plan.
func PlanPlaced(plan model.Plan, orderID string) Alert {
	return Alert{
		Level: AlertInfo,
		Title: fmt.Sprintf("Plan placed: %s %s", plan.Side, plan.Symbol),
		Message: fmt.Sprintf("%s %s %s qty=%.8f @ %.8f (order %s)",
			plan.Side, plan.Symbol, plan.Interval, plan.Quantity, plan.Price, orderID),
	}
}

// PlanDiscarded builds the alert for a plan rejected at placement time.
func PlanDiscarded(plan model.Plan, reason string) Alert {
	return Alert{
		Level: AlertWarning,
		Title: fmt.Sprintf("Plan discarded: %s %s", plan.Side, plan.Symbol),
		Message: fmt.Sprintf("%s %s %s @ %.8f discarded: %s",
			plan.Side, plan.Symbol, plan.Interval, plan.Price, reason),
	}
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier logs alerts instead of delivering them; the default backend
// when no channel is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans one alert out to several backends. Errors are collected into
// one; every backend still gets the alert.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
