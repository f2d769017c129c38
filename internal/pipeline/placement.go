package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"signal-enginev1/internal/execution"
	"signal-enginev1/internal/metrics"
	"signal-enginev1/internal/model"
	"signal-enginev1/internal/notification"
	"signal-enginev1/internal/store/postgres"
	"signal-enginev1/internal/transport"
)

// PlacementConfig tunes placement re-validation.
type PlacementConfig struct {
	LockTTL time.Duration
	// PollBackoff is how long the consumer sleeps on an empty queue.
	PollBackoff time.Duration
	// MaxPlanAge discards plans older than this at placement time.
	MaxPlanAge time.Duration
	// MaxPriceDrift discards plans whose price moved more than this
	// fraction against the latest snapshot (e.g. 0.01 = 1%).
	MaxPriceDrift float64
}

// PlacementStage consumes placement messages from the durable queue, locks
// per plan id so independent plans proceed in parallel, re-validates the
// plan against the latest market snapshot, and delegates to the execution
// collaborator. Stale or drifted plans are discarded, not retried.
type PlacementStage struct {
	market model.Market
	locker Locker
	plans  PlanStore
	prices PriceSource
	queue  transport.Queue
	placer execution.Placer
	notify notification.Notifier
	prom   *metrics.Metrics
	cfg    PlacementConfig
	now    func() time.Time
}

// NewPlacementStage wires the placement stage. A nil notifier falls back to
// log-only alerts.
func NewPlacementStage(market model.Market, locker Locker, plans PlanStore, prices PriceSource,
	queue transport.Queue, placer execution.Placer, notify notification.Notifier,
	prom *metrics.Metrics, cfg PlacementConfig) *PlacementStage {
	if notify == nil {
		notify = notification.NewLogNotifier()
	}
	return &PlacementStage{
		market: market,
		locker: locker,
		plans:  plans,
		prices: prices,
		queue:  queue,
		placer: placer,
		notify: notify,
		prom:   prom,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run polls the durable queue until ctx is cancelled. A popped message is
// deleted only after it was handled (or deliberately discarded); everything
// else stays on the queue for redelivery.
func (s *PlacementStage) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		msg, err := s.queue.Pop(ctx, s.market.QueueName)
		if err != nil {
			s.prom.QueuePolls.WithLabelValues("error").Inc()
			log.Printf("[placement] queue pop: %v", err)
			sleep(ctx, s.cfg.PollBackoff)
			continue
		}
		if msg == nil {
			s.prom.QueuePolls.WithLabelValues("empty").Inc()
			sleep(ctx, s.cfg.PollBackoff)
			continue
		}
		s.prom.QueuePolls.WithLabelValues("message").Inc()

		if s.handleMessage(ctx, msg.Body) {
			if err := s.queue.Delete(ctx, s.market.QueueName, msg.ID); err != nil {
				log.Printf("[placement] queue delete %s: %v", msg.ID, err)
			}
		}
	}
}

// handleMessage returns true when the message is finished (processed or
// deliberately discarded) and may be deleted from the queue.
func (s *PlacementStage) handleMessage(ctx context.Context, body []byte) bool {
	qm, err := model.DecodeQueueMessage(body)
	if err != nil {
		log.Printf("[placement] undecodable message dropped: %v", err)
		return true
	}
	switch qm.Action {
	case model.ActionPlacePlan:
		var evt model.PlanEvent
		if err := json.Unmarshal(qm.Payload, &evt); err != nil {
			log.Printf("[placement] bad %s payload dropped: %v", qm.Action, err)
			return true
		}
		return s.placePlan(ctx, evt.PlanID)
	default:
		log.Printf("[placement] unknown action %q dropped", qm.Action)
		return true
	}
}

// placePlan locks the plan, re-validates it, and delegates placement.
func (s *PlacementStage) placePlan(ctx context.Context, planID int64) bool {
	done := false
	lockKey := s.market.PlanLockKey(planID)
	runLocked(ctx, s.locker, s.prom, "placement", lockKey, s.cfg.LockTTL, func(ctx context.Context) error {
		var err error
		done, err = s.validateAndPlace(ctx, planID)
		return err
	})
	return done
}

func (s *PlacementStage) validateAndPlace(ctx context.Context, planID int64) (bool, error) {
	plan, err := s.plans.PlanByID(ctx, planID)
	if errors.Is(err, postgres.ErrPlanNotFound) {
		log.Printf("[placement] plan %d vanished, dropping", planID)
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("load plan %d: %w", planID, err)
	}
	if plan.Status != model.PlanStatusNew {
		return true, nil // already handled by another worker
	}

	if reason := s.rejectReason(ctx, plan); reason != "" {
		s.prom.PlansDiscarded.Inc()
		log.Printf("[placement] plan %d discarded: %s", planID, reason)
		if err := s.plans.UpdatePlanStatus(ctx, planID, model.PlanStatusDiscarded); err != nil {
			return false, fmt.Errorf("discard plan %d: %w", planID, err)
		}
		if err := s.notify.Send(ctx, notification.PlanDiscarded(plan, reason)); err != nil {
			log.Printf("[placement] notify: %v", err)
		}
		return true, nil
	}

	result, err := s.placer.Place(ctx, plan)
	if err != nil {
		return false, fmt.Errorf("place plan %d: %w", planID, err)
	}
	log.Printf("[placement] plan %d placed: order=%s status=%s", planID, result.OrderID, result.Status)
	s.prom.PlansPlaced.Inc()
	if err := s.notify.Send(ctx, notification.PlanPlaced(plan, result.OrderID)); err != nil {
		log.Printf("[placement] notify: %v", err)
	}

	if err := s.plans.UpdatePlanStatus(ctx, planID, model.PlanStatusPlaced); err != nil {
		return false, fmt.Errorf("mark plan %d placed: %w", planID, err)
	}
	return true, nil
}

// rejectReason re-validates a plan's age and price sanity against the latest
// snapshot. Empty string means the plan is still placeable.
func (s *PlacementStage) rejectReason(ctx context.Context, plan model.Plan) string {
	age := s.now().Sub(time.UnixMilli(plan.Timestamp))
	if age > s.cfg.MaxPlanAge {
		return fmt.Sprintf("stale (age %s)", age.Round(time.Second))
	}

	price, ok, err := s.prices.LatestPrice(ctx, plan.Symbol)
	if err != nil {
		log.Printf("[placement] snapshot read %s: %v", plan.Symbol, err)
		return "" // snapshot unavailable is not grounds for discarding
	}
	if !ok {
		return ""
	}

	drift := (price - plan.Price) / plan.Price
	// A buy whose market ran up past the drift bound (or a sell that fell
	// through it) would fill at a worse price than the plan was sized for.
	if plan.Side == model.SideBuy && drift > s.cfg.MaxPriceDrift {
		return fmt.Sprintf("price drifted %.4f above buy plan", drift)
	}
	if plan.Side == model.SideSell && -drift > s.cfg.MaxPriceDrift {
		return fmt.Sprintf("price drifted %.4f below sell plan", -drift)
	}
	return ""
}

// sleep waits for d or until ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
