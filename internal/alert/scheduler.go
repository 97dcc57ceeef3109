// Package alert watches active inventory for low stock and near expiry and
// notifies the operator at most once per cooldown window.
package alert

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"inventory-service/internal/model"
	"inventory-service/internal/repository"
	"inventory-service/pkg/config"
	"inventory-service/pkg/notify"
	"inventory-service/prometheus"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Reasons reported when nothing was sent.
const (
	ReasonNoAlerts       = "No alerts"
	ReasonCooldown       = "Cooldown period"
	ReasonDispatchFailed = "Dispatch failed"
	ReasonCheckFailed    = "Check failed"
)

// Item is one product that triggered an alert.
type Item struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Category   string     `json:"category"`
	Stock      int        `json:"stock"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	DaysLeft   int        `json:"daysLeft,omitempty"`
	LowStock   bool       `json:"lowStock"`
	Expiring   bool       `json:"expiring"`
}

// Result describes one evaluation. Err is set when the scan or the
// dispatch failed; it never escapes as a panic or a returned error.
type Result struct {
	Sent          bool   `json:"sent"`
	Reason        string `json:"reason,omitempty"`
	Kind          Kind   `json:"kind,omitempty"`
	LowStockCount int    `json:"lowStockCount"`
	ExpiringCount int    `json:"expiringCount"`
	Products      []Item `json:"products"`
	Err           error  `json:"-"`
}

// Scheduler owns the last successful notification time. The time lives only
// in memory, so a restart may send one extra alert inside a cooldown window.
type Scheduler struct {
	products   *repository.Repository[model.Product]
	dispatcher notify.Dispatcher
	cfg        config.AlertConfig
	log        *zap.Logger

	mu       sync.Mutex
	lastSent time.Time
	checks   singleflight.Group
}

// New creates a scheduler over the product table.
func New(db *gorm.DB, dispatcher notify.Dispatcher, cfg config.AlertConfig, log *zap.Logger) *Scheduler {
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.ExpiryWindowDays < 0 {
		cfg.ExpiryWindowDays = 3
	}
	return &Scheduler{
		products:   repository.New[model.Product](db),
		dispatcher: dispatcher,
		cfg:        cfg,
		log:        log.Named("alert"),
	}
}

// LastSent returns the time of the last successful dispatch, zero if none.
func (s *Scheduler) LastSent() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSent
}

// Run evaluates against the wall clock; it is the scheduled job body.
func (s *Scheduler) Run(ctx context.Context) error {
	res := s.CheckAndNotify(ctx, time.Now().UTC())
	return res.Err
}

// CheckAndNotify scans active products and sends at most one notification.
// Overlapping calls for the same instant share the evaluation in flight;
// calls for different instants are evaluated separately and serialise on
// the cooldown.
func (s *Scheduler) CheckAndNotify(ctx context.Context, now time.Time) Result {
	v, _, _ := s.checks.Do(now.UTC().Format(time.RFC3339Nano), func() (interface{}, error) {
		return s.check(ctx, now), nil
	})
	return v.(Result)
}

func (s *Scheduler) check(ctx context.Context, now time.Time) Result {
	lowStock, expiring, err := s.scan(ctx, now)
	if err != nil {
		s.log.Error("Alert scan failed", zap.Error(err))
		prometheus.RecordAlertCheck("failed", 0, 0)
		return Result{Reason: ReasonCheckFailed, Products: []Item{}, Err: err}
	}

	res := Result{
		LowStockCount: len(lowStock),
		ExpiringCount: len(expiring),
		Products:      merge(lowStock, expiring),
	}
	if len(lowStock) == 0 && len(expiring) == 0 {
		res.Reason = ReasonNoAlerts
		prometheus.RecordAlertCheck("no_alerts", 0, 0)
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.cfg.Cooldown {
		s.log.Info("Alert suppressed by cooldown",
			zap.Time("last_sent", s.lastSent),
			zap.Int("low_stock", res.LowStockCount),
			zap.Int("expiring", res.ExpiringCount))
		res.Reason = ReasonCooldown
		prometheus.RecordAlertCheck("cooldown", res.LowStockCount, res.ExpiringCount)
		return res
	}

	res.Kind = KindCombined
	switch {
	case len(expiring) == 0:
		res.Kind = KindLowStock
	case len(lowStock) == 0:
		res.Kind = KindExpiring
	}

	body, err := render(res.Kind, emailData{
		CheckedAt:  now,
		Threshold:  s.cfg.LowStockThreshold,
		WindowDays: s.cfg.ExpiryWindowDays,
		LowStock:   lowStock,
		Expiring:   expiring,
	})
	if err != nil {
		res.Reason = ReasonDispatchFailed
		res.Err = err
		prometheus.RecordAlertCheck("failed", res.LowStockCount, res.ExpiringCount)
		return res
	}

	sent, err := s.dispatcher.Send(ctx, notify.Message{
		To:       s.cfg.Recipient,
		Subject:  res.Kind.subject(),
		HTMLBody: body,
	})
	if err == nil && !sent.Success {
		err = fmt.Errorf("%w: %s", notify.ErrDispatch, sent.Message)
	}
	if err != nil {
		s.log.Error("Failed to dispatch alert", zap.String("kind", string(res.Kind)), zap.Error(err))
		res.Reason = ReasonDispatchFailed
		res.Err = err
		prometheus.RecordAlertCheck("failed", res.LowStockCount, res.ExpiringCount)
		return res
	}

	s.lastSent = now
	res.Sent = true
	s.log.Info("Alert sent",
		zap.String("kind", string(res.Kind)),
		zap.Int("low_stock", res.LowStockCount),
		zap.Int("expiring", res.ExpiringCount))
	prometheus.RecordAlertCheck("sent", res.LowStockCount, res.ExpiringCount)
	return res
}

// scan returns the active low-stock products and the active products whose
// expiry is between 0 and ExpiryWindowDays days away, rounded up.
func (s *Scheduler) scan(ctx context.Context, now time.Time) (lowStock, expiring []Item, err error) {
	defer prometheus.TrackDBOperation("alert_scan")(time.Now())

	low, err := s.products.FindAll(ctx, repository.Query{
		Scopes: []repository.Scope{
			repository.Where("archived = ?", false),
			repository.Where("stock < ?", s.cfg.LowStockThreshold),
		},
		Order: "stock asc, id asc",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("low stock scan: %w", err)
	}
	for i := range low {
		lowStock = append(lowStock, toItem(&low[i], now, true, false))
	}

	// ceil(d) >= 0 holds exactly when d > -1 day.
	soon, err := s.products.FindAll(ctx, repository.Query{
		Scopes: []repository.Scope{
			repository.Where("archived = ?", false),
			repository.Where("expiry_date IS NOT NULL"),
			repository.Where("expiry_date > ?", now.Add(-24*time.Hour)),
			repository.Where("expiry_date <= ?", now.AddDate(0, 0, s.cfg.ExpiryWindowDays)),
		},
		Order: "expiry_date asc, id asc",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("expiry scan: %w", err)
	}
	for i := range soon {
		days := DaysUntil(*soon[i].ExpiryDate, now)
		if days < 0 || days > s.cfg.ExpiryWindowDays {
			continue
		}
		expiring = append(expiring, toItem(&soon[i], now, false, true))
	}
	return lowStock, expiring, nil
}

// DaysUntil is the whole number of days from now to t, rounded up.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

func toItem(p *model.Product, now time.Time, low, exp bool) Item {
	it := Item{
		ID:         p.ID,
		Name:       p.Name,
		Category:   p.Category,
		Stock:      p.Stock,
		ExpiryDate: p.ExpiryDate,
		LowStock:   low,
		Expiring:   exp,
	}
	if exp {
		it.DaysLeft = DaysUntil(*p.ExpiryDate, now)
	}
	return it
}

// merge lists every alerted product once, low stock first.
func merge(lowStock, expiring []Item) []Item {
	out := make([]Item, 0, len(lowStock)+len(expiring))
	index := make(map[uint]int, len(lowStock))
	for _, it := range lowStock {
		index[it.ID] = len(out)
		out = append(out, it)
	}
	for _, it := range expiring {
		if i, ok := index[it.ID]; ok {
			out[i].Expiring = true
			out[i].DaysLeft = it.DaysLeft
			continue
		}
		out = append(out, it)
	}
	return out
}
