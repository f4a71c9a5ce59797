// Package scanner drives the watchlist scan loop: fetch a quote per item,
// build and evaluate the flip, persist the verdict, and announce profitable
// flips subject to the notification cooldown.
package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/avelory/steamflipper/internal/domain"
	"github.com/avelory/steamflipper/internal/platform/steam"
)

// Fetcher obtains one raw quote per item. A nil result means "no data"; the
// item is skipped for this pass.
type Fetcher interface {
	Fetch(ctx context.Context, appID int, marketHashName string) *steam.PriceOverview
}

// Notifier delivers a formatted alert. The scanner treats it as an optional
// capability: a nil Notifier disables announcements entirely.
type Notifier interface {
	Send(ctx context.Context, title, message string) error
}

// Publisher receives a JSON event for every persisted record, e.g. for a
// dashboard push channel. Optional.
type Publisher interface {
	Publish(data []byte)
}

// Config holds the orchestrator's pacing and policy inputs.
type Config struct {
	// Interval is the sleep between full watchlist passes.
	Interval time.Duration
	// ItemDelay is the courtesy pause between items within a pass, on top of
	// the client's own request pacing.
	ItemDelay time.Duration
	// Policy drives evaluation; read-only.
	Policy domain.Policy
}

// ScanResult is the outcome of scanning a single item.
type ScanResult struct {
	Record   domain.Record `json:"record"`
	Notified bool          `json:"notified"`
}

// scanEvent is the payload pushed to the Publisher after each persist.
type scanEvent struct {
	Type   string        `json:"type"`
	PassID string        `json:"pass_id,omitempty"`
	Record domain.Record `json:"record"`
}

// Scanner owns the in-memory lifecycle of scan passes. It holds no state
// across passes except what it re-reads from the stores.
type Scanner struct {
	client    Fetcher
	opps      domain.OpportunityStore
	watchlist domain.WatchlistStore
	gate      *Gate
	notifier  Notifier  // nil disables notifications
	pub       Publisher // nil disables event push
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Scanner. notifier and pub may be nil.
func New(
	client Fetcher,
	opps domain.OpportunityStore,
	watchlist domain.WatchlistStore,
	gate *Gate,
	notifier Notifier,
	pub Publisher,
	cfg Config,
	logger *slog.Logger,
) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = 300 * time.Second
	}
	if cfg.ItemDelay <= 0 {
		cfg.ItemDelay = 1500 * time.Millisecond
	}
	return &Scanner{
		client:    client,
		opps:      opps,
		watchlist: watchlist,
		gate:      gate,
		notifier:  notifier,
		pub:       pub,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "scanner")),
		now:       time.Now,
	}
}

// Run executes watchlist passes until the context is cancelled. Each pass
// re-reads the watchlist, scans the items in insertion order, and then sleeps
// for the configured interval. A single item's failure never terminates the
// loop; only cancellation does.
func (s *Scanner) Run(ctx context.Context) error {
	for {
		passID := uuid.NewString()
		s.logger.InfoContext(ctx, "starting market scan", slog.String("pass_id", passID))

		items, err := s.watchlist.List(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.ErrorContext(ctx, "failed to load watchlist",
				slog.String("pass_id", passID),
				slog.String("error", err.Error()),
			)
		case len(items) == 0:
			s.logger.WarnContext(ctx, "watchlist is empty", slog.String("pass_id", passID))
		default:
			s.scanPass(ctx, passID, items)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.InfoContext(ctx, "scan pass complete, sleeping",
			slog.String("pass_id", passID),
			slog.Duration("interval", s.cfg.Interval),
		)
		if !sleepCtx(ctx, s.cfg.Interval) {
			return ctx.Err()
		}
	}
}

// scanPass scans every item sequentially so records land in watchlist order.
// A persistence failure aborts the pass: the audit log is the system's
// primary value and a pass with silent holes is worse than a short one.
func (s *Scanner) scanPass(ctx context.Context, passID string, items []domain.WatchItem) {
	for i, item := range items {
		if ctx.Err() != nil {
			return
		}

		if _, err := s.scanItem(ctx, passID, item); err != nil {
			s.logger.ErrorContext(ctx, "aborting scan pass",
				slog.String("pass_id", passID),
				slog.String("item", item.MarketHashName),
				slog.String("error", err.Error()),
			)
			return
		}

		if i < len(items)-1 && !sleepCtx(ctx, s.cfg.ItemDelay) {
			return
		}
	}
}

// ScanItem fetches, evaluates, persists, and conditionally announces a single
// item. It is the atomic unit exposed to direct callers such as the
// "add to watchlist and scan now" handler. A nil result with a nil error
// means the item yielded no usable data this time.
func (s *Scanner) ScanItem(ctx context.Context, item domain.WatchItem) (*ScanResult, error) {
	return s.scanItem(ctx, "", item)
}

func (s *Scanner) scanItem(ctx context.Context, passID string, item domain.WatchItem) (*ScanResult, error) {
	quote := s.client.Fetch(ctx, item.AppID, item.MarketHashName)
	if quote == nil {
		return nil, nil
	}

	opp := steam.BuildOpportunity(item.MarketHashName, quote)
	if opp == nil {
		s.logger.DebugContext(ctx, "quote unusable",
			slog.String("item", item.MarketHashName),
		)
		return nil, nil
	}

	ev := opp.Evaluate(s.cfg.Policy)
	rec := domain.NewRecord(*opp, ev, s.cfg.Policy, s.now().UTC())

	id, err := s.opps.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("scanner: persist evaluation for %s: %w", item.MarketHashName, err)
	}
	rec.ID = id

	s.logVerdict(ctx, rec)
	s.publish(passID, rec)

	res := &ScanResult{Record: rec}
	if ev.Profitable && s.notifier != nil {
		res.Notified = s.maybeNotify(ctx, item, rec)
	}
	return res, nil
}

// maybeNotify announces the flip unless the item is still in cooldown. Gate
// failures are logged and treated as "not in cooldown"; a duplicate alert is
// preferable to a silently dropped one.
func (s *Scanner) maybeNotify(ctx context.Context, item domain.WatchItem, rec domain.Record) bool {
	seen, err := s.gate.AlreadyNotified(ctx, rec.ItemName)
	if err != nil {
		s.logger.ErrorContext(ctx, "cooldown check failed",
			slog.String("item", rec.ItemName),
			slog.String("error", err.Error()),
		)
	}
	if seen {
		s.logger.DebugContext(ctx, "notification suppressed by cooldown",
			slog.String("item", rec.ItemName),
		)
		return false
	}

	title, body := flipMessage(item.AppID, rec)
	if err := s.notifier.Send(ctx, title, body); err != nil {
		s.logger.ErrorContext(ctx, "notification failed",
			slog.String("item", rec.ItemName),
			slog.String("error", err.Error()),
		)
		return false
	}

	if err := s.gate.MarkNotified(ctx, rec.ItemName); err != nil {
		// Worst case is one duplicate alert after the window; not worth
		// failing the item over.
		s.logger.ErrorContext(ctx, "cooldown update failed",
			slog.String("item", rec.ItemName),
			slog.String("error", err.Error()),
		)
	}
	return true
}

// logVerdict records every evaluation: profitable flips at info, rejections
// at debug with their reason.
func (s *Scanner) logVerdict(ctx context.Context, rec domain.Record) {
	attrs := []any{
		slog.String("item", rec.ItemName),
		slog.Float64("buy", rec.BuyPrice),
		slog.Float64("sell", rec.SellPrice),
		slog.Float64("net_profit", rec.NetProfit),
		slog.Float64("roi_pct", rec.ProfitPct*100),
		slog.Int("volume", rec.Volume),
		slog.String("risk", string(rec.RiskLevel)),
	}

	if rec.Profitable {
		s.logger.InfoContext(ctx, "profitable flip", attrs...)
		return
	}
	attrs = append(attrs, slog.String("reject_reason", string(rec.RejectReason)))
	s.logger.DebugContext(ctx, "flip rejected", attrs...)
}

func (s *Scanner) publish(passID string, rec domain.Record) {
	if s.pub == nil {
		return
	}
	data, err := json.Marshal(scanEvent{
		Type:   "opportunity",
		PassID: passID,
		Record: rec,
	})
	if err != nil {
		return
	}
	s.pub.Publish(data)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
