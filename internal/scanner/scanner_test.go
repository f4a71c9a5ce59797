package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/avelory/steamflipper/internal/domain"
	"github.com/avelory/steamflipper/internal/platform/steam"
)

type fakeFetcher struct {
	quotes map[string]*steam.PriceOverview
	calls  []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, appID int, marketHashName string) *steam.PriceOverview {
	f.calls = append(f.calls, marketHashName)
	return f.quotes[marketHashName]
}

type fakeOppStore struct {
	records []domain.Record
	err     error
}

func (s *fakeOppStore) Insert(ctx context.Context, rec domain.Record) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.records = append(s.records, rec)
	return int64(len(s.records)), nil
}

func (s *fakeOppStore) List(ctx context.Context, f domain.OpportunityFilter) ([]domain.Record, error) {
	return s.records, nil
}

type fakeWatchlist struct {
	items []domain.WatchItem
}

func (w *fakeWatchlist) Add(ctx context.Context, appID int, name string) (domain.WatchItem, error) {
	item := domain.WatchItem{ID: int64(len(w.items) + 1), AppID: appID, MarketHashName: name}
	w.items = append(w.items, item)
	return item, nil
}

func (w *fakeWatchlist) List(ctx context.Context) ([]domain.WatchItem, error) {
	return w.items, nil
}

type fakeNotifier struct {
	titles []string
	bodies []string
	err    error
}

func (n *fakeNotifier) Send(ctx context.Context, title, message string) error {
	if n.err != nil {
		return n.err
	}
	n.titles = append(n.titles, title)
	n.bodies = append(n.bodies, message)
	return nil
}

type fakePublisher struct {
	events [][]byte
}

func (p *fakePublisher) Publish(data []byte) {
	p.events = append(p.events, data)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func profitableQuote() *steam.PriceOverview {
	// 100 -> 130 at 15% fee: net 10.5, ROI 10.5%, spread 30% (MEDIUM risk).
	return &steam.PriceOverview{
		Success:     true,
		LowestPrice: "100 руб.",
		MedianPrice: "130 руб.",
		Volume:      "500",
	}
}

func rejectedQuote() *steam.PriceOverview {
	// 100 -> 115 at 15% fee: net -2.25 (NEGATIVE_ROI).
	return &steam.PriceOverview{
		Success:     true,
		LowestPrice: "100 руб.",
		MedianPrice: "115 руб.",
		Volume:      "500",
	}
}

func newTestScanner(fetcher *fakeFetcher, opps *fakeOppStore, wl *fakeWatchlist, cooldowns *memCooldownStore, notifier Notifier, pub Publisher) *Scanner {
	gate := NewGate(cooldowns, 30*time.Minute)
	return New(fetcher, opps, wl, gate, notifier, pub, Config{
		Interval:  time.Hour,
		ItemDelay: time.Millisecond,
		Policy:    domain.DefaultPolicy(),
	}, discardLogger())
}

func TestScanItemPersistsAndNotifies(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{"Fracture Case": profitableQuote()}}
	opps := &fakeOppStore{}
	notifier := &fakeNotifier{}
	cooldowns := newMemCooldownStore()
	s := newTestScanner(fetcher, opps, &fakeWatchlist{}, cooldowns, notifier, nil)

	item := domain.WatchItem{AppID: 730, MarketHashName: "Fracture Case"}

	res, err := s.ScanItem(context.Background(), item)
	if err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if res == nil || !res.Notified {
		t.Fatalf("result = %+v, want notified", res)
	}
	if len(opps.records) != 1 {
		t.Fatalf("records = %d, want 1", len(opps.records))
	}
	rec := opps.records[0]
	if !rec.Profitable || rec.RejectReason != "" {
		t.Errorf("record verdict = (%v, %q), want accepted", rec.Profitable, rec.RejectReason)
	}
	if res.Record.ID != 1 {
		t.Errorf("record ID = %d, want store-assigned 1", res.Record.ID)
	}
	if len(notifier.titles) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.titles))
	}

	// Second profitable scan inside the cooldown window: persisted again but
	// not announced again.
	res, err = s.ScanItem(context.Background(), item)
	if err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if res.Notified {
		t.Error("second scan inside cooldown was notified")
	}
	if len(opps.records) != 2 {
		t.Errorf("records = %d, want 2 (audit log is append-only)", len(opps.records))
	}
	if len(notifier.titles) != 1 {
		t.Errorf("notifications = %d, want still 1", len(notifier.titles))
	}
}

func TestScanItemRejectedIsPersistedNotNotified(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{"x": rejectedQuote()}}
	opps := &fakeOppStore{}
	notifier := &fakeNotifier{}
	s := newTestScanner(fetcher, opps, &fakeWatchlist{}, newMemCooldownStore(), notifier, nil)

	res, err := s.ScanItem(context.Background(), domain.WatchItem{AppID: 730, MarketHashName: "x"})
	if err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if res.Notified {
		t.Error("rejected flip was notified")
	}
	if len(opps.records) != 1 {
		t.Fatalf("records = %d, want 1", len(opps.records))
	}
	if opps.records[0].RejectReason != domain.RejectNegativeROI {
		t.Errorf("RejectReason = %s, want %s", opps.records[0].RejectReason, domain.RejectNegativeROI)
	}
	if len(notifier.titles) != 0 {
		t.Errorf("notifications = %d, want 0", len(notifier.titles))
	}
}

func TestScanItemNoDataLeavesNoRecord(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{}} // fetch returns nil
	opps := &fakeOppStore{}
	s := newTestScanner(fetcher, opps, &fakeWatchlist{}, newMemCooldownStore(), nil, nil)

	res, err := s.ScanItem(context.Background(), domain.WatchItem{AppID: 730, MarketHashName: "gone"})
	if err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil for no data", res)
	}
	if len(opps.records) != 0 {
		t.Errorf("records = %d, want 0", len(opps.records))
	}
}

func TestScanItemPublishesEvent(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{"x": rejectedQuote()}}
	pub := &fakePublisher{}
	s := newTestScanner(fetcher, &fakeOppStore{}, &fakeWatchlist{}, newMemCooldownStore(), nil, pub)

	if _, err := s.ScanItem(context.Background(), domain.WatchItem{AppID: 730, MarketHashName: "x"}); err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("events = %d, want 1", len(pub.events))
	}

	var ev scanEvent
	if err := json.Unmarshal(pub.events[0], &ev); err != nil {
		t.Fatalf("event is not valid JSON: %v", err)
	}
	if ev.Type != "opportunity" || ev.Record.ItemName != "x" {
		t.Errorf("event = %+v", ev)
	}
}

func TestScanPassAbortsOnPersistError(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{
		"first":  profitableQuote(),
		"second": profitableQuote(),
	}}
	opps := &fakeOppStore{err: errors.New("disk full")}
	s := newTestScanner(fetcher, opps, &fakeWatchlist{}, newMemCooldownStore(), nil, nil)

	items := []domain.WatchItem{
		{AppID: 730, MarketHashName: "first"},
		{AppID: 730, MarketHashName: "second"},
	}
	s.scanPass(context.Background(), "pass-1", items)

	if len(fetcher.calls) != 1 {
		t.Errorf("fetches = %v, want pass aborted after the first item", fetcher.calls)
	}
}

func TestScanItemNotifierFailureStillPersists(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*steam.PriceOverview{"x": profitableQuote()}}
	opps := &fakeOppStore{}
	notifier := &fakeNotifier{err: errors.New("telegram down")}
	cooldowns := newMemCooldownStore()
	s := newTestScanner(fetcher, opps, &fakeWatchlist{}, cooldowns, notifier, nil)

	res, err := s.ScanItem(context.Background(), domain.WatchItem{AppID: 730, MarketHashName: "x"})
	if err != nil {
		t.Fatalf("ScanItem: %v", err)
	}
	if res.Notified {
		t.Error("failed delivery reported as notified")
	}
	if len(opps.records) != 1 {
		t.Errorf("records = %d, want 1", len(opps.records))
	}
	// No mark was written, so the next profitable scan retries delivery.
	if len(cooldowns.marks) != 0 {
		t.Errorf("cooldown marks = %v, want none after failed delivery", cooldowns.marks)
	}
}
