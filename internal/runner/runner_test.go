package runner

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"option_bot/internal/lifecycle"
	"option_bot/internal/models"
	"option_bot/internal/modules/config"
	"option_bot/internal/venue"
)

type fakeVenue struct {
	mu          sync.Mutex
	placed      []venue.OrderRequest
	results     []venue.Result
	resultCalls int
}

func (f *fakeVenue) Connect(context.Context) (venue.ConnectInfo, error) {
	return venue.ConnectInfo{Balance: 100, Mode: "PRACTICE"}, nil
}

func (f *fakeVenue) GetCandles(context.Context, string, int, int, time.Time) ([]models.Candle, error) {
	return nil, nil
}

func (f *fakeVenue) PlaceOrder(_ context.Context, req venue.OrderRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, req)
	return "c-1", nil
}

func (f *fakeVenue) CheckResult(context.Context, string) (venue.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultCalls++
	if f.resultCalls <= len(f.results) {
		return f.results[f.resultCalls-1], nil
	}
	return venue.Result{}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) Sendf(format string, args ...any) error {
	return f.Send(format)
}

type fakeRecorder struct {
	dailyProfit float64
	events      []models.Event
}

func (f *fakeRecorder) RecordPlacement(context.Context, *models.TradeRecord) error  { return nil }
func (f *fakeRecorder) RecordSettlement(context.Context, *models.TradeRecord) error { return nil }

func (f *fakeRecorder) RecordEvent(_ context.Context, ev models.Event) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeRecorder) DailyProfit(context.Context, time.Time) (float64, error) {
	return f.dailyProfit, nil
}

type alwaysBuy struct{}

func (alwaysBuy) Evaluate(models.IndicatorSnapshot, float64, models.PerformanceCounters) models.Signal {
	return models.Signal{Direction: models.Buy, Strength: 1}
}

func (alwaysBuy) Dump() string { return "alwaysBuy" }

func testConfig() *config.Config {
	return &config.Config{
		Asset:           "EURUSD",
		Stake:           1.0,
		DurationMinutes: 1,
		Mode:            "PRACTICE",
		Strategy:        "weighted",
		MaxTrades:       10,
		GranularitySec:  60,

		BBPeriod:      3,
		BBStd:         2.0,
		RSIPeriod:     3,
		RSIOverbought: 70,
		RSIOSold:      30,
		EMAShort:      2,
		EMAMedium:     3,
		EMALong:       4,
		StochKPeriod:  2,
		StochDPeriod:  1,
		StochSmooth:   1,
		MinVolumeRate: 0.5,

		MaxDailyLoss:      -5,
		MinSignalStrength: 0.8,
		RiskRewardRatio:   2.0,
		HoursFilter:       false,

		PlaceMaxAttempts: 3,
		PlaceRetryDelay:  time.Millisecond,
		SettlePoll:       time.Millisecond,
		TickInterval:     time.Second,
	}
}

func newTestRunner(fake *fakeVenue) (*Runner, *lifecycle.Manager, *fakeNotifier) {
	cfg := testConfig()
	lm := lifecycle.New(fake, lifecycle.Config{
		MaxTrades:        cfg.MaxTrades,
		PlaceMaxAttempts: cfg.PlaceMaxAttempts,
		PlaceRetryDelay:  cfg.PlaceRetryDelay,
	})
	n := &fakeNotifier{}
	r := New(cfg, fake, lm, n, nil)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	return r, lm, n
}

func feedTicks(r *Runner, n int, price float64) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		r.onTick(models.Tick{Timestamp: base.Add(time.Duration(i) * time.Second), Price: price, Volume: 10})
	}
}

func TestOnTickDispatchesWhenIdle(t *testing.T) {
	r, _, _ := newTestRunner(&fakeVenue{})
	r.eval = alwaysBuy{}

	feedTicks(r, 5, 1.0845)

	select {
	case req := <-r.intents:
		if req.intent.Direction != models.Buy || req.intent.Asset != "EURUSD" {
			t.Fatalf("unexpected intent: %+v", req.intent)
		}
		if req.price != 1.0845 {
			t.Fatalf("intent price = %v", req.price)
		}
	default:
		t.Fatal("signal not dispatched")
	}
}

func TestOnTickSkipsWhileWindowShort(t *testing.T) {
	r, _, _ := newTestRunner(&fakeVenue{})
	r.eval = alwaysBuy{}

	feedTicks(r, 2, 1.0)

	select {
	case <-r.intents:
		t.Fatal("dispatched before indicator window filled")
	default:
	}
}

func TestOnTickIgnoresStaleTick(t *testing.T) {
	r, _, _ := newTestRunner(&fakeVenue{})

	feedTicks(r, 3, 1.0)
	before := r.buf.Len()
	r.onTick(models.Tick{Timestamp: time.Unix(1, 0), Price: 0.5, Volume: 1})
	if r.buf.Len() != before {
		t.Fatal("stale tick appended to history")
	}
}

func TestOnTickHonorsHoursFilter(t *testing.T) {
	r, _, _ := newTestRunner(&fakeVenue{})
	r.eval = alwaysBuy{}
	r.cfg.HoursFilter = true
	// суббота
	r.now = func() time.Time { return time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC) }

	feedTicks(r, 5, 1.0)

	select {
	case <-r.intents:
		t.Fatal("dispatched on a weekend")
	default:
	}
}

func TestRunTradeSettlesAndNotifies(t *testing.T) {
	fake := &fakeVenue{results: []venue.Result{
		{Settled: false},
		{Settled: true, Profit: 5.0},
	}}
	r, lm, n := newTestRunner(fake)

	r.runTrade(context.Background(), placeReq{
		intent: models.TradeIntent{Asset: "EURUSD", Direction: models.Buy, Stake: 1, DurationMinutes: 1},
		price:  1.0845,
	})

	if got := lm.State(); got != lifecycle.StateIdle {
		t.Fatalf("state = %s, want IDLE", got)
	}
	c := lm.Counters()
	if c.Wins != 1 || c.TotalProfit != 5.0 {
		t.Fatalf("counters: %+v", c)
	}

	var settled string
	for _, msg := range n.sent {
		if strings.Contains(msg, "WIN") {
			settled = msg
		}
	}
	if settled == "" {
		t.Fatalf("no settlement notification, got %v", n.sent)
	}
}

func TestRestoreCountersSeedsDailyLoss(t *testing.T) {
	r, lm, _ := newTestRunner(&fakeVenue{})
	r.journal = &fakeRecorder{dailyProfit: -5.0}

	r.restoreCounters(context.Background())

	if c := lm.Counters(); c.TotalProfit != -5.0 {
		t.Fatalf("daily P/L not restored: %+v", c)
	}
}

func TestSettleAbandonsOnShutdown(t *testing.T) {
	fake := &fakeVenue{results: []venue.Result{{Settled: true, Profit: 5.0}}}
	r, lm, _ := newTestRunner(fake)
	r.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	rec, err := lm.Place(context.Background(), models.TradeIntent{
		Asset: "EURUSD", Direction: models.Buy, Stake: 1, DurationMinutes: 1,
	}, 1.0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	r.settle(context.Background(), rec)

	if got := lm.State(); got != lifecycle.StateIdle {
		t.Fatalf("state = %s, want IDLE after abandon", got)
	}
	// результат площадки пришёл бы позже, в счётчики он не попадает
	if c := lm.Counters(); c.Wins != 0 || c.TotalProfit != 0 {
		t.Fatalf("late result applied to counters: %+v", c)
	}
}

func TestTradingHours(t *testing.T) {
	cases := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"weekday prime", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC), true},
		{"saturday", time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC), false},
		{"sunday", time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), false},
		{"rollover evening", time.Date(2025, 3, 10, 21, 30, 0, 0, time.UTC), false},
		{"rollover night", time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC), false},
		{"early morning", time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		if got := TradingHours(tc.t); got != tc.want {
			t.Fatalf("%s: TradingHours = %v, want %v", tc.name, got, tc.want)
		}
	}
}
