package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"option_bot/internal/history"
	"option_bot/internal/indicator"
	"option_bot/internal/lifecycle"
	"option_bot/internal/models"
	"option_bot/internal/modules/config"
	"option_bot/internal/notify"
	"option_bot/internal/strategy"
	"option_bot/internal/venue"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
)

// Notifier и Recorder объявлены локально: раннеру всё равно,
// телеграм там или stdout, postgres или заглушка.
type Notifier interface {
	Send(text string) error
	Sendf(format string, args ...any) error
}

type Recorder interface {
	RecordPlacement(ctx context.Context, rec *models.TradeRecord) error
	RecordSettlement(ctx context.Context, rec *models.TradeRecord) error
	RecordEvent(ctx context.Context, ev models.Event) error
	DailyProfit(ctx context.Context, day time.Time) (float64, error)
}

type placeReq struct {
	intent models.TradeIntent
	price  float64
	snap   models.IndicatorSnapshot
}

// Runner — главный цикл: тики → индикаторы → сигнал → сделка.
// Инжест и сопровождение сделки разнесены по горутинам,
// связь только через канал intents.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg *config.Config
	v   venue.Venue
	sup *venue.Supervisor

	buf    *history.Buffer
	indCfg indicator.Config
	eval   strategy.Evaluator
	lm     *lifecycle.Manager

	n       Notifier
	journal Recorder

	intents chan placeReq

	// подменяются в тестах
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	healthMu sync.Mutex
	lastTick time.Time
}

func New(cfg *config.Config, v venue.Venue, lm *lifecycle.Manager, n Notifier, journal Recorder) *Runner {
	eval := strategy.New(cfg.Strategy, strategy.Config{
		RSIOverbought:     cfg.RSIOverbought,
		RSIOSold:          cfg.RSIOSold,
		MinSignalStrength: cfg.MinSignalStrength,
		RiskRewardRatio:   cfg.RiskRewardRatio,
		MaxDailyLoss:      cfg.MaxDailyLoss,
	})

	return &Runner{
		cfg: cfg,
		v:   v,
		sup: venue.NewSupervisor(v, cfg.ConnectMaxAttempts, cfg.ConnectBackoff),
		buf: history.NewBuffer(cfg.HistoryCapacity()),
		indCfg: indicator.Config{
			BBPeriod:      cfg.BBPeriod,
			BBStd:         cfg.BBStd,
			RSIPeriod:     cfg.RSIPeriod,
			EMAShort:      cfg.EMAShort,
			EMAMedium:     cfg.EMAMedium,
			EMALong:       cfg.EMALong,
			StochKPeriod:  cfg.StochKPeriod,
			StochDPeriod:  cfg.StochDPeriod,
			StochSmooth:   cfg.StochSmooth,
			MinVolumeRate: cfg.MinVolumeRate,
		},
		eval:    eval,
		lm:      lm,
		n:       n,
		journal: journal,
		// одна сделка в моменте, очередь глубже не нужна
		intents: make(chan placeReq, 1),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *Runner) Start(parent context.Context) error {
	r.ctx, r.cancel = context.WithCancel(parent)

	info, err := r.sup.Connect(r.ctx)
	if err != nil {
		return errors.Wrap(err, "connect venue")
	}
	if info.Balance < r.cfg.Stake {
		return errors.Errorf("balance %.2f below stake %.2f", info.Balance, r.cfg.Stake)
	}
	if info.Mode != r.cfg.Mode {
		log.Printf("[RUNNER] режим аккаунта %s != конфига %s", info.Mode, r.cfg.Mode)
	}
	_ = r.n.Send(notify.FormatStartup(r.cfg.Asset, info))
	r.recordEvent(r.ctx, models.Event{
		Timestamp: r.now(),
		Action:    models.EventConnected,
		Result:    info.Mode,
	})

	r.restoreCounters(r.ctx)

	if err := r.warmup(r.ctx); err != nil {
		log.Printf("[RUNNER] warmup error: %v", err)
	}

	go r.tradeWorker(r.ctx)
	go r.healthLoop(r.ctx)

	r.ingestLoop(r.ctx)
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
}

// restoreCounters поднимает дневной P/L из журнала: после рестарта
// процесса дневной стоп продолжает действовать.
func (r *Runner) restoreCounters(ctx context.Context) {
	if r.journal == nil {
		return
	}
	total, err := r.journal.DailyProfit(ctx, r.now())
	if err != nil {
		log.Printf("[JOURNAL] daily profit: %v", err)
		return
	}
	if total != 0 {
		log.Printf("[RUNNER] restored daily P/L %.2f from journal", total)
		r.lm.Restore(total)
	}
}

// warmup заливает буфер историческими свечами,
// чтобы не ждать живых тиков на полное окно.
func (r *Runner) warmup(ctx context.Context) error {
	candles, err := r.v.GetCandles(ctx, r.cfg.Asset, r.cfg.GranularitySec, r.buf.Cap(), r.now())
	if err != nil {
		return err
	}
	for _, c := range candles {
		r.buf.Append(c.Tick())
	}
	log.Printf("[RUNNER] warmup done: %d candles", len(candles))
	return nil
}

func (r *Runner) ingestLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			candles, err := r.v.GetCandles(ctx, r.cfg.Asset, r.cfg.GranularitySec, 1, r.now())
			if err != nil {
				log.Printf("[TICK] fetch error: %v", err)
				continue
			}
			if len(candles) == 0 {
				continue
			}
			r.onTick(candles[len(candles)-1].Tick())
		}
	}
}

// onTick — один шаг конвейера. Вынесен отдельно,
// тесты гоняют его без сети и таймеров.
func (r *Runner) onTick(tick models.Tick) {
	last, ok := r.buf.Last()
	if ok && tick.Timestamp.Before(last.Timestamp) {
		// свеча из прошлого, поллинг иногда такое отдаёт
		return
	}
	r.buf.Append(tick)

	r.healthMu.Lock()
	r.lastTick = r.now()
	r.healthMu.Unlock()

	if r.cfg.HoursFilter && !TradingHours(r.now()) {
		return
	}

	snap, err := indicator.Compute(r.buf.Snapshot(), r.indCfg)
	if err != nil {
		// окно ещё не набралось
		return
	}

	sig := r.eval.Evaluate(snap, tick.Price, r.lm.Counters())
	if sig.Direction == models.Hold {
		return
	}
	log.Printf("[SIGNAL] %s strength=%.2f price=%.5f | %s", sig.Direction, sig.Strength, tick.Price, r.eval.Dump())

	if r.lm.State() != lifecycle.StateIdle {
		return
	}

	req := placeReq{
		intent: models.TradeIntent{
			Asset:           r.cfg.Asset,
			Direction:       sig.Direction,
			Stake:           r.cfg.Stake,
			DurationMinutes: r.cfg.DurationMinutes,
			CreatedAt:       r.now(),
		},
		price: tick.Price,
		snap:  snap,
	}
	select {
	case r.intents <- req:
	default:
		// воркер ещё занят предыдущей сделкой
	}
}

func (r *Runner) tradeWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-r.intents:
			r.runTrade(ctx, req)
		}
	}
}

func (r *Runner) recordEvent(ctx context.Context, ev models.Event) {
	if r.journal == nil {
		return
	}
	if err := r.journal.RecordEvent(ctx, ev); err != nil {
		log.Printf("[JOURNAL] event %s: %v", ev.Action, err)
	}
}

func (r *Runner) runTrade(ctx context.Context, req placeReq) {
	span := opentracing.StartSpan("place_order")
	span.SetTag("asset", req.intent.Asset)
	span.SetTag("direction", string(req.intent.Direction))
	spanCtx := opentracing.ContextWithSpan(ctx, span)

	r.recordEvent(ctx, models.Event{
		Timestamp: req.intent.CreatedAt,
		Action:    models.EventSignal,
		Price:     req.price,
		Snapshot:  &req.snap,
	})

	rec, err := r.lm.Place(spanCtx, req.intent, req.price)
	span.Finish()
	if err != nil {
		if errors.Is(err, lifecycle.ErrBlocked) {
			log.Printf("[TRADE] skip: %v", err)
			return
		}
		log.Printf("[TRADE] place failed: %v", err)
		if rec != nil {
			_ = r.n.Send(notify.FormatFailure(rec, err))
			r.recordEvent(ctx, models.Event{
				Timestamp: r.now(),
				Action:    models.EventTradeFail,
				Price:     req.price,
				Trade:     rec,
				Result:    err.Error(),
			})
		}
		return
	}

	log.Printf("[TRADE] open %s %s %s stake=%.2f", rec.ID, rec.Intent.Direction, rec.Instrument, rec.Intent.Stake)
	_ = r.n.Send(notify.FormatPlacement(rec))
	r.recordEvent(ctx, models.Event{
		Timestamp: r.now(),
		Action:    models.EventTradeOpen,
		Price:     rec.EntryPrice,
		Trade:     rec,
	})
	if r.journal != nil {
		if err := r.journal.RecordPlacement(ctx, rec); err != nil {
			log.Printf("[JOURNAL] placement: %v", err)
		}
	}

	r.settle(ctx, rec)
}

// settle ждёт экспирацию и опрашивает результат.
// Остановка по ctx бросает сделку: результат, пришедший позже,
// в счётчики уже не попадает.
func (r *Runner) settle(ctx context.Context, rec *models.TradeRecord) {
	expiry := time.Duration(rec.Intent.DurationMinutes) * time.Minute
	if err := r.sleep(ctx, expiry); err != nil {
		r.lm.Abandon("shutdown before expiry")
		r.recordEvent(context.Background(), models.Event{
			Timestamp: r.now(),
			Action:    models.EventLateResult,
			Trade:     rec,
			Result:    "abandoned, late result will be ignored",
		})
		return
	}

	for {
		settled, done, err := r.lm.Settle(ctx)
		if err != nil {
			log.Printf("[SETTLE] poll error: %v", err)
		}
		if done {
			_ = r.n.Send(notify.FormatSettlement(settled, r.lm.Counters()))
			if r.journal != nil {
				if err := r.journal.RecordSettlement(ctx, settled); err != nil {
					log.Printf("[JOURNAL] settlement: %v", err)
				}
			}
			r.recordEvent(ctx, models.Event{
				Timestamp: settled.SettledAt,
				Action:    models.EventSettlement,
				Price:     settled.EntryPrice,
				Trade:     settled,
			})
			return
		}
		if err := r.sleep(ctx, r.cfg.SettlePoll); err != nil {
			r.lm.Abandon("shutdown while settling")
			r.recordEvent(context.Background(), models.Event{
				Timestamp: r.now(),
				Action:    models.EventLateResult,
				Trade:     rec,
				Result:    "abandoned, late result will be ignored",
			})
			return
		}
	}
}

func (r *Runner) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.healthMu.Lock()
			last := r.lastTick
			r.healthMu.Unlock()
			if last.IsZero() {
				log.Printf("[HEALTH] тиков ещё не было")
				continue
			}
			if silent := r.now().Sub(last); silent > 3*r.cfg.TickInterval {
				log.Printf("[HEALTH] тиков нет уже %s", silent.Truncate(time.Second))
			}
		}
	}
}
