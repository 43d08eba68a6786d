package journal

import (
	"context"
	"time"

	"option_bot/internal/models"
	"option_bot/pkg/db"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Recorder пишет историю сделок в postgres: строка при постановке,
// апдейт при расчёте. Используется для пост-анализа, движок
// от журнала не зависит.
type Recorder struct {
	txManager db.TxManager
}

func NewRecorder(txManager db.TxManager) *Recorder {
	return &Recorder{txManager: txManager}
}

const insertTradeSQL = `
INSERT INTO trades (contract_id, asset, direction, stake, duration_min,
                    instrument, entry_price, status, retry_count, placed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const settleTradeSQL = `
UPDATE trades
SET status = $2, profit_loss = $3, settled_at = $4
WHERE contract_id = $1`

const insertEventSQL = `
INSERT INTO events (ts, action, price, details)
VALUES ($1, $2, $3, $4)`

func (r *Recorder) RecordPlacement(ctx context.Context, rec *models.TradeRecord) error {
	err := r.txManager.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertTradeSQL,
			rec.ID,
			rec.Intent.Asset,
			string(rec.Intent.Direction),
			rec.Intent.Stake,
			rec.Intent.DurationMinutes,
			string(rec.Instrument),
			rec.EntryPrice,
			string(rec.Status),
			rec.RetryCount,
			rec.Intent.CreatedAt,
		)
		return err
	})
	return errors.Wrap(err, "journal placement")
}

func (r *Recorder) RecordSettlement(ctx context.Context, rec *models.TradeRecord) error {
	err := r.txManager.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, settleTradeSQL,
			rec.ID,
			string(rec.Status),
			rec.ProfitLoss,
			rec.SettledAt,
		)
		return err
	})
	return errors.Wrap(err, "journal settlement")
}

// RecordEvent — поток событий пайплайна (коннект, сигналы, фейлы).
// Снапшот индикаторов уходит в details как JSON.
func (r *Recorder) RecordEvent(ctx context.Context, ev models.Event) error {
	var details []byte
	if ev.Snapshot != nil {
		b, err := sonic.Marshal(ev.Snapshot)
		if err != nil {
			return errors.Wrap(err, "journal event details")
		}
		details = b
	}
	err := r.txManager.Run(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertEventSQL,
			ev.Timestamp,
			string(ev.Action),
			ev.Price,
			details,
		)
		return err
	})
	return errors.Wrap(err, "journal event")
}

// DailyProfit — суммарный P/L за календарный день, для сверки
// счётчиков после рестарта.
func (r *Recorder) DailyProfit(ctx context.Context, day time.Time) (float64, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	row := r.txManager.Conn().QueryRow(ctx,
		`SELECT COALESCE(SUM(profit_loss), 0) FROM trades
		 WHERE settled_at >= $1 AND settled_at < $2`,
		start, start.Add(24*time.Hour),
	)
	var total float64
	if err := row.Scan(&total); err != nil {
		return 0, errors.Wrap(err, "journal daily profit")
	}
	return total, nil
}
