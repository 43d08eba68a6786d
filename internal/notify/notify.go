package notify

import (
	"fmt"
	"log"

	"option_bot/internal/models"
	"option_bot/internal/venue"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
)

// Notifier — канал оповещений о жизни бота. Telegram в проде,
// stdout когда токен не задан.
type Notifier interface {
	Send(text string) error
	Sendf(format string, args ...any) error
}

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "telegram auth")
	}
	log.Printf("[NOTIFY] telegram authorized as %s", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Send(text string) error {
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	return errors.Wrap(err, "telegram send")
}

func (t *Telegram) Sendf(format string, args ...any) error {
	return t.Send(fmt.Sprintf(format, args...))
}

// Stdout — фолбэк без телеграма, пишет в обычный лог.
type Stdout struct{}

func (Stdout) Send(text string) error {
	log.Printf("[NOTIFY] %s", text)
	return nil
}

func (Stdout) Sendf(format string, args ...any) error {
	return Stdout{}.Send(fmt.Sprintf(format, args...))
}

func FormatStartup(asset string, info venue.ConnectInfo) string {
	return fmt.Sprintf("🤖 бот запущен: %s, режим %s, баланс %.2f",
		asset, info.Mode, info.Balance)
}

func FormatPlacement(rec *models.TradeRecord) string {
	return fmt.Sprintf("📈 сделка %s %s %s, ставка %.2f, вход %.5f (%s)",
		rec.ID, rec.Intent.Direction, rec.Intent.Asset,
		rec.Intent.Stake, rec.EntryPrice, rec.Instrument)
}

func FormatSettlement(rec *models.TradeRecord, counters models.PerformanceCounters) string {
	mark := "✅ WIN"
	if rec.ProfitLoss <= 0 {
		mark = "❌ LOSS"
	}
	return fmt.Sprintf("%s %s %+.2f | день: %d сделок, winrate %.1f%%, P/L %+.2f",
		mark, rec.Intent.Asset, rec.ProfitLoss,
		counters.TradeCount, counters.WinRate(), counters.TotalProfit)
}

func FormatFailure(rec *models.TradeRecord, err error) string {
	return fmt.Sprintf("⚠️ постановка %s не прошла после %d попыток: %v",
		rec.Intent.Asset, rec.RetryCount, err)
}
