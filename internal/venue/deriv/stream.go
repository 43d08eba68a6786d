package deriv

import (
	"context"
	"log"
	"time"

	"option_bot/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

const (
	pingInterval   = 20 * time.Second
	reconnectPause = 5 * time.Second
)

// StreamTicks — подписка на тики в отдельном соединении.
// При обрыве переподключается сама, канал закрывается только по ctx.
func (c *Client) StreamTicks(ctx context.Context, asset string) <-chan models.Tick {
	out := make(chan models.Tick)

	go func() {
		defer close(out)
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.streamOnce(ctx, asset, out); err != nil {
				log.Printf("[VENUE] tick stream %s: %v, reconnect in %s", asset, err, reconnectPause)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(reconnectPause):
			}
		}
	}()

	return out
}

func (c *Client) streamOnce(ctx context.Context, asset string, out chan<- models.Tick) error {
	conn, _, err := c.wsDialer.DialContext(ctx, c.url(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub, err := sonic.Marshal(map[string]any{"ticks": asset, "subscribe": 1})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		return err
	}

	// keepalive, иначе площадка режет молчащее соединение
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping, _ := sonic.Marshal(map[string]any{"ping": 1})
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var frame tickFrame
		if err := sonic.Unmarshal(raw, &frame); err != nil || frame.Tick == nil {
			continue
		}

		tick := models.Tick{
			Timestamp: time.Unix(frame.Tick.Epoch, 0),
			Price:     frame.Tick.Quote,
			Volume:    0, // тиковый фид без объёма, объём берём из свечей
		}
		select {
		case out <- tick:
		case <-ctx.Done():
			return nil
		}
	}
}
