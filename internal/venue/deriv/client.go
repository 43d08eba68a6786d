package deriv

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"option_bot/internal/models"
	"option_bot/internal/venue"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Client — JSON-websocket клиент площадки бинарных опционов.
// Одно соединение под запрос-ответ (authorize, свечи, buy, опрос контракта),
// отдельное — под каждый тиковый стрим (см. stream.go).
type Client struct {
	cfg      Config
	wsDialer *websocket.Dialer

	mu    sync.Mutex
	conn  *websocket.Conn
	reqID int64
}

type Config struct {
	WSURL    string
	AppID    string
	APIToken string
	Mode     string // PRACTICE | REAL
}

var (
	_ venue.Venue        = (*Client)(nil)
	_ venue.TickStreamer = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

func (c *Client) url() string {
	return c.cfg.WSURL + "?app_id=" + c.cfg.AppID
}

// Connect — dial + authorize. Невалидный токен → venue.ErrAuth,
// супервизор такое не ретраит.
func (c *Client) Connect(ctx context.Context) (venue.ConnectInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.dialLocked(ctx); err != nil {
		return venue.ConnectInfo{}, err
	}

	raw, err := c.roundTripLocked(ctx, map[string]any{"authorize": c.cfg.APIToken}, "authorize")
	if err != nil {
		return venue.ConnectInfo{}, err
	}

	var frame authorizeFrame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return venue.ConnectInfo{}, errors.Wrap(err, "decode authorize")
	}
	if frame.Authorize == nil {
		return venue.ConnectInfo{}, errors.New("authorize: empty payload")
	}

	mode := "REAL"
	if frame.Authorize.IsVirtual == 1 {
		mode = "PRACTICE"
	}
	log.Printf("[VENUE] authorized, balance=%.2f mode=%s", frame.Authorize.Balance, mode)

	return venue.ConnectInfo{Balance: frame.Authorize.Balance, Mode: mode}, nil
}

func (c *Client) GetCandles(ctx context.Context, asset string, granularitySec, count int, end time.Time) ([]models.Candle, error) {
	req := map[string]any{
		"ticks_history": asset,
		"style":         "candles",
		"granularity":   granularitySec,
		"count":         count,
		"end":           end.Unix(),
	}

	raw, err := c.request(ctx, req, "candles")
	if err != nil {
		return nil, err
	}
	return parseCandles(raw)
}

func (c *Client) PlaceOrder(ctx context.Context, req venue.OrderRequest) (string, error) {
	contractType := "CALL"
	if req.Direction == models.Sell {
		contractType = "PUT"
	}

	payload := map[string]any{
		"buy":   1,
		"price": req.Stake,
		"parameters": map[string]any{
			"contract_type": contractType,
			"symbol":        req.Asset,
			"amount":        req.Stake,
			"basis":         "stake",
			"currency":      "USD",
			"duration":      req.DurationMinutes,
			"duration_unit": "m",
			"product_type":  productType(req.Instrument),
		},
	}

	raw, err := c.request(ctx, payload, "buy")
	if err != nil {
		return "", err
	}
	return parseBuy(raw)
}

func (c *Client) CheckResult(ctx context.Context, id string) (venue.Result, error) {
	raw, err := c.request(ctx, map[string]any{
		"proposal_open_contract": 1,
		"contract_id":            id,
	}, "proposal_open_contract")
	if err != nil {
		return venue.Result{}, err
	}
	return parseContract(raw)
}

func productType(class models.InstrumentClass) string {
	if class == models.InstrumentDigital {
		return "digital"
	}
	return "basic"
}

// request — один запрос-ответ под локом; упавшее соединение
// передёргиваем на следующем вызове.
func (c *Client) request(ctx context.Context, payload map[string]any, wantType string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.dialLocked(ctx); err != nil {
			return nil, err
		}
		// после переподключения нужен повторный authorize
		if _, err := c.roundTripLocked(ctx, map[string]any{"authorize": c.cfg.APIToken}, "authorize"); err != nil {
			return nil, err
		}
	}

	return c.roundTripLocked(ctx, payload, wantType)
}

func (c *Client) dialLocked(ctx context.Context) error {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	conn, resp, err := c.wsDialer.DialContext(ctx, c.url(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: handshake %d", venue.ErrAuth, resp.StatusCode)
		}
		return errors.Wrap(err, "dial venue ws")
	}
	c.conn = conn
	return nil
}

func (c *Client) roundTripLocked(ctx context.Context, payload map[string]any, wantType string) ([]byte, error) {
	c.reqID++
	payload["req_id"] = c.reqID

	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		_ = c.conn.SetReadDeadline(deadline)
	} else {
		_ = c.conn.SetWriteDeadline(time.Now().Add(15 * time.Second))
		_ = c.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.dropLocked()
		return nil, errors.Wrap(err, "write request")
	}

	// читаем до нужного msg_type; чужие подписочные кадры пропускаем
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.dropLocked()
			return nil, errors.Wrap(err, "read response")
		}

		var head headFrame
		if err := sonic.Unmarshal(raw, &head); err != nil {
			continue
		}
		if head.Error != nil {
			return nil, apiError(head)
		}
		if head.MsgType == wantType {
			return raw, nil
		}
	}
}

func (c *Client) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}
