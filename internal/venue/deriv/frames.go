package deriv

import (
	"fmt"
	"sort"
	"time"

	"option_bot/internal/models"
	"option_bot/internal/venue"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Кадры протокола. Площадка шлёт плоский JSON с msg_type,
// парсим только нужные поля.

type headFrame struct {
	MsgType string    `json:"msg_type"`
	ReqID   int64     `json:"req_id"`
	Error   *apiFault `json:"error"`
}

type apiFault struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type authorizeFrame struct {
	Authorize *struct {
		Balance   float64 `json:"balance"`
		IsVirtual int     `json:"is_virtual"`
	} `json:"authorize"`
}

type candlesFrame struct {
	Candles []struct {
		Epoch  int64   `json:"epoch"`
		Close  float64 `json:"close"`
		Volume float64 `json:"volume"`
	} `json:"candles"`
}

type buyFrame struct {
	Buy *struct {
		ContractID int64 `json:"contract_id"`
	} `json:"buy"`
}

type contractFrame struct {
	Contract *struct {
		IsSold int     `json:"is_sold"`
		Profit float64 `json:"profit"`
	} `json:"proposal_open_contract"`
}

type tickFrame struct {
	Tick *struct {
		Epoch int64   `json:"epoch"`
		Quote float64 `json:"quote"`
	} `json:"tick"`
}

// apiError — маппинг кодов площадки на типизированные ошибки venue.
func apiError(head headFrame) error {
	f := head.Error
	switch f.Code {
	case "InvalidToken", "AuthorizationRequired", "InvalidAppID":
		return fmt.Errorf("%w: %s (%s)", venue.ErrAuth, f.Message, f.Code)
	case "OfferingsValidationError", "InvalidOfferings", "ContractCreationFailure":
		return fmt.Errorf("%w: %s (%s)", venue.ErrInstrumentUnavailable, f.Message, f.Code)
	}
	if head.MsgType == "buy" {
		return fmt.Errorf("%w: %s (%s)", venue.ErrOrderRejected, f.Message, f.Code)
	}
	return errors.Errorf("venue error %s: %s", f.Code, f.Message)
}

func parseCandles(raw []byte) ([]models.Candle, error) {
	var frame candlesFrame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return nil, errors.Wrap(err, "decode candles")
	}
	out := make([]models.Candle, 0, len(frame.Candles))
	for _, c := range frame.Candles {
		out = append(out, models.Candle{
			OpenTime: time.Unix(c.Epoch, 0),
			Close:    c.Close,
			Volume:   c.Volume,
		})
	}
	// буфер истории требует возрастания по времени
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.Before(out[j].OpenTime) })
	return out, nil
}

func parseBuy(raw []byte) (string, error) {
	var frame buyFrame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return "", errors.Wrap(err, "decode buy")
	}
	if frame.Buy == nil || frame.Buy.ContractID == 0 {
		return "", errors.New("buy: no contract id in response")
	}
	return fmt.Sprintf("%d", frame.Buy.ContractID), nil
}

func parseContract(raw []byte) (venue.Result, error) {
	var frame contractFrame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return venue.Result{}, errors.Wrap(err, "decode contract")
	}
	if frame.Contract == nil {
		return venue.Result{}, errors.New("contract: empty payload")
	}
	return venue.Result{
		Settled: frame.Contract.IsSold == 1,
		Profit:  frame.Contract.Profit,
	}, nil
}
