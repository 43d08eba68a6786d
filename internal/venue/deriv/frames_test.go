package deriv

import (
	"errors"
	"testing"

	"option_bot/internal/venue"

	"github.com/bytedance/sonic"
)

func TestParseCandlesOrdersByTime(t *testing.T) {
	raw := []byte(`{"msg_type":"candles","candles":[
		{"epoch":120,"close":1.002,"volume":30},
		{"epoch":60,"close":1.001,"volume":25}
	]}`)

	candles, err := parseCandles(raw)
	if err != nil {
		t.Fatalf("parseCandles: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("expected 2 candles, got %d", len(candles))
	}
	if candles[0].OpenTime.Unix() != 60 || candles[1].OpenTime.Unix() != 120 {
		t.Fatalf("candles not sorted: %+v", candles)
	}
	if candles[0].Close != 1.001 || candles[0].Volume != 25 {
		t.Fatalf("wrong first candle: %+v", candles[0])
	}
}

func TestParseBuy(t *testing.T) {
	id, err := parseBuy([]byte(`{"msg_type":"buy","buy":{"contract_id":123456789}}`))
	if err != nil {
		t.Fatalf("parseBuy: %v", err)
	}
	if id != "123456789" {
		t.Fatalf("wrong contract id: %s", id)
	}

	if _, err := parseBuy([]byte(`{"msg_type":"buy"}`)); err == nil {
		t.Fatal("expected error on empty buy payload")
	}
}

func TestParseContractSettled(t *testing.T) {
	res, err := parseContract([]byte(`{"msg_type":"proposal_open_contract",
		"proposal_open_contract":{"is_sold":1,"profit":5.0}}`))
	if err != nil {
		t.Fatalf("parseContract: %v", err)
	}
	if !res.Settled || res.Profit != 5.0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = parseContract([]byte(`{"msg_type":"proposal_open_contract",
		"proposal_open_contract":{"is_sold":0,"profit":0}}`))
	if err != nil {
		t.Fatalf("parseContract open: %v", err)
	}
	if res.Settled {
		t.Fatal("open contract reported as settled")
	}
}

func TestAPIErrorMapping(t *testing.T) {
	cases := []struct {
		code    string
		msgType string
		want    error
	}{
		{"InvalidToken", "authorize", venue.ErrAuth},
		{"OfferingsValidationError", "buy", venue.ErrInstrumentUnavailable},
		{"InsufficientBalance", "buy", venue.ErrOrderRejected},
	}

	for _, tc := range cases {
		head := headFrame{
			MsgType: tc.msgType,
			Error:   &apiFault{Code: tc.code, Message: "boom"},
		}
		err := apiError(head)
		if !errors.Is(err, tc.want) {
			t.Fatalf("code %s: got %v, want wrap of %v", tc.code, err, tc.want)
		}
	}

	head := headFrame{MsgType: "candles", Error: &apiFault{Code: "MarketIsClosed", Message: "closed"}}
	err := apiError(head)
	if errors.Is(err, venue.ErrAuth) || errors.Is(err, venue.ErrOrderRejected) {
		t.Fatalf("generic error mapped to typed one: %v", err)
	}
}

func TestTickFrameDecode(t *testing.T) {
	var frame tickFrame
	raw := []byte(`{"msg_type":"tick","tick":{"epoch":1700000000,"quote":1.0845}}`)
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		t.Fatalf("unmarshal tick: %v", err)
	}
	if frame.Tick == nil || frame.Tick.Quote != 1.0845 {
		t.Fatalf("bad tick frame: %+v", frame.Tick)
	}
}
