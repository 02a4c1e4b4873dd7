package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestRawLogIdentity(t *testing.T) {
	log := RawLog{
		BlockNumber: 36000000,
		TxHash:      "0xdef456",
		LogIndex:    12,
		Topics:      []string{"0x1c411e9a", "0xbbb"},
	}

	if got := log.ID(); got != "36000000:0xdef456:12" {
		t.Fatalf("unexpected id: %s", got)
	}
	if got := log.Topic0(); got != "0x1c411e9a" {
		t.Fatalf("unexpected topic0: %s", got)
	}
	if got := (RawLog{}).Topic0(); got != "" {
		t.Fatalf("expected empty topic0, got %s", got)
	}
}

func TestNewDecodeError(t *testing.T) {
	log := RawLog{ChainID: 56, BlockNumber: 7, TxHash: "0xabc", LogIndex: 3, Address: "0x1111", Topics: []string{"0xfeed"}}
	rec := NewDecodeError(log, errors.New("bad data"))

	if rec.Topic0 != "0xfeed" || rec.Error != "bad data" || rec.ChainID != 56 || rec.LogIndex != 3 {
		t.Fatalf("unexpected decode error: %+v", rec)
	}
}

func TestReserveSnapshotJSONStringFields(t *testing.T) {
	snap := ReserveSnapshot{
		ChainID:     56,
		Pair:        "0x1111111111111111111111111111111111111111",
		BlockNumber: 100,
		Reserve0:    "12345678901234567890123",
		Reserve1:    "42",
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["reserve0"].(string); !ok {
		t.Fatalf("reserve0 should be string")
	}
	if _, ok := decoded["reserve1"].(string); !ok {
		t.Fatalf("reserve1 should be string")
	}
}

func TestErrorBodyShape(t *testing.T) {
	data, err := json.Marshal(ErrorBody{Error: ErrorDetail{Code: "INVALID_INPUT", Message: "amountIn is required"}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"error":{"code":"INVALID_INPUT","message":"amountIn is required"}}`
	if string(data) != want {
		t.Fatalf("unexpected body: %s", data)
	}
}

func TestPoolStateOmitsUnknownTokens(t *testing.T) {
	data, err := json.Marshal(PoolState{Reserve0: "1", Reserve1: "2", TotalSupply: "3"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["token0"]; ok {
		t.Fatalf("token0 should be omitted")
	}
	if decoded["totalSupply"] != "3" {
		t.Fatalf("unexpected totalSupply: %v", decoded["totalSupply"])
	}
}
