package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ammScope/internal/model"
)

func TestSyncDecoder(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	decoder, err := NewSyncDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	reserve0, _ := new(big.Int).SetString("5192296858534827628530496329220095", 10) // 2^112 - 1
	data, err := pairABI.Events["Sync"].Inputs.NonIndexed().Pack(reserve0, big.NewInt(2000))
	if err != nil {
		t.Fatalf("pack sync: %v", err)
	}

	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")
	log := buildRawLog(pair, pairABI.Events["Sync"].ID, data)

	if !decoder.CanDecode(log.Topics[0]) {
		t.Fatalf("expected Sync topic to be decodable")
	}

	snap, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode sync: %v", err)
	}

	if snap.Reserve0 != reserve0.String() || snap.Reserve1 != "2000" {
		t.Fatalf("reserves mismatch: %+v", snap)
	}
	if snap.Pair != pair.Hex() {
		t.Fatalf("pair mismatch: %s", snap.Pair)
	}
	if snap.BlockNumber != 12345 || snap.LogIndex != 1 || snap.Timestamp != 1700000000 {
		t.Fatalf("position mismatch: %+v", snap)
	}
}

func TestSyncDecoderRejects(t *testing.T) {
	pairABI, err := PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewSyncDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pair := common.HexToAddress("0x1111111111111111111111111111111111111111")
	syncID := pairABI.Events["Sync"].ID

	swapTopic := common.HexToHash("0xd78ad95fa46c994b6551d0da85fc275fe613ce37657fb8d5e3d130840159d822")
	if decoder.CanDecode(swapTopic.Hex()) {
		t.Fatalf("Swap topic should not be decodable")
	}
	if _, err := decoder.Decode(buildRawLog(pair, swapTopic, nil)); err == nil {
		t.Fatalf("expected error for foreign topic")
	}

	if _, err := decoder.Decode(buildRawLog(pair, syncID, []byte{0x01, 0x02})); err == nil {
		t.Fatalf("expected error for short data")
	}

	extra := buildRawLog(pair, syncID, make([]byte, 64))
	extra.Topics = append(extra.Topics, common.Hash{}.Hex())
	if _, err := decoder.Decode(extra); err == nil {
		t.Fatalf("expected error for indexed topics")
	}

	badAddr := buildRawLog(pair, syncID, make([]byte, 64))
	badAddr.Address = "not-an-address"
	if _, err := decoder.Decode(badAddr); err == nil {
		t.Fatalf("expected error for invalid address")
	}
}

func buildRawLog(pair common.Address, topic0 common.Hash, data []byte) model.RawLog {
	return model.RawLog{
		ChainID:     56,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     pair.Hex(),
		Topics:      []string{topic0.Hex()},
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}
