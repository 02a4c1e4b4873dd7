package dex

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"ammScope/internal/model"
)

// SyncDecoder decodes Sync(uint112,uint112) events emitted after every reserve change.
type SyncDecoder struct {
	event abi.Event
	topic string
}

// NewSyncDecoder builds a Sync decoder.
func NewSyncDecoder() (*SyncDecoder, error) {
	parsed, err := PairABI()
	if err != nil {
		return nil, fmt.Errorf("parse pair abi: %w", err)
	}
	event, ok := parsed.Events["Sync"]
	if !ok {
		return nil, fmt.Errorf("pair abi has no Sync event")
	}
	return &SyncDecoder{event: event, topic: strings.ToLower(event.ID.Hex())}, nil
}

// Topic returns the Sync event signature hash.
func (d *SyncDecoder) Topic() common.Hash {
	return d.event.ID
}

// CanDecode checks if topic0 is the Sync signature.
func (d *SyncDecoder) CanDecode(topic0 string) bool {
	return topic0 != "" && strings.ToLower(topic0) == d.topic
}

// Decode converts a Sync log into a ReserveSnapshot. IngestedAt is left to the caller.
func (d *SyncDecoder) Decode(log model.RawLog) (model.ReserveSnapshot, error) {
	if !d.CanDecode(log.Topic0()) {
		return model.ReserveSnapshot{}, fmt.Errorf("unsupported topic0: %q", log.Topic0())
	}
	if len(log.Topics) != 1 {
		return model.ReserveSnapshot{}, fmt.Errorf("expected 1 topic, got %d", len(log.Topics))
	}
	if !common.IsHexAddress(log.Address) {
		return model.ReserveSnapshot{}, fmt.Errorf("invalid pair address: %s", log.Address)
	}

	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("invalid data: %w", err)
	}
	values, err := d.event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("unpack Sync: %w", err)
	}
	if len(values) != 2 {
		return model.ReserveSnapshot{}, fmt.Errorf("unexpected sync values: %d", len(values))
	}

	reserve0, err := asBigInt(values[0])
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := asBigInt(values[1])
	if err != nil {
		return model.ReserveSnapshot{}, fmt.Errorf("reserve1: %w", err)
	}

	return model.ReserveSnapshot{
		ChainID:     log.ChainID,
		Pair:        common.HexToAddress(log.Address).Hex(),
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Reserve0:    reserve0.String(),
		Reserve1:    reserve1.String(),
		Timestamp:   log.Timestamp,
	}, nil
}
