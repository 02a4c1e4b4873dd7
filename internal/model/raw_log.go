package model

import "fmt"

// RawLog is the normalized form of a chain log before it is decoded.
type RawLog struct {
	ChainID     uint64   `json:"chain_id"`
	BlockNumber uint64   `json:"block_number"`
	BlockHash   string   `json:"block_hash"`
	TxHash      string   `json:"tx_hash"`
	TxIndex     uint64   `json:"tx_index"`
	LogIndex    uint64   `json:"log_index"`
	Address     string   `json:"address"`
	Topics      []string `json:"topics"`
	Data        string   `json:"data"`
	Removed     bool     `json:"removed"`
	Timestamp   uint64   `json:"timestamp"`
}

// Topic0 returns the event signature topic, or "" for anonymous logs.
func (l RawLog) Topic0() string {
	if len(l.Topics) == 0 {
		return ""
	}
	return l.Topics[0]
}

// ID identifies a log within its chain as block:tx:index.
func (l RawLog) ID() string {
	return fmt.Sprintf("%d:%s:%d", l.BlockNumber, l.TxHash, l.LogIndex)
}
