package model

// ReserveSnapshot is the pair state observed at one Sync event.
// Reserves are decimal integer strings in token base units.
type ReserveSnapshot struct {
	ChainID     uint64 `json:"chain_id"`
	Pair        string `json:"pair"`
	BlockNumber uint64 `json:"block_number"`
	BlockHash   string `json:"block_hash"`
	TxHash      string `json:"tx_hash"`
	LogIndex    uint64 `json:"log_index"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	Timestamp   uint64 `json:"timestamp"`
	IngestedAt  string `json:"ingested_at"`
}
