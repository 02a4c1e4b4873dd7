package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"ammScope/internal/model"
)

// Caller is the eth_call surface used by metadata lookups and the pair reader.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenCache caches token metadata by address.
type TokenCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenInfo
}

func NewTokenCache() *TokenCache {
	return &TokenCache{data: make(map[common.Address]model.TokenInfo)}
}

func (c *TokenCache) Get(address common.Address) (model.TokenInfo, bool) {
	c.mu.RLock()
	info, ok := c.data[address]
	c.mu.RUnlock()
	return info, ok
}

func (c *TokenCache) Set(address common.Address, info model.TokenInfo) {
	c.mu.Lock()
	c.data[address] = info
	c.mu.Unlock()
}

// FetchPair loads token0/token1 for pair and fills tokenCache for both tokens.
// Token metadata failures are logged, not returned: a pair stays usable without symbols.
func FetchPair(ctx context.Context, caller Caller, pair common.Address, tokenCache *TokenCache, logger *zap.Logger) (model.Pair, error) {
	if caller == nil {
		return model.Pair{}, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	parsed, err := PairABI()
	if err != nil {
		return model.Pair{}, fmt.Errorf("parse pair abi: %w", err)
	}

	tokens := make([]common.Address, 2)
	for i, method := range []string{"token0", "token1"} {
		values, err := callMethod(ctx, caller, pair, parsed, nil, method)
		if err != nil {
			return model.Pair{}, err
		}
		if tokens[i], err = asAddress(values[0]); err != nil {
			return model.Pair{}, fmt.Errorf("%s: %w", method, err)
		}
	}

	if tokenCache != nil {
		for _, token := range tokens {
			if _, ok := tokenCache.Get(token); ok {
				continue
			}
			info, err := FetchTokenInfo(ctx, caller, token, logger)
			if err != nil {
				logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
			}
			tokenCache.Set(token, info)
		}
	}

	return model.Pair{
		Address: pair.Hex(),
		Token0:  tokens[0].Hex(),
		Token1:  tokens[1].Hex(),
	}, nil
}

// FetchTokenInfo loads token metadata via ERC20 calls. Decimals are required;
// symbol and name fall back to bytes32 and are otherwise left empty.
func FetchTokenInfo(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (model.TokenInfo, error) {
	info := model.TokenInfo{Address: token.Hex()}
	if caller == nil {
		return info, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIString.get()
	if err != nil {
		return info, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		return info, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callMethod(ctx, caller, token, stringABI, nil, "decimals")
	if err != nil {
		return info, err
	}
	if info.Decimals, err = asUint8(values[0]); err != nil {
		return info, fmt.Errorf("decimals: %w", err)
	}

	info.Symbol = textField(ctx, caller, token, stringABI, bytes32ABI, "symbol", logger)
	info.Name = textField(ctx, caller, token, stringABI, bytes32ABI, "name", logger)
	return info, nil
}

func textField(ctx context.Context, caller Caller, token common.Address, stringABI, bytes32ABI abi.ABI, method string, logger *zap.Logger) string {
	if values, err := callMethod(ctx, caller, token, stringABI, nil, method); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := callMethod(ctx, caller, token, bytes32ABI, nil, method)
	if err == nil {
		if text, ok := bytes32ToString(values[0]); ok {
			return text
		}
	} else if logger != nil {
		logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	return ""
}

func callMethod(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, block *big.Int, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return values, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
