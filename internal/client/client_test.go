package client

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ammScope/internal/api"
	"ammScope/internal/model"
	"ammScope/internal/pricing"
	"ammScope/internal/reserves"
)

var owner = common.HexToAddress("0x00000000000000000000000000000000000000cc")

func newClient(t *testing.T) *Client {
	t.Helper()
	engine, err := pricing.NewEngine(pricing.Config{FeeRate: 3000})
	require.NoError(t, err)
	source := reserves.NewStatic(
		pricing.ReservePair{Reserve0: big.NewInt(1000), Reserve1: big.NewInt(1000)},
		big.NewInt(1000),
		map[common.Address]*big.Int{owner: big.NewInt(100)},
	)
	srv, err := api.New(api.Config{Prefix: "/api"}, api.Deps{Engine: engine, Source: source}, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL+"/api/", WithTimeout(5*time.Second))
	require.NoError(t, err)
	return c
}

func TestClientAgainstServer(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	state, err := c.Reserves(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000", state.Reserve0)
	assert.Equal(t, "1", state.Price0)

	quote, err := c.SimulateSwap(ctx, model.SimulateSwapRequest{AmountIn: "100", TokenIn: "token1"})
	require.NoError(t, err)
	assert.Equal(t, "90", quote.AmountOut)
	assert.Equal(t, "910", quote.NewReserve0)

	lq, err := c.SimulateLiquidity(ctx, model.SimulateLiquidityRequest{Amount0: "10", Amount1: "10"})
	require.NoError(t, err)
	assert.Equal(t, "10", lq.LPMinted)

	pos, err := c.LiquidityInfo(ctx, owner.Hex())
	require.NoError(t, err)
	assert.Equal(t, "100", pos.LPBalance)
	assert.Equal(t, int64(1000), pos.ShareBps)
}

func TestClientDecodesAPIErrors(t *testing.T) {
	c := newClient(t)

	_, err := c.SimulateSwap(context.Background(), model.SimulateSwapRequest{AmountIn: "100", TokenIn: "0", MinAmountOut: "500"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "SLIPPAGE_EXCEEDED", apiErr.Code)
	assert.Contains(t, apiErr.Message, "below minimum")

	_, err = c.LiquidityInfo(context.Background(), "nope")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestClientPlainErrorBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Reserves(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Code)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestClientHonoursContext(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	c, err := New(ts.URL)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Reserves(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("localhost:3001")
	require.Error(t, err)
	_, err = New("ftp://example.com")
	require.Error(t, err)
}
