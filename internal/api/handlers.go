package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ammScope/internal/dex"
	"ammScope/internal/model"
	"ammScope/internal/pricing"
	"ammScope/internal/reserves"
)

var bps = big.NewInt(10_000)

func (s *Server) handleReserves(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, r, "", err)
		return
	}

	state := model.PoolState{
		Pair:        s.deps.Pair,
		Reserve0:    snap.Reserves.Reserve0.String(),
		Reserve1:    snap.Reserves.Reserve1.String(),
		BlockNumber: snap.BlockNumber,
		UpdatedAt:   snap.UpdatedAt,
		Token0:      s.deps.Token0,
		Token1:      s.deps.Token1,
		Price0:      s.price(snap.Reserves, pricing.Asset0),
		Price1:      s.price(snap.Reserves, pricing.Asset1),
		FeeRate:     s.deps.Engine.FeeRate().String(),
	}
	if snap.TotalSupply != nil {
		state.TotalSupply = snap.TotalSupply.String()
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSimulateSwap(w http.ResponseWriter, r *http.Request) {
	var body model.SimulateSwapRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, model.QuoteKindSwap, err)
		return
	}
	asset, err := s.resolveAsset(body.TokenIn)
	if err != nil {
		s.fail(w, r, model.QuoteKindSwap, err)
		return
	}
	amountIn, err := pricing.ParseAmount(body.AmountIn)
	if err != nil {
		s.fail(w, r, model.QuoteKindSwap, fmt.Errorf("amountIn: %w", err))
		return
	}
	req := pricing.SwapRequest{InputAsset: asset, AmountIn: amountIn}
	if body.MinAmountOut != "" {
		if req.MinAmountOut, err = pricing.ParseAmount(body.MinAmountOut); err != nil {
			s.fail(w, r, model.QuoteKindSwap, fmt.Errorf("minAmountOut: %w", err))
			return
		}
	}

	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, r, model.QuoteKindSwap, err)
		return
	}

	record := model.QuoteRecord{
		Kind:        model.QuoteKindSwap,
		BlockNumber: snap.BlockNumber,
		Reserve0:    snap.Reserves.Reserve0.String(),
		Reserve1:    snap.Reserves.Reserve1.String(),
		TokenIn:     asset.String(),
		AmountIn:    amountIn.String(),
	}

	quote, err := s.deps.Engine.Quote(snap.Reserves, req)
	if err != nil {
		_, _, record.Outcome = classify(err)
		s.journal(r.Context(), record)
		s.fail(w, r, model.QuoteKindSwap, err)
		return
	}

	record.AmountOut = quote.AmountOut.String()
	record.PriceImpactBps = quote.PriceImpactBps
	record.Outcome = "ok"
	s.journal(r.Context(), record)
	s.metrics.observeQuote(model.QuoteKindSwap, "ok")

	newReserves := quote.NewReserves()
	resp := model.SwapQuote{
		TokenIn:          s.tokenLabel(asset),
		TokenOut:         s.tokenLabel(asset.Other()),
		AmountIn:         quote.AmountIn.String(),
		AmountInAfterFee: quote.AmountInAfterFee.String(),
		AmountOut:        quote.AmountOut.String(),
		FeeAmount:        quote.FeeAmount.String(),
		PriceImpactBps:   quote.PriceImpactBps,
		NewReserve0:      newReserves.Reserve0.String(),
		NewReserve1:      newReserves.Reserve1.String(),
		BlockNumber:      snap.BlockNumber,
	}
	if in, out := s.token(asset), s.token(asset.Other()); in != nil && out != nil {
		resp.Formatted = &model.FormattedSwap{
			AmountIn:    pricing.FormatUnits(quote.AmountIn, in.Decimals),
			AmountOut:   pricing.FormatUnits(quote.AmountOut, out.Decimals),
			FeeAmount:   pricing.FormatUnits(quote.FeeAmount, in.Decimals),
			PriceImpact: pricing.FormatRatio(big.NewRat(quote.PriceImpactBps, 100)) + "%",
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimulateLiquidity(w http.ResponseWriter, r *http.Request) {
	var body model.SimulateLiquidityRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.fail(w, r, model.QuoteKindLiquidity, err)
		return
	}
	amount0, err := pricing.ParseAmount(body.Amount0)
	if err != nil {
		s.fail(w, r, model.QuoteKindLiquidity, fmt.Errorf("amount0: %w", err))
		return
	}
	amount1, err := pricing.ParseAmount(body.Amount1)
	if err != nil {
		s.fail(w, r, model.QuoteKindLiquidity, fmt.Errorf("amount1: %w", err))
		return
	}
	req := pricing.LiquidityRequest{Amount0: amount0, Amount1: amount1}
	if body.MinLP != "" {
		if req.MinLP, err = pricing.ParseAmount(body.MinLP); err != nil {
			s.fail(w, r, model.QuoteKindLiquidity, fmt.Errorf("minLP: %w", err))
			return
		}
	}

	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, r, model.QuoteKindLiquidity, err)
		return
	}
	if snap.TotalSupply == nil {
		s.fail(w, r, model.QuoteKindLiquidity, fmt.Errorf("%w: lp supply is not tracked", reserves.ErrUnsupported))
		return
	}

	record := model.QuoteRecord{
		Kind:        model.QuoteKindLiquidity,
		BlockNumber: snap.BlockNumber,
		Reserve0:    snap.Reserves.Reserve0.String(),
		Reserve1:    snap.Reserves.Reserve1.String(),
		Amount0:     amount0.String(),
		Amount1:     amount1.String(),
	}

	quote, err := pricing.QuoteAddLiquidity(snap.Reserves, snap.TotalSupply, req)
	if err != nil {
		_, _, record.Outcome = classify(err)
		s.journal(r.Context(), record)
		s.fail(w, r, model.QuoteKindLiquidity, err)
		return
	}

	record.LPMinted = quote.LPMinted.String()
	record.Outcome = "ok"
	s.journal(r.Context(), record)
	s.metrics.observeQuote(model.QuoteKindLiquidity, "ok")

	writeJSON(w, http.StatusOK, model.LiquidityQuote{
		LPMinted:       quote.LPMinted.String(),
		ShareBps:       quote.ShareBps,
		Share:          pricing.FormatRatio(quote.Share),
		NewReserve0:    quote.NewReserves.Reserve0.String(),
		NewReserve1:    quote.NewReserves.Reserve1.String(),
		NewTotalSupply: quote.NewTotalSupply.String(),
		BlockNumber:    snap.BlockNumber,
	})
}

func (s *Server) handleLiquidityInfo(w http.ResponseWriter, r *http.Request) {
	owner, err := dex.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		s.fail(w, r, "", fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	snap, err := s.snapshot(r.Context())
	if err != nil {
		s.fail(w, r, "", err)
		return
	}
	if snap.TotalSupply == nil {
		s.fail(w, r, "", fmt.Errorf("%w: lp supply is not tracked", reserves.ErrUnsupported))
		return
	}
	balance, err := s.deps.Source.LPBalance(r.Context(), owner)
	if err != nil {
		s.fail(w, r, "", err)
		return
	}

	supply := snap.TotalSupply
	pos := model.LiquidityPosition{
		Address:     owner.Hex(),
		LPBalance:   balance.String(),
		TotalSupply: supply.String(),
		Share:       "0",
		Amount0:     "0",
		Amount1:     "0",
		BlockNumber: snap.BlockNumber,
	}
	if balance.Sign() > 0 && supply.Sign() > 0 {
		if balance.Cmp(supply) > 0 {
			s.fail(w, r, "", fmt.Errorf("%w: balance %s exceeds supply %s at block %d", reserves.ErrUnavailable, balance, supply, snap.BlockNumber))
			return
		}
		redeem, err := pricing.QuoteRemoveLiquidity(snap.Reserves, supply, balance)
		if err != nil {
			s.fail(w, r, "", err)
			return
		}
		shareBps := new(big.Int).Mul(balance, bps)
		pos.ShareBps = shareBps.Quo(shareBps, supply).Int64()
		pos.Share = pricing.FormatRatio(new(big.Rat).SetFrac(balance, supply))
		pos.Amount0 = redeem.Amount0.String()
		pos.Amount1 = redeem.Amount1.String()
	}
	writeJSON(w, http.StatusOK, pos)
}

func (s *Server) snapshot(ctx context.Context) (reserves.Snapshot, error) {
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}
	return s.deps.Source.Snapshot(ctx)
}

// fail writes the error envelope; kind, when set, also counts a quote outcome.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, kind string, err error) {
	status, code, outcome := classify(err)
	if kind != "" {
		s.metrics.observeQuote(kind, outcome)
	}

	message := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		message = "internal error"
	case http.StatusServiceUnavailable, http.StatusNotImplemented:
		s.logger.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeError(w, status, code, message)
}

func (s *Server) journal(ctx context.Context, record model.QuoteRecord) {
	if s.deps.Journal == nil {
		return
	}
	record.Pair = s.deps.Pair
	record.CreatedAt = time.Now().UTC()
	if err := s.deps.Journal.PutQuotes(ctx, []model.QuoteRecord{record}); err != nil {
		s.logger.Warn("journal quote failed", zap.Error(err))
	}
}

// resolveAsset accepts an asset name or, when token metadata is configured, a token address.
func (s *Server) resolveAsset(tokenIn string) (pricing.Asset, error) {
	if asset, err := pricing.ParseAsset(tokenIn); err == nil {
		return asset, nil
	}
	for _, asset := range []pricing.Asset{pricing.Asset0, pricing.Asset1} {
		if token := s.token(asset); token != nil && token.Address != "" && strings.EqualFold(token.Address, strings.TrimSpace(tokenIn)) {
			return asset, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown tokenIn %q", errBadRequest, tokenIn)
}

func (s *Server) token(asset pricing.Asset) *model.TokenInfo {
	if asset == pricing.Asset1 {
		return s.deps.Token1
	}
	return s.deps.Token0
}

func (s *Server) tokenLabel(asset pricing.Asset) string {
	if token := s.token(asset); token != nil && token.Address != "" {
		return token.Address
	}
	return asset.String()
}

// price renders the spot price of base, adjusted for decimals when both tokens are known.
func (s *Server) price(res pricing.ReservePair, base pricing.Asset) string {
	spot, err := pricing.SpotPrice(res, base)
	if err != nil {
		return "0"
	}
	baseToken, quoteToken := s.token(base), s.token(base.Other())
	if baseToken != nil && quoteToken != nil {
		spot.Mul(spot, new(big.Rat).SetFrac(pow10(baseToken.Decimals), pow10(quoteToken.Decimals)))
	}
	return pricing.FormatRatio(spot)
}

func pow10(decimals uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", errBadRequest)
		}
		return fmt.Errorf("%w: malformed json: %v", errBadRequest, err)
	}
	return nil
}
