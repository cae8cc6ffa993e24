// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// ExchangeEngine is the constant-product automated market maker. It owns the
// pool registry, computes swap quotes, executes swaps, and manages LP shares.
// Each campaign spawns exactly one pool, at bonding time, and the pool is
// never destroyed.
//
// All reserve arithmetic is integer-only with a consistent rounding
// direction: outputs round down, required inputs round up, so rounding loss
// always accrues to the pool.
type ExchangeEngine struct {
	// mu protects the pool registry
	mu sync.RWMutex

	// locked prevents reentrancy across mutating entry points
	locked bool

	pools map[uint64]*Pool

	issuer TokenIssuer
	config *ProtocolConfig

	// now supplies the engine clock for deadline checks; injectable in tests
	now func() int64

	log log.Logger
}

// NewExchangeEngine creates an engine with no pools
func NewExchangeEngine(issuer TokenIssuer, config *ProtocolConfig, logger log.Logger) *ExchangeEngine {
	return &ExchangeEngine{
		pools:  make(map[uint64]*Pool),
		issuer: issuer,
		config: config,
		now:    func() int64 { return time.Now().Unix() },
		log:    logger,
	}
}

// SetClock overrides the engine clock used for deadline checks
func (e *ExchangeEngine) SetClock(now func() int64) {
	e.now = now
}

func (e *ExchangeEngine) beginOp() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.locked {
		return ErrReentrant
	}
	e.locked = true
	return nil
}

func (e *ExchangeEngine) endOp() {
	e.mu.Lock()
	e.locked = false
	e.mu.Unlock()
}

// checkDeadline rejects operations submitted with stale slippage assumptions.
// A zero deadline means the caller opted out of the check.
func (e *ExchangeEngine) checkDeadline(deadline int64) error {
	if deadline != 0 && e.now() > deadline {
		return ErrDeadlineExpired
	}
	return nil
}

// HasPool reports whether a pool exists for campaign id
func (e *ExchangeEngine) HasPool(id uint64) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pools[id]
	return ok
}

// CreatePool is the one-time pool initializer, called by the bonding
// controller with reserves already funded at the pool account. Initial LP
// shares are the geometric mean of the two seeds; MinimumLiquidity of them is
// locked to the zero address forever and the remainder credited to sharesTo.
func (e *ExchangeEngine) CreatePool(
	campaignID uint64,
	token common.Address,
	seedBase *big.Int,
	seedToken *big.Int,
	sharesTo common.Address,
) error {
	if err := e.beginOp(); err != nil {
		return err
	}
	defer e.endOp()

	if _, ok := e.pools[campaignID]; ok {
		return ErrPoolExists
	}
	if seedBase == nil || seedBase.Sign() <= 0 || seedToken == nil || seedToken.Sign() <= 0 {
		return fmt.Errorf("%w: empty seed", ErrInsufficientLiquidity)
	}
	if !fitsU256(seedBase) || !fitsU256(seedToken) {
		return fmt.Errorf("%w: seed exceeds balance range", ErrInvalidParameters)
	}

	shares := new(big.Int).Sqrt(new(big.Int).Mul(seedBase, seedToken))
	if shares.Cmp(MinimumLiquidity) <= 0 {
		return fmt.Errorf("%w: seed below minimum liquidity", ErrInsufficientLiquidity)
	}

	p := &Pool{
		CampaignID:   campaignID,
		Token:        token,
		ReserveBase:  new(big.Int).Set(seedBase),
		ReserveToken: new(big.Int).Set(seedToken),
		TotalShares:  shares,
		Shares:       make(map[common.Address]*big.Int),
	}
	p.Shares[common.Address{}] = new(big.Int).Set(MinimumLiquidity)
	p.Shares[sharesTo] = new(big.Int).Sub(shares, MinimumLiquidity)

	e.pools[campaignID] = p

	e.log.Info("pool created", "campaign", campaignID, "reserveBase", seedBase,
		"reserveToken", seedToken, "shares", shares)
	return nil
}

// AddLiquidity deposits up to tokenAmount and baseAmount into the pool at the
// current reserve ratio. The smaller proportional contribution governs the
// deposit; the excess side is simply never pulled from the caller. Minted
// shares below minShares fail with ErrSlippageExceeded.
func (e *ExchangeEngine) AddLiquidity(
	stateDB StateDB,
	caller common.Address,
	campaignID uint64,
	baseAmount *big.Int,
	tokenAmount *big.Int,
	minShares *big.Int,
	deadline int64,
) (*big.Int, error) {
	if err := e.beginOp(); err != nil {
		return nil, err
	}
	defer e.endOp()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if baseAmount == nil || baseAmount.Sign() <= 0 || tokenAmount == nil || tokenAmount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit amounts must be positive", ErrInvalidParameters)
	}
	if !fitsU256(baseAmount) || !fitsU256(tokenAmount) {
		return nil, fmt.Errorf("%w: amount exceeds balance range", ErrInvalidParameters)
	}

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, ErrPoolNotFound
	}

	shareBase := new(big.Int).Mul(baseAmount, p.TotalShares)
	shareBase.Div(shareBase, p.ReserveBase)
	shareToken := new(big.Int).Mul(tokenAmount, p.TotalShares)
	shareToken.Div(shareToken, p.ReserveToken)

	var minted, usedBase, usedToken *big.Int
	if shareBase.Cmp(shareToken) <= 0 {
		// base side is the limiting contribution
		minted = shareBase
		usedBase = new(big.Int).Set(baseAmount)
		usedToken = ceilDiv(new(big.Int).Mul(baseAmount, p.ReserveToken), p.ReserveBase)
	} else {
		minted = shareToken
		usedToken = new(big.Int).Set(tokenAmount)
		usedBase = ceilDiv(new(big.Int).Mul(tokenAmount, p.ReserveBase), p.ReserveToken)
	}

	if minted.Sign() <= 0 {
		return nil, fmt.Errorf("%w: deposit too small to mint shares", ErrInsufficientLiquidity)
	}
	if minShares != nil && minted.Cmp(minShares) < 0 {
		return nil, ErrSlippageExceeded
	}

	baseU := toU256(usedBase)
	if stateDB.GetBalance(caller).Cmp(baseU) < 0 {
		return nil, ErrInsufficientBalance
	}
	if e.issuer.BalanceOf(p.Token, caller).Cmp(toU256(usedToken)) < 0 {
		return nil, ErrInsufficientBalance
	}

	// Commit reserves and shares before the issuer call so reentrant reads
	// never observe the pool without the deposit accounted for.
	p.ReserveBase.Add(p.ReserveBase, usedBase)
	p.ReserveToken.Add(p.ReserveToken, usedToken)
	p.TotalShares.Add(p.TotalShares, minted)
	prev, ok := p.Shares[caller]
	if !ok {
		prev = big.NewInt(0)
	}
	p.Shares[caller] = new(big.Int).Add(prev, minted)

	stateDB.SubBalance(caller, baseU)
	stateDB.AddBalance(poolAccountAddr, baseU)
	if err := e.issuer.Transfer(p.Token, caller, poolAccountAddr, toU256(usedToken)); err != nil {
		return nil, fmt.Errorf("token deposit failed: %w", err)
	}

	e.log.Debug("liquidity added", "campaign", campaignID, "provider", caller,
		"base", usedBase, "token", usedToken, "shares", minted)
	return minted, nil
}

// RemoveLiquidity burns lpShares and returns the proportional share of both
// reserves, each rounded down. Either output below its minimum fails with
// ErrSlippageExceeded and burns nothing.
func (e *ExchangeEngine) RemoveLiquidity(
	stateDB StateDB,
	caller common.Address,
	campaignID uint64,
	lpShares *big.Int,
	minBaseOut *big.Int,
	minTokenOut *big.Int,
	deadline int64,
) (baseOut, tokenOut *big.Int, err error) {
	if err := e.beginOp(); err != nil {
		return nil, nil, err
	}
	defer e.endOp()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, nil, err
	}
	if lpShares == nil || lpShares.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: share amount must be positive", ErrInvalidParameters)
	}

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, nil, ErrPoolNotFound
	}

	held, ok := p.Shares[caller]
	if !ok || held.Cmp(lpShares) < 0 {
		return nil, nil, ErrInsufficientBalance
	}

	baseOut = new(big.Int).Mul(lpShares, p.ReserveBase)
	baseOut.Div(baseOut, p.TotalShares)
	tokenOut = new(big.Int).Mul(lpShares, p.ReserveToken)
	tokenOut.Div(tokenOut, p.TotalShares)

	if baseOut.Sign() <= 0 || tokenOut.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: share amount too small", ErrInsufficientLiquidity)
	}
	if minBaseOut != nil && baseOut.Cmp(minBaseOut) < 0 {
		return nil, nil, ErrSlippageExceeded
	}
	if minTokenOut != nil && tokenOut.Cmp(minTokenOut) < 0 {
		return nil, nil, ErrSlippageExceeded
	}

	remaining := new(big.Int).Sub(held, lpShares)
	if remaining.Sign() == 0 {
		delete(p.Shares, caller)
	} else {
		p.Shares[caller] = remaining
	}
	p.TotalShares.Sub(p.TotalShares, lpShares)
	p.ReserveBase.Sub(p.ReserveBase, baseOut)
	p.ReserveToken.Sub(p.ReserveToken, tokenOut)

	baseU := toU256(baseOut)
	stateDB.SubBalance(poolAccountAddr, baseU)
	stateDB.AddBalance(caller, baseU)
	if err := e.issuer.Transfer(p.Token, poolAccountAddr, caller, toU256(tokenOut)); err != nil {
		return nil, nil, fmt.Errorf("token withdrawal failed: %w", err)
	}

	e.log.Debug("liquidity removed", "campaign", campaignID, "provider", caller,
		"base", baseOut, "token", tokenOut, "shares", lpShares)
	return baseOut, tokenOut, nil
}

// Swap trades amountIn of one reserve asset for the other. The swap fee is
// retained by the pool, so the product invariant strictly increases on every
// fee-bearing swap. Settlement always uses the discrete reserve formula,
// never a quoted price.
func (e *ExchangeEngine) Swap(
	stateDB StateDB,
	caller common.Address,
	campaignID uint64,
	amountIn *big.Int,
	direction SwapDirection,
	minAmountOut *big.Int,
	deadline int64,
) (*big.Int, error) {
	if err := e.beginOp(); err != nil {
		return nil, err
	}
	defer e.endOp()

	if err := e.checkDeadline(deadline); err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: swap amount must be positive", ErrInvalidParameters)
	}
	if !fitsU256(amountIn) {
		return nil, fmt.Errorf("%w: amount exceeds balance range", ErrInvalidParameters)
	}

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, ErrPoolNotFound
	}

	q := makeQuote(p, amountIn, direction, e.config.SwapFeeBasisPoints)

	reserveOut := p.ReserveToken
	if direction == SwapTokenForBase {
		reserveOut = p.ReserveBase
	}
	if q.AmountOut.Sign() <= 0 || q.AmountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if minAmountOut != nil && q.AmountOut.Cmp(minAmountOut) < 0 {
		return nil, ErrSlippageExceeded
	}

	inU := toU256(amountIn)
	outU := toU256(q.AmountOut)

	// Reserves and balance-book state are committed before the issuer call,
	// so anything the token implementation re-enters observes the post-swap
	// pool, never a half-settled one.
	switch direction {
	case SwapBaseForToken:
		if stateDB.GetBalance(caller).Cmp(inU) < 0 {
			return nil, ErrInsufficientBalance
		}
		p.ReserveBase.Add(p.ReserveBase, amountIn)
		p.ReserveToken.Sub(p.ReserveToken, q.AmountOut)
		stateDB.SubBalance(caller, inU)
		stateDB.AddBalance(poolAccountAddr, inU)
		if err := e.issuer.Transfer(p.Token, poolAccountAddr, caller, outU); err != nil {
			return nil, fmt.Errorf("token payout failed: %w", err)
		}
	case SwapTokenForBase:
		if e.issuer.BalanceOf(p.Token, caller).Cmp(inU) < 0 {
			return nil, ErrInsufficientBalance
		}
		p.ReserveToken.Add(p.ReserveToken, amountIn)
		p.ReserveBase.Sub(p.ReserveBase, q.AmountOut)
		stateDB.SubBalance(poolAccountAddr, outU)
		stateDB.AddBalance(caller, outU)
		if err := e.issuer.Transfer(p.Token, caller, poolAccountAddr, inU); err != nil {
			return nil, fmt.Errorf("token deposit failed: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown swap direction", ErrInvalidParameters)
	}

	e.log.Debug("swap executed", "campaign", campaignID, "trader", caller,
		"direction", direction, "in", amountIn, "out", q.AmountOut, "fee", q.FeeAmount)
	return q.AmountOut, nil
}

// Quote previews a swap at current reserves without executing it. The quote
// carries the execution price and price impact for caller-side slippage
// budgeting.
func (e *ExchangeEngine) Quote(campaignID uint64, amountIn *big.Int, direction SwapDirection) (*SwapQuote, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("%w: swap amount must be positive", ErrInvalidParameters)
	}
	p, ok := e.pools[campaignID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return makeQuote(p, amountIn, direction, e.config.SwapFeeBasisPoints), nil
}

// GetPrice returns the spot price of the token in base asset units, scaled by
// PriceScale. Display only; swaps never settle against it.
func (e *ExchangeEngine) GetPrice(campaignID uint64) (*big.Int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	price := new(big.Int).Mul(p.ReserveBase, PriceScale)
	return price.Div(price, p.ReserveToken), nil
}

// GetReserves returns the current base and token reserves
func (e *ExchangeEngine) GetReserves(campaignID uint64) (reserveBase, reserveToken *big.Int, err error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, nil, ErrPoolNotFound
	}
	return new(big.Int).Set(p.ReserveBase), new(big.Int).Set(p.ReserveToken), nil
}

// GetPool returns a deep snapshot of the pool for campaign id
func (e *ExchangeEngine) GetPool(campaignID uint64) (*Pool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.pools[campaignID]
	if !ok {
		return nil, ErrPoolNotFound
	}
	return copyPool(p), nil
}

// pool returns the live record for internal use by the store
func (e *ExchangeEngine) pool(id uint64) (*Pool, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.pools[id]
	return p, ok
}

// restorePool installs a persisted pool during store recovery
func (e *ExchangeEngine) restorePool(p *Pool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pools[p.CampaignID] = p
}

// makeQuote computes the constant-product swap outcome at current reserves.
// amountOut = reserveOut - (reserveIn * reserveOut) / (reserveIn + inAfterFee),
// evaluated in the equivalent floor form inAfterFee*reserveOut/(reserveIn+inAfterFee)
// so the output always rounds down in the pool's favor.
func makeQuote(p *Pool, amountIn *big.Int, direction SwapDirection, feeBps uint64) *SwapQuote {
	reserveIn, reserveOut := p.ReserveBase, p.ReserveToken
	if direction == SwapTokenForBase {
		reserveIn, reserveOut = p.ReserveToken, p.ReserveBase
	}

	fee := bpsOf(amountIn, feeBps)
	inAfterFee := new(big.Int).Sub(amountIn, fee)

	out := new(big.Int).Mul(inAfterFee, reserveOut)
	out.Div(out, new(big.Int).Add(reserveIn, inAfterFee))

	q := &SwapQuote{
		CampaignID:     p.CampaignID,
		Direction:      direction,
		AmountIn:       new(big.Int).Set(amountIn),
		FeeAmount:      fee,
		AmountOut:      out,
		SpotPrice:      big.NewInt(0),
		ExecutionPrice: big.NewInt(0),
		PriceImpactBps: big.NewInt(0),
	}

	if reserveOut.Sign() > 0 {
		q.SpotPrice = new(big.Int).Mul(reserveIn, PriceScale)
		q.SpotPrice.Div(q.SpotPrice, reserveOut)
	}
	if out.Sign() > 0 {
		q.ExecutionPrice = new(big.Int).Mul(amountIn, PriceScale)
		q.ExecutionPrice.Div(q.ExecutionPrice, out)
	}
	if q.SpotPrice.Sign() > 0 && out.Sign() > 0 {
		impact := new(big.Int).Sub(q.ExecutionPrice, q.SpotPrice)
		impact.Mul(impact, new(big.Int).SetUint64(BasisPointDenominator))
		q.PriceImpactBps = impact.Div(impact, q.SpotPrice)
	}
	return q
}

func copyPool(p *Pool) *Pool {
	cp := &Pool{
		CampaignID:   p.CampaignID,
		Token:        p.Token,
		ReserveBase:  new(big.Int).Set(p.ReserveBase),
		ReserveToken: new(big.Int).Set(p.ReserveToken),
		TotalShares:  new(big.Int).Set(p.TotalShares),
		Shares:       make(map[common.Address]*big.Int, len(p.Shares)),
	}
	for addr, s := range p.Shares {
		cp.Shares[addr] = new(big.Int).Set(s)
	}
	return cp
}

// ceilDiv divides x by y rounding up; used where a required input must never
// round against the pool
func ceilDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}
