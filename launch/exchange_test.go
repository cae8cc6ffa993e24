// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

func newTestExchange() (*ExchangeEngine, *MockStateDB, *mockIssuer) {
	issuer := newMockIssuer()
	config := DefaultProtocolConfig(testAdmin)
	e := NewExchangeEngine(issuer, config, log.NewTestLogger(log.InfoLevel))
	return e, NewMockStateDB(), issuer
}

// seedPool funds the pool account and creates a pool at the given reserves
func seedPool(t *testing.T, e *ExchangeEngine, stateDB *MockStateDB, issuer *mockIssuer, id uint64, base, token int64) {
	t.Helper()
	fund(stateDB, poolAccountAddr, base)
	if err := issuer.Mint(testToken, poolAccountAddr, toU256(big.NewInt(token))); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := e.CreatePool(id, testToken, big.NewInt(base), big.NewInt(token), testTreasury); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
}

// =========================================================================
// Pool Creation
// =========================================================================

func TestExchange_CreatePool(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 200000)

	if !e.HasPool(1) {
		t.Fatal("pool should exist")
	}
	p, err := e.GetPool(1)
	if err != nil {
		t.Fatalf("GetPool failed: %v", err)
	}
	// sqrt(100000 * 200000) = 141421
	if p.TotalShares.Cmp(big.NewInt(141421)) != 0 {
		t.Fatalf("expected 141421 shares, got %s", p.TotalShares)
	}
	if p.ShareBalance(common.Address{}).Cmp(MinimumLiquidity) != 0 {
		t.Fatal("minimum liquidity not locked")
	}
	if p.ShareBalance(testTreasury).Cmp(big.NewInt(140421)) != 0 {
		t.Fatalf("treasury shares wrong: %s", p.ShareBalance(testTreasury))
	}

	if err := e.CreatePool(1, testToken, big.NewInt(1), big.NewInt(1), testTreasury); !errors.Is(err, ErrPoolExists) {
		t.Fatalf("duplicate pool should fail, got %v", err)
	}
}

func TestExchange_CreatePoolMinimumSeed(t *testing.T) {
	e, _, _ := newTestExchange()

	// sqrt(1000*1000) = 1000 is not strictly above the locked minimum
	err := e.CreatePool(1, testToken, big.NewInt(1000), big.NewInt(1000), testTreasury)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("seed at minimum liquidity should fail, got %v", err)
	}
	err = e.CreatePool(1, testToken, big.NewInt(0), big.NewInt(5000), testTreasury)
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("zero seed should fail, got %v", err)
	}
	if err := e.CreatePool(1, testToken, big.NewInt(1001), big.NewInt(1001), testTreasury); err != nil {
		t.Fatalf("seed just above minimum should succeed: %v", err)
	}
}

// =========================================================================
// Swaps
// =========================================================================

func TestExchange_SwapBaseForToken(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 1000)

	// fee 0.3% of 1000 = 3, out = 997*100000/100997 = 987
	out, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapBaseForToken, nil, 0)
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if out.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("expected 987 out, got %s", out)
	}

	if bigBalance(stateDB, testUserA).Sign() != 0 {
		t.Fatal("trader base not debited")
	}
	if issuer.BalanceOf(testToken, testUserA).ToBig().Cmp(big.NewInt(987)) != 0 {
		t.Fatal("trader tokens not credited")
	}

	// The fee stays in the pool: reserves grow by the full input
	rb, rt, _ := e.GetReserves(1)
	if rb.Cmp(big.NewInt(101000)) != 0 {
		t.Fatalf("expected base reserve 101000, got %s", rb)
	}
	if rt.Cmp(big.NewInt(99013)) != 0 {
		t.Fatalf("expected token reserve 99013, got %s", rt)
	}
}

func TestExchange_SwapTokenForBase(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(1000)))

	out, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapTokenForBase, nil, 0)
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if out.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("expected 987 out, got %s", out)
	}
	if bigBalance(stateDB, testUserA).Cmp(big.NewInt(987)) != 0 {
		t.Fatal("trader base not credited")
	}
	if issuer.BalanceOf(testToken, testUserA).ToBig().Sign() != 0 {
		t.Fatal("trader tokens not debited")
	}
	rb, rt, _ := e.GetReserves(1)
	if rb.Cmp(big.NewInt(99013)) != 0 || rt.Cmp(big.NewInt(101000)) != 0 {
		t.Fatalf("unexpected reserves %s/%s", rb, rt)
	}
}

func TestExchange_SwapInvariantNeverDecreases(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 1000000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(1000000)))

	for i := 0; i < 20; i++ {
		p, _ := e.GetPool(1)
		before := p.K()

		dir := SwapBaseForToken
		if i%2 == 1 {
			dir = SwapTokenForBase
		}
		if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(777), dir, nil, 0); err != nil {
			t.Fatalf("swap %d failed: %v", i, err)
		}

		p, _ = e.GetPool(1)
		if p.K().Cmp(before) < 0 {
			t.Fatalf("product invariant decreased on swap %d: %s -> %s", i, before, p.K())
		}
	}
}

func TestExchange_SwapSlippageProtection(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 1000)

	_, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapBaseForToken, big.NewInt(988), 0)
	if !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("expected ErrSlippageExceeded, got %v", err)
	}
	// Nothing moved
	if bigBalance(stateDB, testUserA).Cmp(big.NewInt(1000)) != 0 {
		t.Fatal("failed swap must not move funds")
	}
	rb, _, _ := e.GetReserves(1)
	if rb.Cmp(big.NewInt(100000)) != 0 {
		t.Fatal("failed swap must not touch reserves")
	}

	// Exactly the quoted output passes
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapBaseForToken, big.NewInt(987), 0); err != nil {
		t.Fatalf("swap at exact min out failed: %v", err)
	}
}

func TestExchange_SwapDeadline(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 2000)
	e.SetClock(func() int64 { return 1000 })

	_, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapBaseForToken, nil, 999)
	if !errors.Is(err, ErrDeadlineExpired) {
		t.Fatalf("expected ErrDeadlineExpired, got %v", err)
	}
	// A deadline equal to now is still live, zero opts out entirely
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(500), SwapBaseForToken, nil, 1000); err != nil {
		t.Fatalf("swap at deadline failed: %v", err)
	}
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(500), SwapBaseForToken, nil, 0); err != nil {
		t.Fatalf("swap with zero deadline failed: %v", err)
	}
}

func TestExchange_SwapValidation(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100)
	fund(stateDB, testUserA, 10000)

	if _, err := e.Swap(stateDB, testUserA, 999, big.NewInt(100), SwapBaseForToken, nil, 0); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(0), SwapBaseForToken, nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("zero amount should fail, got %v", err)
	}
	if _, err := e.Swap(stateDB, testUserB, 1, big.NewInt(100000), SwapBaseForToken, nil, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unfunded trader should fail, got %v", err)
	}
	// 499 after fee against deep base reserves floors to zero output
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(500), SwapBaseForToken, nil, 0); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("zero output should fail, got %v", err)
	}
}

// =========================================================================
// Quotes and Prices
// =========================================================================

func TestExchange_Quote(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)

	q, err := e.Quote(1, big.NewInt(1000), SwapBaseForToken)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}
	if q.FeeAmount.Cmp(big.NewInt(3)) != 0 {
		t.Fatalf("expected fee 3, got %s", q.FeeAmount)
	}
	if q.AmountOut.Cmp(big.NewInt(987)) != 0 {
		t.Fatalf("expected out 987, got %s", q.AmountOut)
	}
	if q.SpotPrice.Cmp(PriceScale) != 0 {
		t.Fatalf("expected spot price at scale, got %s", q.SpotPrice)
	}
	if q.PriceImpactBps.Cmp(big.NewInt(131)) != 0 {
		t.Fatalf("expected 131 bps impact, got %s", q.PriceImpactBps)
	}

	// Quoting never mutates the pool
	rb, rt, _ := e.GetReserves(1)
	if rb.Cmp(big.NewInt(100000)) != 0 || rt.Cmp(big.NewInt(100000)) != 0 {
		t.Fatal("quote mutated reserves")
	}

	if _, err := e.Quote(999, big.NewInt(1), SwapBaseForToken); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestExchange_GetPrice(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 200000)

	price, err := e.GetPrice(1)
	if err != nil {
		t.Fatalf("GetPrice failed: %v", err)
	}
	// 100000 base per 200000 tokens = 0.5 scaled
	want := new(big.Int).Div(PriceScale, big.NewInt(2))
	if price.Cmp(want) != 0 {
		t.Fatalf("expected price %s, got %s", want, price)
	}

	if _, err := e.GetPrice(999); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

// =========================================================================
// Liquidity Provision
// =========================================================================

func TestExchange_AddLiquidity(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 5000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(6000)))

	minted, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(5000), big.NewInt(6000), nil, 0)
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}
	// base is limiting at a 1:1 pool; 5000 shares for 5000/5000
	if minted.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("expected 5000 shares, got %s", minted)
	}

	// The excess token side was never pulled
	if issuer.BalanceOf(testToken, testUserA).ToBig().Cmp(big.NewInt(1000)) != 0 {
		t.Fatal("excess tokens should stay with the provider")
	}
	if bigBalance(stateDB, testUserA).Sign() != 0 {
		t.Fatal("base side not fully consumed")
	}

	p, _ := e.GetPool(1)
	if p.ReserveBase.Cmp(big.NewInt(105000)) != 0 || p.ReserveToken.Cmp(big.NewInt(105000)) != 0 {
		t.Fatalf("unexpected reserves %s/%s", p.ReserveBase, p.ReserveToken)
	}
	if p.TotalShares.Cmp(big.NewInt(105000)) != 0 {
		t.Fatalf("unexpected total shares %s", p.TotalShares)
	}
	if p.ShareBalance(testUserA).Cmp(big.NewInt(5000)) != 0 {
		t.Fatal("provider shares not credited")
	}
}

func TestExchange_AddLiquidityRaggedRatio(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 200000)
	fund(stateDB, testUserA, 333)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(1000)))

	// base limits: 333*141421/100000 = 470 shares, token pull rounds up to 666
	minted, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(333), big.NewInt(1000), nil, 0)
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}
	if minted.Cmp(big.NewInt(470)) != 0 {
		t.Fatalf("expected 470 shares, got %s", minted)
	}
	if issuer.BalanceOf(testToken, testUserA).ToBig().Cmp(big.NewInt(334)) != 0 {
		t.Fatalf("expected 666 tokens pulled, provider holds %s",
			issuer.BalanceOf(testToken, testUserA))
	}

	p, _ := e.GetPool(1)
	if p.ReserveBase.Cmp(big.NewInt(100333)) != 0 || p.ReserveToken.Cmp(big.NewInt(200666)) != 0 {
		t.Fatalf("unexpected reserves %s/%s", p.ReserveBase, p.ReserveToken)
	}
}

func TestExchange_AddLiquidityValidation(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 100)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(100)))

	if _, err := e.AddLiquidity(stateDB, testUserA, 999, big.NewInt(10), big.NewInt(10), nil, 0); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
	if _, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(0), big.NewInt(10), nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("zero base should fail, got %v", err)
	}
	if _, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(100), big.NewInt(100), big.NewInt(101), 0); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("minShares above minted should fail, got %v", err)
	}
	if _, err := e.AddLiquidity(stateDB, testUserB, 1, big.NewInt(100), big.NewInt(100), nil, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("unfunded provider should fail, got %v", err)
	}
}

func TestExchange_RemoveLiquidity(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 5000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(5000)))

	minted, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(5000), big.NewInt(5000), nil, 0)
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}

	baseOut, tokenOut, err := e.RemoveLiquidity(stateDB, testUserA, 1, minted, nil, nil, 0)
	if err != nil {
		t.Fatalf("RemoveLiquidity failed: %v", err)
	}
	// Round trip with no intervening swaps returns exactly the deposit
	if baseOut.Cmp(big.NewInt(5000)) != 0 || tokenOut.Cmp(big.NewInt(5000)) != 0 {
		t.Fatalf("unexpected withdrawal %s/%s", baseOut, tokenOut)
	}
	if bigBalance(stateDB, testUserA).Cmp(big.NewInt(5000)) != 0 {
		t.Fatal("base not returned")
	}
	if issuer.BalanceOf(testToken, testUserA).ToBig().Cmp(big.NewInt(5000)) != 0 {
		t.Fatal("tokens not returned")
	}

	p, _ := e.GetPool(1)
	if p.ShareBalance(testUserA).Sign() != 0 {
		t.Fatal("provider shares should be fully burned")
	}
	if p.TotalShares.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("unexpected total shares %s", p.TotalShares)
	}
}

func TestExchange_RemoveLiquidityValidation(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 5000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(5000)))

	minted, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(5000), big.NewInt(5000), nil, 0)
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}

	over := new(big.Int).Add(minted, big.NewInt(1))
	if _, _, err := e.RemoveLiquidity(stateDB, testUserA, 1, over, nil, nil, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("burning above holdings should fail, got %v", err)
	}
	if _, _, err := e.RemoveLiquidity(stateDB, testUserB, 1, big.NewInt(1), nil, nil, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("burning without holdings should fail, got %v", err)
	}
	if _, _, err := e.RemoveLiquidity(stateDB, testUserA, 1, minted, big.NewInt(5001), nil, 0); !errors.Is(err, ErrSlippageExceeded) {
		t.Fatalf("min base above payout should fail, got %v", err)
	}
	if _, _, err := e.RemoveLiquidity(stateDB, testUserA, 1, big.NewInt(0), nil, nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("zero shares should fail, got %v", err)
	}
}

func TestExchange_LiquidityAfterSwapsAccruesFees(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	fund(stateDB, testUserA, 100000)
	issuer.Mint(testToken, testUserA, toU256(big.NewInt(100000)))
	fund(stateDB, testUserB, 100000)
	issuer.Mint(testToken, testUserB, toU256(big.NewInt(100000)))

	minted, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(100000), big.NewInt(100000), nil, 0)
	if err != nil {
		t.Fatalf("AddLiquidity failed: %v", err)
	}

	// Fee-bearing volume grows both reserves relative to shares
	for i := 0; i < 10; i++ {
		if _, err := e.Swap(stateDB, testUserB, 1, big.NewInt(5000), SwapBaseForToken, nil, 0); err != nil {
			t.Fatalf("swap failed: %v", err)
		}
		out, err := e.Swap(stateDB, testUserB, 1, big.NewInt(5000), SwapTokenForBase, nil, 0)
		if err != nil {
			t.Fatalf("swap failed: %v", err)
		}
		_ = out
	}

	baseOut, tokenOut, err := e.RemoveLiquidity(stateDB, testUserA, 1, minted, nil, nil, 0)
	if err != nil {
		t.Fatalf("RemoveLiquidity failed: %v", err)
	}
	// Half the pool's value must now exceed the original deposit in product terms
	product := new(big.Int).Mul(baseOut, tokenOut)
	deposit := new(big.Int).Mul(big.NewInt(100000), big.NewInt(100000))
	if product.Cmp(deposit) <= 0 {
		t.Fatalf("LP position should appreciate with fee volume: %s vs %s", product, deposit)
	}
}

func TestExchange_AmountsBeyondBalanceRange(t *testing.T) {
	e, stateDB, issuer := newTestExchange()
	seedPool(t, e, stateDB, issuer, 1, 100000, 100000)
	huge := new(big.Int).Lsh(big.NewInt(1), 256)

	if _, err := e.Swap(stateDB, testUserA, 1, huge, SwapBaseForToken, nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("oversized swap input should be rejected, got %v", err)
	}
	if _, err := e.AddLiquidity(stateDB, testUserA, 1, huge, big.NewInt(1000), nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("oversized base deposit should be rejected, got %v", err)
	}
	if _, err := e.AddLiquidity(stateDB, testUserA, 1, big.NewInt(1000), huge, nil, 0); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("oversized token deposit should be rejected, got %v", err)
	}
	if err := e.CreatePool(2, testToken, huge, big.NewInt(1000), testTreasury); !errors.Is(err, ErrInvalidParameters) {
		t.Fatalf("oversized pool seed should be rejected, got %v", err)
	}

	rb, rt, _ := e.GetReserves(1)
	if rb.Cmp(big.NewInt(100000)) != 0 || rt.Cmp(big.NewInt(100000)) != 0 {
		t.Fatalf("rejected amounts mutated reserves: %s/%s", rb, rt)
	}
}

// reserveObservingIssuer snapshots the pool reserves at the moment the engine
// hands tokens over, standing in for a token whose transfer hook reads pool
// state.
type reserveObservingIssuer struct {
	*mockIssuer
	exchange  *ExchangeEngine
	seenBase  *big.Int
	seenToken *big.Int
}

func (o *reserveObservingIssuer) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if o.exchange != nil {
		o.seenBase, o.seenToken, _ = o.exchange.GetReserves(1)
	}
	return o.mockIssuer.Transfer(token, from, to, amount)
}

// Reserves must already reflect the swap when the token payout runs, so a
// transfer hook can never observe a half-settled pool.
func TestExchange_ReservesCommittedBeforePayout(t *testing.T) {
	inner := newMockIssuer()
	observer := &reserveObservingIssuer{mockIssuer: inner}
	config := DefaultProtocolConfig(testAdmin)
	e := NewExchangeEngine(observer, config, log.NewTestLogger(log.InfoLevel))
	stateDB := NewMockStateDB()

	fund(stateDB, poolAccountAddr, 100000)
	if err := inner.Mint(testToken, poolAccountAddr, toU256(big.NewInt(100000))); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := e.CreatePool(1, testToken, big.NewInt(100000), big.NewInt(100000), testTreasury); err != nil {
		t.Fatalf("CreatePool failed: %v", err)
	}
	observer.exchange = e

	fund(stateDB, testUserA, 1000)
	if _, err := e.Swap(stateDB, testUserA, 1, big.NewInt(1000), SwapBaseForToken, nil, 0); err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	if observer.seenBase == nil {
		t.Fatal("payout transfer never ran")
	}
	if observer.seenBase.Cmp(big.NewInt(101000)) != 0 {
		t.Fatalf("payout observed base reserve %s, want 101000", observer.seenBase)
	}
	if observer.seenToken.Cmp(big.NewInt(99013)) != 0 {
		t.Fatalf("payout observed token reserve %s, want 99013", observer.seenToken)
	}
}
