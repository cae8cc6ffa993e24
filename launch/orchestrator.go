// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// Launchpad is the thin façade composing the ledger, bonding controller,
// exchange engine, and fee treasury for external callers. It adds no
// semantics of its own: it delegates, emits events after the delegated
// operation has fully committed, and mirrors state into the store when one
// is attached.
type Launchpad struct {
	ledger   *ContributionLedger
	bonding  *BondingController
	exchange *ExchangeEngine
	treasury *FeeTreasury
	config   *ProtocolConfig

	store       *Store
	subscribers []func(Event)

	log log.Logger
}

// NewLaunchpad wires a complete launchpad administered by admin
func NewLaunchpad(admin common.Address, issuer TokenIssuer, logger log.Logger) *Launchpad {
	config := DefaultProtocolConfig(admin)
	treasury := NewFeeTreasury(config, logger)
	exchange := NewExchangeEngine(issuer, config, logger)
	bonding := NewBondingController(exchange, treasury, issuer, config, logger)
	ledger := NewContributionLedger(issuer, config, logger)
	ledger.SetBondingController(bonding)

	return &Launchpad{
		ledger:   ledger,
		bonding:  bonding,
		exchange: exchange,
		treasury: treasury,
		config:   config,
		log:      logger,
	}
}

// Exchange exposes the exchange engine, mainly so tests and embedders can
// inject a clock
func (lp *Launchpad) Exchange() *ExchangeEngine { return lp.exchange }

// SetStore attaches a persistence store and replays its contents into the
// engines. Call before serving traffic.
func (lp *Launchpad) SetStore(s *Store) error {
	if err := s.LoadInto(lp.ledger, lp.exchange, lp.config); err != nil {
		return err
	}
	lp.store = s
	return nil
}

// Subscribe registers fn for every event emitted after this call. Handlers
// run synchronously after state commit, in subscription order.
func (lp *Launchpad) Subscribe(fn func(Event)) {
	lp.subscribers = append(lp.subscribers, fn)
}

func (lp *Launchpad) emit(ev Event) {
	for _, fn := range lp.subscribers {
		fn(ev)
	}
}

func (lp *Launchpad) persistCampaign(id uint64) {
	if lp.store == nil {
		return
	}
	if c, ok := lp.ledger.campaign(id); ok {
		if err := lp.store.SaveCampaign(c); err != nil {
			lp.log.Error("campaign persist failed", "campaign", id, "err", err)
		}
	}
}

func (lp *Launchpad) persistPool(id uint64) {
	if lp.store == nil {
		return
	}
	if p, ok := lp.exchange.pool(id); ok {
		if err := lp.store.SavePool(p); err != nil {
			lp.log.Error("pool persist failed", "campaign", id, "err", err)
		}
	}
}

func (lp *Launchpad) persistConfig() {
	if lp.store == nil {
		return
	}
	if err := lp.store.SaveConfig(lp.config); err != nil {
		lp.log.Error("config persist failed", "err", err)
	}
}

// CreateCampaign opens a campaign and escrows the agent token supply
func (lp *Launchpad) CreateCampaign(
	creator common.Address,
	name, metadata string,
	token common.Address,
	fundingTarget, tokenSupply *big.Int,
) (uint64, error) {
	id, err := lp.ledger.CreateCampaign(creator, name, metadata, token, fundingTarget, tokenSupply)
	if err != nil {
		return 0, err
	}
	lp.persistCampaign(id)
	lp.emit(CampaignCreated{
		CampaignID:    id,
		Creator:       creator,
		Token:         token,
		Name:          name,
		FundingTarget: new(big.Int).Set(fundingTarget),
		TokenSupply:   new(big.Int).Set(tokenSupply),
	})
	return id, nil
}

// Contribute credits amount toward campaign id, bonding it if the funding
// target is reached
func (lp *Launchpad) Contribute(stateDB StateDB, caller common.Address, id uint64, amount *big.Int) (*ContributeResult, error) {
	res, err := lp.ledger.Contribute(stateDB, caller, id, amount)
	if err != nil {
		return nil, err
	}
	lp.persistCampaign(id)
	lp.emit(ContributionReceived{
		CampaignID:  id,
		Contributor: caller,
		Amount:      new(big.Int).Set(amount),
		TotalRaised: new(big.Int).Set(res.TotalRaised),
	})
	if res.Bonded {
		lp.persistPool(id)
		lp.emitBonded(id, res.Bond)
	}
	return res, nil
}

// WithdrawContribution refunds the caller's full contribution pre-bond
func (lp *Launchpad) WithdrawContribution(stateDB StateDB, caller common.Address, id uint64) (*big.Int, error) {
	refund, err := lp.ledger.WithdrawContribution(stateDB, caller, id)
	if err != nil {
		return nil, err
	}
	total, _ := lp.ledger.GetTotalRaised(id)
	lp.persistCampaign(id)
	lp.emit(ContributionWithdrawn{
		CampaignID:  id,
		Contributor: caller,
		Amount:      refund,
		TotalRaised: total,
	})
	return refund, nil
}

// BondAgent is the manual bonding fallback
func (lp *Launchpad) BondAgent(stateDB StateDB, id uint64) (*BondOutcome, error) {
	outcome, err := lp.ledger.BondAgent(stateDB, id)
	if err != nil {
		return nil, err
	}
	lp.persistCampaign(id)
	lp.persistPool(id)
	lp.emitBonded(id, outcome)
	return outcome, nil
}

func (lp *Launchpad) emitBonded(id uint64, outcome *BondOutcome) {
	c, err := lp.ledger.GetCampaignInfo(id)
	if err != nil {
		return
	}
	lp.emit(CampaignBonded{
		CampaignID:     id,
		Token:          c.Token,
		LiquidityAdded: outcome.LiquidityAdded,
		TokensSeeded:   outcome.TokensSeeded,
		Seed:           outcome.Seed,
	})
}

// CancelCampaign is the administrator-only escape hatch for a raising campaign
func (lp *Launchpad) CancelCampaign(caller common.Address, id uint64) error {
	if err := lp.ledger.CancelCampaign(caller, id); err != nil {
		return err
	}
	lp.persistCampaign(id)
	lp.emit(CampaignCancelled{CampaignID: id})
	return nil
}

// Swap trades against a bonded campaign's pool
func (lp *Launchpad) Swap(
	stateDB StateDB,
	caller common.Address,
	id uint64,
	amountIn *big.Int,
	direction SwapDirection,
	minAmountOut *big.Int,
	deadline int64,
) (*big.Int, error) {
	out, err := lp.exchange.Swap(stateDB, caller, id, amountIn, direction, minAmountOut, deadline)
	if err != nil {
		return nil, err
	}
	lp.persistPool(id)
	lp.emit(SwapExecuted{
		CampaignID: id,
		Trader:     caller,
		Direction:  direction,
		AmountIn:   new(big.Int).Set(amountIn),
		AmountOut:  out,
	})
	return out, nil
}

// AddLiquidity deposits into a bonded campaign's pool
func (lp *Launchpad) AddLiquidity(
	stateDB StateDB,
	caller common.Address,
	id uint64,
	baseAmount, tokenAmount, minShares *big.Int,
	deadline int64,
) (*big.Int, error) {
	shares, err := lp.exchange.AddLiquidity(stateDB, caller, id, baseAmount, tokenAmount, minShares, deadline)
	if err != nil {
		return nil, err
	}
	lp.persistPool(id)
	lp.emit(LiquidityAdded{
		CampaignID:  id,
		Provider:    caller,
		BaseAmount:  new(big.Int).Set(baseAmount),
		TokenAmount: new(big.Int).Set(tokenAmount),
		Shares:      shares,
	})
	return shares, nil
}

// RemoveLiquidity burns LP shares for a proportional share of both reserves
func (lp *Launchpad) RemoveLiquidity(
	stateDB StateDB,
	caller common.Address,
	id uint64,
	lpShares, minBaseOut, minTokenOut *big.Int,
	deadline int64,
) (baseOut, tokenOut *big.Int, err error) {
	baseOut, tokenOut, err = lp.exchange.RemoveLiquidity(stateDB, caller, id, lpShares, minBaseOut, minTokenOut, deadline)
	if err != nil {
		return nil, nil, err
	}
	lp.persistPool(id)
	lp.emit(LiquidityRemoved{
		CampaignID:  id,
		Provider:    caller,
		BaseAmount:  baseOut,
		TokenAmount: tokenOut,
		Shares:      new(big.Int).Set(lpShares),
	})
	return baseOut, tokenOut, nil
}

// Reads

func (lp *Launchpad) GetCampaignInfo(id uint64) (*Campaign, error) { return lp.ledger.GetCampaignInfo(id) }

func (lp *Launchpad) GetContribution(id uint64, addr common.Address) (*big.Int, error) {
	return lp.ledger.GetContribution(id, addr)
}

func (lp *Launchpad) GetTotalRaised(id uint64) (*big.Int, error) { return lp.ledger.GetTotalRaised(id) }

func (lp *Launchpad) GetAllCampaigns() []*Campaign { return lp.ledger.GetAllCampaigns() }

func (lp *Launchpad) GetAllBondedCampaigns() []*Campaign { return lp.ledger.GetAllBondedCampaigns() }

func (lp *Launchpad) GetPrice(id uint64) (*big.Int, error) { return lp.exchange.GetPrice(id) }

func (lp *Launchpad) GetReserves(id uint64) (*big.Int, *big.Int, error) {
	return lp.exchange.GetReserves(id)
}

func (lp *Launchpad) Quote(id uint64, amountIn *big.Int, direction SwapDirection) (*SwapQuote, error) {
	return lp.exchange.Quote(id, amountIn, direction)
}

func (lp *Launchpad) Config() ProtocolConfig { return lp.treasury.Config() }

// Administration

// SetFeeBasisPoints updates the protocol fee (admin only)
func (lp *Launchpad) SetFeeBasisPoints(caller common.Address, bps uint64) error {
	old, err := lp.treasury.SetFeeBasisPoints(caller, bps)
	if err != nil {
		return err
	}
	lp.persistConfig()
	lp.emit(ConfigChanged{
		Field:    "feeBasisPoints",
		Previous: strconv.FormatUint(old, 10),
		Current:  strconv.FormatUint(bps, 10),
	})
	return nil
}

// SetSwapFeeBasisPoints updates the per-swap pool fee (admin only)
func (lp *Launchpad) SetSwapFeeBasisPoints(caller common.Address, bps uint64) error {
	old, err := lp.treasury.SetSwapFeeBasisPoints(caller, bps)
	if err != nil {
		return err
	}
	lp.persistConfig()
	lp.emit(ConfigChanged{
		Field:    "swapFeeBasisPoints",
		Previous: strconv.FormatUint(old, 10),
		Current:  strconv.FormatUint(bps, 10),
	})
	return nil
}

// SetTreasuryAddress redirects future protocol fees (admin only)
func (lp *Launchpad) SetTreasuryAddress(caller common.Address, addr common.Address) error {
	old, err := lp.treasury.SetTreasuryAddress(caller, addr)
	if err != nil {
		return err
	}
	lp.persistConfig()
	lp.emit(ConfigChanged{
		Field:    "treasuryAddress",
		Previous: old.Hex(),
		Current:  addr.Hex(),
	})
	return nil
}

// SetLiquiditySplit updates the bonding-time allocation (admin only)
func (lp *Launchpad) SetLiquiditySplit(caller common.Address, split LiquiditySplit) error {
	old, err := lp.treasury.SetLiquiditySplit(caller, split)
	if err != nil {
		return err
	}
	lp.persistConfig()
	lp.emit(ConfigChanged{
		Field:    "liquiditySplit",
		Previous: fmt.Sprintf("%d/%d", old.FundsBasisPoints, old.SupplyBasisPoints),
		Current:  fmt.Sprintf("%d/%d", split.FundsBasisPoints, split.SupplyBasisPoints),
	})
	return nil
}

// Pause blocks campaign creation, contribution, and bonding (admin only)
func (lp *Launchpad) Pause(caller common.Address) error {
	changed, err := lp.treasury.Pause(caller)
	if err != nil {
		return err
	}
	if changed {
		lp.persistConfig()
		lp.emit(PausedChanged{Paused: true})
	}
	return nil
}

// Unpause lifts a pause (admin only)
func (lp *Launchpad) Unpause(caller common.Address) error {
	changed, err := lp.treasury.Unpause(caller)
	if err != nil {
		return err
	}
	if changed {
		lp.persistConfig()
		lp.emit(PausedChanged{Paused: false})
	}
	return nil
}
