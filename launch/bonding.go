// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"fmt"
	"math/big"

	log "github.com/luxfi/log"
)

// BondingController performs the one-time, irreversible transition of a fully
// funded campaign from raising to bonded: skims the protocol fee, applies the
// configured liquidity split, seeds the exchange pool, and assigns the
// campaign its bonding seed.
//
// The controller runs inside the ledger's reentrancy guard, invoked either by
// the triggering Contribute call or by the manual BondAgent fallback. It has
// no entry points of its own.
type BondingController struct {
	exchange *ExchangeEngine
	treasury *FeeTreasury
	issuer   TokenIssuer
	config   *ProtocolConfig

	log log.Logger
}

// NewBondingController creates a controller targeting exchange
func NewBondingController(exchange *ExchangeEngine, treasury *FeeTreasury, issuer TokenIssuer, config *ProtocolConfig, logger log.Logger) *BondingController {
	return &BondingController{
		exchange: exchange,
		treasury: treasury,
		issuer:   issuer,
		config:   config,
		log:      logger,
	}
}

// BondOutcome describes a completed bonding transition
type BondOutcome struct {
	CampaignID      uint64
	LiquidityAdded  *big.Int // base asset seeded into the pool
	TokensSeeded    *big.Int // token supply seeded into the pool
	FeePaid         *big.Int // protocol fee routed to the treasury
	CreatorProceeds *big.Int // base asset released to the creator
	CreatorSupply   *big.Int // token supply released to the creator
	Seed            uint64
}

// bond executes the transition for campaign c. The caller (the ledger) holds
// its reentrancy guard and has already committed all contribution state; c is
// the live record. Every condition that could fail is checked before the
// first balance moves, so the sequence is all-or-nothing.
func (b *BondingController) bond(stateDB StateDB, c *Campaign) (*BondOutcome, error) {
	if c.IsBonded() {
		return nil, ErrAgentAlreadyBonded
	}
	if c.IsCancelled() {
		return nil, ErrAgentCancelled
	}
	if b.exchange.HasPool(c.ID) {
		return nil, ErrPoolExists
	}

	raised := new(big.Int).Set(c.TotalRaised)
	fee := bpsOf(raised, b.config.FeeBasisPoints)
	net := new(big.Int).Sub(raised, fee)

	seedBase := bpsOf(net, b.config.Split.FundsBasisPoints)
	creatorFunds := new(big.Int).Sub(net, seedBase)

	seedToken := bpsOf(c.TokenSupply, b.config.Split.SupplyBasisPoints)
	creatorSupply := new(big.Int).Sub(c.TokenSupply, seedToken)

	if seedBase.Sign() <= 0 || seedToken.Sign() <= 0 {
		return nil, fmt.Errorf("%w: empty pool seed", ErrInsufficientLiquidity)
	}

	// The pool is created before the status flip and before any balance
	// moves: everything CreatePool can reject (a seed too small to clear the
	// minimum liquidity lock, a duplicate pool, a reentrant call) fails here
	// while the campaign is still raising and every contribution is still
	// withdrawable.
	if err := b.exchange.CreatePool(c.ID, c.Token, seedBase, seedToken, b.config.Treasury); err != nil {
		return nil, fmt.Errorf("pool creation failed: %w", err)
	}

	seed := campaignSeed(c.ID, c.Creator, seedBase, seedToken)

	// The campaign is terminal from this point; a reentrant contribute or a
	// second bond attempt fails on the status check before touching funds.
	c.Status = StatusBonded
	c.Seed = seed

	b.treasury.CollectFee(stateDB, escrowAddr, raised)

	stateDB.SubBalance(escrowAddr, toU256(creatorFunds))
	stateDB.AddBalance(c.Creator, toU256(creatorFunds))

	stateDB.SubBalance(escrowAddr, toU256(seedBase))
	stateDB.AddBalance(poolAccountAddr, toU256(seedBase))

	if err := b.issuer.Transfer(c.Token, escrowAddr, poolAccountAddr, toU256(seedToken)); err != nil {
		return nil, fmt.Errorf("token seed transfer failed: %w", err)
	}
	if creatorSupply.Sign() > 0 {
		if err := b.issuer.Transfer(c.Token, escrowAddr, c.Creator, toU256(creatorSupply)); err != nil {
			return nil, fmt.Errorf("creator supply transfer failed: %w", err)
		}
	}

	b.log.Info("agent bonded", "campaign", c.ID, "seedBase", seedBase,
		"seedToken", seedToken, "fee", fee, "seed", seed)

	return &BondOutcome{
		CampaignID:      c.ID,
		LiquidityAdded:  seedBase,
		TokensSeeded:    seedToken,
		FeePaid:         fee,
		CreatorProceeds: creatorFunds,
		CreatorSupply:   creatorSupply,
		Seed:            seed,
	}, nil
}
