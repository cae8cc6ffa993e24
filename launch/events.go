// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"math/big"

	"github.com/luxfi/geth/common"
)

// Event is a state-change notification. Events are delivered to subscribers
// only after the originating operation has fully committed, so a handler can
// never observe half-updated ledger or pool state.
type Event interface {
	Kind() string
}

// CampaignCreated fires when a new campaign opens for contributions
type CampaignCreated struct {
	CampaignID    uint64
	Creator       common.Address
	Token         common.Address
	Name          string
	FundingTarget *big.Int
	TokenSupply   *big.Int
}

func (CampaignCreated) Kind() string { return "AgentCreated" }

// ContributionReceived fires on every accepted contribution
type ContributionReceived struct {
	CampaignID  uint64
	Contributor common.Address
	Amount      *big.Int
	TotalRaised *big.Int
}

func (ContributionReceived) Kind() string { return "ContributionReceived" }

// ContributionWithdrawn fires when a contributor exits a raising campaign
type ContributionWithdrawn struct {
	CampaignID  uint64
	Contributor common.Address
	Amount      *big.Int
	TotalRaised *big.Int
}

func (ContributionWithdrawn) Kind() string { return "ContributionWithdrawn" }

// CampaignBonded fires exactly once per campaign, at the moment the raised
// funds and token allocation are converted into a live pool
type CampaignBonded struct {
	CampaignID     uint64
	Token          common.Address
	LiquidityAdded *big.Int // base asset seeded into the pool
	TokensSeeded   *big.Int
	Seed           uint64
}

func (CampaignBonded) Kind() string { return "AgentBonded" }

// CampaignCancelled fires when an administrator cancels a raising campaign
type CampaignCancelled struct {
	CampaignID uint64
}

func (CampaignCancelled) Kind() string { return "AgentCancelled" }

// SwapExecuted fires after every settled swap
type SwapExecuted struct {
	CampaignID uint64
	Trader     common.Address
	Direction  SwapDirection
	AmountIn   *big.Int
	AmountOut  *big.Int
}

func (SwapExecuted) Kind() string { return "SwapExecuted" }

// LiquidityAdded fires when a depositor mints LP shares
type LiquidityAdded struct {
	CampaignID  uint64
	Provider    common.Address
	BaseAmount  *big.Int
	TokenAmount *big.Int
	Shares      *big.Int
}

func (LiquidityAdded) Kind() string { return "LiquidityAdded" }

// LiquidityRemoved fires when a depositor burns LP shares
type LiquidityRemoved struct {
	CampaignID  uint64
	Provider    common.Address
	BaseAmount  *big.Int
	TokenAmount *big.Int
	Shares      *big.Int
}

func (LiquidityRemoved) Kind() string { return "LiquidityRemoved" }

// ConfigChanged fires on every successful admin configuration update
type ConfigChanged struct {
	Field    string
	Previous string
	Current  string
}

func (ConfigChanged) Kind() string { return "ConfigChanged" }

// PausedChanged fires when the launchpad is paused or unpaused
type PausedChanged struct {
	Paused bool
}

func (PausedChanged) Kind() string { return "PausedChanged" }
