// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package launch implements the agent launchpad core: fundraising campaigns
// for tokenized agents, the one-time bonding transition that converts a fully
// funded campaign into a live constant-product pool, the exchange engine for
// that pool, and the protocol fee treasury.
package launch

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Launchpad system accounts
// LP-aligned format: 0x0000000000000000000000000000000000LPNUM
const (
	// EscrowAddress holds contributed base asset and the escrowed token
	// supply of every raising campaign.
	EscrowAddress = "0x0000000000000000000000000000000000009110"

	// PoolAccountAddress holds the reserves of every bonded pool.
	PoolAccountAddress = "0x0000000000000000000000000000000000009111"

	// DefaultTreasuryAddress receives protocol fees until reconfigured.
	DefaultTreasuryAddress = "0x0000000000000000000000000000000000009112"
)

var (
	escrowAddr      = common.HexToAddress(EscrowAddress)
	poolAccountAddr = common.HexToAddress(PoolAccountAddress)
)

// Fee and split parameters (basis points, 1/10000)
const (
	BasisPointDenominator uint64 = 10_000

	// DefaultFeeBasisPoints is the protocol fee skimmed from raised funds at
	// bonding time (3%).
	DefaultFeeBasisPoints uint64 = 300

	// MaxFeeBasisPoints is the hard cap on any configurable fee (10%).
	MaxFeeBasisPoints uint64 = 1_000

	// DefaultSwapFeeBasisPoints is the per-swap fee retained by the pool (0.30%).
	DefaultSwapFeeBasisPoints uint64 = 30

	// DefaultSplitBasisPoints is the share of net raised funds and of the
	// escrowed token supply seeded into the pool at bonding (80%). The
	// remainder goes to the campaign creator.
	DefaultSplitBasisPoints uint64 = 8_000
)

// MinimumLiquidity is permanently locked to the zero address when a pool is
// bootstrapped, so total shares can never return to zero and the first
// depositor cannot inflate the share price against later depositors.
var MinimumLiquidity = big.NewInt(1_000)

// PriceScale is the fixed-point scale for spot and execution prices
// (18 decimals). Prices are display values only; swaps settle on the
// discrete reserve formula, never on a quoted price.
var PriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// CampaignStatus is the lifecycle state of a campaign
type CampaignStatus uint8

const (
	StatusRaising   CampaignStatus = iota
	StatusBonded                   // terminal: pool is live
	StatusCancelled                // terminal: contributions refundable
)

func (s CampaignStatus) String() string {
	switch s {
	case StatusRaising:
		return "raising"
	case StatusBonded:
		return "bonded"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Campaign is a single agent's fundraising record
type Campaign struct {
	ID            uint64
	Creator       common.Address
	Name          string
	Metadata      string         // opaque agent config JSON, stored off-core
	Token         common.Address // fixed-supply agent token
	FundingTarget *big.Int
	TokenSupply   *big.Int // escrowed under EscrowAddress until bonding
	TotalRaised   *big.Int
	Status        CampaignStatus
	Contributions map[common.Address]*big.Int
	Seed          uint64 // deterministic seed assigned at bonding
}

// IsBonded returns true once the campaign has transitioned to a live pool
func (c *Campaign) IsBonded() bool {
	return c.Status == StatusBonded
}

// IsCancelled returns true if the campaign was cancelled before bonding
func (c *Campaign) IsCancelled() bool {
	return c.Status == StatusCancelled
}

// IsTerminal returns true if no further contributions are possible
func (c *Campaign) IsTerminal() bool {
	return c.Status != StatusRaising
}

// Contribution returns addr's recorded contribution (zero if none)
func (c *Campaign) Contribution(addr common.Address) *big.Int {
	if amt, ok := c.Contributions[addr]; ok {
		return new(big.Int).Set(amt)
	}
	return big.NewInt(0)
}

// Pool is the constant-product reserve pair spawned by a bonded campaign
type Pool struct {
	CampaignID   uint64
	Token        common.Address
	ReserveBase  *big.Int
	ReserveToken *big.Int
	TotalShares  *big.Int
	Shares       map[common.Address]*big.Int
}

// K returns the current product invariant reserveBase * reserveToken
func (p *Pool) K() *big.Int {
	return new(big.Int).Mul(p.ReserveBase, p.ReserveToken)
}

// ShareBalance returns addr's LP share balance (zero if none)
func (p *Pool) ShareBalance(addr common.Address) *big.Int {
	if s, ok := p.Shares[addr]; ok {
		return new(big.Int).Set(s)
	}
	return big.NewInt(0)
}

// LiquiditySplit configures how raised funds and escrowed supply are divided
// between the pool and the creator at bonding time
type LiquiditySplit struct {
	FundsBasisPoints  uint64 // share of net raised funds seeded into the pool
	SupplyBasisPoints uint64 // share of token supply seeded into the pool
}

// DefaultLiquiditySplit returns the standard 80/20 split
func DefaultLiquiditySplit() LiquiditySplit {
	return LiquiditySplit{
		FundsBasisPoints:  DefaultSplitBasisPoints,
		SupplyBasisPoints: DefaultSplitBasisPoints,
	}
}

// ProtocolConfig is the process-wide singleton configuration read by every
// fee-bearing operation and mutated only through FeeTreasury admin calls
type ProtocolConfig struct {
	Admin              common.Address
	Treasury           common.Address
	FeeBasisPoints     uint64 // protocol fee on bonding seed
	SwapFeeBasisPoints uint64 // per-swap fee retained by the pool
	Split              LiquiditySplit
	Paused             bool
}

// DefaultProtocolConfig returns the configuration a fresh deployment starts
// with, administered by admin
func DefaultProtocolConfig(admin common.Address) *ProtocolConfig {
	return &ProtocolConfig{
		Admin:              admin,
		Treasury:           common.HexToAddress(DefaultTreasuryAddress),
		FeeBasisPoints:     DefaultFeeBasisPoints,
		SwapFeeBasisPoints: DefaultSwapFeeBasisPoints,
		Split:              DefaultLiquiditySplit(),
	}
}

// SwapDirection selects which reserve a swap consumes
type SwapDirection uint8

const (
	SwapBaseForToken SwapDirection = iota
	SwapTokenForBase
)

func (d SwapDirection) String() string {
	if d == SwapBaseForToken {
		return "base->token"
	}
	return "token->base"
}

// SwapQuote is a read-only preview of a swap at current reserves
type SwapQuote struct {
	CampaignID     uint64
	Direction      SwapDirection
	AmountIn       *big.Int
	FeeAmount      *big.Int
	AmountOut      *big.Int
	SpotPrice      *big.Int // pre-trade price, PriceScale fixed point
	ExecutionPrice *big.Int // amountIn/amountOut, PriceScale fixed point
	PriceImpactBps *big.Int // (exec - spot) / spot in basis points
}

// StateDB is the base-asset balance book the launchpad moves value through.
// The surrounding execution environment owns transfer semantics; the core
// only debits and credits.
type StateDB interface {
	GetBalance(addr common.Address) *uint256.Int
	AddBalance(addr common.Address, amount *uint256.Int)
	SubBalance(addr common.Address, amount *uint256.Int)
}

// TokenIssuer mints and moves fixed-supply agent tokens on command. The core
// tracks ledger state and triggers issuance; it never implements the token's
// own transfer rules.
type TokenIssuer interface {
	Mint(token common.Address, to common.Address, amount *uint256.Int) error
	Transfer(token common.Address, from, to common.Address, amount *uint256.Int) error
	BalanceOf(token common.Address, owner common.Address) *uint256.Int
}

// Errors - campaign ledger
var (
	ErrAgentNotFound         = errors.New("agent campaign not found")
	ErrInvalidParameters     = errors.New("invalid parameters")
	ErrFundingTargetExceeded = errors.New("contribution exceeds funding target")
	ErrFundingTargetNotMet   = errors.New("funding target not met")
	ErrAgentAlreadyBonded    = errors.New("agent already bonded")
	ErrAgentCancelled        = errors.New("agent campaign cancelled")
	ErrAgentNotCancellable   = errors.New("agent campaign not cancellable")
	ErrNoContribution        = errors.New("no contribution to withdraw")
	ErrInsufficientBalance   = errors.New("insufficient balance")
)

// Errors - exchange
var (
	ErrPoolExists            = errors.New("pool already exists")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrDeadlineExpired       = errors.New("deadline expired")
)

// Errors - administration
var (
	ErrFeeExceedsMaximum = errors.New("fee exceeds maximum")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPaused            = errors.New("launchpad is paused")
	ErrReentrant         = errors.New("reentrancy detected")
)

// fitsU256 reports whether x can cross the uint256 balance-book boundary.
// Every externally supplied amount is checked at its entry point; recorded
// amounts (raised totals, reserves, shares) stay in range by construction.
func fitsU256(x *big.Int) bool {
	return x.BitLen() <= 256
}

// toU256 converts a non-negative big.Int amount to uint256 for the balance
// book boundary. Entry points reject amounts that do not fit; if one slips
// through, saturating keeps it from ever passing a balance comparison.
func toU256(x *big.Int) *uint256.Int {
	u, overflow := uint256.FromBig(x)
	if overflow {
		return new(uint256.Int).SetAllOne()
	}
	return u
}

// campaignSeed derives the deterministic bonding seed for a campaign from its
// identity and the reserves it was seeded with
func campaignSeed(id uint64, creator common.Address, seedBase, seedToken *big.Int) uint64 {
	h := blake3.New()
	var idBytes [8]byte
	binary.BigEndian.PutUint64(idBytes[:], id)
	h.Write(idBytes[:])
	h.Write(creator.Bytes())
	h.Write(seedBase.Bytes())
	h.Write(seedToken.Bytes())
	var out [8]byte
	h.Digest().Read(out[:])
	return binary.BigEndian.Uint64(out[:])
}

// bpsOf computes amount * bps / 10000, rounding down
func bpsOf(amount *big.Int, bps uint64) *big.Int {
	fee := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	return fee.Div(fee, new(big.Int).SetUint64(BasisPointDenominator))
}
