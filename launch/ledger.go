// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// ContributionLedger owns campaign records and per-contributor balances. It
// enforces the funding cap, allows pre-bond withdrawal, and hands fully
// funded campaigns to the BondingController before the triggering call
// returns.
type ContributionLedger struct {
	// mu protects the campaign registry
	mu sync.RWMutex

	// locked prevents reentrancy across mutating entry points; it is held
	// for the full contribute->bond sequence so no caller chained through an
	// external call can observe a half-updated ledger
	locked bool

	nextID    uint64
	campaigns map[uint64]*Campaign

	issuer  TokenIssuer
	config  *ProtocolConfig
	bonding *BondingController

	log log.Logger
}

// NewContributionLedger creates an empty ledger
func NewContributionLedger(issuer TokenIssuer, config *ProtocolConfig, logger log.Logger) *ContributionLedger {
	return &ContributionLedger{
		nextID:    1,
		campaigns: make(map[uint64]*Campaign),
		issuer:    issuer,
		config:    config,
		log:       logger,
	}
}

// SetBondingController wires the controller invoked on every contribution.
// Must be called before the first Contribute.
func (l *ContributionLedger) SetBondingController(b *BondingController) {
	l.bonding = b
}

// beginOp acquires the reentrancy guard for a mutating operation
func (l *ContributionLedger) beginOp() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locked {
		return ErrReentrant
	}
	l.locked = true
	return nil
}

// endOp releases the reentrancy guard
func (l *ContributionLedger) endOp() {
	l.mu.Lock()
	l.locked = false
	l.mu.Unlock()
}

// CreateCampaign opens a fundraising campaign for a tokenized agent and
// escrows the full token supply under the ledger's escrow account. Returns
// the new campaign id.
func (l *ContributionLedger) CreateCampaign(
	creator common.Address,
	name string,
	metadata string,
	token common.Address,
	fundingTarget *big.Int,
	tokenSupply *big.Int,
) (uint64, error) {
	if err := l.beginOp(); err != nil {
		return 0, err
	}
	defer l.endOp()

	if l.config.Paused {
		return 0, ErrPaused
	}
	if fundingTarget == nil || fundingTarget.Sign() <= 0 {
		return 0, fmt.Errorf("%w: funding target must be positive", ErrInvalidParameters)
	}
	if tokenSupply == nil || tokenSupply.Sign() <= 0 {
		return 0, fmt.Errorf("%w: token supply must be positive", ErrInvalidParameters)
	}
	if !fitsU256(fundingTarget) || !fitsU256(tokenSupply) {
		return 0, fmt.Errorf("%w: amount exceeds balance range", ErrInvalidParameters)
	}
	if token == (common.Address{}) {
		return 0, fmt.Errorf("%w: zero token address", ErrInvalidParameters)
	}

	if err := l.issuer.Mint(token, escrowAddr, toU256(tokenSupply)); err != nil {
		return 0, fmt.Errorf("token issuance failed: %w", err)
	}

	id := l.nextID
	l.nextID++

	l.campaigns[id] = &Campaign{
		ID:            id,
		Creator:       creator,
		Name:          name,
		Metadata:      metadata,
		Token:         token,
		FundingTarget: new(big.Int).Set(fundingTarget),
		TokenSupply:   new(big.Int).Set(tokenSupply),
		TotalRaised:   big.NewInt(0),
		Status:        StatusRaising,
		Contributions: make(map[common.Address]*big.Int),
	}

	l.log.Info("campaign created", "campaign", id, "creator", creator,
		"token", token, "target", fundingTarget, "supply", tokenSupply)
	return id, nil
}

// ContributeResult reports the outcome of a contribution, including the
// bonding transition when the contribution completed the target
type ContributeResult struct {
	TotalRaised *big.Int
	Bonded      bool
	Bond        *BondOutcome
}

// Contribute credits amount from caller to campaign id and, if the funding
// target is now reached, bonds the campaign within the same operation. All
// ledger state is committed before the bonding controller runs, and the
// reentrancy guard is held across the entire sequence.
func (l *ContributionLedger) Contribute(
	stateDB StateDB,
	caller common.Address,
	id uint64,
	amount *big.Int,
) (*ContributeResult, error) {
	if err := l.beginOp(); err != nil {
		return nil, err
	}
	defer l.endOp()

	if l.config.Paused {
		return nil, ErrPaused
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: contribution must be positive", ErrInvalidParameters)
	}
	if !fitsU256(amount) {
		return nil, fmt.Errorf("%w: amount exceeds balance range", ErrInvalidParameters)
	}

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	if c.IsBonded() {
		return nil, ErrAgentAlreadyBonded
	}
	if c.IsCancelled() {
		return nil, ErrAgentCancelled
	}

	newTotal := new(big.Int).Add(c.TotalRaised, amount)
	if newTotal.Cmp(c.FundingTarget) > 0 {
		return nil, ErrFundingTargetExceeded
	}

	amountU := toU256(amount)
	if stateDB.GetBalance(caller).Cmp(amountU) < 0 {
		return nil, ErrInsufficientBalance
	}
	stateDB.SubBalance(caller, amountU)
	stateDB.AddBalance(escrowAddr, amountU)

	prev, ok := c.Contributions[caller]
	if !ok {
		prev = big.NewInt(0)
	}
	c.Contributions[caller] = new(big.Int).Add(prev, amount)
	c.TotalRaised = newTotal

	l.log.Debug("contribution received", "campaign", id, "from", caller,
		"amount", amount, "raised", newTotal, "target", c.FundingTarget)

	result := &ContributeResult{TotalRaised: new(big.Int).Set(newTotal)}

	// The bonding check runs unconditionally on every contribution. Ledger
	// balances above are final before the controller touches the exchange.
	if c.TotalRaised.Cmp(c.FundingTarget) >= 0 {
		outcome, err := l.bonding.bond(stateDB, c)
		if err != nil {
			return nil, fmt.Errorf("bonding failed: %w", err)
		}
		result.Bonded = true
		result.Bond = outcome
	}

	return result, nil
}

// WithdrawContribution returns the caller's full recorded balance and zeroes
// it. Unavailable once the campaign has bonded: funds already committed to
// the pool are no longer individually attributable. Withdrawals remain open
// on cancelled campaigns and while the launchpad is paused.
func (l *ContributionLedger) WithdrawContribution(
	stateDB StateDB,
	caller common.Address,
	id uint64,
) (*big.Int, error) {
	if err := l.beginOp(); err != nil {
		return nil, err
	}
	defer l.endOp()

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	if c.IsBonded() {
		return nil, ErrAgentAlreadyBonded
	}

	balance, ok := c.Contributions[caller]
	if !ok || balance.Sign() == 0 {
		return nil, ErrNoContribution
	}

	refund := new(big.Int).Set(balance)
	delete(c.Contributions, caller)
	c.TotalRaised = new(big.Int).Sub(c.TotalRaised, refund)

	refundU := toU256(refund)
	stateDB.SubBalance(escrowAddr, refundU)
	stateDB.AddBalance(caller, refundU)

	l.log.Debug("contribution withdrawn", "campaign", id, "to", caller,
		"amount", refund, "raised", c.TotalRaised)
	return refund, nil
}

// BondAgent is the manual bonding entry point. Auto-bonding fires the moment
// the target is reached, so this path succeeds only in the narrow window
// where the condition holds but the automatic trigger has not run; it exists
// as an idempotent guard rather than an independent trigger.
func (l *ContributionLedger) BondAgent(stateDB StateDB, id uint64) (*BondOutcome, error) {
	if err := l.beginOp(); err != nil {
		return nil, err
	}
	defer l.endOp()

	if l.config.Paused {
		return nil, ErrPaused
	}

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	if c.IsBonded() {
		return nil, ErrAgentAlreadyBonded
	}
	if c.IsCancelled() {
		return nil, ErrAgentCancelled
	}
	if c.TotalRaised.Cmp(c.FundingTarget) < 0 {
		return nil, ErrFundingTargetNotMet
	}

	return l.bonding.bond(stateDB, c)
}

// CancelCampaign is the administrator-only escape hatch that moves a raising
// campaign to the cancelled terminal state, leaving contributions refundable
// through WithdrawContribution.
func (l *ContributionLedger) CancelCampaign(caller common.Address, id uint64) error {
	if err := l.beginOp(); err != nil {
		return err
	}
	defer l.endOp()

	if caller != l.config.Admin {
		return ErrUnauthorized
	}

	c, ok := l.campaigns[id]
	if !ok {
		return ErrAgentNotFound
	}
	if c.IsTerminal() {
		return ErrAgentNotCancellable
	}

	c.Status = StatusCancelled
	l.log.Info("campaign cancelled", "campaign", id, "raised", c.TotalRaised)
	return nil
}

// GetContribution returns caller's recorded contribution for campaign id
func (l *ContributionLedger) GetContribution(id uint64, addr common.Address) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return c.Contribution(addr), nil
}

// GetTotalRaised returns the running total for campaign id
func (l *ContributionLedger) GetTotalRaised(id uint64) (*big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return new(big.Int).Set(c.TotalRaised), nil
}

// GetCampaignInfo returns a snapshot of campaign id. The copy is deep, so
// callers never hold a mutable reference into the registry.
func (l *ContributionLedger) GetCampaignInfo(id uint64) (*Campaign, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.campaigns[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return copyCampaign(c), nil
}

// GetAllCampaigns returns snapshots of every campaign in id order
func (l *ContributionLedger) GetAllCampaigns() []*Campaign {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Campaign, 0, len(l.campaigns))
	for id := uint64(1); id < l.nextID; id++ {
		if c, ok := l.campaigns[id]; ok {
			out = append(out, copyCampaign(c))
		}
	}
	return out
}

// GetAllBondedCampaigns returns snapshots of every bonded campaign in id order
func (l *ContributionLedger) GetAllBondedCampaigns() []*Campaign {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Campaign, 0)
	for id := uint64(1); id < l.nextID; id++ {
		if c, ok := l.campaigns[id]; ok && c.IsBonded() {
			out = append(out, copyCampaign(c))
		}
	}
	return out
}

// restoreCampaign installs a persisted record during store recovery
func (l *ContributionLedger) restoreCampaign(c *Campaign) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.campaigns[c.ID] = c
	if c.ID >= l.nextID {
		l.nextID = c.ID + 1
	}
}

// campaign returns the live record for internal use by the store
func (l *ContributionLedger) campaign(id uint64) (*Campaign, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.campaigns[id]
	return c, ok
}

func copyCampaign(c *Campaign) *Campaign {
	cp := &Campaign{
		ID:            c.ID,
		Creator:       c.Creator,
		Name:          c.Name,
		Metadata:      c.Metadata,
		Token:         c.Token,
		FundingTarget: new(big.Int).Set(c.FundingTarget),
		TokenSupply:   new(big.Int).Set(c.TokenSupply),
		TotalRaised:   new(big.Int).Set(c.TotalRaised),
		Status:        c.Status,
		Contributions: make(map[common.Address]*big.Int, len(c.Contributions)),
		Seed:          c.Seed,
	}
	for addr, amt := range c.Contributions {
		cp.Contributions[addr] = new(big.Int).Set(amt)
	}
	return cp
}
