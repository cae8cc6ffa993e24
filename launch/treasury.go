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

// FeeTreasury extracts and routes protocol fees and guards the protocol
// configuration. Every admin entry point performs an explicit capability
// check against the configured administrator; there is no implicit inherited
// authorization.
type FeeTreasury struct {
	mu sync.RWMutex

	config *ProtocolConfig

	log log.Logger
}

// NewFeeTreasury creates a treasury over config
func NewFeeTreasury(config *ProtocolConfig, logger log.Logger) *FeeTreasury {
	return &FeeTreasury{config: config, log: logger}
}

// CollectFee computes the protocol fee on amount, routes it from the holding
// account to the treasury address, and returns the fee taken. Floor division:
// the payer never loses more than feeBasisPoints/10000 of amount.
func (t *FeeTreasury) CollectFee(stateDB StateDB, from common.Address, amount *big.Int) *big.Int {
	t.mu.RLock()
	fee := bpsOf(amount, t.config.FeeBasisPoints)
	treasury := t.config.Treasury
	t.mu.RUnlock()

	if fee.Sign() > 0 {
		feeU := toU256(fee)
		stateDB.SubBalance(from, feeU)
		stateDB.AddBalance(treasury, feeU)
	}
	return fee
}

// SetFeeBasisPoints updates the protocol fee, clamped by MaxFeeBasisPoints.
// Returns the previous value for change notifications.
func (t *FeeTreasury) SetFeeBasisPoints(caller common.Address, bps uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return 0, ErrUnauthorized
	}
	if bps > MaxFeeBasisPoints {
		return 0, ErrFeeExceedsMaximum
	}

	old := t.config.FeeBasisPoints
	t.config.FeeBasisPoints = bps
	t.log.Info("protocol fee updated", "from", old, "to", bps)
	return old, nil
}

// SetSwapFeeBasisPoints updates the per-swap pool fee, under the same cap
func (t *FeeTreasury) SetSwapFeeBasisPoints(caller common.Address, bps uint64) (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return 0, ErrUnauthorized
	}
	if bps > MaxFeeBasisPoints {
		return 0, ErrFeeExceedsMaximum
	}

	old := t.config.SwapFeeBasisPoints
	t.config.SwapFeeBasisPoints = bps
	t.log.Info("swap fee updated", "from", old, "to", bps)
	return old, nil
}

// SetTreasuryAddress redirects future protocol fees. The zero address is
// rejected so fees can never be burned by misconfiguration.
func (t *FeeTreasury) SetTreasuryAddress(caller common.Address, addr common.Address) (common.Address, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return common.Address{}, ErrUnauthorized
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%w: zero treasury address", ErrInvalidParameters)
	}

	old := t.config.Treasury
	t.config.Treasury = addr
	t.log.Info("treasury address updated", "from", old, "to", addr)
	return old, nil
}

// SetLiquiditySplit updates the bonding-time allocation between pool and
// creator. Both sides must stay within (0, 10000]; a zero pool share would
// make every future bonding fail.
func (t *FeeTreasury) SetLiquiditySplit(caller common.Address, split LiquiditySplit) (LiquiditySplit, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return LiquiditySplit{}, ErrUnauthorized
	}
	if split.FundsBasisPoints == 0 || split.FundsBasisPoints > BasisPointDenominator ||
		split.SupplyBasisPoints == 0 || split.SupplyBasisPoints > BasisPointDenominator {
		return LiquiditySplit{}, fmt.Errorf("%w: split out of range", ErrInvalidParameters)
	}

	old := t.config.Split
	t.config.Split = split
	t.log.Info("liquidity split updated",
		"fundsBps", split.FundsBasisPoints, "supplyBps", split.SupplyBasisPoints)
	return old, nil
}

// Pause blocks campaign creation, contribution, and bonding. Reads and
// contribution withdrawals are never blocked. Returns false if already paused.
func (t *FeeTreasury) Pause(caller common.Address) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return false, ErrUnauthorized
	}
	if t.config.Paused {
		return false, nil
	}
	t.config.Paused = true
	t.log.Warn("launchpad paused")
	return true, nil
}

// Unpause lifts a pause. Returns false if not paused.
func (t *FeeTreasury) Unpause(caller common.Address) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if caller != t.config.Admin {
		return false, ErrUnauthorized
	}
	if !t.config.Paused {
		return false, nil
	}
	t.config.Paused = false
	t.log.Warn("launchpad unpaused")
	return true, nil
}

// Config returns a snapshot of the current protocol configuration
func (t *FeeTreasury) Config() ProtocolConfig {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return *t.config
}
