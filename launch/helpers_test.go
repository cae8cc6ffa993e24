// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// Test addresses
var (
	testAdmin    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testCreator  = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testUserA    = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testUserB    = common.HexToAddress("0x4444444444444444444444444444444444444444")
	testToken    = common.HexToAddress("0x5555555555555555555555555555555555555555")
	testTreasury = common.HexToAddress(DefaultTreasuryAddress)
)

// MockStateDB implements the StateDB balance book for testing
type MockStateDB struct {
	balances map[common.Address]*uint256.Int
}

func NewMockStateDB() *MockStateDB {
	return &MockStateDB{balances: make(map[common.Address]*uint256.Int)}
}

func (m *MockStateDB) GetBalance(addr common.Address) *uint256.Int {
	if bal, ok := m.balances[addr]; ok {
		return bal.Clone()
	}
	return uint256.NewInt(0)
}

func (m *MockStateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	m.balances[addr] = new(uint256.Int).Add(m.balances[addr], amount)
}

func (m *MockStateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	if m.balances[addr] == nil {
		m.balances[addr] = uint256.NewInt(0)
	}
	m.balances[addr] = new(uint256.Int).Sub(m.balances[addr], amount)
}

// mockIssuer is an in-memory TokenIssuer
type mockIssuer struct {
	// token -> owner -> balance
	balances map[common.Address]map[common.Address]*uint256.Int
}

func newMockIssuer() *mockIssuer {
	return &mockIssuer{balances: make(map[common.Address]map[common.Address]*uint256.Int)}
}

func (m *mockIssuer) book(token common.Address) map[common.Address]*uint256.Int {
	if m.balances[token] == nil {
		m.balances[token] = make(map[common.Address]*uint256.Int)
	}
	return m.balances[token]
}

func (m *mockIssuer) Mint(token, to common.Address, amount *uint256.Int) error {
	book := m.book(token)
	if book[to] == nil {
		book[to] = uint256.NewInt(0)
	}
	book[to] = new(uint256.Int).Add(book[to], amount)
	return nil
}

func (m *mockIssuer) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	book := m.book(token)
	if book[from] == nil || book[from].Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	book[from] = new(uint256.Int).Sub(book[from], amount)
	if book[to] == nil {
		book[to] = uint256.NewInt(0)
	}
	book[to] = new(uint256.Int).Add(book[to], amount)
	return nil
}

func (m *mockIssuer) BalanceOf(token, owner common.Address) *uint256.Int {
	if book, ok := m.balances[token]; ok {
		if bal, ok := book[owner]; ok {
			return bal.Clone()
		}
	}
	return uint256.NewInt(0)
}

// newTestLaunchpad wires a launchpad with fresh mocks
func newTestLaunchpad() (*Launchpad, *MockStateDB, *mockIssuer) {
	issuer := newMockIssuer()
	return newLaunchpadWithIssuer(issuer), NewMockStateDB(), issuer
}

func newLaunchpadWithIssuer(issuer TokenIssuer) *Launchpad {
	return NewLaunchpad(testAdmin, issuer, log.NewTestLogger(log.InfoLevel))
}

// fund credits addr with amount of base asset
func fund(stateDB *MockStateDB, addr common.Address, amount int64) {
	stateDB.AddBalance(addr, uint256.NewInt(uint64(amount)))
}

func bigBalance(stateDB *MockStateDB, addr common.Address) *big.Int {
	return stateDB.GetBalance(addr).ToBig()
}

// sumContributions re-derives totalRaised from the contribution map
func sumContributions(c *Campaign) *big.Int {
	sum := big.NewInt(0)
	for _, amt := range c.Contributions {
		sum.Add(sum, amt)
	}
	return sum
}
