// Copyright (C) 2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package launch

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"
	"sort"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
)

// Storage key prefixes
var (
	campaignPrefix = []byte("cmpn")
	poolPrefix     = []byte("pool")
	configKey      = []byte("conf")
)

// Store mirrors engine state into a key-value database so a restarted
// launchpad resumes exactly where it stopped. The façade writes through on
// every mutation; LoadInto replays everything at startup.
type Store struct {
	db database.Database
}

// NewStore creates a store over db
func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

func storageKey(prefix []byte, id uint64) []byte {
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], id)
	return key
}

// SaveCampaign persists the full campaign record
func (s *Store) SaveCampaign(c *Campaign) error {
	return s.db.Put(storageKey(campaignPrefix, c.ID), encodeCampaign(c))
}

// SavePool persists the full pool record
func (s *Store) SavePool(p *Pool) error {
	return s.db.Put(storageKey(poolPrefix, p.CampaignID), encodePool(p))
}

// SaveConfig persists the protocol configuration
func (s *Store) SaveConfig(cfg *ProtocolConfig) error {
	return s.db.Put(configKey, encodeConfig(cfg))
}

// LoadInto replays all persisted state into the given engines. Missing
// config is not an error: a fresh database starts from defaults.
func (s *Store) LoadInto(ledger *ContributionLedger, exchange *ExchangeEngine, cfg *ProtocolConfig) error {
	it := s.db.NewIteratorWithPrefix(campaignPrefix)
	defer it.Release()
	for it.Next() {
		c, err := decodeCampaign(it.Value())
		if err != nil {
			return fmt.Errorf("corrupt campaign record %x: %w", it.Key(), err)
		}
		ledger.restoreCampaign(c)
	}
	if err := it.Error(); err != nil {
		return err
	}

	pit := s.db.NewIteratorWithPrefix(poolPrefix)
	defer pit.Release()
	for pit.Next() {
		p, err := decodePool(pit.Value())
		if err != nil {
			return fmt.Errorf("corrupt pool record %x: %w", pit.Key(), err)
		}
		exchange.restorePool(p)
	}
	if err := pit.Error(); err != nil {
		return err
	}

	raw, err := s.db.Get(configKey)
	switch err {
	case nil:
		return decodeConfig(raw, cfg)
	case database.ErrNotFound:
		return nil
	default:
		return err
	}
}

// =========================================================================
// Binary encoding
// =========================================================================
//
// Length-prefixed big-endian layout. big.Int values are written as a 2-byte
// length and their absolute-value bytes; all persisted amounts are
// non-negative by construction.

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeBig(buf *bytes.Buffer, v *big.Int) {
	b := v.Bytes()
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(b)))
	buf.Write(l[:])
	buf.Write(b)
}

// Strings carry a 4-byte length prefix: metadata is caller supplied and can
// exceed the 64 KiB a 2-byte prefix would silently wrap at.
func writeString(buf *bytes.Buffer, s string) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(s)))
	buf.Write(l[:])
	buf.WriteString(s)
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) u8() (uint8, error) {
	if r.off+1 > len(r.data) {
		return 0, errShortRecord
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.off+8 > len(r.data) {
		return 0, errShortRecord
	}
	v := binary.BigEndian.Uint64(r.data[r.off : r.off+8])
	r.off += 8
	return v, nil
}

func (r *reader) bytes() ([]byte, error) {
	if r.off+2 > len(r.data) {
		return nil, errShortRecord
	}
	n := int(binary.BigEndian.Uint16(r.data[r.off : r.off+2]))
	r.off += 2
	if r.off+n > len(r.data) {
		return nil, errShortRecord
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) big() (*big.Int, error) {
	b, err := r.bytes()
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func (r *reader) str() (string, error) {
	if r.off+4 > len(r.data) {
		return "", errShortRecord
	}
	n := int(binary.BigEndian.Uint32(r.data[r.off : r.off+4]))
	r.off += 4
	if r.off+n > len(r.data) {
		return "", errShortRecord
	}
	s := string(r.data[r.off : r.off+n])
	r.off += n
	return s, nil
}

func (r *reader) addr() (common.Address, error) {
	if r.off+common.AddressLength > len(r.data) {
		return common.Address{}, errShortRecord
	}
	a := common.BytesToAddress(r.data[r.off : r.off+common.AddressLength])
	r.off += common.AddressLength
	return a, nil
}

var errShortRecord = fmt.Errorf("record truncated")

func encodeCampaign(c *Campaign) []byte {
	buf := new(bytes.Buffer)
	writeU64(buf, c.ID)
	buf.Write(c.Creator.Bytes())
	writeString(buf, c.Name)
	writeString(buf, c.Metadata)
	buf.Write(c.Token.Bytes())
	writeBig(buf, c.FundingTarget)
	writeBig(buf, c.TokenSupply)
	writeBig(buf, c.TotalRaised)
	buf.WriteByte(byte(c.Status))
	writeU64(buf, c.Seed)

	// deterministic contributor order
	addrs := make([]common.Address, 0, len(c.Contributions))
	for a := range c.Contributions {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	writeU64(buf, uint64(len(addrs)))
	for _, a := range addrs {
		buf.Write(a.Bytes())
		writeBig(buf, c.Contributions[a])
	}
	return buf.Bytes()
}

func decodeCampaign(data []byte) (*Campaign, error) {
	r := &reader{data: data}
	c := &Campaign{Contributions: make(map[common.Address]*big.Int)}

	var err error
	if c.ID, err = r.u64(); err != nil {
		return nil, err
	}
	if c.Creator, err = r.addr(); err != nil {
		return nil, err
	}
	if c.Name, err = r.str(); err != nil {
		return nil, err
	}
	if c.Metadata, err = r.str(); err != nil {
		return nil, err
	}
	if c.Token, err = r.addr(); err != nil {
		return nil, err
	}
	if c.FundingTarget, err = r.big(); err != nil {
		return nil, err
	}
	if c.TokenSupply, err = r.big(); err != nil {
		return nil, err
	}
	if c.TotalRaised, err = r.big(); err != nil {
		return nil, err
	}
	status, err := r.u8()
	if err != nil {
		return nil, err
	}
	c.Status = CampaignStatus(status)
	if c.Seed, err = r.u64(); err != nil {
		return nil, err
	}

	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		addr, err := r.addr()
		if err != nil {
			return nil, err
		}
		amt, err := r.big()
		if err != nil {
			return nil, err
		}
		c.Contributions[addr] = amt
	}
	return c, nil
}

func encodePool(p *Pool) []byte {
	buf := new(bytes.Buffer)
	writeU64(buf, p.CampaignID)
	buf.Write(p.Token.Bytes())
	writeBig(buf, p.ReserveBase)
	writeBig(buf, p.ReserveToken)
	writeBig(buf, p.TotalShares)

	addrs := make([]common.Address, 0, len(p.Shares))
	for a := range p.Shares {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	writeU64(buf, uint64(len(addrs)))
	for _, a := range addrs {
		buf.Write(a.Bytes())
		writeBig(buf, p.Shares[a])
	}
	return buf.Bytes()
}

func decodePool(data []byte) (*Pool, error) {
	r := &reader{data: data}
	p := &Pool{Shares: make(map[common.Address]*big.Int)}

	var err error
	if p.CampaignID, err = r.u64(); err != nil {
		return nil, err
	}
	if p.Token, err = r.addr(); err != nil {
		return nil, err
	}
	if p.ReserveBase, err = r.big(); err != nil {
		return nil, err
	}
	if p.ReserveToken, err = r.big(); err != nil {
		return nil, err
	}
	if p.TotalShares, err = r.big(); err != nil {
		return nil, err
	}

	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		addr, err := r.addr()
		if err != nil {
			return nil, err
		}
		s, err := r.big()
		if err != nil {
			return nil, err
		}
		p.Shares[addr] = s
	}
	return p, nil
}

func encodeConfig(cfg *ProtocolConfig) []byte {
	buf := new(bytes.Buffer)
	buf.Write(cfg.Admin.Bytes())
	buf.Write(cfg.Treasury.Bytes())
	writeU64(buf, cfg.FeeBasisPoints)
	writeU64(buf, cfg.SwapFeeBasisPoints)
	writeU64(buf, cfg.Split.FundsBasisPoints)
	writeU64(buf, cfg.Split.SupplyBasisPoints)
	if cfg.Paused {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes()
}

func decodeConfig(data []byte, cfg *ProtocolConfig) error {
	r := &reader{data: data}

	var err error
	if cfg.Admin, err = r.addr(); err != nil {
		return err
	}
	if cfg.Treasury, err = r.addr(); err != nil {
		return err
	}
	if cfg.FeeBasisPoints, err = r.u64(); err != nil {
		return err
	}
	if cfg.SwapFeeBasisPoints, err = r.u64(); err != nil {
		return err
	}
	if cfg.Split.FundsBasisPoints, err = r.u64(); err != nil {
		return err
	}
	if cfg.Split.SupplyBasisPoints, err = r.u64(); err != nil {
		return err
	}
	paused, err := r.u8()
	if err != nil {
		return err
	}
	cfg.Paused = paused == 1
	return nil
}
