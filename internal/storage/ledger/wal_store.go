// Package ledger persists the per-symbol trade and balance history in an
// append-only WAL and reconstructs account state from it on startup.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
)

const (
	tradeKeyPrefix   = "trade_"
	balanceKeyPrefix = "balance_"

	segmentThreshold  = 1000
	maxSegments       = 100
	walDirPermissions = 0o755
)

// WALStore is the durable ledger for one symbol. Each symbol owns an
// exclusive namespace directory; there is exactly one writer (the symbol's
// control loop) and any number of concurrent readers. Records are written
// in sync-disk mode so they are durable before exporters can observe them.
type WALStore struct {
	pair domain.Pair
	wal  *gowal.Wal
	mu   sync.RWMutex
}

// NewWALStore opens (or creates) the ledger namespace for a pair under dir.
func NewWALStore(dir string, pair domain.Pair) (*WALStore, error) {
	if dir == "" {
		dir = "./data"
	}
	walDir := filepath.Join(dir, pair.String(), "ledger")
	if err := os.MkdirAll(walDir, walDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure ledger directory %s", walDir)
	}

	cfg := gowal.Config{
		Dir:              walDir,
		Prefix:           "log_",
		SegmentThreshold: segmentThreshold,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "init ledger WAL for %s", pair.String())
	}

	return &WALStore{pair: pair, wal: wal}, nil
}

// AppendTrade durably appends one trade record.
func (s *WALStore) AppendTrade(rec domain.TradeRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("ledger store is not initialized")
	}
	if !rec.Action.Valid() {
		return errors.Errorf("invalid trade action %q", rec.Action)
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal trade record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, tradeKeyPrefix+rec.Pair, payload)
}

// AppendBalance durably appends one balance snapshot.
func (s *WALStore) AppendBalance(snap domain.BalanceSnapshot) error {
	if s == nil || s.wal == nil {
		return errors.New("ledger store is not initialized")
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal balance snapshot")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, balanceKeyPrefix+snap.Pair, payload)
}

// LoadLatest replays the WAL and returns the most recent balance snapshot
// plus the full trade history, for resuming a session. A nil snapshot means
// no prior session exists.
func (s *WALStore) LoadLatest() (*domain.BalanceSnapshot, []domain.TradeRecord, error) {
	if s == nil || s.wal == nil {
		return nil, nil, errors.New("ledger store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.BalanceSnapshot
	var trades []domain.TradeRecord

	for msg := range s.wal.Iterator() {
		switch {
		case strings.HasPrefix(msg.Key, balanceKeyPrefix):
			var snap domain.BalanceSnapshot
			if err := json.Unmarshal(msg.Value, &snap); err != nil {
				return nil, nil, errors.Wrap(err, "decode balance snapshot")
			}
			latest = &snap
		case strings.HasPrefix(msg.Key, tradeKeyPrefix):
			var rec domain.TradeRecord
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				return nil, nil, errors.Wrap(err, "decode trade record")
			}
			trades = append(trades, rec)
		}
	}

	return latest, trades, nil
}

// SnapshotsAfter returns all balance snapshots written after the provided
// index, with their indexes, for incremental readers.
func (s *WALStore) SnapshotsAfter(index uint64) ([]domain.BalanceSnapshotRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("ledger store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []domain.BalanceSnapshotRecord
	var idx uint64
	for msg := range s.wal.Iterator() {
		idx++
		if idx <= index || !strings.HasPrefix(msg.Key, balanceKeyPrefix) {
			continue
		}
		var snap domain.BalanceSnapshot
		if err := json.Unmarshal(msg.Value, &snap); err != nil {
			return nil, errors.Wrap(err, "decode balance snapshot")
		}
		records = append(records, domain.BalanceSnapshotRecord{Index: idx, Snapshot: snap})
	}
	return records, nil
}

// TradesAfter returns all trade records written after the provided index.
func (s *WALStore) TradesAfter(index uint64) ([]domain.TradeRecordEntry, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("ledger store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []domain.TradeRecordEntry
	var idx uint64
	for msg := range s.wal.Iterator() {
		idx++
		if idx <= index || !strings.HasPrefix(msg.Key, tradeKeyPrefix) {
			continue
		}
		var rec domain.TradeRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			return nil, errors.Wrap(err, "decode trade record")
		}
		entries = append(entries, domain.TradeRecordEntry{Index: idx, Record: rec})
	}
	return entries, nil
}

// Export is the interchange representation of one symbol's full history,
// consumable by the reporting service while writes are in flight.
type Export struct {
	Pair         string                   `json:"pair"`
	AsOfIndex    uint64                   `json:"as_of_index"`
	Balances     []domain.BalanceSnapshot `json:"balance_history"`
	Transactions []domain.TradeRecord     `json:"transactions"`
}

// Export returns a consistent append-only snapshot of the full history.
func (s *WALStore) Export() (Export, error) {
	if s == nil || s.wal == nil {
		return Export{}, errors.New("ledger store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Export{Pair: s.pair.String()}
	var idx uint64
	for msg := range s.wal.Iterator() {
		idx++
		switch {
		case strings.HasPrefix(msg.Key, balanceKeyPrefix):
			var snap domain.BalanceSnapshot
			if err := json.Unmarshal(msg.Value, &snap); err != nil {
				return Export{}, errors.Wrap(err, "decode balance snapshot")
			}
			out.Balances = append(out.Balances, snap)
		case strings.HasPrefix(msg.Key, tradeKeyPrefix):
			var rec domain.TradeRecord
			if err := json.Unmarshal(msg.Value, &rec); err != nil {
				return Export{}, errors.Wrap(err, "decode trade record")
			}
			out.Transactions = append(out.Transactions, rec)
		}
	}
	out.AsOfIndex = idx
	return out, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
