// Package wal provides a durable write-ahead log for committed journal transactions.
//
// Each transaction is stored as one badger entry:
//
//	key:   "tx:{seq:016d}"
//	value: [4-byte CRC32][gob-encoded transaction]
//
// Sequence numbers start at 1 and are contiguous. Replay validates both the
// checksums and the sequence, so a truncated or tampered log is detected.
//
// The events of a transaction are encoded as interface values. Every concrete
// event type must therefore be registered with Register before it is persisted
// or replayed.
package wal

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/dRel/lib/journal"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("wal")

var (
	// ErrClosed is returned when operations are called on a closed log.
	ErrClosed = errors.New("wal is closed")

	// ErrCorrupted is returned when an entry fails the integrity check.
	ErrCorrupted = errors.New("wal entry corrupted")

	// ErrSequenceGap is returned when replay detects missing sequence numbers.
	ErrSequenceGap = errors.New("wal sequence number gap detected")
)

const keyPrefix = "tx:"

// Config configures a WAL.
type Config struct {
	// Path is the badger directory. Required unless InMemory is set.
	Path string
	// InMemory keeps the log in memory only (for testing).
	InMemory bool
	// SyncWrites makes every Persist durable before it returns.
	SyncWrites bool
}

// WAL is a badger backed journal.Sink.
//
// Thread-safety: safe for concurrent use.
type WAL struct {
	db     *badger.DB
	seq    atomic.Uint64
	closed atomic.Bool
	mu     sync.Mutex // serializes appends so sequence numbers are written in order
}

// record is the persisted form of a journal.Transaction.
type record struct {
	ID     uuid.UUID
	Events []journal.Event
}

// Register makes concrete event types known to the encoder.
// It must be called for every event type before it is persisted or replayed.
func Register(events ...journal.Event) {
	for _, e := range events {
		gob.Register(e)
	}
}

// Open opens (or creates) the log described by cfg.
func Open(cfg Config) (*WAL, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent wal")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(log)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	w := &WAL{db: db}
	if err := w.initSeq(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sequence number: %w", err)
	}

	log.Infof("wal opened (path=%q, in-memory=%v, last seq=%d)", cfg.Path, cfg.InMemory, w.seq.Load())
	return w, nil
}

// initSeq scans for the highest existing sequence number.
func (w *WAL) initSeq() error {
	return w.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Reverse = true

		it := txn.NewIterator(opts)
		defer it.Close()

		// seek past the last possible key of the prefix
		it.Seek(append([]byte(keyPrefix), 0xFF))
		if it.ValidForPrefix([]byte(keyPrefix)) {
			seq, err := parseKey(it.Item().Key())
			if err != nil {
				return err
			}
			w.seq.Store(seq)
		}
		return nil
	})
}

// Seq returns the sequence number of the last persisted transaction (0 if empty).
func (w *WAL) Seq() uint64 {
	return w.seq.Load()
}

// Persist appends tx to the log. It implements journal.Sink.
func (w *WAL) Persist(ctx context.Context, tx journal.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.closed.Load() {
		return ErrClosed
	}

	data, err := encodeEntry(record{ID: tx.ID, Events: tx.Events})
	if err != nil {
		return fmt.Errorf("encode transaction %s: %w", tx.ID, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	seq := w.seq.Load() + 1
	if err := w.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(seq), data)
	}); err != nil {
		return fmt.Errorf("write transaction %s: %w", tx.ID, err)
	}
	w.seq.Store(seq)

	log.Debugf("persisted transaction %s as %d (%d events, %d bytes)", tx.ID, seq, len(tx.Events), len(data))
	return nil
}

// Replay calls fn for every persisted transaction in sequence order.
// It stops at the first error, which is returned wrapped.
func (w *WAL) Replay(ctx context.Context, fn func(seq uint64, tx journal.Transaction) error) error {
	if w.closed.Load() {
		return ErrClosed
	}

	return w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		var last uint64
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			item := it.Item()
			seq, err := parseKey(item.Key())
			if err != nil {
				return err
			}
			if seq != last+1 {
				return fmt.Errorf("%w: expected %d, got %d", ErrSequenceGap, last+1, seq)
			}
			last = seq

			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("read entry %d: %w", seq, err)
			}
			rec, err := decodeEntry(data)
			if err != nil {
				return fmt.Errorf("entry %d: %w", seq, err)
			}
			if err := fn(seq, journal.Transaction{ID: rec.ID, Events: rec.Events}); err != nil {
				return fmt.Errorf("replay entry %d: %w", seq, err)
			}
		}
		return nil
	})
}

// Close syncs and closes the log. Further calls return ErrClosed.
func (w *WAL) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return w.db.Close()
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

func key(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016d", keyPrefix, seq))
}

func parseKey(k []byte) (uint64, error) {
	var seq uint64
	if _, err := fmt.Sscanf(string(k[len(keyPrefix):]), "%016d", &seq); err != nil {
		return 0, fmt.Errorf("%w: malformed key %q", ErrCorrupted, k)
	}
	return seq, nil
}

func encodeEntry(rec record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 4)) // checksum placeholder
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, fmt.Errorf("gob encode: %w", err)
	}

	data := buf.Bytes()
	binary.BigEndian.PutUint32(data[:4], crc32.ChecksumIEEE(data[4:]))
	return data, nil
}

func decodeEntry(data []byte) (record, error) {
	var rec record
	if len(data) < 5 {
		return rec, fmt.Errorf("%w: entry too short", ErrCorrupted)
	}

	stored := binary.BigEndian.Uint32(data[:4])
	if computed := crc32.ChecksumIEEE(data[4:]); stored != computed {
		return rec, fmt.Errorf("%w: stored=%08x computed=%08x", ErrCorrupted, stored, computed)
	}

	if err := gob.NewDecoder(bytes.NewReader(data[4:])).Decode(&rec); err != nil {
		return rec, fmt.Errorf("gob decode: %w", err)
	}
	return rec, nil
}
