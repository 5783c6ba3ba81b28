package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/benthic/benthic/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketStreams       = []byte("streams")
	bucketInvertebrates = []byte("invertebrates")
	bucketMeta          = []byte("meta")
)

var allBuckets = [][]byte{bucketStreams, bucketInvertebrates, bucketMeta}

const (
	keyAbout      = "about"
	keyLastUpdate = "last_update"
)

// BoltPersister implements domain.Persister using BoltDB.
type BoltPersister struct {
	db *bolt.DB
	mu sync.RWMutex // Protects mem

	// Memory-only mode keeps bucket contents here instead of on disk
	mem map[string]map[string][]byte
}

var _ domain.Persister = (*BoltPersister)(nil)

// NewBoltPersister opens (or creates) the database for serverURL under
// baseDataDir. An empty baseDataDir yields a memory-only persister.
func NewBoltPersister(baseDataDir, serverURL string) (*BoltPersister, error) {
	if baseDataDir == "" {
		return &BoltPersister{mem: make(map[string]map[string][]byte)}, nil
	}

	dir := baseDataDir
	if serverURL != "" {
		dir = filepath.Join(baseDataDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "benthic.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltPersister{db: db}, nil
}

// hashServerURL keeps data from different sites apart.
func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (p *BoltPersister) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (p *BoltPersister) get(bucket []byte, key string, dest any) (bool, error) {
	var data []byte
	if p.db == nil {
		p.mu.RLock()
		data = p.mem[string(bucket)][key]
		p.mu.RUnlock()
	} else {
		err := p.db.View(func(tx *bolt.Tx) error {
			if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
				data = make([]byte, len(v))
				copy(data, v)
			}
			return nil
		})
		if err != nil {
			return false, err
		}
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return true, nil
}

func (p *BoltPersister) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if p.db == nil {
		p.mu.Lock()
		b, ok := p.mem[string(bucket)]
		if !ok {
			b = make(map[string][]byte)
			p.mem[string(bucket)] = b
		}
		b[key] = data
		p.mu.Unlock()
		return nil
	}

	return p.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

// replaceAll swaps a bucket's contents for records in one transaction.
func (p *BoltPersister) replaceAll(bucket []byte, records map[string]any) error {
	encoded := make(map[string][]byte, len(records))
	for k, v := range records {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", bucket, k, err)
		}
		encoded[k] = data
	}

	if p.db == nil {
		p.mu.Lock()
		p.mem[string(bucket)] = encoded
		p.mu.Unlock()
		return nil
	}

	return p.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket(bucket)
		if err != nil {
			return err
		}
		for k, data := range encoded {
			if err := b.Put([]byte(k), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// forEach decodes every value in bucket in key order.
func (p *BoltPersister) forEach(bucket []byte, fn func(data []byte) error) error {
	if p.db == nil {
		p.mu.RLock()
		b := p.mem[string(bucket)]
		keys := make([]string, 0, len(b))
		for k := range b {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := make([][]byte, len(keys))
		for i, k := range keys {
			values[i] = b[k]
		}
		p.mu.RUnlock()

		for _, v := range values {
			if err := fn(v); err != nil {
				return err
			}
		}
		return nil
	}

	return p.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(_, v []byte) error {
			return fn(v)
		})
	})
}

// === Streams ===

func (p *BoltPersister) LoadStreams() ([]domain.Stream, error) {
	var streams []domain.Stream
	err := p.forEach(bucketStreams, func(data []byte) error {
		var s domain.Stream
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode stream: %w", err)
		}
		streams = append(streams, s)
		return nil
	})
	return streams, err
}

func (p *BoltPersister) SaveStreams(streams []domain.Stream) error {
	records := make(map[string]any, len(streams))
	for _, s := range streams {
		records[s.ID] = s
	}
	return p.replaceAll(bucketStreams, records)
}

// === Invertebrates ===

func (p *BoltPersister) LoadInvertebrates() ([]domain.Invertebrate, error) {
	var invertebrates []domain.Invertebrate
	err := p.forEach(bucketInvertebrates, func(data []byte) error {
		var inv domain.Invertebrate
		if err := json.Unmarshal(data, &inv); err != nil {
			return fmt.Errorf("decode invertebrate: %w", err)
		}
		invertebrates = append(invertebrates, inv)
		return nil
	})
	return invertebrates, err
}

func (p *BoltPersister) SaveInvertebrates(invertebrates []domain.Invertebrate) error {
	records := make(map[string]any, len(invertebrates))
	for _, inv := range invertebrates {
		records[inv.ID] = inv
	}
	return p.replaceAll(bucketInvertebrates, records)
}

// === Meta ===

func (p *BoltPersister) LoadAbout() (string, bool) {
	var text string
	ok, err := p.get(bucketMeta, keyAbout, &text)
	return text, ok && err == nil
}

func (p *BoltPersister) SaveAbout(text string) error {
	return p.set(bucketMeta, keyAbout, text)
}

func (p *BoltPersister) LastUpdate() (time.Time, bool) {
	var t time.Time
	ok, err := p.get(bucketMeta, keyLastUpdate, &t)
	return t, ok && err == nil
}

func (p *BoltPersister) SetLastUpdate(t time.Time) error {
	return p.set(bucketMeta, keyLastUpdate, t.UTC())
}
