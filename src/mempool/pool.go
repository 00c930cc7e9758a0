package mempool

import "sync"

// Pool holds transactions that have been admitted but not yet settled into
// the state store. It is safe for concurrent use; readers go through a
// ReadHandle.
type Pool struct {
	mu   sync.RWMutex
	txns map[string][]byte
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{txns: make(map[string][]byte)}
}

// Add admits a serialized transaction and returns its digest. Adding the
// same transaction twice is a no-op.
func (p *Pool) Add(data []byte) string {
	digest := Digest(data)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.txns[digest]; !ok {
		stored := make([]byte, len(data))
		copy(stored, data)
		p.txns[digest] = stored
	}

	return digest
}

// Remove evicts a transaction by digest.
func (p *Pool) Remove(digest string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.txns, digest)
}

// ReadHandle returns a read-only view of the pool, safe to share across
// tasks.
func (p *Pool) ReadHandle() ReadHandle {
	return ReadHandle{pool: p}
}

// ReadHandle is a read-only, concurrently shareable view of a Pool.
type ReadHandle struct {
	pool *Pool
}

// Get returns the serialized transaction stored under digest.
func (h ReadHandle) Get(digest string) ([]byte, bool) {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	data, ok := h.pool.txns[digest]
	return data, ok
}

// Size returns the number of pending transactions.
func (h ReadHandle) Size() int {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	return len(h.pool.txns)
}

// Snapshot returns a copy of all pending transactions keyed by digest.
func (h ReadHandle) Snapshot() map[string][]byte {
	h.pool.mu.RLock()
	defer h.pool.mu.RUnlock()

	out := make(map[string][]byte, len(h.pool.txns))
	for digest, data := range h.pool.txns {
		out[digest] = data
	}
	return out
}
