package state

// KV is the minimal key-value surface the state manager needs. It is
// satisfied by both storage backends and by Txn itself.
type KV interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// Txn buffers writes over a base store so an operation either commits all of
// its mutations or none of them. Reads observe buffered writes first. This is
// the in-process stand-in for the host's atomic per-transaction execution.
type Txn struct {
	base   KV
	writes map[string][]byte
}

// NewTxn opens a write-buffering transaction over the base store.
func NewTxn(base KV) *Txn {
	return &Txn{base: base, writes: make(map[string][]byte)}
}

// Put buffers a write; nothing reaches the base store before Commit.
func (t *Txn) Put(key []byte, value []byte) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	t.writes[string(key)] = buf
	return nil
}

// Get returns the buffered value if present, otherwise reads through.
func (t *Txn) Get(key []byte) ([]byte, error) {
	if value, ok := t.writes[string(key)]; ok {
		return value, nil
	}
	return t.base.Get(key)
}

// Has reports key presence across the buffer and the base store.
func (t *Txn) Has(key []byte) (bool, error) {
	if _, ok := t.writes[string(key)]; ok {
		return true, nil
	}
	return t.base.Has(key)
}

// Commit flushes all buffered writes to the base store.
func (t *Txn) Commit() error {
	for key, value := range t.writes {
		if err := t.base.Put([]byte(key), value); err != nil {
			return err
		}
	}
	t.writes = make(map[string][]byte)
	return nil
}

// Discard drops all buffered writes.
func (t *Txn) Discard() {
	t.writes = make(map[string][]byte)
}
