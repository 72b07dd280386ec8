package flowstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory flow store for tests and the "memory" driver.
// Data is lost when the process exits.
type MemoryStore struct {
	opts options

	mu     sync.RWMutex
	flows  map[string]Record
	closed bool
}

// NewMemoryStore creates a new in-memory flow store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		opts:  newOptions(opts),
		flows: make(map[string]Record),
	}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, token, name string, dag json.RawMessage) (Record, error) {
	const op = "create flow"
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	owner, err := m.opts.authorize(op, token)
	if err != nil {
		return Record{}, err
	}
	if err := validateWrite(op, name, dag); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, ErrStoreClosed
	}

	now := m.opts.now().UTC()
	rec := Record{
		ID:        uuid.NewString(),
		Name:      name,
		Owner:     owner,
		Dag:       cloneRaw(dag),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.flows[rec.ID] = rec
	return copyRecord(rec), nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, token, id, name string, dag json.RawMessage) (Record, error) {
	const op = "update flow"
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	owner, err := m.opts.authorize(op, token)
	if err != nil {
		return Record{}, err
	}
	if err := validateWrite(op, name, dag); err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := m.flows[id]
	if !ok {
		return Record{}, notFound(op)
	}
	if rec.Owner != owner {
		return Record{}, forbidden(op)
	}
	rec.Name = name
	rec.Dag = cloneRaw(dag)
	rec.Version++
	rec.UpdatedAt = m.opts.now().UTC()
	m.flows[id] = rec
	return copyRecord(rec), nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return Record{}, ErrStoreClosed
	}

	rec, ok := m.flows[id]
	if !ok {
		return Record{}, notFound("get flow")
	}
	return copyRecord(rec), nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context) ([]Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.flows))
	for _, rec := range m.flows {
		infos = append(infos, infoOf(rec))
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, token, id string) error {
	const op = "delete flow"
	if err := ctx.Err(); err != nil {
		return err
	}
	owner, err := m.opts.authorize(op, token)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	rec, ok := m.flows[id]
	if !ok {
		return nil
	}
	if rec.Owner != owner {
		return forbidden(op)
	}
	delete(m.flows, id)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.flows = nil
	return nil
}

// Len returns the number of stored flows.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flows)
}

func infoOf(rec Record) Info {
	return Info{
		ID:        rec.ID,
		Name:      rec.Name,
		Owner:     rec.Owner,
		Version:   rec.Version,
		UpdatedAt: rec.UpdatedAt,
		Size:      int64(len(rec.Dag)),
	}
}

func copyRecord(rec Record) Record {
	rec.Dag = cloneRaw(rec.Dag)
	return rec
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
