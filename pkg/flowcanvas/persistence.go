package flowcanvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/flowstore"
)

// FlowRecord is a saved flow as returned by the persistence collaborator.
type FlowRecord struct {
	ID        string
	Name      string
	Dag       Dag
	Version   int
	UpdatedAt time.Time
}

// Persistence is the external collaborator that stores flows.
// GetFlow returns an error wrapping ErrFlowNotFound for unknown ids.
type Persistence interface {
	CreateFlow(ctx context.Context, name string, dag Dag, token string) (FlowRecord, error)
	UpdateFlow(ctx context.Context, id, name string, dag Dag, token string) (FlowRecord, error)
	GetFlow(ctx context.Context, id string) (FlowRecord, error)
}

// StorePersistence adapts a flowstore.Store to Persistence.
type StorePersistence struct {
	Store flowstore.Store
}

// NewStorePersistence wraps store.
func NewStorePersistence(store flowstore.Store) *StorePersistence {
	return &StorePersistence{Store: store}
}

// CreateFlow implements Persistence.
func (p *StorePersistence) CreateFlow(ctx context.Context, name string, dag Dag, token string) (FlowRecord, error) {
	raw, err := json.Marshal(dag)
	if err != nil {
		return FlowRecord{}, fcerrors.Invalid(err, "encode flow")
	}
	rec, err := p.Store.Create(ctx, token, name, raw)
	if err != nil {
		return FlowRecord{}, err
	}
	return decodeRecord(rec)
}

// UpdateFlow implements Persistence.
func (p *StorePersistence) UpdateFlow(ctx context.Context, id, name string, dag Dag, token string) (FlowRecord, error) {
	raw, err := json.Marshal(dag)
	if err != nil {
		return FlowRecord{}, fcerrors.Invalid(err, "encode flow")
	}
	rec, err := p.Store.Update(ctx, token, id, name, raw)
	if err != nil {
		return FlowRecord{}, translateStoreErr(err)
	}
	return decodeRecord(rec)
}

// GetFlow implements Persistence.
func (p *StorePersistence) GetFlow(ctx context.Context, id string) (FlowRecord, error) {
	rec, err := p.Store.Get(ctx, id)
	if err != nil {
		return FlowRecord{}, translateStoreErr(err)
	}
	return decodeRecord(rec)
}

func translateStoreErr(err error) error {
	if errors.Is(err, flowstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrFlowNotFound, err)
	}
	return err
}

// DecodeDag parses a stored graph.
func DecodeDag(raw []byte) (Dag, error) {
	var dag Dag
	if err := json.Unmarshal(raw, &dag); err != nil {
		return Dag{}, fmt.Errorf("decode flow graph: %w", err)
	}
	if dag.Nodes == nil {
		dag.Nodes = []Node{}
	}
	if dag.Edges == nil {
		dag.Edges = []Edge{}
	}
	return dag, nil
}

func decodeRecord(rec flowstore.Record) (FlowRecord, error) {
	dag, err := DecodeDag(rec.Dag)
	if err != nil {
		return FlowRecord{}, fcerrors.Permanent(err, "flow "+rec.ID)
	}
	return FlowRecord{
		ID:        rec.ID,
		Name:      rec.Name,
		Dag:       dag,
		Version:   rec.Version,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}
