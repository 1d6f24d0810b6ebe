package mockdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Repository is a typed view of one entity collection. T is the entity
// struct, for example types.Product. Not-found results become errors
// wrapping types.ErrNotFound.
type Repository[T any] struct {
	svc    *Service
	entity string
}

// NewRepository binds entity to T.
func NewRepository[T any](svc *Service, entity string) *Repository[T] {
	return &Repository[T]{svc: svc, entity: entity}
}

// Entity returns the collection name.
func (r *Repository[T]) Entity() string { return r.entity }

func (r *Repository[T]) All(ctx context.Context) ([]T, error) {
	res, err := r.svc.GetAll(ctx, r.entity)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(res.Data))
	for _, rec := range res.Data {
		v, err := fromRecord[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r *Repository[T]) Get(ctx context.Context, id types.ID) (T, error) {
	res, err := r.svc.GetByID(ctx, r.entity, id)
	return r.unwrap(res, err)
}

// Create stores v under a new id and returns it as stored.
func (r *Repository[T]) Create(ctx context.Context, v T) (T, error) {
	rec, err := toRecord(v)
	if err != nil {
		var zero T
		return zero, err
	}
	res, err := r.svc.Create(ctx, r.entity, rec)
	return r.unwrap(res, err)
}

// Update merges the given fields into the entity with id.
func (r *Repository[T]) Update(ctx context.Context, id types.ID, fields types.Record) (T, error) {
	res, err := r.svc.Update(ctx, r.entity, id, fields)
	return r.unwrap(res, err)
}

func (r *Repository[T]) Delete(ctx context.Context, id types.ID) error {
	res, err := r.svc.Remove(ctx, r.entity, id)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("%w: %s", types.ErrNotFound, res.Message)
	}
	return nil
}

// Seed initializes the collection with items when it is absent.
func (r *Repository[T]) Seed(ctx context.Context, items []T) error {
	records := make([]types.Record, 0, len(items))
	for _, v := range items {
		rec, err := toRecord(v)
		if err != nil {
			return err
		}
		records = append(records, rec)
	}
	return r.svc.Initialize(ctx, r.entity, records)
}

func (r *Repository[T]) unwrap(res types.Result[types.Record], err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if !res.Success {
		return zero, fmt.Errorf("%w: %s", types.ErrNotFound, res.Message)
	}
	return fromRecord[T](res.Data)
}

func toRecord(v any) (types.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec types.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return rec, nil
}

func fromRecord[T any](rec types.Record) (T, error) {
	var v T
	data, err := json.Marshal(rec)
	if err != nil {
		return v, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return v, nil
}
