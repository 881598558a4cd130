// Package redisstore implements the Store interface on Redis. Records are
// JSON documents at pos:<kind>:<id> with a per-kind id set for listing.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/store"
)

const keyPrefix = "pos"

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func recordKey(kind, id string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, id)
}

func indexKey(kind string) string {
	return fmt.Sprintf("%s:%s:ids", keyPrefix, kind)
}

func (s *Store) getJSON(ctx context.Context, kind, id string, dest any) error {
	val, err := s.client.Get(ctx, recordKey(kind, id)).Result()
	if errors.Is(err, redis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", kind, id, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (s *Store) putJSON(ctx context.Context, kind, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", kind, id, err)
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(kind, id), payload, 0)
	pipe.SAdd(ctx, indexKey(kind), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	return nil
}

// listJSON loads every record of a kind. Missing members (deleted between
// SMembers and MGet) are skipped.
func (s *Store) listJSON(ctx context.Context, kind string, decode func([]byte) error) error {
	ids, err := s.client.SMembers(ctx, indexKey(kind)).Result()
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(kind, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("mget %s: %w", kind, err)
	}
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		if err := decode([]byte(raw)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	var out domain.AppSettings
	if err := s.getJSON(ctx, store.KindSettings, store.SettingsID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) PutSettings(ctx context.Context, settings domain.AppSettings) error {
	return s.putJSON(ctx, store.KindSettings, store.SettingsID, settings)
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var out domain.Product
	if err := s.getJSON(ctx, store.KindProduct, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.listJSON(ctx, store.KindProduct, func(raw []byte) error {
		var p domain.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s *Store) PutProduct(ctx context.Context, p domain.Product) error {
	return s.putJSON(ctx, store.KindProduct, p.ID.String(), p)
}

func (s *Store) GetMateriaPrima(ctx context.Context, id uuid.UUID) (*domain.MateriaPrima, error) {
	var out domain.MateriaPrima
	if err := s.getJSON(ctx, store.KindMateriaPrima, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error) {
	var out []domain.MateriaPrima
	err := s.listJSON(ctx, store.KindMateriaPrima, func(raw []byte) error {
		var m domain.MateriaPrima
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutMateriaPrima(ctx context.Context, m domain.MateriaPrima) error {
	return s.putJSON(ctx, store.KindMateriaPrima, m.ID.String(), m)
}

func (s *Store) GetCombo(ctx context.Context, id uuid.UUID) (*domain.Combo, error) {
	var out domain.Combo
	if err := s.getJSON(ctx, store.KindCombo, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListCombos(ctx context.Context) ([]domain.Combo, error) {
	var out []domain.Combo
	err := s.listJSON(ctx, store.KindCombo, func(raw []byte) error {
		var c domain.Combo
		if err := json.Unmarshal(raw, &c); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutCombo(ctx context.Context, c domain.Combo) error {
	return s.putJSON(ctx, store.KindCombo, c.ID.String(), c)
}

func (s *Store) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	var out domain.Sale
	if err := s.getJSON(ctx, store.KindSale, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var out []domain.Sale
	err := s.listJSON(ctx, store.KindSale, func(raw []byte) error {
		var sale domain.Sale
		if err := json.Unmarshal(raw, &sale); err != nil {
			return err
		}
		out = append(out, sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) PutSale(ctx context.Context, sale domain.Sale) error {
	return s.putJSON(ctx, store.KindSale, sale.ID.String(), sale)
}
