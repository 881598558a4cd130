// Package postgres implements the Store interface on PostgreSQL. Records are
// stored as JSON documents in a single table partitioned by kind, matching
// the key-value shape the sales core expects from its persistence
// collaborator.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/fondapos/core/internal/domain"
	"github.com/fondapos/core/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pos_records (
			kind       text NOT NULL,
			id         text NOT NULL,
			doc        jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, id)
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, kind, id string, dest any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT doc FROM pos_records WHERE kind = $1 AND id = $2
	`, kind, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s/%s: %w", kind, id, err)
	}
	return json.Unmarshal(raw, dest)
}

func (s *Store) put(ctx context.Context, kind, id string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", kind, id, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pos_records (kind, id, doc, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (kind, id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()
	`, kind, id, payload)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, id, err)
	}
	return nil
}

func (s *Store) list(ctx context.Context, kind string, decode func([]byte) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM pos_records WHERE kind = $1
	`, kind)
	if err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := decode(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) GetSettings(ctx context.Context) (*domain.AppSettings, error) {
	var out domain.AppSettings
	if err := s.get(ctx, store.KindSettings, store.SettingsID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) PutSettings(ctx context.Context, settings domain.AppSettings) error {
	return s.put(ctx, store.KindSettings, store.SettingsID, settings)
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var out domain.Product
	if err := s.get(ctx, store.KindProduct, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.list(ctx, store.KindProduct, func(raw []byte) error {
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
	return s.put(ctx, store.KindProduct, p.ID.String(), p)
}

func (s *Store) GetMateriaPrima(ctx context.Context, id uuid.UUID) (*domain.MateriaPrima, error) {
	var out domain.MateriaPrima
	if err := s.get(ctx, store.KindMateriaPrima, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListMateriasPrimas(ctx context.Context) ([]domain.MateriaPrima, error) {
	var out []domain.MateriaPrima
	err := s.list(ctx, store.KindMateriaPrima, func(raw []byte) error {
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
	return s.put(ctx, store.KindMateriaPrima, m.ID.String(), m)
}

func (s *Store) GetCombo(ctx context.Context, id uuid.UUID) (*domain.Combo, error) {
	var out domain.Combo
	if err := s.get(ctx, store.KindCombo, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListCombos(ctx context.Context) ([]domain.Combo, error) {
	var out []domain.Combo
	err := s.list(ctx, store.KindCombo, func(raw []byte) error {
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
	return s.put(ctx, store.KindCombo, c.ID.String(), c)
}

func (s *Store) GetSale(ctx context.Context, id uuid.UUID) (*domain.Sale, error) {
	var out domain.Sale
	if err := s.get(ctx, store.KindSale, id.String(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	var out []domain.Sale
	err := s.list(ctx, store.KindSale, func(raw []byte) error {
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
	return s.put(ctx, store.KindSale, sale.ID.String(), sale)
}
