package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/shinyyama/order-progress-backend/internal/model"
)

const progressKeyPrefix = "purchase_status/"

// PebbleProgressRepository keeps progress in an embedded Pebble store. Each
// record is one JSON value, so an upsert is a single atomic Set.
type PebbleProgressRepository struct {
	db *pebble.DB
}

type pebbleRecord struct {
	OrderID           int64     `json:"order_id"`
	IsPurchased       bool      `json:"is_purchased"`
	QuantityPurchased int       `json:"quantity_purchased"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func NewPebbleProgressRepository(dir string) (*PebbleProgressRepository, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, unavailable("pebble open", err)
	}
	return &PebbleProgressRepository{db: d}, nil
}

func (p *PebbleProgressRepository) Close() error { return p.db.Close() }

// Keys are zero-padded so iteration order matches numeric order.
func progressKey(lineItemID int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", progressKeyPrefix, lineItemID))
}

func parseProgressKey(k []byte) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(string(k[len(progressKeyPrefix):]), "%d", &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (p *PebbleProgressRepository) ReadAll(ctx context.Context) ([]model.PurchaseStatus, error) {
	return p.scan(func(model.PurchaseStatus) bool { return true })
}

func (p *PebbleProgressRepository) ListByOrder(ctx context.Context, orderID int64) ([]model.PurchaseStatus, error) {
	return p.scan(func(st model.PurchaseStatus) bool { return st.OrderID == orderID })
}

func (p *PebbleProgressRepository) Upsert(ctx context.Context, lineItemID, orderID int64, isPurchased bool, quantityPurchased int) (*model.PurchaseStatus, error) {
	key := progressKey(lineItemID)
	now := time.Now().UTC()
	rec := pebbleRecord{
		OrderID:           orderID,
		IsPurchased:       isPurchased,
		QuantityPurchased: quantityPurchased,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if cur, ok, err := p.get(key); err != nil {
		return nil, err
	} else if ok {
		rec.CreatedAt = cur.CreatedAt
	}
	val, err := json.Marshal(rec)
	if err != nil {
		return nil, unavailable("pebble encode", err)
	}
	if err := p.db.Set(key, val, pebble.Sync); err != nil {
		return nil, unavailable("pebble set", err)
	}
	st := toPurchaseStatus(lineItemID, rec)
	return &st, nil
}

func (p *PebbleProgressRepository) get(key []byte) (pebbleRecord, bool, error) {
	v, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return pebbleRecord{}, false, nil
	}
	if err != nil {
		return pebbleRecord{}, false, unavailable("pebble get", err)
	}
	defer closer.Close()
	var rec pebbleRecord
	if err := json.Unmarshal(v, &rec); err != nil {
		return pebbleRecord{}, false, unavailable("pebble decode", err)
	}
	return rec, true, nil
}

func (p *PebbleProgressRepository) scan(keep func(model.PurchaseStatus) bool) ([]model.PurchaseStatus, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(progressKeyPrefix),
		UpperBound: prefixEnd(progressKeyPrefix),
	})
	if err != nil {
		return nil, unavailable("pebble iter", err)
	}
	var list []model.PurchaseStatus
	for it.First(); it.Valid(); it.Next() {
		id, err := parseProgressKey(it.Key())
		if err != nil {
			_ = it.Close()
			return nil, unavailable("pebble key", err)
		}
		var rec pebbleRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			_ = it.Close()
			return nil, unavailable("pebble decode", err)
		}
		if st := toPurchaseStatus(id, rec); keep(st) {
			list = append(list, st)
		}
	}
	if err := it.Close(); err != nil {
		return nil, unavailable("pebble iter", err)
	}
	return list, nil
}

func prefixEnd(prefix string) []byte {
	end := []byte(prefix)
	end[len(end)-1]++
	return end
}

func toPurchaseStatus(lineItemID int64, rec pebbleRecord) model.PurchaseStatus {
	return model.PurchaseStatus{
		LineItemID:        lineItemID,
		OrderID:           rec.OrderID,
		IsPurchased:       rec.IsPurchased,
		QuantityPurchased: rec.QuantityPurchased,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}
