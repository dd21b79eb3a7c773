package store

import (
	"encoding/json"
	"fmt"

	"github.com/safar/go-inventory/internal/models"
	"github.com/shopspring/decimal"
)

// Orders and sales embed their line items as a JSONB blob on the row rather
// than normalized child rows.

func marshalLineItems(items []models.LineItem) ([]byte, error) {
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal line items: %w", err)
	}
	return data, nil
}

func unmarshalLineItems(data []byte) ([]models.LineItem, error) {
	var items []models.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal line items: %w", err)
	}
	return items, nil
}

func distinctProductIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	distinct := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}
	return distinct
}

func sumSubtotals(items []models.LineItem) decimal.Decimal {
	var total decimal.Decimal
	for _, item := range items {
		total = total.Add(item.Subtotal)
	}
	return total
}
