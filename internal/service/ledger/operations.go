package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/warehouse/internal/domain/models"
)

// UpsertItem creates the item or overwrites every field of the existing one
// with the same SKU. It reports whether the item was created.
func (s *Service) UpsertItem(ctx context.Context, item models.Item) (bool, error) {
	created := false
	err := s.Mutate(ctx, func(store *models.Store) error {
		if idx := store.FindItem(item.SKU); idx >= 0 {
			store.Items[idx] = item
			return nil
		}
		store.Items = append(store.Items, item)
		created = true
		return nil
	})
	return created, err
}

// DeleteItem removes the item and every transaction that references its SKU.
// It returns the number of transactions removed.
func (s *Service) DeleteItem(ctx context.Context, sku string) (int, error) {
	removed := 0
	err := s.Mutate(ctx, func(store *models.Store) error {
		idx := store.FindItem(sku)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, sku)
		}
		store.Items = append(store.Items[:idx], store.Items[idx+1:]...)

		kept := store.Transactions[:0]
		for _, tx := range store.Transactions {
			if tx.SKU == sku {
				removed++
				continue
			}
			kept = append(kept, tx)
		}
		store.Transactions = kept
		return nil
	})
	return removed, err
}

// AddTransaction appends a movement for an existing item. OUT movements start
// unconfirmed; IN and BREAKAGE are confirmed on creation.
func (s *Service) AddTransaction(ctx context.Context, sku string, txType models.TransactionType, qty int64, price decimal.Decimal) (models.Transaction, error) {
	var tx models.Transaction
	err := s.Mutate(ctx, func(store *models.Store) error {
		if store.FindItem(sku) < 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, sku)
		}
		tx = models.Transaction{
			ID:        s.newID(),
			Timestamp: s.now().UTC(),
			SKU:       sku,
			Type:      txType,
			Qty:       qty,
			Price:     price,
			Confirmed: txType != models.TransactionOut,
		}
		store.Transactions = append(store.Transactions, tx)
		return nil
	})
	return tx, err
}

// ConfirmTransaction flips a transaction to confirmed. A non-nil price replaces
// the recorded one first. Confirming twice is a no-op; there is no way back.
func (s *Service) ConfirmTransaction(ctx context.Context, id string, price *decimal.Decimal) (models.Transaction, error) {
	var tx models.Transaction
	err := s.Mutate(ctx, func(store *models.Store) error {
		idx := store.FindTransaction(id)
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, id)
		}
		if price != nil && !store.Transactions[idx].Confirmed {
			store.Transactions[idx].Price = *price
		}
		store.Transactions[idx].Confirmed = true
		tx = store.Transactions[idx]
		return nil
	})
	return tx, err
}

// SetCompanyName updates the company name.
func (s *Service) SetCompanyName(ctx context.Context, name string) error {
	return s.Mutate(ctx, func(store *models.Store) error {
		store.CompanyName = name
		return nil
	})
}

// SetLogo updates the logo data URL. An empty value removes the logo.
func (s *Service) SetLogo(ctx context.Context, dataURL string) error {
	return s.Mutate(ctx, func(store *models.Store) error {
		store.LogoDataURL = dataURL
		return nil
	})
}
