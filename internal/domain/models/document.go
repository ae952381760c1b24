package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

// ErrInvalidDocument indicates a persisted or imported document could not be used.
var ErrInvalidDocument = errors.New("invalid ledger document")

// wireDocument mirrors the JSON layout of the persisted and exported document.
// Scalars are decoded loosely and coerced, see DecodeStore.
type wireDocument struct {
	Items        []wireItem        `json:"items"`
	Transactions []wireTransaction `json:"transactions"`
	Snapshots    []wireSnapshot    `json:"snapshots"`
	LogoDataURL  any               `json:"logoDataUrl"`
	CompanyName  any               `json:"companyName"`
}

type wireItem struct {
	SKU       any `json:"sku"`
	Name      any `json:"name"`
	Position  any `json:"position"`
	StockInit any `json:"stockInit"`
	CostPrice any `json:"costPrice"`
	SellPrice any `json:"sellPrice"`
}

type wireTransaction struct {
	ID        any `json:"id"`
	Timestamp any `json:"ts"`
	SKU       any `json:"sku"`
	Type      any `json:"type"`
	Qty       any `json:"qty"`
	Price     any `json:"price"`
	Confirmed any `json:"confirmed"`
}

type wireSnapshot struct {
	Timestamp  any `json:"ts"`
	TotalUnits any `json:"totalUnits"`
}

type encodedDocument struct {
	Items        []encodedItem        `json:"items"`
	Transactions []encodedTransaction `json:"transactions"`
	Snapshots    []encodedSnapshot    `json:"snapshots"`
	LogoDataURL  string               `json:"logoDataUrl"`
	CompanyName  string               `json:"companyName"`
}

type encodedItem struct {
	SKU       string      `json:"sku"`
	Name      string      `json:"name"`
	Position  string      `json:"position"`
	StockInit int64       `json:"stockInit"`
	CostPrice json.Number `json:"costPrice"`
	SellPrice json.Number `json:"sellPrice"`
}

type encodedTransaction struct {
	ID        string          `json:"id"`
	Timestamp int64           `json:"ts"`
	SKU       string          `json:"sku"`
	Type      TransactionType `json:"type"`
	Qty       int64           `json:"qty"`
	Price     json.Number     `json:"price"`
	Confirmed bool            `json:"confirmed"`
}

type encodedSnapshot struct {
	Timestamp  int64 `json:"ts"`
	TotalUnits int64 `json:"totalUnits"`
}

// DecodeStore parses a ledger document. The top level must be a JSON object.
// Numeric fields accept numbers or numeric strings; anything else counts as
// zero. Items need a unique non-empty SKU and transactions an id.
func DecodeStore(raw []byte) (*Store, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidDocument)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var doc wireDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the top-level object", ErrInvalidDocument)
	}

	store := &Store{
		Items:        make([]Item, 0, len(doc.Items)),
		Transactions: make([]Transaction, 0, len(doc.Transactions)),
		Snapshots:    make([]Snapshot, 0, len(doc.Snapshots)),
		LogoDataURL:  asString(doc.LogoDataURL),
		CompanyName:  asString(doc.CompanyName),
	}

	for _, it := range doc.Items {
		store.Items = append(store.Items, Item{
			SKU:       asString(it.SKU),
			Name:      asString(it.Name),
			Position:  asString(it.Position),
			StockInit: asInt(it.StockInit),
			CostPrice: asDecimal(it.CostPrice),
			SellPrice: asDecimal(it.SellPrice),
		})
	}

	for _, tx := range doc.Transactions {
		txType := TransactionType(asString(tx.Type))
		if txType == legacyBreakage {
			txType = TransactionBreakage
		}

		store.Transactions = append(store.Transactions, Transaction{
			ID:        asString(tx.ID),
			Timestamp: asTime(tx.Timestamp),
			SKU:       asString(tx.SKU),
			Type:      txType,
			Qty:       asInt(tx.Qty),
			Price:     asDecimal(tx.Price),
			Confirmed: asBool(tx.Confirmed),
		})
	}

	for _, snap := range doc.Snapshots {
		store.Snapshots = append(store.Snapshots, Snapshot{
			Timestamp:  asTime(snap.Timestamp),
			TotalUnits: asInt(snap.TotalUnits),
		})
	}

	if err := validateStore(store); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return store, nil
}

// EncodeStore serializes the store as one JSON document.
func EncodeStore(s *Store) ([]byte, error) {
	if s == nil {
		s = &Store{}
	}

	doc := encodedDocument{
		Items:        make([]encodedItem, 0, len(s.Items)),
		Transactions: make([]encodedTransaction, 0, len(s.Transactions)),
		Snapshots:    make([]encodedSnapshot, 0, len(s.Snapshots)),
		LogoDataURL:  s.LogoDataURL,
		CompanyName:  s.CompanyName,
	}

	for _, it := range s.Items {
		doc.Items = append(doc.Items, encodedItem{
			SKU:       it.SKU,
			Name:      it.Name,
			Position:  it.Position,
			StockInit: it.StockInit,
			CostPrice: json.Number(it.CostPrice.String()),
			SellPrice: json.Number(it.SellPrice.String()),
		})
	}

	for _, tx := range s.Transactions {
		doc.Transactions = append(doc.Transactions, encodedTransaction{
			ID:        tx.ID,
			Timestamp: millis(tx.Timestamp),
			SKU:       tx.SKU,
			Type:      tx.Type,
			Qty:       tx.Qty,
			Price:     json.Number(tx.Price.String()),
			Confirmed: tx.Confirmed,
		})
	}

	for _, snap := range s.Snapshots {
		doc.Snapshots = append(doc.Snapshots, encodedSnapshot{
			Timestamp:  millis(snap.Timestamp),
			TotalUnits: snap.TotalUnits,
		})
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode ledger document: %w", err)
	}
	return raw, nil
}

func validateStore(s *Store) error {
	var errs error

	seen := make(map[string]struct{}, len(s.Items))
	for i, it := range s.Items {
		if strings.TrimSpace(it.SKU) == "" {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: sku is required", i))
			continue
		}
		if _, dup := seen[it.SKU]; dup {
			errs = multierr.Append(errs, fmt.Errorf("items[%d]: duplicate sku %q", i, it.SKU))
			continue
		}
		seen[it.SKU] = struct{}{}
	}

	for i, tx := range s.Transactions {
		if tx.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("transactions[%d]: id is required", i))
		}
	}

	return errs
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func asTime(value any) time.Time {
	ms := asInt(value)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func asString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func asInt(value any) int64 {
	var str string
	switch v := value.(type) {
	case json.Number:
		str = v.String()
	case string:
		str = strings.TrimSpace(v)
	default:
		return 0
	}

	if n, err := strconv.ParseInt(str, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

func asDecimal(value any) decimal.Decimal {
	var str string
	switch v := value.(type) {
	case json.Number:
		str = v.String()
	case string:
		str = strings.TrimSpace(v)
	default:
		return decimal.Zero
	}

	d, err := decimal.NewFromString(str)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func asBool(value any) bool {
	b, ok := value.(bool)
	return ok && b
}
