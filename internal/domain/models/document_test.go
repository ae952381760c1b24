package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStore_CoercesLooseScalars(t *testing.T) {
	raw := []byte(`{
		"items": [{"sku": "A1", "name": "Bolt", "position": "R1", "stockInit": "10", "costPrice": "2.50", "sellPrice": 4}],
		"transactions": [
			{"id": "TX1", "ts": 1700000000000, "sku": "A1", "type": "IN", "qty": "5", "price": "abc", "confirmed": true},
			{"id": "TX2", "ts": "1700000001000", "sku": "A1", "type": "OUT", "qty": 3.9, "price": 9, "confirmed": "yes"}
		],
		"snapshots": [{"ts": 1700000000000, "totalUnits": 15}],
		"companyName": "ACME"
	}`)

	store, err := DecodeStore(raw)
	require.NoError(t, err)

	require.Len(t, store.Items, 1)
	item := store.Items[0]
	assert.Equal(t, "A1", item.SKU)
	assert.Equal(t, int64(10), item.StockInit)
	assert.True(t, decimal.RequireFromString("2.5").Equal(item.CostPrice))
	assert.True(t, decimal.NewFromInt(4).Equal(item.SellPrice))

	require.Len(t, store.Transactions, 2)
	assert.Equal(t, int64(5), store.Transactions[0].Qty)
	assert.True(t, store.Transactions[0].Price.IsZero(), "non-numeric price counts as zero")
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), store.Transactions[0].Timestamp)
	assert.Equal(t, int64(3), store.Transactions[1].Qty, "fractions truncate")
	assert.False(t, store.Transactions[1].Confirmed, "only a JSON true confirms")
	assert.Equal(t, time.UnixMilli(1700000001000).UTC(), store.Transactions[1].Timestamp)

	require.Len(t, store.Snapshots, 1)
	assert.Equal(t, int64(15), store.Snapshots[0].TotalUnits)
	assert.Equal(t, "ACME", store.CompanyName)
	assert.Empty(t, store.LogoDataURL)
}

func TestDecodeStore_MapsLegacyBreakageTag(t *testing.T) {
	store, err := DecodeStore([]byte(`{"items":[{"sku":"A1"}],"transactions":[{"id":"T","sku":"A1","type":"ROTTURA","qty":2}]}`))
	require.NoError(t, err)
	require.Len(t, store.Transactions, 1)
	assert.Equal(t, TransactionBreakage, store.Transactions[0].Type)
}

func TestDecodeStore_KeepsUnknownTypes(t *testing.T) {
	store, err := DecodeStore([]byte(`{"transactions":[{"id":"T","sku":"A1","type":"ADJUST","qty":2}]}`))
	require.NoError(t, err)
	assert.Equal(t, TransactionType("ADJUST"), store.Transactions[0].Type)
	assert.False(t, store.Transactions[0].Type.IsValid())
}

func TestDecodeStore_MissingFieldsDefault(t *testing.T) {
	store, err := DecodeStore([]byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, store.Items)
	assert.Empty(t, store.Transactions)
	assert.Empty(t, store.Snapshots)
	assert.Empty(t, store.CompanyName)
}

func TestDecodeStore_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"array":          `[{"sku":"A1"}]`,
		"scalar":         `42`,
		"truncated":      `{"items": [`,
		"items not list": `{"items": {"sku": "A1"}}`,
		"empty sku":      `{"items":[{"sku":""}]}`,
		"duplicate sku":  `{"items":[{"sku":"A1"},{"sku":"A1"}]}`,
		"missing tx id":  `{"transactions":[{"sku":"A1","type":"IN","qty":1}]}`,
		"trailing text":  `{"items":[]} trailing garbage`,
		"two objects":    `{"items":[]}{"items":[{"sku":"X"}]}`,
		"unclosed tail":  `{"items":[]} {`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeStore([]byte(raw))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestEncodeStore_RoundTrip(t *testing.T) {
	ts := time.UnixMilli(1700000000123).UTC()
	store := &Store{
		Items: []Item{{SKU: "A1", Name: "Bolt", StockInit: 10, CostPrice: decimal.RequireFromString("2.5"), SellPrice: decimal.NewFromInt(4)}},
		Transactions: []Transaction{
			{ID: "TX1", Timestamp: ts, SKU: "A1", Type: TransactionOut, Qty: 3, Price: decimal.NewFromInt(9)},
		},
		Snapshots:   []Snapshot{{Timestamp: ts, TotalUnits: 7}},
		CompanyName: "ACME",
		LogoDataURL: "data:image/png;base64,AAAA",
	}

	raw, err := EncodeStore(store)
	require.NoError(t, err)

	decoded, err := DecodeStore(raw)
	require.NoError(t, err)
	assert.Equal(t, store.CompanyName, decoded.CompanyName)
	assert.Equal(t, store.LogoDataURL, decoded.LogoDataURL)
	assert.Equal(t, ts, decoded.Transactions[0].Timestamp)
	assert.True(t, store.Items[0].CostPrice.Equal(decoded.Items[0].CostPrice))
	assert.Equal(t, store.Snapshots, decoded.Snapshots)
}

func TestEncodeStore_WritesEmptyListsAndNumbers(t *testing.T) {
	raw, err := EncodeStore(&Store{
		Items: []Item{{SKU: "A1", CostPrice: decimal.RequireFromString("1.25")}},
	})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []any{}, doc["transactions"])
	assert.Equal(t, []any{}, doc["snapshots"])

	items := doc["items"].([]any)
	assert.Equal(t, 1.25, items[0].(map[string]any)["costPrice"])
}

func TestDecodeStore_AllowsTrailingWhitespace(t *testing.T) {
	store, err := DecodeStore([]byte("{\"items\":[{\"sku\":\"A1\"}]}\n\t "))
	require.NoError(t, err)
	assert.Len(t, store.Items, 1)
}

func TestAsInt_OutOfRangeCoercesToZero(t *testing.T) {
	assert.Equal(t, int64(0), asInt(json.Number("9.223372036854775807e18")))
	assert.Equal(t, int64(0), asInt("1e19"))
	assert.Equal(t, int64(math.MinInt64), asInt(json.Number("-9.223372036854775808e18")))
	assert.Equal(t, int64(math.MaxInt64), asInt(json.Number("9223372036854775807")))

	store, err := DecodeStore([]byte(`{"items":[{"sku":"A1","stockInit":9.223372036854775807e18}]}`))
	require.NoError(t, err)
	assert.Equal(t, int64(0), store.Items[0].StockInit)
}

func TestNormalizeTransactionType(t *testing.T) {
	assert.Equal(t, TransactionOut, NormalizeTransactionType(" out "))
	assert.Equal(t, TransactionBreakage, NormalizeTransactionType("rottura"))
	assert.Equal(t, TransactionIn, NormalizeTransactionType("IN"))
}

func TestStoreClone_IsIndependent(t *testing.T) {
	orig := &Store{Items: []Item{{SKU: "A1"}}, Transactions: []Transaction{{ID: "T"}}}
	cp := orig.Clone()
	cp.Items[0].Name = "changed"
	cp.Transactions = append(cp.Transactions, Transaction{ID: "U"})

	assert.Empty(t, orig.Items[0].Name)
	assert.Len(t, orig.Transactions, 1)
	assert.Equal(t, 0, orig.FindItem("A1"))
	assert.Equal(t, -1, orig.FindTransaction("U"))
}

func TestParseCommandType(t *testing.T) {
	assert.Equal(t, CommandAddTransaction, ParseCommandType("/Add-Transaction"))
	assert.Equal(t, CommandSync, ParseCommandType("sync"))
	assert.Equal(t, CommandUnknown, ParseCommandType("drop_tables"))
}
