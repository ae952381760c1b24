package commands

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/repository/file"
	"github.com/mamadbah2/warehouse/internal/service/ledger"
	"github.com/mamadbah2/warehouse/pkg/clients/webapp"
)

type fakeSyncer struct {
	pushed [][]byte
	err    error
}

func (f *fakeSyncer) Push(_ context.Context, document []byte) error {
	if f.err != nil {
		return f.err
	}
	f.pushed = append(f.pushed, document)
	return nil
}

func newDispatcher(t *testing.T, syncer webapp.Client) (*Service, *ledger.Service) {
	t.Helper()
	repo, err := file.NewRepository(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, err)

	svc := ledger.NewService(repo, nil)
	require.NoError(t, svc.Load(context.Background()))
	return NewService(svc, syncer, nil), svc
}

func run(t *testing.T, d *Service, name string, payload string) (Notice, error) {
	t.Helper()
	return d.HandleCommand(context.Background(), models.Command{
		Type:    models.ParseCommandType(name),
		Payload: json.RawMessage(payload),
	})
}

func TestHandleCommand_UpsertItem(t *testing.T) {
	d, svc := newDispatcher(t, nil)

	notice, err := run(t, d, "upsert-item", `{"sku":" A1 ","name":"Bolt","stockInit":10,"costPrice":"2.5","sellPrice":4}`)
	require.NoError(t, err)
	assert.Equal(t, "Item A1 created.", notice.Message)

	item, err := svc.Item("A1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2.5").Equal(item.CostPrice))

	notice, err = run(t, d, "upsert_item", `{"sku":"A1","name":"Hex bolt"}`)
	require.NoError(t, err)
	assert.Equal(t, "Item A1 updated.", notice.Message)
}

func TestHandleCommand_RejectsInvalidArguments(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	_, err := run(t, d, "upsert_item", `{"sku":"A1"}`)
	require.NoError(t, err)

	cases := []struct {
		name    string
		action  string
		payload string
	}{
		{"missing sku", "upsert_item", `{"name":"x"}`},
		{"blank sku", "upsert_item", `{"sku":"   "}`},
		{"negative cost", "upsert_item", `{"sku":"B","costPrice":-1}`},
		{"malformed json", "upsert_item", `{"sku":`},
		{"zero qty", "add_transaction", `{"sku":"A1","type":"IN","qty":0}`},
		{"unknown type", "add_transaction", `{"sku":"A1","type":"LOST","qty":1}`},
		{"negative price", "add_transaction", `{"sku":"A1","type":"OUT","qty":1,"price":-2}`},
		{"missing id", "confirm_transaction", `{}`},
		{"bad logo", "set_logo", `{"logoDataUrl":"not a data url"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, d, tc.action, tc.payload)
			assert.ErrorIs(t, err, ErrInvalidArguments)
		})
	}
}

func TestHandleCommand_TransactionFlow(t *testing.T) {
	d, svc := newDispatcher(t, nil)
	_, err := run(t, d, "upsert_item", `{"sku":"A1","stockInit":10,"costPrice":2}`)
	require.NoError(t, err)

	_, err = run(t, d, "add_transaction", `{"sku":"A1","type":"in","qty":5}`)
	require.NoError(t, err)
	_, err = run(t, d, "add_transaction", `{"sku":"A1","type":"rottura","qty":1}`)
	require.NoError(t, err)
	notice, err := run(t, d, "add_transaction", `{"sku":"A1","type":"OUT","qty":3}`)
	require.NoError(t, err)

	out, ok := notice.Data.(models.Transaction)
	require.True(t, ok)
	assert.False(t, out.Confirmed)

	_, err = run(t, d, "confirm_transaction", `{"id":"`+out.ID+`","price":9}`)
	require.NoError(t, err)

	dash := svc.View(context.Background())
	assert.Equal(t, int64(11), dash.Rows[0].Stock)
	assert.Equal(t, int64(1), dash.Rows[0].Broken)
	assert.True(t, decimal.NewFromInt(27).Equal(dash.Stats.TotalSoldValue))
}

func TestHandleCommand_AddTransactionUnknownItem(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	_, err := run(t, d, "add_transaction", `{"sku":"NOPE","type":"IN","qty":1}`)
	assert.ErrorIs(t, err, ledger.ErrItemNotFound)
}

func TestHandleCommand_DeleteNeedsConfirmation(t *testing.T) {
	d, svc := newDispatcher(t, nil)
	_, err := run(t, d, "upsert_item", `{"sku":"A1"}`)
	require.NoError(t, err)
	_, err = run(t, d, "add_transaction", `{"sku":"A1","type":"IN","qty":2}`)
	require.NoError(t, err)

	_, err = run(t, d, "delete_item", `{"sku":"A1"}`)
	assert.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Len(t, svc.Items(), 1)

	notice, err := run(t, d, "delete_item", `{"sku":"A1","confirm":true}`)
	require.NoError(t, err)
	assert.Equal(t, "Item A1 deleted with 1 transactions.", notice.Message)
	assert.Empty(t, svc.Items())
	assert.Empty(t, svc.Transactions())
}

func TestHandleCommand_CompanyAndLogo(t *testing.T) {
	d, svc := newDispatcher(t, nil)

	_, err := run(t, d, "set_company", `{"companyName":"  ACME srl "}`)
	require.NoError(t, err)
	assert.Equal(t, "ACME srl", svc.Document().CompanyName)

	notice, err := run(t, d, "set_logo", `{"logoDataUrl":"data:image/png;base64,iVBORw0KGgo="}`)
	require.NoError(t, err)
	assert.Equal(t, "Logo saved.", notice.Message)

	notice, err = run(t, d, "set_logo", `{}`)
	require.NoError(t, err)
	assert.Equal(t, "Logo removed.", notice.Message)
	assert.Empty(t, svc.Document().LogoDataURL)
}

func TestHandleCommand_Import(t *testing.T) {
	d, svc := newDispatcher(t, nil)

	_, err := run(t, d, "import", `{"items":[{"sku":"Z9"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "Z9", svc.Items()[0].SKU)

	_, err = run(t, d, "import", `"nope"`)
	assert.ErrorIs(t, err, models.ErrInvalidDocument)
	assert.Len(t, svc.Items(), 1)
}

func TestHandleCommand_Unsupported(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	_, err := run(t, d, "format_disk", `{}`)
	assert.ErrorIs(t, err, ErrUnsupportedCommand)
}

func TestSync_PushesExportedDocument(t *testing.T) {
	syncer := &fakeSyncer{}
	d, svc := newDispatcher(t, syncer)
	_, err := run(t, d, "upsert_item", `{"sku":"A1"}`)
	require.NoError(t, err)

	notice, err := run(t, d, "sync", ``)
	require.NoError(t, err)
	assert.Equal(t, "Sync completed.", notice.Message)

	require.Len(t, syncer.pushed, 1)
	expected, err := svc.Export()
	require.NoError(t, err)
	assert.JSONEq(t, string(expected), string(syncer.pushed[0]))
}

func TestSync_FailureIsReported(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("status=500")}
	d, _ := newDispatcher(t, syncer)

	err := d.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.Empty(t, syncer.pushed)
}

func TestSync_WithoutClient(t *testing.T) {
	d, _ := newDispatcher(t, nil)
	err := d.Sync(context.Background())
	assert.ErrorIs(t, err, ErrSyncFailed)
	assert.ErrorIs(t, err, webapp.ErrNoEndpoint)
}
