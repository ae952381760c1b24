package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/domain/models"
	"github.com/mamadbah2/warehouse/internal/service/commands"
	"github.com/mamadbah2/warehouse/internal/service/ledger"
	"github.com/mamadbah2/warehouse/internal/trend"
)

const (
	exportFileName = "magazzino.json"
	reportFileName = "magazzino.pdf"
	maxImportBytes = 32 << 20
)

// LedgerReader is the read side of the state container.
type LedgerReader interface {
	View(ctx context.Context) ledger.Dashboard
	Items() []models.Item
	Item(sku string) (models.Item, error)
	Transactions() []models.Transaction
	Trend() trend.Series
	Export() ([]byte, error)
}

// ReportRenderer renders the printable report.
type ReportRenderer interface {
	RenderPDF(w io.Writer, dash ledger.Dashboard) error
}

// LedgerHandler exposes the ledger over HTTP.
type LedgerHandler struct {
	ledger     LedgerReader
	dispatcher commands.Dispatcher
	reports    ReportRenderer
	logger     *zap.Logger
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(ledgerSvc LedgerReader, dispatcher commands.Dispatcher, reports ReportRenderer, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{ledger: ledgerSvc, dispatcher: dispatcher, reports: reports, logger: logger}
}

// Inventory returns the dashboard. Each call records a trend sample.
func (h *LedgerHandler) Inventory(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.View(c.Request.Context()))
}

// Items lists the catalog.
func (h *LedgerHandler) Items(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.ledger.Items()})
}

// Item returns one catalog entry, for pre-filling the edit form.
func (h *LedgerHandler) Item(c *gin.Context) {
	item, err := h.ledger.Item(c.Param("sku"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Transactions lists the log newest first.
func (h *LedgerHandler) Transactions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"transactions": h.ledger.Transactions()})
}

// Trend returns the chart series without recording a new sample.
func (h *LedgerHandler) Trend(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Trend())
}

// Export downloads the whole ledger document.
func (h *LedgerHandler) Export(c *gin.Context) {
	raw, err := h.ledger.Export()
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	c.Data(http.StatusOK, "application/json", raw)
}

// Import replaces the ledger with the request body.
func (h *LedgerHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
		return
	}

	notice, err := h.dispatcher.HandleCommand(c.Request.Context(), models.Command{Type: models.CommandImport, Payload: raw})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notice)
}

// Report downloads the PDF report.
func (h *LedgerHandler) Report(c *gin.Context) {
	dash := h.ledger.View(c.Request.Context())

	var buf bytes.Buffer
	if err := h.reports.RenderPDF(&buf, dash); err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+reportFileName+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Command dispatches the action named in the path with the JSON body as payload.
func (h *LedgerHandler) Command(c *gin.Context) {
	cmdType := models.ParseCommandType(c.Param("action"))
	if cmdType == models.CommandUnknown {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown command " + c.Param("action")})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to read body"})
		return
	}

	notice, err := h.dispatcher.HandleCommand(c.Request.Context(), models.Command{Type: cmdType, Payload: raw})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (h *LedgerHandler) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	} else {
		h.logger.Warn("request rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, commands.ErrInvalidArguments),
		errors.Is(err, commands.ErrConfirmationRequired),
		errors.Is(err, models.ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrItemNotFound),
		errors.Is(err, ledger.ErrTransactionNotFound),
		errors.Is(err, commands.ErrUnsupportedCommand):
		return http.StatusNotFound
	case errors.Is(err, commands.ErrSyncFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
