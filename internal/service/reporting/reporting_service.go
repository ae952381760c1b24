package reporting

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/warehouse/internal/service/ledger"
	"github.com/mamadbah2/warehouse/internal/trend"
)

const (
	dateLayout   = "2006-01-02 15:04"
	pageMargin   = 12.0
	rowHeight    = 7.0
	chartHeight  = 60.0
	logoHeight   = 18.0
	logoImageKey = "company-logo"
	currencyCode = money.EUR
)

// ErrInvalidLogo indicates the logo data URL could not be decoded as an image.
var ErrInvalidLogo = errors.New("invalid logo data url")

var tableColumns = []struct {
	title string
	width float64
	align string
}{
	{"SKU", 25, "L"},
	{"Name", 55, "L"},
	{"Position", 30, "L"},
	{"Stock", 22, "R"},
	{"Cost", 25, "R"},
	{"Value", 29, "R"},
}

// Service renders the printable inventory report.
type Service struct {
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// RenderPDF writes a single A4 report: header with logo and company name, the
// headline figures, the low-stock alert, the inventory table and the trend chart.
func (s *Service) RenderPDF(w io.Writer, dash ledger.Dashboard) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle("Warehouse report", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	s.writeHeader(pdf, tr, dash)
	writeStats(pdf, tr, dash)
	writeLowStock(pdf, tr, dash)
	writeTable(pdf, tr, dash)
	writeChart(pdf, tr, dash.Trend)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf report: %w", err)
	}
	return nil
}

func (s *Service) writeHeader(pdf *fpdf.Fpdf, tr func(string) string, dash ledger.Dashboard) {
	textX := pageMargin
	if dash.LogoDataURL != "" {
		raw, imageType, err := DecodeLogo(dash.LogoDataURL)
		if err != nil {
			s.logger.Warn("skipping logo in report", zap.Error(err))
		} else {
			pdf.RegisterImageOptionsReader(logoImageKey, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(raw))
			pdf.ImageOptions(logoImageKey, pageMargin, pageMargin, 0, logoHeight, false, fpdf.ImageOptions{ImageType: imageType}, 0, "")
			textX = pageMargin + 45
		}
	}

	title := dash.CompanyName
	if title == "" {
		title = "Warehouse"
	}

	pdf.SetXY(textX, pageMargin)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 8, tr(title))
	pdf.SetXY(textX, pageMargin+9)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, 5, tr("Inventory report - "+dash.GeneratedAt.Format(dateLayout)))
	pdf.SetY(pageMargin + logoHeight + 4)
}

func writeStats(pdf *fpdf.Fpdf, tr func(string) string, dash ledger.Dashboard) {
	stats := []struct {
		label string
		value string
	}{
		{"SKUs", strconv.Itoa(dash.Stats.SKUs)},
		{"Units", strconv.FormatInt(dash.Stats.TotalUnits, 10)},
		{"Stock value", FormatMoney(dash.Stats.TotalValue)},
		{"Losses", FormatMoney(dash.Stats.TotalLoss)},
		{"Sold", FormatMoney(dash.Stats.TotalSoldValue)},
	}

	width := (210 - 2*pageMargin) / float64(len(stats))
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetFillColor(240, 240, 240)
	for _, st := range stats {
		pdf.CellFormat(width, 5, tr(st.label), "LTR", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "B", 11)
	for _, st := range stats {
		pdf.CellFormat(width, 8, tr(st.value), "LBR", 0, "C", true, 0, "")
	}
	pdf.Ln(12)
}

func writeLowStock(pdf *fpdf.Fpdf, tr func(string) string, dash ledger.Dashboard) {
	if len(dash.LowStock) == 0 {
		return
	}

	lines := make([]string, 0, len(dash.LowStock))
	for _, r := range dash.LowStock {
		lines = append(lines, fmt.Sprintf("%s (%s) - %d pcs", r.SKU, r.Name, r.Stock))
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(180, 30, 30)
	pdf.Cell(0, 6, tr("Low stock warning:"))
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(strings.Join(lines, "\n")), "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, dash ledger.Dashboard) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for i, col := range tableColumns {
		ln := 0
		if i == len(tableColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, rowHeight, tr(col.title), "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, r := range dash.Rows {
		stock := strconv.FormatInt(r.Stock, 10)
		if r.Low {
			stock += " LOW"
		}
		cells := []string{r.SKU, r.Name, r.Position, stock, FormatMoney(r.CostPrice), FormatMoney(r.Value)}
		for i, col := range tableColumns {
			ln := 0
			if i == len(tableColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, rowHeight, tr(fit(pdf, cells[i], col.width)), "1", ln, col.align, false, 0, "")
		}
	}
	pdf.Ln(6)
}

func writeChart(pdf *fpdf.Fpdf, tr func(string) string, series trend.Series) {
	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY()+chartHeight+12 > pageHeight-pageMargin {
		pdf.AddPage()
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 6, tr(series.Label))
	pdf.Ln(-1)

	left := pageMargin + 10
	top := pdf.GetY() + 2
	width := 210 - 2*pageMargin - 10
	bottom := top + chartHeight

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Line(left, top, left, bottom)
	pdf.Line(left, bottom, left+width, bottom)

	if len(series.Data) == 0 {
		pdf.SetY(bottom + 4)
		return
	}

	lo, hi := int64(0), int64(0)
	for _, v := range series.Data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(pageMargin, top-2)
	pdf.Cell(10, 4, strconv.FormatInt(hi, 10))
	pdf.SetXY(pageMargin, bottom-2)
	pdf.Cell(10, 4, strconv.FormatInt(lo, 10))

	y := func(v int64) float64 {
		return bottom - float64(v-lo)/float64(hi-lo)*chartHeight
	}
	step := 0.0
	if len(series.Data) > 1 {
		step = width / float64(len(series.Data)-1)
	}

	pdf.SetDrawColor(40, 90, 200)
	pdf.SetLineWidth(0.6)
	for i := 1; i < len(series.Data); i++ {
		pdf.Line(left+step*float64(i-1), y(series.Data[i-1]), left+step*float64(i), y(series.Data[i]))
	}
	if len(series.Data) == 1 {
		pdf.Circle(left, y(series.Data[0]), 0.8, "F")
	}

	if n := len(series.Labels); n > 0 {
		pdf.SetXY(left, bottom+1)
		pdf.Cell(30, 4, series.Labels[0])
		pdf.SetXY(left+width-20, bottom+1)
		pdf.CellFormat(20, 4, series.Labels[n-1], "", 0, "R", false, 0, "")
	}

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.SetY(bottom + 8)
}

// fit shortens text with an ellipsis until it fits the cell width.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// FormatMoney renders an amount in euro, rounded to the cent.
func FormatMoney(amount decimal.Decimal) string {
	cents := amount.Shift(2).Round(0).IntPart()
	return money.New(cents, currencyCode).Display()
}

// DecodeLogo extracts the image bytes and the fpdf image type from a base64
// data URL. Only PNG, JPEG and GIF are accepted.
func DecodeLogo(dataURL string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("%w: expected data:<mime>;base64,<payload>", ErrInvalidLogo)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidLogo, err)
	}

	switch format {
	case "png":
		return raw, "PNG", nil
	case "jpeg":
		return raw, "JPG", nil
	case "gif":
		return raw, "GIF", nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported image format %s", ErrInvalidLogo, format)
	}
}
