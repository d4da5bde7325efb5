// Package pdf renders a finalized order as the boutique's printable
// document. It consumes the order snapshot only; rendering never feeds
// back into catalog or ledger state.
package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"pequenoestilo/backend/internal/domain"
)

var whitespace = regexp.MustCompile(`\s+`)

// Filename derives the deterministic artifact name from the client name
// and order id.
func Filename(order domain.Order) string {
	name := whitespace.ReplaceAllString(strings.TrimSpace(order.ClientName), "_")
	return fmt.Sprintf("Pedido_Kids_%s_%d.pdf", name, order.ID)
}

// Render produces the order document: branded header, client contact
// block, itemized table, totals summary, payment method, optional
// observations and footer.
func Render(order domain.Order) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetAutoPageBreak(true, 20)
	doc.AddPage()

	// Header band.
	doc.SetFillColor(255, 245, 247)
	doc.Rect(0, 0, 210, 40, "F")

	doc.SetFont("Helvetica", "B", 24)
	doc.SetTextColor(244, 114, 182)
	doc.Text(14, 22, tr("Charminho Kids"))

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(160, 160, 160)
	doc.Text(14, 30, tr("BOUTIQUE INFANTIL & ACESSÓRIOS"))

	doc.SetFont("Helvetica", "", 10)
	doc.SetTextColor(80, 80, 80)
	doc.Text(150, 22, tr(fmt.Sprintf("Data: %s", order.Date.Format("02/01/2006"))))
	doc.Text(150, 28, tr(fmt.Sprintf("Pedido Nº: #%04d", order.ID)))

	// Client block.
	doc.SetDrawColor(244, 114, 182)
	doc.SetLineWidth(0.5)
	doc.Line(14, 45, 196, 45)

	doc.SetFont("Helvetica", "B", 12)
	doc.SetTextColor(50, 50, 50)
	doc.Text(14, 55, tr("Para a Mamãe/Papai:"))

	doc.SetFont("Helvetica", "", 10)
	doc.Text(14, 62, tr(fmt.Sprintf("Nome: %s", order.ClientName)))
	doc.Text(14, 67, tr(fmt.Sprintf("Telefone: %s", order.ClientPhone)))
	doc.Text(14, 72, tr(fmt.Sprintf("E-mail: %s", order.ClientEmail)))

	finalY := renderItemTable(doc, tr, order)

	// Totals summary, right-aligned column.
	const summaryX = 140.0
	currentY := finalY + 10

	doc.SetFont("Helvetica", "B", 10)
	doc.SetTextColor(50, 50, 50)
	doc.Text(summaryX, currentY, "Subtotal:")
	rightText(doc, 196, currentY, tr(FormatBRL(order.Subtotal)))

	if order.DiscountPercentage.IsPositive() {
		currentY += 6
		doc.SetTextColor(244, 114, 182)
		doc.Text(summaryX, currentY, tr(fmt.Sprintf("Desconto (%s%%):", order.DiscountPercentage)))
		discount := order.Subtotal.Mul(order.DiscountPercentage.Div(decimal.NewFromInt(100))).Round(2)
		rightText(doc, 196, currentY, tr("- "+FormatBRL(discount)))
	}

	currentY += 10
	doc.SetFillColor(240, 249, 255)
	doc.Rect(summaryX-5, currentY-6, 61, 10, "F")
	doc.SetFont("Helvetica", "B", 12)
	doc.SetTextColor(2, 132, 199)
	doc.Text(summaryX, currentY, "Total Final:")
	rightText(doc, 196, currentY, tr(FormatBRL(order.Total)))

	currentY += 12
	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(100, 100, 100)
	doc.Text(summaryX, currentY, tr(fmt.Sprintf("Forma de Pagamento: %s", order.PaymentMethod)))

	if order.Observations != "" {
		doc.SetFont("Helvetica", "I", 10)
		doc.SetTextColor(100, 100, 100)
		doc.Text(14, finalY+30, tr("Mensagem Carinhosa:"))
		doc.SetFont("Helvetica", "I", 9)
		doc.SetXY(14, finalY+33)
		doc.MultiCell(120, 4.5, tr(order.Observations), "", "L", false)
	}

	doc.SetFont("Helvetica", "", 8)
	doc.SetTextColor(180, 180, 180)
	doc.SetXY(14, 283)
	doc.CellFormat(182, 5, tr("Charminho Kids - Feito com amor para o seu pequeno."), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderItemTable(doc *fpdf.Fpdf, tr func(string) string, order domain.Order) float64 {
	const (
		startY = 80.0
		startX = 14.0
	)
	widths := []float64{90, 20, 35, 37}
	aligns := []string{"L", "C", "L", "R"}
	headers := []string{"Peça Infantil", "Qtd", "V. Unitário", "Subtotal"}

	doc.SetXY(startX, startY)
	doc.SetFont("Helvetica", "B", 9)
	doc.SetTextColor(255, 255, 255)
	doc.SetFillColor(244, 114, 182)
	for i, header := range headers {
		doc.CellFormat(widths[i], 8, tr(header), "", 0, aligns[i], true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 9)
	doc.SetTextColor(60, 60, 60)
	for i, item := range order.Items {
		fill := i%2 == 1
		doc.SetFillColor(250, 245, 247)
		doc.SetX(startX)
		lineTotal := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).Round(2)
		cells := []string{
			item.ProductName,
			fmt.Sprintf("%d", item.Quantity),
			FormatBRL(item.UnitPrice),
			FormatBRL(lineTotal),
		}
		for c, text := range cells {
			style := ""
			if c == 3 {
				style = "B"
			}
			doc.SetFont("Helvetica", style, 9)
			doc.CellFormat(widths[c], 7, tr(text), "", 0, aligns[c], fill, 0, "")
		}
		doc.Ln(-1)
	}

	return doc.GetY()
}

func rightText(doc *fpdf.Fpdf, rightX, y float64, text string) {
	width := doc.GetStringWidth(text)
	doc.Text(rightX-width, y, text)
}

// FormatBRL renders a currency amount as Brazilian Real with two
// decimals and thousands separators, e.g. R$ 1.234,56.
func FormatBRL(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), fracPart)
}
