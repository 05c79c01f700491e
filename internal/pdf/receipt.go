package pdf

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator рендерит квитанцию об оплате.
type Generator interface {
	GenerateReceipt(data ReceiptData) ([]byte, error)
}

// ReceiptGenerator рисует квитанцию об оплате подписки.
type ReceiptGenerator struct {
	FontPath string // путь до TTF; пусто = встроенный Helvetica
	fontName string
}

type ReceiptData struct {
	InvoiceNumber string
	PackageName   string
	Amount        int64
	PaymentMethod string
	Status        string
	CustomerName  string
	CustomerEmail string
	PaidAt        time.Time
}

func NewReceiptGenerator(fontPath string) *ReceiptGenerator {
	g := &ReceiptGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

// FormatRupiah: 150000 -> "Rp 150.000".
func FormatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := strconv.FormatInt(amount, 10)
	var b []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b = append(b, '.')
		}
		b = append(b, s[i])
	}
	if neg {
		return "-Rp " + string(b)
	}
	return "Rp " + string(b)
}

func (g *ReceiptGenerator) GenerateReceipt(data ReceiptData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle("Receipt "+data.InvoiceNumber, false)
	pdf.SetAuthor("MamaStoria", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	g.addUTF8Font(pdf)
	pdf.AddPage()

	// ===== Заголовок
	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "MamaStoria", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, "Bukti Pembayaran / Payment Receipt", "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.sectionTitle(pdf, "Transaksi")
	g.kvLine(pdf, "Invoice", data.InvoiceNumber)
	g.kvLine(pdf, "Tanggal", data.PaidAt.Format("02.01.2006 15:04"))
	g.kvLine(pdf, "Status", data.Status)
	if data.PaymentMethod != "" {
		g.kvLine(pdf, "Metode", data.PaymentMethod)
	}
	pdf.Ln(1)
	g.hr(pdf)

	g.sectionTitle(pdf, "Pelanggan")
	g.kvLine(pdf, "Nama", data.CustomerName)
	if data.CustomerEmail != "" {
		g.kvLine(pdf, "Email", data.CustomerEmail)
	}
	pdf.Ln(1)
	g.hr(pdf)

	g.sectionTitle(pdf, "Paket")
	g.kvLine(pdf, "Nama paket", data.PackageName)
	pdf.SetFont(g.fontName, "B", 13)
	pdf.CellFormat(40, 9, "Total:", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, FormatRupiah(data.Amount), "", 1, "R", false, 0, "")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(g.fontName, "", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Generated %s", data.PaidAt.Format("2006-01-02")), "", 0, "C", false, 0, "")
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", data.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

// ===== helpers =====

func (g *ReceiptGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func (g *ReceiptGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 10)
	pdf.CellFormat(35, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReceiptGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(15, y, 133, y)
	pdf.SetY(y + 2)
}

func (g *ReceiptGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	// AddUTF8Font принимает путь до TTF
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
