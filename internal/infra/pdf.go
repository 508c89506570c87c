package infra

// pdf.go — PDF receipt generation using go-pdf/fpdf.
// Generates an A5 receipt for a closed operation with:
//   - Business name header
//   - Operation type, client and timestamp
//   - Leg table (operator, amount, difference)
//   - Distribution summary (offices, executive, client profit, payroll)
//   - Bold total
//
// The output file is saved to storagePath/recibo_{id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"interunido/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReciboPDF renders the receipt of an Operacion.
// storagePath is the directory where the PDF will be written (created if needed).
// Returns the absolute path to the generated file.
func GenerateReciboPDF(op *model.Operacion, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("recibo_%s.pdf", op.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "InterUnido", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	titulo := "Recibo de Venta"
	if op.Tipo == "canje" {
		titulo = "Recibo de Canje"
		if op.Subtipo != nil && *op.Subtipo != "" {
			s := *op.Subtipo
			titulo += " " + strings.ToUpper(s[:1]) + s[1:]
		}
	}
	pdf.CellFormat(contentW, 5, titulo, "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Operation info ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, "Cliente: "+op.Cliente, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 4, op.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 4, fmt.Sprintf("Monto total: %s %s", op.Monto.StringFixed(2), op.Divisa), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	// ── Legs ──────────────────────────────────────────────────────────────────
	col1 := contentW * 0.44
	col2 := contentW * 0.28
	col3 := contentW * 0.28

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Operador", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Monto", "B", 0, "R", false, 0, "")
	pdf.CellFormat(col3, 5, "Diferencia", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	totalDif := decimal.Zero
	for i := range op.Transacciones {
		t := &op.Transacciones[i]
		nombre := t.OperadorNombre
		if len(nombre) > 24 {
			nombre = nombre[:23] + "…"
		}
		pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, t.Monto.StringFixed(2), "", 0, "R", false, 0, "")
		pdf.CellFormat(col3, 5, t.Diferencia.StringFixed(2), "", 1, "R", false, 0, "")
		totalDif = totalDif.Add(t.Diferencia)
	}

	pdf.Ln(2)
	pdf.Line(12, pdf.GetY(), pageW-12, pdf.GetY())
	pdf.Ln(2)

	// ── Distribution summary ──────────────────────────────────────────────────
	sumas := map[string]decimal.Decimal{}
	for i := range op.Transacciones {
		t := &op.Transacciones[i]
		sumas["Oficina PZO"] = sumas["Oficina PZO"].Add(t.OficinaPZOMonto)
		sumas["Oficina CCS"] = sumas["Oficina CCS"].Add(t.OficinaCCSMonto)
		sumas["Ejecutivo"] = sumas["Ejecutivo"].Add(t.Ejecutivo)
		sumas["Ganancia cliente"] = sumas["Ganancia cliente"].Add(t.GananciaCliente)
		sumas["Nómina"] = sumas["Nómina"].Add(t.Nomina)
	}

	pdf.SetFont("Helvetica", "", 8)
	for _, nombre := range []string{"Oficina PZO", "Oficina CCS", "Ejecutivo", "Ganancia cliente", "Nómina"} {
		monto := sumas[nombre]
		if monto.IsZero() {
			continue
		}
		pdf.CellFormat(col1+col2, 5, nombre+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, monto.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2, 7, "DIFERENCIA TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 7, totalDif.StringFixed(2), "", 1, "R", false, 0, "")

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Documento generado automáticamente — InterUnido", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
