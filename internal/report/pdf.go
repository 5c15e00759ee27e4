package report

import (
	"io"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/phpdave11/gofpdf"
)

// EncodePDF renders the document as a printable bake sheet: the week's
// headline numbers, the production quantities per product, the packing
// breakdown per pickup location, and the order list.
func (d *Document) EncodePDF(w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Weekly Summary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Artos Weekly Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, d.PeriodStart.Format("Mon Jan 02 2006")+" - "+d.PeriodEnd.Format("Mon Jan 02 2006"))
	pdf.Ln(12)

	s := d.Summary
	writeStat := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.Cell(50, 7, label)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 7, value)
		pdf.Ln(7)
	}
	writeStat("Total orders", strconv.Itoa(s.TotalOrders))
	writeStat("Revenue", "R"+s.TotalRevenue.StringFixed(2))
	writeStat("Profit", "R"+s.TotalProfit.StringFixed(2))
	writeStat("Cost to producer", "R"+s.TotalCost.StringFixed(2))
	writeStat("Completed", strconv.Itoa(s.CompletedOrders))
	writeStat("Pending", strconv.Itoa(s.PendingOrders))
	writeStat("Verified", strconv.Itoa(s.VerifiedOrders))
	pdf.Ln(5)

	d.pdfSection(pdf, "Bread to order")
	for _, name := range sortedKeys(s.BreadQuantities) {
		pdf.Cell(80, 6, name)
		pdf.Cell(0, 6, strconv.Itoa(s.BreadQuantities[name]))
		pdf.Ln(6)
	}
	pdf.Ln(5)

	d.pdfSection(pdf, "Per-location packing")
	for _, loc := range sortedKeys(s.LocationBreakdown) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, loc)
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		for _, name := range sortedKeys(s.LocationBreakdown[loc]) {
			pdf.Cell(10, 6, "")
			pdf.Cell(70, 6, name)
			pdf.Cell(0, 6, strconv.Itoa(s.LocationBreakdown[loc][name]))
			pdf.Ln(6)
		}
	}
	pdf.Ln(5)

	d.pdfSection(pdf, "Orders")
	for _, row := range d.Orders {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.Cell(0, 6, row.Customer+" ("+row.Location+", "+row.Status+")")
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(10, 6, "")
		pdf.MultiCell(0, 6, row.Items+"  "+row.Total+"  "+row.Date, "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return nil
}

func (d *Document) pdfSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, title)
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 10)
}
