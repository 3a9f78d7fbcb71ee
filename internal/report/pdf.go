package report

import (
	"embed"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/mmynk/billvault/internal/models"
)

//go:embed fonts/*.ttf
var fontFS embed.FS

const fontFamily = "DejaVu"

var fontFaces = []struct{ style, file string }{
	{"", "fonts/DejaVuSansCondensed.ttf"},
	{"B", "fonts/DejaVuSansCondensed-Bold.ttf"},
	{"I", "fonts/DejaVuSansCondensed-Oblique.ttf"},
}

// registerFonts adds the embedded UTF-8 faces. Text outside cp1252, such as
// the rupee sign or an Indic name, keeps its code points in the page stream.
func registerFonts(pdf *fpdf.Fpdf) error {
	for _, face := range fontFaces {
		b, err := fontFS.ReadFile(face.file)
		if err != nil {
			return fmt.Errorf("failed to read font %s: %w", face.file, err)
		}
		pdf.AddUTF8FontFromBytes(fontFamily, face.style, b)
	}
	return pdf.Error()
}

// PDFOptions tunes rendering. The zero value compresses page streams.
type PDFOptions struct {
	Uncompressed bool
}

// WritePDF renders one entry as a single A4 page.
func WritePDF(w io.Writer, in Input, opts PDFOptions) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(!opts.Uncompressed)
	pdf.SetTitle("Electricity bill "+in.Entry.ServiceID, true)
	pdf.SetCreator("billvault", true)
	if !in.GeneratedAt.IsZero() {
		pdf.SetCreationDate(in.GeneratedAt)
	}
	if err := registerFonts(pdf); err != nil {
		return err
	}

	pdf.AddPage()
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(0, 10, "Electricity Bill Summary", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 9)
	pdf.SetTextColor(110, 110, 110)
	if !in.GeneratedAt.IsZero() {
		pdf.CellFormat(0, 6, "Generated "+in.GeneratedAt.Format("02 Jan 2006 15:04"), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	section := func(title string, fields []field) {
		pdf.SetFont(fontFamily, "B", 13)
		pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
		pdf.Ln(2)
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			pdf.SetFont(fontFamily, "B", 11)
			pdf.CellFormat(45, 7, f.label, "", 0, "L", false, 0, "")
			pdf.SetFont(fontFamily, "", 11)
			pdf.CellFormat(0, 7, f.value, "", 1, "L", false, 0, "")
		}
		pdf.Ln(4)
	}

	section("Service", identityFields(in))

	if b := in.Entry.Bill; b != nil {
		section("Latest bill", billFields(b))

		pdf.SetFont(fontFamily, "I", 9)
		pdf.SetTextColor(110, 110, 110)
		note := fmt.Sprintf("Classified as %s.", models.ClassifyStatus(b.Status))
		if !b.LastFetched.IsZero() {
			note = fmt.Sprintf("Fetched %s. %s", b.LastFetched.Format("02 Jan 2006 15:04 MST"), note)
		}
		pdf.CellFormat(0, 6, note, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(4)
	} else {
		pdf.SetFont(fontFamily, "I", 11)
		pdf.CellFormat(0, 7, "No bill has been fetched for this service yet.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	if in.PortalURL != "" {
		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(45, 7, "Portal", "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "U", 11)
		pdf.SetTextColor(20, 70, 200)
		pdf.CellFormat(0, 7, "Open bill on the utility portal", "", 1, "L", false, 0, in.PortalURL)
		pdf.SetTextColor(0, 0, 0)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}
