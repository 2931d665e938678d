package templates

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 12.0
	lineHeight = 5.0
)

type rgb struct{ r, g, b int }

var (
	sidebarBlue = rgb{35, 76, 140}
	headerGrey  = rgb{51, 51, 51}
	textDark    = rgb{34, 34, 34}
	white       = rgb{255, 255, 255}
)

// document wraps an A4 page set with the core Helvetica font. tr maps UTF-8
// input onto the font's code page.
type document struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newDocument() *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	return &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d *document) color(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

// column sets the horizontal band subsequent text flows in.
func (d *document) column(left, right float64) {
	d.pdf.SetLeftMargin(left)
	d.pdf.SetRightMargin(pageWidth - right)
	d.pdf.SetX(left)
}

func (d *document) heading(text string, size float64) {
	d.pdf.SetFont("Helvetica", "B", size)
	d.pdf.MultiCell(0, size*0.5, d.tr(text), "", "L", false)
}

func (d *document) section(title string) {
	d.pdf.Ln(3)
	d.pdf.SetFont("Helvetica", "B", 11)
	d.pdf.CellFormat(0, 7, d.tr(strings.ToUpper(title)), "B", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) para(text string) {
	if text == "" {
		return
	}
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr(text), "", "L", false)
}

func (d *document) bullet(text string) {
	d.pdf.SetFont("Helvetica", "", 10)
	d.pdf.MultiCell(0, lineHeight, d.tr("- "+text), "", "L", false)
}

// photo places the image in a square box. An image fpdf cannot decode is
// skipped so the rest of the CV still renders.
func (d *document) photo(data *Data, x, y, size float64) bool {
	if len(data.Image) == 0 || data.ImageType == "" {
		return false
	}
	opt := fpdf.ImageOptions{ImageType: data.ImageType, ReadDpi: false}
	d.pdf.RegisterImageOptionsReader("photo", opt, bytes.NewReader(data.Image))
	if !d.pdf.Ok() {
		d.pdf.ClearError()
		return false
	}
	d.pdf.ImageOptions("photo", x, y, size, size, false, opt, 0, "")
	return true
}

func (d *document) contacts(data *Data) {
	for _, c := range contacts(&data.CVForm) {
		d.pdf.SetFont("Helvetica", "B", 8)
		d.pdf.MultiCell(0, 4, d.tr(c.Label), "", "L", false)
		d.pdf.SetFont("Helvetica", "", 9)
		d.pdf.MultiCell(0, 4.5, d.tr(c.Value), "", "L", false)
		d.pdf.Ln(1.5)
	}
}

func (d *document) experience(data *Data) {
	var jobs []string
	for _, j := range data.Jobs {
		if j.Job != "" {
			jobs = append(jobs, j.Job)
		}
	}
	if len(jobs) == 0 {
		return
	}
	d.section("Experience")
	for _, j := range jobs {
		d.bullet(j)
	}
}

func (d *document) projects(data *Data) {
	if len(data.Projects) == 0 {
		return
	}
	d.section("Projects")
	for _, p := range data.Projects {
		d.pdf.SetFont("Helvetica", "B", 10)
		d.pdf.MultiCell(0, lineHeight, d.tr(p.Name), "", "L", false)
		d.para(p.Description)
		d.pdf.Ln(1)
	}
}

func (d *document) skills(data *Data, inline bool) {
	var names []string
	for _, s := range data.Skills {
		if s.Skill != "" {
			names = append(names, s.Skill)
		}
	}
	if len(names) == 0 {
		return
	}
	d.section("Skills")
	if inline {
		d.para(strings.Join(names, ", "))
		return
	}
	for _, n := range names {
		d.bullet(n)
	}
}

func (d *document) textSection(title, text string) {
	if text == "" {
		return
	}
	d.section(title)
	d.para(text)
}

// sidebarLayout: blue sidebar with photo, contacts and skills; the main
// column carries the rest.
func sidebarLayout(d *document, data *Data) {
	const split = 70.0
	d.pdf.SetHeaderFunc(func() {
		d.pdf.SetFillColor(sidebarBlue.r, sidebarBlue.g, sidebarBlue.b)
		d.pdf.Rect(0, 0, split, pageHeight, "F")
	})
	d.pdf.AddPage()

	d.color(textDark)
	d.column(split+8, pageWidth-margin)
	d.pdf.SetY(margin + 4)
	d.heading(data.Name, 22)
	d.pdf.SetFont("Helvetica", "", 12)
	d.pdf.MultiCell(0, 6, d.tr(data.JobTitle), "", "L", false)
	d.textSection("About", data.About)
	d.experience(data)
	d.projects(data)
	d.textSection("Education", data.Education)

	d.pdf.SetPage(1)
	d.color(white)
	d.column(8, split-8)
	y := margin
	if d.photo(data, 15, y, split-30) {
		y += split - 30 + 6
	}
	d.pdf.SetY(y)
	d.contacts(data)
	d.skills(data, false)
}

// classicLayout: dark header band and a single column.
func classicLayout(d *document, data *Data) {
	d.pdf.AddPage()
	d.pdf.SetFillColor(headerGrey.r, headerGrey.g, headerGrey.b)
	d.pdf.Rect(0, 0, pageWidth, 36, "F")

	d.color(white)
	d.column(margin, pageWidth-margin)
	d.pdf.SetY(10)
	d.heading(data.Name, 22)
	d.pdf.SetFont("Helvetica", "", 12)
	d.pdf.MultiCell(0, 6, d.tr(data.JobTitle), "", "L", false)

	d.color(textDark)
	d.pdf.SetY(42)
	var line []string
	for _, c := range contacts(&data.CVForm) {
		line = append(line, c.Value)
	}
	d.pdf.SetFont("Helvetica", "", 9)
	d.pdf.MultiCell(0, 4.5, d.tr(strings.Join(line, "  |  ")), "", "L", false)

	d.textSection("About", data.About)
	d.experience(data)
	d.projects(data)
	d.skills(data, true)
	d.textSection("Education", data.Education)
}

// columnsLayout: wide main column on the left, contacts, skills and
// education on the right.
func columnsLayout(d *document, data *Data) {
	const split = 130.0
	d.pdf.AddPage()
	d.color(textDark)

	d.column(margin, pageWidth-margin)
	d.heading(data.Name, 22)
	d.pdf.SetFont("Helvetica", "", 12)
	d.pdf.MultiCell(0, 6, d.tr(data.JobTitle), "", "L", false)
	top := d.pdf.GetY() + 4

	d.column(margin, split-6)
	d.pdf.SetY(top)
	d.textSection("About", data.About)
	d.experience(data)
	d.projects(data)

	d.pdf.SetPage(1)
	d.column(split, pageWidth-margin)
	d.pdf.SetY(top)
	d.section("Contact")
	d.contacts(data)
	d.skills(data, false)
	d.textSection("Education", data.Education)
}
