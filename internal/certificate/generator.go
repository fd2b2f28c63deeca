// Package certificate renders the vaccination certificate: a paginated A4
// document with a patient identity block, the vaccine table and a QR
// verification block. Rendering is a pure function of its input; the only
// external call is the QR encoding step, whose failure is isolated so the
// rest of the document is always produced.
package certificate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/vacunorg/vaccination-records/internal/model"
)

// ErrEmptyVaccineList rejects certificate generation for a patient with no
// recorded vaccines. Callers are expected to pre-check; the generator
// enforces it as well so an empty certificate can never be produced.
var ErrEmptyVaccineList = errors.New("certificate: empty vaccine list")

// ErrNoPatient rejects generation without a patient identity.
var ErrNoPatient = errors.New("certificate: missing patient identity")

// Input is the snapshot a certificate is rendered from. It carries no
// references back into the store; the caller extracts everything up front.
type Input struct {
	PatientName     string
	DocumentID      string
	BirthDate       string
	Country         string
	Vaccines        []model.VaccineRecord
	IssueDate       time.Time
	VerificationURL string
	Locale          string
}

// RenderStats reports what the layout pass produced. VaccineRows always
// equals the input vaccine count on success; TableHeaderDraws equals the
// number of pages the table spans, since the column header is repeated
// whenever a page break interrupts the table.
type RenderStats struct {
	Pages            int
	VaccineRows      int
	TableHeaderDraws int
	QRIncluded       bool
}

// Generator renders certificates. It is safe for concurrent use; each Render
// call builds its own document.
type Generator struct {
	log *slog.Logger
}

// New returns a Generator that logs non-fatal rendering problems (QR
// encoding failures) to the given logger.
func New(log *slog.Logger) *Generator {
	return &Generator{log: log}
}

// Page geometry in millimeters. The layout is fixed: A4 portrait, 15mm
// margins, a 30mm header band on every page.
const (
	marginMM     = 15.0
	headerBandMM = 30.0

	identityLineMM = 4.5 // line height in the patient identity block
	tableLineMM    = 3.5 // line height inside table cells
	minRowMM       = 8.0 // row height floor
	colHeaderMM    = 10.0

	// Remaining-space safety margins before a page break is forced.
	identityBreakMM     = 20.0
	tableBreakMM        = 30.0
	verificationBreakMM = 70.0
)

// Column width ratios of the vaccine table: name, dose, lot, date, place,
// professional.
var colRatios = [6]float64{0.25, 0.12, 0.13, 0.15, 0.20, 0.15}

var (
	colPrimary   = [3]int{17, 24, 39}
	colSecondary = [3]int{75, 85, 99}
	colAccent    = [3]int{37, 99, 235}
	colBorder    = [3]int{209, 213, 219}
)

type renderer struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	labels labelSet
	stats  *RenderStats

	y        float64
	pageW    float64
	pageH    float64
	contentW float64
}

// Render lays out the certificate and writes the finished PDF to w. The
// footer of every page carries the page number against the final total,
// which the PDF layer resolves once the page count is known.
func (g *Generator) Render(in Input, w io.Writer) (RenderStats, error) {
	if strings.TrimSpace(in.PatientName) == "" {
		return RenderStats{}, ErrNoPatient
	}
	if len(in.Vaccines) == 0 {
		return RenderStats{}, ErrEmptyVaccineList
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AliasNbPages("")

	stats := RenderStats{}
	r := &renderer{
		pdf:    pdf,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
		labels: newLabelSet(in.Locale),
		stats:  &stats,
	}
	r.pageW, r.pageH = pdf.GetPageSize()
	r.contentW = r.pageW - 2*marginMM

	pdf.SetFooterFunc(r.footer)
	r.addPage()

	r.sectionTitle(labelHolderInfo)
	r.identityBlock(in)
	r.y += 5

	r.sectionTitle(labelHistory)
	r.vaccineTable(in)

	r.verificationBlock(g.log, in)

	if pdf.Err() {
		return RenderStats{}, fmt.Errorf("render certificate: %w", pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return RenderStats{}, fmt.Errorf("write certificate: %w", err)
	}
	stats.Pages = pdf.PageCount()
	return stats, nil
}

// addPage opens a new page and draws the running header band.
func (r *renderer) addPage() {
	r.pdf.AddPage()
	r.header()
}

// header paints the accent band with the certificate title in the primary
// language and, when it differs, the secondary-language title underneath.
func (r *renderer) header() {
	pdf := r.pdf
	pdf.SetFillColor(colAccent[0], colAccent[1], colAccent[2])
	pdf.Rect(0, 0, r.pageW, headerBandMM, "F")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(0, marginMM-2)
	pdf.CellFormat(r.pageW, 8, r.tr(r.labels.primaryOnly(labelTitle)), "", 0, "C", false, 0, "")

	if sub := r.labels.secondaryOnly(labelTitle); sub != r.labels.primaryOnly(labelTitle) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetXY(0, marginMM+6)
		pdf.CellFormat(r.pageW, 5, r.tr(sub), "", 0, "C", false, 0, "")
	}

	pdf.SetDrawColor(colBorder[0], colBorder[1], colBorder[2])
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	r.y = headerBandMM + marginMM
}

// sectionTitle prints an upper-cased section heading with a rule under it.
func (r *renderer) sectionTitle(key string) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	pdf.Text(marginMM, r.y, r.tr(strings.ToUpper(r.labels.get(key))))
	r.y += 6
	pdf.SetLineWidth(0.3)
	pdf.Line(marginMM, r.y, r.pageW-marginMM, r.y)
	r.y += 8
}

// labelValue prints one "Label: value" pair, word-wrapping the value into
// the width remaining after the label. Returns the consumed height.
func (r *renderer) labelValue(label, value string, blockW float64) {
	pdf := r.pdf
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	tl := r.tr(label)
	pdf.Text(marginMM, r.y, tl)
	labelW := pdf.GetStringWidth(tl)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
	// SplitText wants UTF-8; the cp1252 translation happens at draw time.
	lines := pdf.SplitText(value, blockW-labelW-5)
	for k, line := range lines {
		pdf.Text(marginMM+labelW+3, r.y+float64(k)*identityLineMM, r.tr(line))
	}
	r.y += float64(len(lines))*identityLineMM + 4
}

// identityBlock prints the patient identity pairs, breaking to a fresh page
// with a continuation heading when fewer than identityBreakMM millimeters
// remain.
func (r *renderer) identityBlock(in Input) {
	country := in.Country
	if country == "" {
		country = r.labels.get(labelCountryUnspecified)
	}
	pairs := []struct{ key, value string }{
		{labelPatientName, in.PatientName},
		{labelDocumentID, in.DocumentID},
		{labelBirthDate, formatLongDate(in.BirthDate)},
		{labelCountry, country},
	}
	for _, p := range pairs {
		if r.y > r.pageH-marginMM-identityBreakMM {
			r.addPage()
			r.sectionTitle(labelHolderInfoCont)
		}
		value := p.value
		if value == "" {
			value = r.labels.get(labelNotApplicable)
		}
		r.labelValue(r.labels.get(p.key), value, r.contentW)
	}
}

// columnWidths resolves the fixed ratios against the content width.
func (r *renderer) columnWidths() [6]float64 {
	var w [6]float64
	for i, ratio := range colRatios {
		w[i] = ratio * r.contentW
	}
	return w
}

// tableHeader draws the bordered column header row and advances the cursor.
func (r *renderer) tableHeader(widths [6]float64) {
	pdf := r.pdf
	headers := [6]string{
		r.labels.get(labelVaccine),
		r.labels.get(labelDose),
		r.labels.get(labelLot),
		r.labels.get(labelDate),
		r.labels.get(labelPlace),
		r.labels.get(labelProfessional),
	}
	pdf.SetFont("Helvetica", "B", 8.5)
	pdf.SetTextColor(colPrimary[0], colPrimary[1], colPrimary[2])
	pdf.SetDrawColor(colBorder[0], colBorder[1], colBorder[2])

	x := marginMM
	for i, h := range headers {
		pdf.Rect(x, r.y, widths[i], colHeaderMM, "D")
		lines := pdf.SplitText(h, widths[i]-4)
		top := r.y + (colHeaderMM-float64(len(lines))*tableLineMM)/2
		for k, line := range lines {
			pdf.SetXY(x, top+float64(k)*tableLineMM)
			pdf.CellFormat(widths[i], tableLineMM, r.tr(line), "", 0, "C", false, 0, "")
		}
		x += widths[i]
	}
	r.y += colHeaderMM
	r.stats.TableHeaderDraws++
}

// vaccineTable draws one bordered row per vaccine. Row height is the tallest
// wrapped cell times the table line height, floored at minRowMM. When a row
// would not fit above the footer margin the table breaks: new page, running
// header, continuation section title, and the column header row again before
// data resumes.
func (r *renderer) vaccineTable(in Input) {
	pdf := r.pdf
	widths := r.columnWidths()
	na := r.labels.get(labelNotApplicable)

	r.tableHeader(widths)

	for _, v := range in.Vaccines {
		cells := [6]string{
			orNA(v.VaccineName, na),
			orNA(v.Dose, na),
			orNA(v.VaccineLot, na),
			orNA(formatShortDate(v.VaccinationDate), na),
			orNA(v.VaccinationPlace, na),
			orNA(v.HealthProfessional, na),
		}

		pdf.SetFont("Helvetica", "", 8)
		maxLines := 1
		for i, text := range cells {
			if n := len(pdf.SplitText(text, widths[i]-4)); n > maxLines {
				maxLines = n
			}
		}
		rowH := float64(maxLines)*tableLineMM + 4
		if rowH < minRowMM {
			rowH = minRowMM
		}

		if r.y+rowH > r.pageH-marginMM-tableBreakMM {
			r.addPage()
			r.sectionTitle(labelHistoryCont)
			r.tableHeader(widths)
			pdf.SetFont("Helvetica", "", 8)
		}

		pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
		pdf.SetDrawColor(colBorder[0], colBorder[1], colBorder[2])
		x := marginMM
		for i, text := range cells {
			pdf.Rect(x, r.y, widths[i], rowH, "D")
			for k, line := range pdf.SplitText(text, widths[i]-4) {
				pdf.Text(x+2, r.y+4+float64(k)*tableLineMM, r.tr(line))
			}
			x += widths[i]
		}
		r.y += rowH
		r.stats.VaccineRows++
	}
}

// verificationBlock prints the issuance metadata and the QR image. A failed
// QR encoding is logged and skipped; the certificate is still issued.
func (r *renderer) verificationBlock(log *slog.Logger, in Input) {
	pdf := r.pdf
	if r.y > r.pageH-marginMM-verificationBreakMM {
		r.addPage()
	} else {
		r.y += 10
	}
	r.sectionTitle(labelIssuance)

	qrY := r.y
	textBlockW := r.contentW * 0.6

	issued := in.IssueDate.Format("2 Jan 2006, 15:04 MST")
	code := verificationCode(in.VerificationURL, r.labels.get(labelNotApplicable))
	pairs := []struct{ key, value string }{
		{labelIssuedOn, issued},
		{labelVerificationCode, code},
		{labelIssuingEntity, r.labels.get(labelIssuingEntityName)},
	}
	for _, p := range pairs {
		r.labelValue(r.labels.get(p.key), p.value, textBlockW)
	}

	png, err := qrcode.Encode(in.VerificationURL, qrcode.Medium, 150)
	if err != nil {
		if log != nil {
			log.Warn("qr encoding failed, certificate issued without QR", "error", err)
		}
		return
	}
	qrX := marginMM + textBlockW + 5
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(png))
	pdf.ImageOptions("verification-qr", qrX, qrY-2, 40, 40, false, opts, 0, "")

	pdf.SetFont("Helvetica", "I", 7)
	pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
	pdf.SetXY(qrX, qrY+40)
	pdf.CellFormat(40, 4, r.tr(r.labels.get(labelScanToVerify)), "", 0, "C", false, 0, "")
	r.stats.QRIncluded = true
}

// footer draws the page-n-of-total line and the disclaimer. The total is an
// alias the PDF layer substitutes after the last page closes, so every
// footer carries the final count.
func (r *renderer) footer() {
	pdf := r.pdf
	pdf.SetLineWidth(0.1)
	pdf.SetDrawColor(colBorder[0], colBorder[1], colBorder[2])
	pdf.Line(marginMM, r.pageH-marginMM+2, r.pageW-marginMM, r.pageH-marginMM+2)

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(colSecondary[0], colSecondary[1], colSecondary[2])
	info := fmt.Sprintf(r.labels.primaryOnly(labelPageInfo), pdf.PageNo(), "{nb}")
	if sec := fmt.Sprintf(r.labels.secondaryOnly(labelPageInfo), pdf.PageNo(), "{nb}"); sec != info {
		info = info + " / " + sec
	}
	pdf.SetXY(marginMM, r.pageH-marginMM+3)
	pdf.CellFormat(r.contentW, 4, r.tr(info), "", 0, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(marginMM, r.pageH-marginMM+8)
	pdf.MultiCell(r.contentW, 3, r.tr(r.labels.get(labelDisclaimer)), "", "C", false)
}

var whitespaceRE = regexp.MustCompile(`\s+`)
var slashRE = regexp.MustCompile(`\s*/\s*`)

// Filename derives the download name from the certificate title and the
// patient's name, with whitespace normalized to underscores.
func Filename(locale, patientName string) string {
	labels := newLabelSet(locale)
	title := slashRE.ReplaceAllString(labels.primaryOnly(labelTitle), "_")
	title = whitespaceRE.ReplaceAllString(title, "_")
	name := whitespaceRE.ReplaceAllString(strings.TrimSpace(patientName), "_")
	return title + "_" + name + ".pdf"
}

// verificationCode extracts the last URL segment as the human-readable
// verification code. Without a URL there is no code; print na rather than
// the "." that path.Base would produce for an empty string.
func verificationCode(url, na string) string {
	if strings.TrimSpace(url) == "" {
		return na
	}
	return path.Base(url)
}

func orNA(s, na string) string {
	if strings.TrimSpace(s) == "" {
		return na
	}
	return s
}

// formatLongDate renders a stored date as "2 January 2006". Unparseable
// values are printed as stored rather than dropped.
func formatLongDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("2 January 2006")
	}
	return s
}

// formatShortDate renders a stored date as "02/01/2006".
func formatShortDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("02/01/2006")
	}
	return s
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
