package render

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin    = 30.0
	fieldGutter   = 20.0
	signatureMaxW = 120.0
	signatureMaxH = 36.0
)

func normalizePNG(raw []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode signature image: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode signature image: %w", err)
	}
	return buf.Bytes(), nil
}

type painter struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
	image int
}

// Paint renders a document to PDF bytes.
func Paint(doc *Document, created time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(strings.TrimSuffix(doc.Name, ".pdf"), false)
	pdf.SetKeywords(strings.Join(doc.Headings(), ", "), false)
	pdf.AddPage()

	w, _ := pdf.GetPageSize()
	p := &painter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), width: w - 2*pageMargin}
	for _, b := range doc.Blocks {
		p.block(b)
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *painter) block(b Block) {
	pdf := p.pdf
	switch b.Kind {
	case BlockTitle:
		pdf.SetFont("Helvetica", "B", b.Size)
		pdf.CellFormat(0, b.Size+4, p.tr(b.Text), "", 1, "C", false, 0, "")
	case BlockSubtitle:
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 14, p.tr(b.Text), "", 1, "C", false, 0, "")
	case BlockCaption:
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 10, p.tr(b.Text), "", 1, "C", false, 0, "")
	case BlockHeading:
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", b.Size)
		pdf.CellFormat(0, b.Size+2, p.tr(b.Text), "", 1, "L", false, 0, "")
		y := pdf.GetY()
		pdf.SetLineWidth(0.5)
		pdf.Line(pageMargin, y, pageMargin+p.width, y)
		pdf.Ln(6)
	case BlockFields:
		p.fields(b.Fields)
	case BlockText:
		pdf.SetFont("Helvetica", "", 8)
		pdf.MultiCell(0, 10, p.tr(b.Text), "", "L", false)
		pdf.Ln(2)
	case BlockLabeled:
		p.labeled(b)
	case BlockNote:
		pdf.SetFont("Helvetica", "I", b.Size)
		pdf.MultiCell(0, b.Size+2, p.tr(b.Text), "", "J", false)
		pdf.Ln(4)
	case BlockSignature:
		p.signature(b.Image)
	case BlockBadge:
		p.badge(b.Size)
	case BlockSpacer:
		pdf.Ln(b.Size)
	}
}

func (p *painter) fields(fields []Field) {
	pdf := p.pdf
	colW := (p.width - fieldGutter) / 2
	for i := 0; i < len(fields); i += 2 {
		top := pdf.GetY()
		bottom := top
		for col := 0; col < 2 && i+col < len(fields); col++ {
			f := fields[i+col]
			x := pageMargin + float64(col)*(colW+fieldGutter)
			pdf.SetXY(x, top)
			pdf.SetFont("Helvetica", "B", 8)
			pdf.MultiCell(colW, 9, p.tr(f.Label+":"), "", "L", false)
			pdf.SetX(x + 2)
			pdf.SetFont("Helvetica", "", 8)
			pdf.MultiCell(colW-2, 10, p.tr(f.Value), "", "L", false)
			if y := pdf.GetY(); y > bottom {
				bottom = y
			}
		}
		pdf.SetY(bottom + 2)
	}
	pdf.Ln(3)
}

func (p *painter) labeled(b Block) {
	pdf := p.pdf
	size := b.Size
	if size == 0 {
		size = 8
	}
	h := size + 2
	pdf.SetX(pageMargin)
	for i, f := range b.Fields {
		if i > 0 {
			pdf.Write(h, "          ")
		}
		label := f.Label
		if !strings.HasSuffix(label, ".") {
			label += ":"
		}
		pdf.SetFont("Helvetica", "B", size)
		pdf.Write(h, p.tr(label+" "))
		pdf.SetFont("Helvetica", "", size)
		pdf.Write(h, p.tr(f.Value))
	}
	pdf.Ln(h + 4)
}

func (p *painter) signature(img []byte) {
	pdf := p.pdf
	cfg, err := png.DecodeConfig(bytes.NewReader(img))
	if err != nil || cfg.Width == 0 || cfg.Height == 0 {
		p.block(Block{Kind: BlockText, Text: SignatureFallback})
		return
	}

	p.image++
	name := fmt.Sprintf("signature-%d", p.image)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	if pdf.Err() {
		pdf.ClearError()
		p.block(Block{Kind: BlockText, Text: SignatureFallback})
		return
	}

	scale := signatureMaxW / float64(cfg.Width)
	if s := signatureMaxH / float64(cfg.Height); s < scale {
		scale = s
	}
	w, h := float64(cfg.Width)*scale, float64(cfg.Height)*scale
	y := pdf.GetY()
	pdf.ImageOptions(name, pageMargin, y, w, h, false, opts, 0, "")
	pdf.SetY(y + h + 4)
}

func (p *painter) badge(r float64) {
	pdf := p.pdf
	cx := pageMargin + p.width/2
	cy := pdf.GetY() + r

	pdf.SetLineWidth(2)
	pdf.Circle(cx, cy, r, "D")

	pdf.SetLineWidth(6)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	pdf.Line(cx-r*0.35, cy, cx-r*0.08, cy+r*0.3)
	pdf.Line(cx-r*0.08, cy+r*0.3, cx+r*0.4, cy-r*0.3)

	pdf.SetLineWidth(0.5)
	pdf.SetLineCapStyle("butt")
	pdf.SetY(cy + r + 10)
}
