// Package render turns onboarding data into PDF documents. Rendering is pure:
// callers persist the returned bytes themselves.
package render

import (
	"strings"
	"unicode"
)

// BlockKind selects how a block is painted.
type BlockKind int

const (
	BlockTitle BlockKind = iota
	BlockSubtitle
	BlockCaption
	BlockHeading
	BlockFields
	BlockText
	BlockLabeled
	BlockNote
	BlockSignature
	BlockBadge
	BlockSpacer
)

// Field is one label/value pair.
type Field struct {
	Label string
	Value string
}

// Block is one layout element of a document.
type Block struct {
	Kind   BlockKind
	Text   string
	Size   float64
	Fields []Field
	Image  []byte
}

// Document is the layout model painted into a PDF.
type Document struct {
	Name   string
	Blocks []Block
}

func (d *Document) add(b Block) {
	d.Blocks = append(d.Blocks, b)
}

func (d *Document) title(text string, size float64) {
	d.add(Block{Kind: BlockTitle, Text: text, Size: size})
}

func (d *Document) subtitle(text string) {
	d.add(Block{Kind: BlockSubtitle, Text: text})
}

func (d *Document) caption(text string) {
	d.add(Block{Kind: BlockCaption, Text: text})
}

func (d *Document) heading(text string, size float64) {
	d.add(Block{Kind: BlockHeading, Text: text, Size: size})
}

func (d *Document) text(text string) {
	d.add(Block{Kind: BlockText, Text: text})
}

func (d *Document) labeled(label, value string, size float64) {
	d.add(Block{Kind: BlockLabeled, Fields: []Field{{Label: label, Value: value}}, Size: size})
}

func (d *Document) note(text string, size float64) {
	d.add(Block{Kind: BlockNote, Text: text, Size: size})
}

func (d *Document) spacer(h float64) {
	d.add(Block{Kind: BlockSpacer, Size: h})
}

// Headings lists section headings in order.
func (d *Document) Headings() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == BlockHeading {
			out = append(out, b.Text)
		}
	}
	return out
}

// LabelFor derives a display label from a form key:
// residentialAddress becomes RESIDENTIAL ADDRESS.
func LabelFor(key string) string {
	var sb strings.Builder
	for i, r := range key {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteRune(r)
	}
	label := strings.ToUpper(strings.TrimSpace(sb.String()))
	return strings.ReplaceAll(label, "_", " ")
}
