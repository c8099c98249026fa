package render

// Align is the horizontal justification of printed text.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Font selects one of the printer's built-in fonts.
type Font string

const (
	FontA Font = "a"
	FontB Font = "b"
)

// bulletPrefix is what a "* " line is printed with.
const bulletPrefix = "  • "

// DefaultQRSize is the module size used for QR: jobs.
const DefaultQRSize = 8

// Directive is one atomic printer command. The concrete types below are the
// only implementations.
type Directive interface {
	directive()
}

// TextLine prints Text followed by a line break.
type TextLine struct {
	Text string
}

// StyleChange switches alignment and character scale. Headers set
// RevertAfterNextLine and are always followed by a reverting StyleChange
// right after the line they decorate.
type StyleChange struct {
	Align               Align
	Font                Font
	Width               int
	Height              int
	RevertAfterNextLine bool
}

// Bullet prints Text as an indented list item.
type Bullet struct {
	Text string
}

// Line returns the text as it is sent to the printer.
func (b Bullet) Line() string {
	return bulletPrefix + b.Text
}

// QRCode prints Payload as a QR symbol with the given module size.
type QRCode struct {
	Payload string
	Size    int
}

// FeedLine advances the paper by one empty line.
type FeedLine struct{}

// Cut cuts the paper. A rendered job contains exactly one.
type Cut struct{}

func (TextLine) directive()    {}
func (StyleChange) directive() {}
func (Bullet) directive()      {}
func (QRCode) directive()      {}
func (FeedLine) directive()    {}
func (Cut) directive()         {}

// DefaultStyle is the style every job returns to after a header.
var DefaultStyle = StyleChange{Align: AlignLeft, Font: FontA, Width: 1, Height: 1}
