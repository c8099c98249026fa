package render

import "fmt"

// Commander is the ordered command API of a printer connection.
type Commander interface {
	Text(s string) error
	SetStyle(align Align, font Font, width, height int) error
	QR(payload string, size int) error
	Cut() error
}

// Execute sends directives to c in order and stops at the first error.
func Execute(c Commander, directives []Directive) error {
	for i, d := range directives {
		if err := apply(c, d); err != nil {
			return fmt.Errorf("directive %d (%T): %w", i, d, err)
		}
	}
	return nil
}

func apply(c Commander, d Directive) error {
	switch d := d.(type) {
	case TextLine:
		return c.Text(d.Text + "\n")
	case Bullet:
		return c.Text(d.Line() + "\n")
	case FeedLine:
		return c.Text("\n")
	case StyleChange:
		font := d.Font
		if font == "" {
			font = FontA
		}
		return c.SetStyle(d.Align, font, d.Width, d.Height)
	case QRCode:
		return c.QR(d.Payload, d.Size)
	case Cut:
		return c.Cut()
	default:
		return fmt.Errorf("unsupported directive %T", d)
	}
}
