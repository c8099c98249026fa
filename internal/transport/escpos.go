package transport

import (
	"fmt"
	"io"

	"github.com/hennedo/escpos"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"thermal_printer/internal/render"
)

// ESC/POS control bytes not covered by the escpos package.
const (
	esc = 0x1B
	dle = 0x10
	eot = 0x04
)

// codeTableWPC1252 selects Windows-1252 with ESC t.
const codeTableWPC1252 = 16

// Real-time status query (DLE EOT 1) and the bits of its reply.
var statusQuery = []byte{dle, eot, 0x01}

const (
	statusOfflineBit = 0x08
	statusFixedMask  = 0x93 // bits 0, 1, 4, 7
	statusFixedValue = 0x12 // bits 1 and 4 set, 0 and 7 clear
)

// Encoder drives an escpos printer writing to w. It implements
// render.Commander. Output is buffered until Cut or Flush.
type Encoder struct {
	p    *escpos.Escpos
	text *encoding.Encoder
}

var _ render.Commander = (*Encoder)(nil)

// NewEncoder returns an encoder writing to w. Call Init before the first job.
func NewEncoder(w io.Writer) *Encoder {
	p := escpos.New(w)
	p.SetConfig(escpos.ConfigEpsonTMT20II)
	return &Encoder{
		p:    p,
		text: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
}

// Init resets the printer and selects the Windows-1252 code table.
func (e *Encoder) Init() error {
	if _, err := e.p.WriteRaw([]byte{esc, '@', esc, 't', codeTableWPC1252}); err != nil {
		return Wrap("init", err)
	}
	return nil
}

// Text prints s, converting it to Windows-1252. Characters outside the code
// page are replaced.
func (e *Encoder) Text(s string) error {
	b, err := e.text.Bytes([]byte(s))
	if err != nil {
		return &Error{Kind: KindOther, Op: "text", Err: err}
	}
	if _, err := e.p.Write(string(b)); err != nil {
		return Wrap("text", err)
	}
	return nil
}

// SetStyle sets alignment, font and character scale. Width and height are
// multipliers in 1..8.
func (e *Encoder) SetStyle(align render.Align, font render.Font, width, height int) error {
	if width < 1 || width > 8 || height < 1 || height > 8 {
		return &Error{Kind: KindOther, Op: "style", Err: fmt.Errorf("scale %dx%d out of range 1..8", width, height)}
	}
	switch align {
	case render.AlignLeft, "":
		e.p.Justify(escpos.JustifyLeft)
	case render.AlignCenter:
		e.p.Justify(escpos.JustifyCenter)
	case render.AlignRight:
		e.p.Justify(escpos.JustifyRight)
	default:
		return &Error{Kind: KindOther, Op: "style", Err: fmt.Errorf("unknown alignment %q", align)}
	}
	switch font {
	case render.FontA, "":
		e.p.Font(0)
	case render.FontB:
		e.p.Font(1)
	default:
		return &Error{Kind: KindOther, Op: "style", Err: fmt.Errorf("unknown font %q", font)}
	}
	e.p.Size(uint8(width), uint8(height))
	return nil
}

// QR prints payload as a model 2 QR code with module size 1..16.
func (e *Encoder) QR(payload string, size int) error {
	if size < 1 || size > 16 {
		return &Error{Kind: KindOther, Op: "qr", Err: fmt.Errorf("module size %d out of range 1..16", size)}
	}
	if len(payload)+3 > 0xFFFF {
		return &Error{Kind: KindOther, Op: "qr", Err: fmt.Errorf("payload too long (%d bytes)", len(payload))}
	}
	if _, err := e.p.QRCode(payload, true, uint8(size), escpos.QRCodeErrorCorrectionLevelL); err != nil {
		return Wrap("qr", err)
	}
	return nil
}

// Cut feeds past the cutter, cuts and sends everything buffered so far.
func (e *Encoder) Cut() error {
	if err := e.p.PrintAndCut(); err != nil {
		return Wrap("cut", err)
	}
	return nil
}

// Flush sends buffered commands without cutting.
func (e *Encoder) Flush() error {
	if err := e.p.Print(); err != nil {
		return Wrap("flush", err)
	}
	return nil
}

// parseStatus interprets the DLE EOT 1 reply byte.
func parseStatus(b byte) (online bool, err error) {
	if b&statusFixedMask != statusFixedValue {
		return false, Protocol("status", "unexpected status byte 0x%02x", b)
	}
	return b&statusOfflineBit == 0, nil
}
