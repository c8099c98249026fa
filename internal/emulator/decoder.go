package emulator

import (
	"bytes"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

const (
	esc = 0x1B
	gs  = 0x1D
	dle = 0x10
	eot = 0x04
)

// Job is one print session received from a client.
type Job struct {
	ReceivedAt time.Time
	Raw        []byte
	Text       string
	QRCodes    []string
	Styles     []Style
	Cuts       int
}

// Style is the alignment, font and scale in effect for a run of printed text.
type Style struct {
	Align  byte
	Font   byte
	Width  int
	Height int
}

var defaultStyle = Style{Width: 1, Height: 1}

// Lines returns the printed text split into lines, without the trailing feed.
func (j Job) Lines() []string {
	return strings.Split(strings.TrimRight(j.Text, "\n"), "\n")
}

// ESC commands without a parameter byte. Every other ESC command handled
// here takes exactly one.
var escNoArg = map[byte]bool{'@': true, '2': true, '<': true, 'i': true, 'm': true}

// decoder consumes ESC/POS output. Commands it does not interpret are skipped
// by length.
type decoder struct {
	raw     bytes.Buffer
	text    bytes.Buffer
	qr      []string
	styles  []Style
	current Style
	started bool
	cuts    int
	printed bool
}

// feed consumes complete commands from buf and returns how many bytes were
// used and how many status queries were seen. Incomplete commands at the
// end of buf are left for the next call.
func (d *decoder) feed(buf []byte) (used, queries int) {
	if !d.started {
		d.current = defaultStyle
		d.started = true
	}
	i := 0
	for i < len(buf) {
		n, query, ok := d.command(buf[i:])
		if !ok {
			break
		}
		if query {
			queries++
		} else {
			d.raw.Write(buf[i : i+n])
			d.printed = true
		}
		i += n
	}
	return i, queries
}

// command decodes the command at the start of b.
func (d *decoder) command(b []byte) (n int, query, ok bool) {
	switch b[0] {
	case dle:
		if len(b) < 3 {
			return 0, false, false
		}
		if b[1] == eot {
			return 3, true, true
		}
		d.printByte(b[0])
		return 1, false, true
	case esc:
		if len(b) < 2 {
			return 0, false, false
		}
		if escNoArg[b[1]] {
			if b[1] == '@' {
				d.current = defaultStyle
			}
			return 2, false, true
		}
		if len(b) < 3 {
			return 0, false, false
		}
		d.escArg(b[1], b[2])
		return 3, false, true
	case gs:
		if len(b) < 3 {
			return 0, false, false
		}
		switch b[1] {
		case '!':
			d.current.Width = int(b[2]>>4) + 1
			d.current.Height = int(b[2]&0x0F) + 1
			return 3, false, true
		case 'V':
			n := 3
			if b[2] >= 65 {
				n = 4 // feed-and-cut carries a feed amount
			}
			if len(b) < n {
				return 0, false, false
			}
			d.cuts++
			return n, false, true
		case '(':
			if len(b) < 5 {
				return 0, false, false
			}
			size := int(b[3]) | int(b[4])<<8
			if len(b) < 5+size {
				return 0, false, false
			}
			if b[2] == 'k' && size >= 3 && b[6] == 'P' {
				d.qr = append(d.qr, string(b[8:5+size]))
			}
			return 5 + size, false, true
		case 'L', 'W':
			if len(b) < 4 {
				return 0, false, false
			}
			return 4, false, true
		default:
			return 3, false, true
		}
	default:
		d.printByte(b[0])
		return 1, false, true
	}
}

// printByte appends a text byte and records the style it is printed in.
func (d *decoder) printByte(c byte) {
	if c != '\n' && (len(d.styles) == 0 || d.styles[len(d.styles)-1] != d.current) {
		d.styles = append(d.styles, d.current)
	}
	d.text.WriteByte(c)
}

func (d *decoder) escArg(cmd, arg byte) {
	switch cmd {
	case 'a':
		d.current.Align = arg
	case 'M':
		d.current.Font = arg
	case 'd':
		for i := 0; i < int(arg); i++ {
			d.text.WriteByte('\n')
		}
	}
}

// job returns the decoded job, or false if the session printed nothing.
func (d *decoder) job(at time.Time) (Job, bool) {
	if !d.printed {
		return Job{}, false
	}
	text, err := charmap.Windows1252.NewDecoder().Bytes(d.text.Bytes())
	if err != nil {
		text = d.text.Bytes()
	}
	return Job{
		ReceivedAt: at,
		Raw:        bytes.Clone(d.raw.Bytes()),
		Text:       string(text),
		QRCodes:    d.qr,
		Styles:     d.styles,
		Cuts:       d.cuts,
	}, true
}
