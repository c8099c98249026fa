// Package render turns the lightweight markup accepted by the print API into
// an ordered list of printer directives. It does no I/O.
package render

import "strings"

// Markup prefixes, checked in this order against the raw line.
const (
	qrPrefix        = "QR:"
	headerPrefix    = "# "
	subheaderPrefix = "## "
	bulletMarker    = "* "
)

var (
	headerStyle    = StyleChange{Align: AlignCenter, Font: FontA, Width: 2, Height: 2, RevertAfterNextLine: true}
	subheaderStyle = StyleChange{Align: AlignLeft, Font: FontA, Width: 1, Height: 2, RevertAfterNextLine: true}
)

// Render converts content to directives.
//
// Content starting with "QR:" is printed as a single QR code holding the rest
// of the content, newlines included. Anything else is printed line by line:
// "# " lines are headers, "## " lines subheaders and "* " lines bullets.
// Prefixes are matched case-sensitively and without trimming, so " # x" is a
// plain line. The result always starts with a FeedLine and ends with
// FeedLine, Cut.
func Render(content string) []Directive {
	if payload, ok := strings.CutPrefix(content, qrPrefix); ok {
		return []Directive{FeedLine{}, QRCode{Payload: payload, Size: DefaultQRSize}, FeedLine{}, Cut{}}
	}

	lines := strings.Split(content, "\n")
	out := make([]Directive, 0, len(lines)+3)
	out = append(out, FeedLine{})
	for _, line := range lines {
		out = appendLine(out, line)
	}
	return append(out, FeedLine{}, Cut{})
}

func appendLine(out []Directive, line string) []Directive {
	switch {
	case strings.HasPrefix(line, headerPrefix):
		return append(out, headerStyle, TextLine{Text: line[len(headerPrefix):]}, DefaultStyle)
	case strings.HasPrefix(line, subheaderPrefix):
		return append(out, subheaderStyle, TextLine{Text: line[len(subheaderPrefix):]}, DefaultStyle)
	case strings.HasPrefix(line, bulletMarker):
		return append(out, Bullet{Text: line[len(bulletMarker):]})
	default:
		return append(out, TextLine{Text: line})
	}
}
