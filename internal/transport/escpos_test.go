package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermal_printer/internal/render"
)

func flushed(t *testing.T, buf *bytes.Buffer, enc *Encoder) []byte {
	t.Helper()
	require.NoError(t, enc.Flush())
	return buf.Bytes()
}

func TestEncoder_Init(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Init())
	out := flushed(t, &buf, enc)
	assert.True(t, bytes.Contains(out, []byte{0x1B, '@', 0x1B, 't', 16}), "got % x", out)
}

func TestEncoder_TextUsesWindows1252(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Text("  • café\n"))
	out := flushed(t, &buf, enc)
	assert.True(t, bytes.Contains(out, []byte{' ', ' ', 0x95, ' ', 'c', 'a', 'f', 0xE9, '\n'}), "got % x", out)
	assert.NotContains(t, string(out), "•")
}

func TestEncoder_TextReplacesUnsupported(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Text("日"))
	out := flushed(t, &buf, enc)
	assert.NotEmpty(t, out)
	assert.NotContains(t, string(out), "日")
}

func TestEncoder_SetStyle(t *testing.T) {
	cases := []struct {
		name   string
		align  render.Align
		font   render.Font
		w, h   int
		errStr string
	}{
		{name: "header", align: render.AlignCenter, font: render.FontA, w: 2, h: 2},
		{name: "subheader", align: render.AlignLeft, font: render.FontA, w: 1, h: 2},
		{name: "default", align: render.AlignLeft, font: render.FontA, w: 1, h: 1},
		{name: "right font b", align: render.AlignRight, font: render.FontB, w: 3, h: 1},
		{name: "bad scale", align: render.AlignLeft, font: render.FontA, w: 0, h: 1, errStr: "out of range"},
		{name: "bad align", align: "justify", font: render.FontA, w: 1, h: 1, errStr: "alignment"},
		{name: "bad font", align: render.AlignLeft, font: "z", w: 1, h: 1, errStr: "font"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := NewEncoder(&buf)
			err := enc.SetStyle(tc.align, tc.font, tc.w, tc.h)
			if tc.errStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errStr)
				assert.Equal(t, KindOther, KindOf(err))
				return
			}
			require.NoError(t, err)
			require.NoError(t, enc.Text("x"))
			assert.Contains(t, string(flushed(t, &buf, enc)), "x")
		})
	}
}

func TestEncoder_QR(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.QR("https://example.com", 8))

	out := flushed(t, &buf, enc)
	assert.True(t, bytes.Contains(out, []byte{0x1D, '(', 'k'}), "QR commands missing: % x", out)
	assert.Contains(t, string(out), "https://example.com")
}

func TestEncoder_QRRejectsBadSize(t *testing.T) {
	enc := NewEncoder(&bytes.Buffer{})
	err := enc.QR("x", 0)
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
}

func TestEncoder_CutSendsBufferedJob(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.Text("done\n"))
	require.NoError(t, enc.Cut())

	out := buf.Bytes()
	assert.Contains(t, string(out), "done\n")
	assert.True(t, bytes.Contains(out, []byte{0x1D, 'V'}), "cut command missing: % x", out)
}

type failingWriter struct{ err error }

func (f failingWriter) Write([]byte) (int, error) { return 0, f.err }

func TestEncoder_WriteErrorsAreClassified(t *testing.T) {
	enc := NewEncoder(failingWriter{err: errors.New("broken pipe")})
	require.NoError(t, enc.Text("queued"))

	err := enc.Cut()
	require.Error(t, err)
	var te *Error
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "cut", te.Op)
}

func TestParseStatus(t *testing.T) {
	online, err := parseStatus(0x12)
	require.NoError(t, err)
	assert.True(t, online)

	online, err = parseStatus(0x1A)
	require.NoError(t, err)
	assert.False(t, online)

	_, err = parseStatus(0xFF)
	require.Error(t, err)
	assert.Equal(t, KindProtocol, KindOf(err))
}
