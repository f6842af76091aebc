package extract

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-backend/constants"
	"credit-backend/internal/common"
)

// stubRunner replays canned tesseract output without spawning a process.
type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error
	calls  int
}

func (s *stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, []byte, error) {
	s.calls++
	return s.stdout, s.stderr, s.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestExtract_UnsupportedContentType(t *testing.T) {
	run := &stubRunner{}
	e := NewExtractor(Config{}, nil)
	e.runner = run

	_, err := e.Extract(context.Background(), "doc.gif", "image/gif", []byte("GIF89a"))
	assert.ErrorIs(t, err, common.ErrUnsupportedType)
	assert.Zero(t, run.calls, "unsupported files must never be attempted")
}

func TestExtract_ImageDecodeError(t *testing.T) {
	run := &stubRunner{}
	e := NewExtractor(Config{}, nil)
	e.runner = run

	_, err := e.Extract(context.Background(), "photo.png", "image/png", []byte("not a png"))
	assert.ErrorIs(t, err, common.ErrDecode)
	assert.Zero(t, run.calls, "corrupt images must fail before OCR")
}

func TestExtract_ImageCollapsesOCRLines(t *testing.T) {
	run := &stubRunner{stdout: []byte("BANK STATEMENT\nDate: 2025-06-01\n\nBalance:  1,204.55\n")}
	e := NewExtractor(Config{}, nil)
	e.runner = run

	res, err := e.Extract(context.Background(), "stmt.png", "image/png; charset=binary", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "BANK STATEMENT Date: 2025-06-01 Balance: 1,204.55", res.Text)
	assert.Equal(t, constants.IMAGE, res.SourceType)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, run.calls)
}

func TestExtract_TesseractFailure(t *testing.T) {
	run := &stubRunner{stderr: []byte("Error opening data file"), err: errors.New("exit status 1")}
	e := NewExtractor(Config{}, nil)
	e.runner = run

	_, err := e.Extract(context.Background(), "stmt.jpg", "image/jpeg", pngBytes(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract")
}

func TestExtract_PDFParseError(t *testing.T) {
	e := NewExtractor(Config{}, nil)

	_, err := e.Extract(context.Background(), "stmt.pdf", "application/pdf", []byte("definitely not a pdf"))
	assert.ErrorIs(t, err, common.ErrPDFParse)
}

func TestCollapseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single line", "hello world", "hello world"},
		{"newlines", "a\nb\r\nc", "a b c"},
		{"runs of blanks", "a \n\n  b\t\tc ", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CollapseLines(tt.in))
		})
	}
}
