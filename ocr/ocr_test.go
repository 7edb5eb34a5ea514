package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func pageImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			c := color.RGBA{R: 230, G: 230, B: 230, A: 255}
			if y > 5 && y < 10 {
				c = color.RGBA{R: 10, G: 10, B: 10, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// recordingEngine answers with scripted results and keeps its inputs.
type recordingEngine struct {
	inputs  [][]byte
	results []string
	errs    []error
}

func (e *recordingEngine) Recognize(_ context.Context, img []byte) (string, error) {
	i := len(e.inputs)
	e.inputs = append(e.inputs, img)
	var err error
	if i < len(e.errs) {
		err = e.errs[i]
	}
	var text string
	if i < len(e.results) {
		text = e.results[i]
	}
	return text, err
}

func TestRecognize_PreprocessedFirst(t *testing.T) {
	// WHAT: The engine first sees the binarized PNG.
	// WHY: Binarization improves recognition on scans.
	eng := &recordingEngine{results: []string{"  Lease Agreement \n"}}
	r := NewRecognizer(eng, nil)
	raw := pageImage(t)

	res := r.Recognize(context.Background(), raw)
	if res.Text != "Lease Agreement" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Tier != TierPreprocessed {
		t.Errorf("tier = %q", res.Tier)
	}
	if len(eng.inputs) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(eng.inputs))
	}
	if !bytes.HasPrefix(eng.inputs[0], pngMagic) {
		t.Error("preprocessed input is not PNG")
	}
	if bytes.Equal(eng.inputs[0], raw) {
		t.Error("engine received the raw image on the first tier")
	}
}

func TestRecognize_RawRetryAfterError(t *testing.T) {
	// WHAT: When recognition on the binarized image fails, the raw image is tried.
	// WHY: Aggressive binarization can destroy clean images.
	eng := &recordingEngine{
		results: []string{"", "raw text"},
		errs:    []error{errors.New("engine crashed")},
	}
	r := NewRecognizer(eng, nil)
	raw := pageImage(t)

	res := r.Recognize(context.Background(), raw)
	if res.Text != "raw text" || res.Tier != TierRaw {
		t.Fatalf("got %q from %q", res.Text, res.Tier)
	}
	if !bytes.Equal(eng.inputs[1], raw) {
		t.Error("second tier should receive the original bytes")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "engine crashed") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestRecognize_UndecodableGoesStraightToRaw(t *testing.T) {
	// WHAT: Bytes the preprocessor cannot decode are passed unchanged to the engine.
	// WHY: The engine may support formats Go cannot decode.
	eng := &recordingEngine{results: []string{"from engine"}}
	r := NewRecognizer(eng, nil)

	res := r.Recognize(context.Background(), []byte("JXL exotic payload"))
	if res.Text != "from engine" {
		t.Fatalf("text = %q", res.Text)
	}
	if len(eng.inputs) != 1 {
		t.Fatalf("engine calls = %d, want 1", len(eng.inputs))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], TierPreprocessed) {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestRecognize_BothFail(t *testing.T) {
	eng := &recordingEngine{errs: []error{errors.New("a"), errors.New("b")}}
	r := NewRecognizer(eng, nil)

	res := r.Recognize(context.Background(), pageImage(t))
	if res.Text != "" {
		t.Fatalf("text = %q, want empty", res.Text)
	}
	if res.Tier != "" {
		t.Errorf("tier = %q, want empty", res.Tier)
	}
	if len(res.Warnings) != 2 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	if !res.Failed {
		t.Error("Failed should be set when every tier errored")
	}
}

func TestRecognize_NothingRecognized(t *testing.T) {
	// WHAT: Empty output on both tiers is not a warning, just empty text.
	// WHY: A blank page is "nothing to extract", not a tooling error.
	eng := &recordingEngine{results: []string{" ", "\n"}}
	r := NewRecognizer(eng, nil)

	res := r.Recognize(context.Background(), pageImage(t))
	if res.Text != "" || len(res.Warnings) != 0 || res.Failed {
		t.Fatalf("res = %+v", res)
	}
	if len(eng.inputs) != 2 {
		t.Errorf("engine calls = %d, want 2", len(eng.inputs))
	}
}

func TestEngineFunc(t *testing.T) {
	var e Engine = EngineFunc(func(context.Context, []byte) (string, error) { return "x", nil })
	got, err := e.Recognize(context.Background(), nil)
	if err != nil || got != "x" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestCLIEngine_Args(t *testing.T) {
	e := &CLIEngine{Language: "fra"}
	got := strings.Join(e.args(), " ")
	if got != "stdin stdout -l fra --psm 6" {
		t.Fatalf("args = %q", got)
	}
	if (&CLIEngine{}).binary() != "tesseract" {
		t.Error("default binary should be tesseract")
	}
}

func TestCLIEngine_MissingBinary(t *testing.T) {
	e := &CLIEngine{Binary: "/nonexistent/tesseract-binary"}
	if e.Available() {
		t.Fatal("Available should be false")
	}
	if _, err := e.Recognize(context.Background(), pageImage(t)); err == nil {
		t.Fatal("expected error")
	}
}
