package docpipe

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in   string
		want MediaType
	}{
		{"application/pdf", MediaPDF},
		{"APPLICATION/PDF", MediaPDF},
		{MIMEDocx, MediaDocx},
		{"text/plain; charset=utf-8", MediaText},
		{"image/jpeg", MediaImage},
		{"image/jpg", MediaImage},
		{"image/png", MediaImage},
		{"pdf", MediaPDF},
		{"plain-text", MediaText},
		{"application/zip", MediaType("application/zip")},
		{"  text/html ", MediaType("text/html")},
	}
	for _, tt := range tests {
		if got := ParseMediaType(tt.in); got != tt.want {
			t.Errorf("ParseMediaType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if ParseMediaType("application/zip").Supported() {
		t.Error("application/zip must not be supported")
	}
}

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name string
		want MediaType
	}{
		{"contract.pdf", MediaPDF},
		{"CONTRACT.PDF", MediaPDF},
		{"memo.docx", MediaDocx},
		{"notes.txt", MediaText},
		{"notes.text", MediaText},
		{"scan.jpg", MediaImage},
		{"scan.jpeg", MediaImage},
		{"scan.png", MediaImage},
	}
	for _, tt := range tests {
		got, err := DetectMediaType(tt.name)
		if err != nil {
			t.Errorf("DetectMediaType(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DetectMediaType(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
	for _, bad := range []string{"archive.zip", "page.html", "doc.odt", "noext"} {
		if _, err := DetectMediaType(bad); err == nil {
			t.Errorf("DetectMediaType(%q): expected error", bad)
		}
	}
}

// --- plain text ---

func TestExtract_PlainTextRoundTrip(t *testing.T) {
	// WHAT: "Hello world" declared as plain text comes back unchanged and unannotated.
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaText, Data: []byte("Hello world")})

	if res.Text != "Hello world" {
		t.Fatalf("text = %q", res.Text)
	}
	if !res.OK() || res.Tier != TierUTF8 {
		t.Errorf("ok = %v, tier = %q", res.OK(), res.Tier)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExtract_PlainTextTrimmedAndBOM(t *testing.T) {
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaText, Data: []byte("\uFEFF\n  line one\nline two \n\n")})
	if res.Text != "line one\nline two" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtract_PlainTextInvalidUTF8(t *testing.T) {
	// WHAT: bytes that are not UTF-8 are a decode failure, not mojibake.
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaText, Data: []byte("caf\xe9 au lait")})

	if res.Text != "" || res.Failure == nil || res.Failure.Kind != FailureDecode {
		t.Fatalf("res = %+v", res)
	}
	if !containsWarning(res, "invalid utf-8 at byte 3") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExtract_WhitespaceOnlyIsNoText(t *testing.T) {
	// WHAT: parsing worked but nothing was recovered.
	// WHY: callers must be able to tell "empty document" from "broken tooling".
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaText, Data: []byte(" \n\t ")})

	if res.Failure == nil || res.Failure.Kind != FailureNoText {
		t.Fatalf("failure = %+v", res.Failure)
	}
	if res.Text != "" {
		t.Errorf("text = %q", res.Text)
	}
}

// --- dispatch guards ---

func TestExtract_UnsupportedMediaType(t *testing.T) {
	// WHAT: application/zip yields empty text and a warning naming the type.
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{
		MediaType: ParseMediaType("application/zip"),
		Data:      []byte("PK\x03\x04"),
	})

	if res.Text != "" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Failure == nil || res.Failure.Kind != FailureUnsupported {
		t.Fatalf("failure = %+v", res.Failure)
	}
	if !containsWarning(res, `"application/zip"`) {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExtract_TooLarge(t *testing.T) {
	engine := &countingEngine{text: "never"}
	pipe := New(Config{MaxFileSize: 8, OCR: engine})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaImage, Data: testPNG()})

	if res.Failure == nil || res.Failure.Kind != FailureTooLarge {
		t.Fatalf("failure = %+v", res.Failure)
	}
	if engine.Calls() != 0 {
		t.Errorf("ocr ran on an oversized document")
	}
}

func TestExtract_CanceledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pipe := New(Config{})
	res := pipe.Extract(ctx, SourceDocument{MediaType: MediaText, Data: []byte("Hello world")})

	if res.Failure == nil || res.Failure.Kind != FailureCanceled {
		t.Fatalf("failure = %+v", res.Failure)
	}
	if res.Text != "" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestExtract_NeverPanicsOnGarbage(t *testing.T) {
	// WHAT: every media type survives random bytes with an empty result and a reason.
	// WHY: extraction is best-effort; one bad upload must not crash the caller.
	garbage := []byte("\x00\x01\x02garbage\xff\xfe")
	engine := &countingEngine{err: errors.New("cannot read image")}
	pipe := New(Config{OCR: engine})

	for _, mt := range append(MediaTypes(), MediaType("application/zip"), MediaType("")) {
		res := pipe.Extract(context.Background(), SourceDocument{MediaType: mt, Data: garbage})
		if res == nil {
			t.Fatalf("%q: nil result", mt)
		}
		if res.Text != "" {
			t.Errorf("%q: text = %q", mt, res.Text)
		}
		if res.Failure == nil || len(res.Warnings) == 0 {
			t.Errorf("%q: failure = %+v, warnings = %v", mt, res.Failure, res.Warnings)
		}
	}
}

func TestExtract_ConcurrentCalls(t *testing.T) {
	// WHAT: one Pipeline serves concurrent extractions with independent results.
	pipe := New(Config{})
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := strings.Repeat("word ", i+1)
			res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaText, Data: []byte(want)})
			if res.Text != strings.TrimSpace(want) {
				t.Errorf("call %d: text = %q", i, res.Text)
			}
		}(i)
	}
	wg.Wait()
}

// --- observer ---

type recordingObserver struct {
	mu     sync.Mutex
	events []ExtractionEvent
}

func (o *recordingObserver) ObserveExtraction(_ context.Context, ev ExtractionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, ev)
}

func TestExtract_ObserverEvent(t *testing.T) {
	obs := &recordingObserver{}
	pipe := New(Config{Observer: obs})
	data := []byte("Hello world")

	pipe.Extract(context.Background(), SourceDocument{Name: "hello.txt", MediaType: MediaText, Data: data})
	pipe.Extract(context.Background(), SourceDocument{Name: "x.zip", MediaType: "application/zip", Data: data})

	if len(obs.events) != 2 {
		t.Fatalf("events = %d, want 2", len(obs.events))
	}
	sum := sha256.Sum256(data)
	ok := obs.events[0]
	if ok.Name != "hello.txt" || ok.Size != len(data) || ok.Chars != 11 || ok.Tier != TierUTF8 || ok.Failure != "" {
		t.Errorf("success event = %+v", ok)
	}
	if ok.SHA256 != hex.EncodeToString(sum[:]) {
		t.Errorf("sha256 = %s", ok.SHA256)
	}
	if bad := obs.events[1]; bad.Failure != FailureUnsupported || bad.Warnings != 1 {
		t.Errorf("failure event = %+v", bad)
	}
}

// --- docx ---

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("[Content_Types].xml")
	if err != nil {
		t.Fatal(err)
	}
	f.Write([]byte(`<?xml version="1.0"?><Types/>`))
	if documentXML != "" {
		f, err = w.Create(docxMainPart)
		if err != nil {
			t.Fatal(err)
		}
		f.Write([]byte(documentXML))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const docxNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

func TestExtract_Docx(t *testing.T) {
	// WHAT: each body paragraph followed by a newline; runs joined; tab and break kept.
	xml := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document ` + docxNS + `><w:body>
<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t>Service</w:t></w:r><w:r><w:t xml:space="preserve"> Agreement</w:t></w:r></w:p>
<w:p/>
<w:p><w:r><w:t>Term:</w:t><w:tab/><w:t>12 months</w:t></w:r></w:p>
<w:p><w:hyperlink><w:r><w:t>linked</w:t></w:r></w:hyperlink><w:r><w:br/><w:t>next line</w:t></w:r></w:p>
<w:p><w:r><w:rPr><w:b/></w:rPr><w:t>Signed &amp; dated</w:t></w:r></w:p>
<w:sectPr/>
</w:body></w:document>`

	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaDocx, Data: buildDocx(t, xml)})

	want := "Service Agreement\n\nTerm:\t12 months\nlinked\nnext line\nSigned & dated"
	if res.Text != want {
		t.Fatalf("text:\n got %q\nwant %q", res.Text, want)
	}
	if strings.Contains(res.Text, "--- Page") {
		t.Error("docx output must be unannotated")
	}
	if res.Tier != TierDocx {
		t.Errorf("tier = %q", res.Tier)
	}
}

func TestExtract_DocxMalformed(t *testing.T) {
	// WHAT: broken DOCX input is an empty result with a decode failure, never a crash.
	tests := []struct {
		name string
		data []byte
	}{
		{"not a zip", []byte("definitely not a zip archive")},
		{"missing document.xml", buildDocx(t, "")},
		{"broken xml", buildDocx(t, `<w:document `+docxNS+`><w:body><w:p>`)},
		{"no body", buildDocx(t, `<w:document `+docxNS+`/>`)},
	}
	pipe := New(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaDocx, Data: tt.data})
			if res.Text != "" {
				t.Errorf("text = %q", res.Text)
			}
			if res.Failure == nil || res.Failure.Kind != FailureDecode {
				t.Errorf("failure = %+v", res.Failure)
			}
		})
	}
}

// --- image ---

func TestExtract_ImageOCR(t *testing.T) {
	engine := &countingEngine{text: "Invoice 42\nTotal due"}
	pipe := New(Config{OCR: engine})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaImage, Data: testPNG()})

	if res.Text != "Invoice 42\nTotal due" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Tier != "ocr/binarized" {
		t.Errorf("tier = %q", res.Tier)
	}
	if engine.Calls() != 1 {
		t.Errorf("ocr calls = %d", engine.Calls())
	}
}

func TestExtract_ImageNothingRecognized(t *testing.T) {
	pipe := New(Config{OCR: &countingEngine{}})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaImage, Data: testPNG()})

	if res.Failure == nil || res.Failure.Kind != FailureNoText {
		t.Fatalf("failure = %+v", res.Failure)
	}
}

func TestExtract_ImageEngineErrors(t *testing.T) {
	// WHAT: both OCR tiers erroring is "tooling failed", distinct from "no text".
	pipe := New(Config{OCR: &countingEngine{err: errors.New("tesseract missing")}})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaImage, Data: testPNG()})

	if res.Failure == nil || res.Failure.Kind != FailureDecode {
		t.Fatalf("failure = %+v", res.Failure)
	}
	if !containsWarning(res, "ocr raw: tesseract missing") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestExtract_ImageWithoutEngine(t *testing.T) {
	pipe := New(Config{})
	res := pipe.Extract(context.Background(), SourceDocument{MediaType: MediaImage, Data: testPNG()})

	if res.Failure == nil || res.Failure.Kind != FailureUnavailable {
		t.Fatalf("failure = %+v", res.Failure)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := New(Config{}).Config()
	if cfg.MaxFileSize != 100*1024*1024 || cfg.RenderScale != 2 || cfg.ScannedPageThreshold != 50 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.RenderDPI() != 144 {
		t.Errorf("dpi = %v", cfg.RenderDPI())
	}
	if cfg.Logger == nil {
		t.Error("nil logger")
	}
}
