package textproducer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestTesseract_Supports(t *testing.T) {
	p := &Tesseract{}
	cases := []struct {
		mime string
		want bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"IMAGE/PNG", true},
		{"image/png; charset=binary", true},
		{"application/pdf", false},
		{"text/plain", false},
		{"", false},
	}
	for _, c := range cases {
		if got := p.Supports(c.mime); got != c.want {
			t.Errorf("Supports(%q) = %v, want %v", c.mime, got, c.want)
		}
	}
}

func TestPDFText_Supports(t *testing.T) {
	p := &PDFText{}
	if !p.Supports("application/pdf") {
		t.Error("Supports(application/pdf) = false, want true")
	}
	if !p.Supports("application/pdf; charset=binary") {
		t.Error("Supports with parameters = false, want true")
	}
	if p.Supports("image/png") {
		t.Error("Supports(image/png) = true, want false")
	}
}

func TestProduce_MissingFileWrapsErrProducer(t *testing.T) {
	producers := []Producer{&Tesseract{}, &PDFText{}}
	for _, p := range producers {
		_, err := p.Produce(context.Background(), "/non/existent/file")
		if err == nil {
			t.Fatalf("%T.Produce() on missing file returned nil error", p)
		}
		if !errors.Is(err, ErrProducer) {
			t.Errorf("%T.Produce() error = %v, want it to wrap ErrProducer", p, err)
		}
	}
}

func TestProduce_FailingBinaryWrapsErrProducer(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell stub")
	}
	dir := t.TempDir()

	stub := filepath.Join(dir, "failing-tool")
	script := "#!/bin/sh\necho boom >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4"), 0644); err != nil {
		t.Fatal(err)
	}

	p := &PDFText{Bin: stub}
	_, err := p.Produce(context.Background(), input)
	if !errors.Is(err, ErrProducer) {
		t.Errorf("Produce() error = %v, want it to wrap ErrProducer", err)
	}
}

func TestProduce_ReadsToolStdout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell stub")
	}
	dir := t.TempDir()

	stub := filepath.Join(dir, "fake-ocr")
	script := "#!/bin/sh\nprintf 'Total: 12.34\\n'\n"
	if err := os.WriteFile(stub, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "receipt.png")
	if err := os.WriteFile(input, []byte{0x89, 'P', 'N', 'G'}, 0644); err != nil {
		t.Fatal(err)
	}

	p := &Tesseract{Bin: stub}
	text, err := p.Produce(context.Background(), input)
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	if text != "Total: 12.34\n" {
		t.Errorf("Produce() = %q, want stub stdout", text)
	}
}

func TestRegistry_ForMIME(t *testing.T) {
	reg := NewRegistry(&Tesseract{}, &PDFText{})

	p, err := reg.ForMIME("application/pdf")
	if err != nil {
		t.Fatalf("ForMIME(application/pdf) error = %v", err)
	}
	if _, ok := p.(*PDFText); !ok {
		t.Errorf("ForMIME(application/pdf) = %T, want *PDFText", p)
	}

	if _, err := reg.ForMIME("text/csv"); !errors.Is(err, ErrProducer) {
		t.Errorf("ForMIME(text/csv) error = %v, want it to wrap ErrProducer", err)
	}
}
