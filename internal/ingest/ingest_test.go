package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// buildPDF assembles a minimal but structurally valid PDF with the given
// number of pages, computing real xref offsets.
func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	buf.WriteString("%PDF-1.4\n")

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	kids := make([]string, 0, pages)
	for i := 0; i < pages; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", 3+i))
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)

	return buf.Bytes()
}

func TestPageCount(t *testing.T) {
	for _, pages := range []int{1, 2, 7} {
		got, err := PageCount(buildPDF(t, pages))
		if err != nil {
			t.Fatalf("PageCount(%d pages) failed: %v", pages, err)
		}
		if got != pages {
			t.Fatalf("PageCount = %d, want %d", got, pages)
		}
	}
}

func TestPageCountRejectsGarbage(t *testing.T) {
	if _, err := PageCount([]byte("not a pdf at all")); err == nil {
		t.Fatal("PageCount accepted garbage input")
	}
}

func TestPageCountRejectsZeroPages(t *testing.T) {
	if _, err := PageCount(buildPDF(t, 0)); err == nil {
		t.Fatal("PageCount accepted a document with no pages")
	}
}

func TestInspectAcceptsAllowedTypes(t *testing.T) {
	svc := NewService(0)
	doc := buildPDF(t, 2)

	for _, ct := range []string{"application/pdf", "application/x-pdf", "binary/octet-stream"} {
		pages, err := svc.Inspect(ct, doc)
		if err != nil {
			t.Fatalf("Inspect(%s) failed: %v", ct, err)
		}
		if pages != 2 {
			t.Fatalf("Inspect(%s) = %d pages, want 2", ct, pages)
		}
	}
}

func TestInspectRejectsUnsupportedType(t *testing.T) {
	svc := NewService(0)

	if _, err := svc.Inspect("text/plain", buildPDF(t, 1)); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Inspect err = %v, want ErrUnsupportedType", err)
	}
}

func TestInspectRejectsEmptyFile(t *testing.T) {
	svc := NewService(0)

	if _, err := svc.Inspect("application/pdf", nil); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("Inspect err = %v, want ErrEmptyFile", err)
	}
}

func TestInspectRejectsOversizedFile(t *testing.T) {
	svc := NewService(16)

	if _, err := svc.Inspect("application/pdf", make([]byte, 17)); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Inspect err = %v, want ErrFileTooLarge", err)
	}
}
