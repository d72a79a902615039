package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/docportal/internal/extract/extracttest"
)

func newTestCompareIngestor(t *testing.T) *CompareIngestor {
	t.Helper()
	ci, err := NewCompareIngestor(t.TempDir(), "", testLogger())
	if err != nil {
		t.Fatalf("NewCompareIngestor: %v", err)
	}
	return ci
}

func TestNewCompareIngestorRejectsHostileSessionID(t *testing.T) {
	_, err := NewCompareIngestor(t.TempDir(), "../outside", testLogger())
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSavePairRejectsNonPDFName(t *testing.T) {
	ci := newTestCompareIngestor(t)
	_, _, err := ci.SavePair(
		NewBytesUpload("ref.txt", extracttest.MakePDF([]string{"a"})),
		NewBytesUpload("actual.pdf", extracttest.MakePDF([]string{"b"})),
		50,
	)
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if files := sessionFiles(t, ci.Session().Path()); len(files) != 0 {
		t.Fatalf("rejected pair left files behind: %v", files)
	}
}

func TestSavePairRejectsIdenticalNames(t *testing.T) {
	ci := newTestCompareIngestor(t)
	_, _, err := ci.SavePair(
		NewBytesUpload("ref.pdf", extracttest.MakePDF([]string{"a"})),
		NewBytesUpload("ref.pdf", extracttest.MakePDF([]string{"b"})),
		50,
	)
	if !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if files := sessionFiles(t, ci.Session().Path()); len(files) != 0 {
		t.Fatalf("rejected pair left files behind: %v", files)
	}
}

func TestSavePairStoresBothDocuments(t *testing.T) {
	ci := newTestCompareIngestor(t)
	refPath, actualPath, err := ci.SavePair(
		NewBytesUpload("ref.pdf", extracttest.MakePDF([]string{"reference content"})),
		NewBytesUpload("actual.pdf", extracttest.MakePDF([]string{"actual content"})),
		50,
	)
	if err != nil {
		t.Fatalf("SavePair: %v", err)
	}
	for _, p := range []string{refPath, actualPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("saved document missing: %v", err)
		}
	}
	if filepath.Base(refPath) != "ref.pdf" || filepath.Base(actualPath) != "actual.pdf" {
		t.Fatalf("pair documents not stored under their original names: %s, %s", refPath, actualPath)
	}
}

func TestReadPDFValidationFailures(t *testing.T) {
	ci := newTestCompareIngestor(t)

	if _, err := ci.ReadPDF(filepath.Join(ci.Session().Path(), "missing.pdf")); !IsKind(err, KindValidation) {
		t.Fatalf("missing path: expected validation error, got %v", err)
	}
	if _, err := ci.ReadPDF(ci.Session().Path()); !IsKind(err, KindValidation) {
		t.Fatalf("directory path: expected validation error, got %v", err)
	}
}

func TestReadPDFSkipsBlankPages(t *testing.T) {
	ci := newTestCompareIngestor(t)
	path := filepath.Join(ci.Session().Path(), "doc.pdf")
	if err := extracttest.WritePDF(path, []string{"first page", "   ", "third page"}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	text, err := ci.ReadPDF(path)
	if err != nil {
		t.Fatalf("ReadPDF: %v", err)
	}
	if !strings.Contains(text, "--- Page 1 ---") || !strings.Contains(text, "--- Page 3 ---") {
		t.Fatalf("non-blank pages missing:\n%s", text)
	}
	if strings.Contains(text, "--- Page 2 ---") {
		t.Fatalf("whitespace-only page should be skipped:\n%s", text)
	}
}

func TestCombineEmptySession(t *testing.T) {
	ci := newTestCompareIngestor(t)
	text, err := ci.Combine()
	if err != nil {
		t.Fatalf("Combine on empty session must not fail: %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty corpus, got %q", text)
	}
}

func TestCombineOrdersByFilename(t *testing.T) {
	ci := newTestCompareIngestor(t)
	dir := ci.Session().Path()
	if err := extracttest.WritePDF(filepath.Join(dir, "b.pdf"), []string{"bravo text"}); err != nil {
		t.Fatal(err)
	}
	if err := extracttest.WritePDF(filepath.Join(dir, "a.pdf"), []string{"alpha text"}); err != nil {
		t.Fatal(err)
	}

	text, err := ci.Combine()
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	ai := strings.Index(text, "Document: a.pdf")
	bi := strings.Index(text, "Document: b.pdf")
	if ai < 0 || bi < 0 || bi < ai {
		t.Fatalf("documents missing or out of filename order:\n%s", text)
	}
}

func TestCombineToleratesOneCorruptDocument(t *testing.T) {
	ci := newTestCompareIngestor(t)
	dir := ci.Session().Path()
	if err := extracttest.WritePDF(filepath.Join(dir, "a.pdf"), []string{"alpha text"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF-1.4 this is not really a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := extracttest.WritePDF(filepath.Join(dir, "c.pdf"), []string{"charlie text"}); err != nil {
		t.Fatal(err)
	}

	text, err := ci.Combine()
	if err != nil {
		t.Fatalf("Combine with one corrupt document must not fail: %v", err)
	}
	if !strings.Contains(text, "Document: a.pdf") || !strings.Contains(text, "Document: c.pdf") {
		t.Fatalf("healthy documents missing from corpus:\n%s", text)
	}
	if strings.Contains(text, "Document: b.pdf") {
		t.Fatalf("corrupt document should have been skipped:\n%s", text)
	}
}

func TestCombineFailsWhenAllDocumentsFail(t *testing.T) {
	ci := newTestCompareIngestor(t)
	dir := ci.Session().Path()
	for _, name := range []string{"a.pdf", "b.pdf"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 garbage"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	_, err := ci.Combine()
	if !IsKind(err, KindPartialBatch) {
		t.Fatalf("expected partial batch error, got %v", err)
	}
}
