package excerpt

import (
	"errors"
	"strings"
	"testing"
)

func testEntries() []IndexEntry {
	return []IndexEntry{
		{Text: "In the beginning", Start: "0:00.00"},
		{Text: "factories rose", Start: "0:45.10"},
		{Text: "and cities grew", Start: "1:30.00"},
		{Text: "the end of the era", Start: "2:15.80"},
	}
}

func TestParseSidecar(t *testing.T) {
	data := `[{"text":"hello","start":"0:05.25"},{"text":"world","start":"1:02"}]`
	entries, err := ParseSidecar([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].Text != "hello" || entries[1].Start != "1:02" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestParseSidecar_Invalid(t *testing.T) {
	if _, err := ParseSidecar([]byte(`{"not":"an array"}`)); err == nil {
		t.Error("expected an error for non-array sidecar")
	}
}

func TestExtractVideo_FullTranscript(t *testing.T) {
	got, err := ExtractVideo(testEntries(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "In the beginning\nfactories rose\nand cities grew\nthe end of the era"
	if got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestExtractVideo_FromTo(t *testing.T) {
	// from resolves to the nearest entry at-or-after, to at-or-before.
	got, err := ExtractVideo(testEntries(), "0:30", "2:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "factories rose\nand cities grew" {
		t.Errorf("content = %q", got)
	}
}

func TestExtractVideo_ExactBoundaries(t *testing.T) {
	got, err := ExtractVideo(testEntries(), "0:00", "1:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "In the beginning\nfactories rose\nand cities grew" {
		t.Errorf("content = %q", got)
	}
}

func TestExtractVideo_TimestampNotFound(t *testing.T) {
	_, err := ExtractVideo(testEntries(), "9:00", "")
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(ee.Message, "Timestamp not found: 9:00") {
		t.Errorf("message = %q", ee.Message)
	}
}

func TestExtractVideo_EmptyRange(t *testing.T) {
	_, err := ExtractVideo(testEntries(), "0:50", "1:00")
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(ee.Message, "Empty timestamp range") {
		t.Errorf("message = %q", ee.Message)
	}
}

func TestExtractVideo_InvalidAnchor(t *testing.T) {
	_, err := ExtractVideo(testEntries(), "90", "")
	var ee *Error
	if !errors.As(err, &ee) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(ee.Message, `Invalid timestamp: "90"`) {
		t.Errorf("message = %q", ee.Message)
	}
}

func TestExtractVideo_EmptyIndex(t *testing.T) {
	if _, err := ExtractVideo(nil, "", ""); err == nil {
		t.Error("expected an error for an empty index")
	}
}

func TestParseStamp(t *testing.T) {
	sec, err := parseStamp("12:05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sec != 725 {
		t.Errorf("seconds = %v, want 725", sec)
	}
}

func TestParseStart_Centiseconds(t *testing.T) {
	sec, err := parseStart("1:02.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sec != 62.5 {
		t.Errorf("seconds = %v, want 62.5", sec)
	}
}
