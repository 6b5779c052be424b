package automation_test

import (
	"testing"
	"unicode/utf16"

	"github.com/feather-lang/automation"
)

func TestNewTranscoder(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"utf-8", "utf-8"},
		{"UTF8", "utf-8"},
		{"windows-1252", "windows-1252"},
		{"shift_jis", "shift_jis"},
	}
	for _, tt := range tests {
		tr, err := automation.NewTranscoder(tt.in)
		if err != nil {
			t.Errorf("NewTranscoder(%q) error = %v", tt.in, err)
			continue
		}
		if tr.CodePage() != tt.want {
			t.Errorf("NewTranscoder(%q).CodePage() = %q; want %q", tt.in, tr.CodePage(), tt.want)
		}
	}

	if _, err := automation.NewTranscoder("klingon"); err == nil {
		t.Error("expected error for an unknown code page")
	}
	if _, err := automation.NewTranscoder(""); err != nil {
		t.Errorf("NewTranscoder(\"\") error = %v", err)
	}
}

func TestProviderString(t *testing.T) {
	tests := []struct {
		name     string
		codePage string
		in       string
		want     string
	}{
		{"UTF8Lossless", "utf-8", "naïve 日本 😀", "naïve 日本 😀"},
		{"Latin1Representable", "windows-1252", "café €5", "café €5"},
		{"Latin1Lossy", "windows-1252", "日本!", "??!"},
		{"ShiftJIS", "shift_jis", "日本", "日本"},
		{"Empty", "windows-1252", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := automation.NewTranscoder(tt.codePage)
			if err != nil {
				t.Fatalf("NewTranscoder failed: %v", err)
			}
			w, err := tr.ProviderString(tt.in)
			if err != nil {
				t.Fatalf("ProviderString failed: %v", err)
			}
			if got := string(utf16.Decode(w)); got != tt.want {
				t.Errorf("ProviderString(%q) = %q; want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestWideRoundTrip(t *testing.T) {
	tr, err := automation.NewTranscoder("utf-8")
	if err != nil {
		t.Fatal(err)
	}
	in := "Grüße 😀"
	w, err := tr.ToWide(in)
	if err != nil {
		t.Fatalf("ToWide failed: %v", err)
	}
	// U+1F600 is a surrogate pair
	if len(w) != 8 {
		t.Errorf("len(ToWide()) = %d; want 8", len(w))
	}
	out, err := tr.FromWide(w)
	if err != nil || out != in {
		t.Errorf("FromWide() = %q, %v; want %q", out, err, in)
	}
}

func TestMultiByte(t *testing.T) {
	tr, err := automation.NewTranscoder("windows-1252")
	if err != nil {
		t.Fatal(err)
	}
	mb, err := tr.ToMultiByte(utf16.Encode([]rune("é€")))
	if err != nil {
		t.Fatalf("ToMultiByte failed: %v", err)
	}
	if string(mb) != "\xe9\x80" {
		t.Errorf("ToMultiByte() = %x; want e980", mb)
	}
	w, err := tr.FromMultiByte(mb)
	if err != nil {
		t.Fatalf("FromMultiByte failed: %v", err)
	}
	if got := string(utf16.Decode(w)); got != "é€" {
		t.Errorf("FromMultiByte() = %q; want \"é€\"", got)
	}
}
