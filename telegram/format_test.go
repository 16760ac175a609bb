package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFormatReply(t *testing.T) {
	got := FormatReply("hello world", "Greeting.")
	want := "*Summary:*\nGreeting.\n\n*Transcription:*\nhello world"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFormatReply_TruncatesLongTranscript(t *testing.T) {
	transcript := strings.Repeat("ü", MaxMessageLength)
	got := FormatReply(transcript, "Short.")

	if n := utf8.RuneCountInString(got); n != MaxMessageLength {
		t.Errorf("expected %d characters, got %d", MaxMessageLength, n)
	}
	if !strings.HasPrefix(got, "*Summary:*\nShort.\n\n*Transcription:*\n") {
		t.Errorf("summary must survive truncation: %q", got[:40])
	}
	if !strings.HasSuffix(got, "…") {
		t.Error("expected truncation mark")
	}
}

func TestFormatReply_TruncatesLongSummary(t *testing.T) {
	got := FormatReply("words", strings.Repeat("s", 2*MaxMessageLength))
	if n := utf8.RuneCountInString(got); n != MaxMessageLength {
		t.Errorf("expected %d characters, got %d", MaxMessageLength, n)
	}
	if !strings.Contains(got, "\n\n*Transcription:*\n") {
		t.Error("transcription header must survive truncation")
	}
}

func TestFormatReply_EscapesMarkdown(t *testing.T) {
	got := FormatReply("call get_user [now]", "* item one\n* `code` *bold")
	want := "*Summary:*\n\\* item one\n\\* \\`code\\` \\*bold\n\n*Transcription:*\ncall get\\_user \\[now]"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	// Only the two header pairs remain as live entities.
	if n := strings.Count(got, "*") - strings.Count(got, "\\*"); n != 4 {
		t.Errorf("expected 4 unescaped asterisks, got %d", n)
	}
}

func TestTruncate_DropsDanglingEscape(t *testing.T) {
	got := truncate("ab\\*cd", 4)
	if got != "ab…" {
		t.Errorf("expected %q, got %q", "ab…", got)
	}
}

func TestTipKeyboard(t *testing.T) {
	kb := TipKeyboard("conv-1")
	if len(kb.InlineKeyboard) != 1 || len(kb.InlineKeyboard[0]) != 1 {
		t.Fatalf("expected a single button, got %+v", kb)
	}
	b := kb.InlineKeyboard[0][0]
	if b.Text != TipButtonText || b.CallbackData != "tip:conv-1" {
		t.Errorf("unexpected button %+v", b)
	}
}

func TestParseTipData(t *testing.T) {
	tests := []struct {
		data   string
		wantID string
		wantOK bool
	}{
		{"tip:conv-1", "conv-1", true},
		{"tip:", "", true},
		{"tip:a:b", "a", true},
		{"vote:conv-1", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		id, ok := ParseTipData(tt.data)
		if id != tt.wantID || ok != tt.wantOK {
			t.Errorf("ParseTipData(%q) = %q, %v; want %q, %v", tt.data, id, ok, tt.wantID, tt.wantOK)
		}
	}
}
