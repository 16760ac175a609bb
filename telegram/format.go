package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const tipPrefix = "tip:"

// TipButtonText labels the reward button.
const TipButtonText = "Add Tip (1$)"

// MaxMessageLength is the Bot API limit on message text, in characters.
const MaxMessageLength = 4096

const truncationMark = "…"

// FormatReply renders the summary and transcript reply for ParseModeMarkdown.
// Both texts are escaped. The summary takes priority and the transcript gets
// the remaining room, so the message fits MaxMessageLength with both headers
// intact.
func FormatReply(transcript, summary string) string {
	budget := MaxMessageLength - utf8.RuneCountInString(formatReply("", ""))
	summary = truncate(EscapeMarkdown(summary), budget)
	transcript = truncate(EscapeMarkdown(transcript), budget-utf8.RuneCountInString(summary))
	return formatReply(transcript, summary)
}

func formatReply(transcript, summary string) string {
	return fmt.Sprintf("*Summary:*\n%s\n\n*Transcription:*\n%s", summary, transcript)
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown escapes the characters that open entities in Telegram's
// legacy Markdown, so model output such as snake_case or "* item" lists is
// sent as typed.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Truncate cuts plain text to MaxMessageLength.
func Truncate(s string) string {
	return truncate(s, MaxMessageLength)
}

// truncate cuts s to at most n runes, marking the cut. A backslash left
// dangling by the cut is dropped.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := r[:n-1]
	if len(cut) > 0 && cut[len(cut)-1] == '\\' {
		cut = cut[:len(cut)-1]
	}
	return string(cut) + truncationMark
}

// TipKeyboard returns a one-button keyboard whose callback carries the
// conversation id.
func TipKeyboard(conversationID string) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: TipButtonText, CallbackData: tipPrefix + conversationID},
	}}}
}

// ParseTipData extracts the conversation id from tip callback data. ok is
// false for data that is not a tip; the id may be empty.
func ParseTipData(data string) (conversationID string, ok bool) {
	if !strings.HasPrefix(data, tipPrefix) {
		return "", false
	}
	rest := strings.TrimPrefix(data, tipPrefix)
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}
