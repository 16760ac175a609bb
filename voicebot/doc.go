// Package voicebot ties the pipeline together.
//
// Processor turns a voice file URL into a transcript, a summary and the
// conversation id the summary belongs to, and forwards tips as rewards. Bot
// maps Telegram updates onto the Processor and reports results, and any
// failure, back to the chat.
package voicebot
