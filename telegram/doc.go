// Package telegram is a small Telegram Bot API client: the update types the
// webhook receives, the calls the bot makes (getFile, sendMessage,
// setWebhook) and the reply formatting helpers.
package telegram
