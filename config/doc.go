// Package config loads service configuration from a YAML file, an optional
// .env file and the process environment using viper and godotenv.
//
// Environment variables override file values. An upper-case variable is bound
// to every nested key it could name, so TELEGRAM_BOT_TOKEN fills
// telegram.bot_token:
//
//	var cfg app.Config
//	if err := config.LoadConfig("voicebrief", &cfg); err != nil { ... }
package config
