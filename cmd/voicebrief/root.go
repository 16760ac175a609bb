package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/voicebrief/app"
	"github.com/kbukum/voicebrief/config"
	"github.com/kbukum/voicebrief/logger"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "voicebrief",
		Short: "Telegram bot that transcribes and summarizes voice messages",
		Long: `voicebrief receives Telegram voice messages through a webhook, transcribes
them with AWS Transcribe and replies with a summary and the transcript.

Configuration is read from cmd/voicebrief/config.yml or ./config.yml, an
optional .env file and the environment (TELEGRAM_BOT_TOKEN sets
telegram.bot_token).`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to config.yml")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "path to a .env file")

	cmd.AddCommand(
		newServeCmd(opts),
		newTranscribeCmd(opts),
		newTipCmd(opts),
		newSetWebhookCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads, defaults and validates the configuration and builds the
// service logger from it.
func (o *rootOptions) load() (*app.Config, *logger.Logger, error) {
	var loaderOpts []config.LoaderOption
	if o.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(o.envFile))
	}

	cfg := &app.Config{}
	if err := config.LoadConfig(app.ServiceName, cfg, loaderOpts...); err != nil {
		return nil, nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(&cfg.Logging, cfg.Name), nil
}
