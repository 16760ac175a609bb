package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/voicebrief/app"
	apperrors "github.com/kbukum/voicebrief/errors"
	"github.com/kbukum/voicebrief/telegram"
	"github.com/kbukum/voicebrief/version"
	"github.com/kbukum/voicebrief/voicebot"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			return a.Run(ctx)
		},
	}
}

func newTranscribeCmd(opts *rootOptions) *cobra.Command {
	var noSummary bool
	cmd := &cobra.Command{
		Use:   "transcribe <file-url>",
		Short: "Transcribe (and summarize) one audio file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tel, err := app.NewTelemetry(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer tel.Shutdown(context.WithoutCancel(ctx))

			out := cmd.OutOrStdout()
			if noSummary {
				t, err := app.NewTranscriber(ctx, cfg, log, tel.Metrics)
				if err != nil {
					return err
				}
				text, err := t.Transcribe(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, text)
				return nil
			}

			p, err := app.NewProcessor(ctx, cfg, log, tel.Metrics)
			if err != nil {
				return err
			}
			res, err := p.Process(ctx, args[0])
			if err != nil {
				return err
			}
			summary := res.Summary
			if !res.SummaryReady {
				summary = voicebot.NoSummary
			}
			fmt.Fprintf(out, "Summary:\n%s\n\nTranscription:\n%s\n", summary, res.Transcript)
			if res.ConversationID != "" {
				fmt.Fprintf(out, "\nConversation: %s\n", res.ConversationID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSummary, "no-summary", false, "only transcribe")
	return cmd
}

func newTipCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tip <conversation-id> [amount]",
		Short: "Report a reward for a summary",
		Long: `Report a reward for the summary identified by conversation-id. Rewards are
not deduplicated: running this twice reports twice.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args)
			if err != nil {
				return err
			}
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			if amount == 0 {
				amount = cfg.Bot.TipAmount
			}
			s, err := app.NewSummarizer(cfg.Summarizer, log, nil)
			if err != nil {
				return err
			}
			if err := s.Reward(cmd.Context(), args[0], amount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reported reward %g for %s\n", amount, args[0])
			return nil
		},
	}
}

// parseAmount reads the optional amount argument. Zero means "use the
// configured tip amount".
func parseAmount(args []string) (float64, error) {
	if len(args) < 2 {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(args[1], 64)
	if err != nil || amount <= 0 {
		return 0, apperrors.InvalidInput("amount", fmt.Sprintf("must be a positive number, got %q", args[1]))
	}
	return amount, nil
}

func newSetWebhookCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-webhook [url]",
		Short: "Register the webhook URL with Telegram",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			url := cfg.Telegram.WebhookURL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errors.New("no webhook url: pass one or set telegram.webhook_url")
			}
			tg, err := telegram.NewClient(cfg.Telegram)
			if err != nil {
				return err
			}
			if err := tg.SetWebhook(cmd.Context(), url); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", url)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			v := version.Get()
			fmt.Fprintf(cmd.OutOrStdout(), "voicebrief %s (%s)\n", v.Short(), v.GoVersion)
		},
	}
}
