/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gatherly/apiserver/config"
	"github.com/gatherly/apiserver/internal/email"
	"github.com/gatherly/apiserver/internal/mq"
	"github.com/gatherly/apiserver/internal/notify"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command.
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the notification mail worker",
	Long: `Runs the notification mail worker. It consumes registration
confirmations from the configured message broker and sends the
confirmation email for each one. Usage:

	gatherly worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := config.NewLogger(cfg.Logging)

		backend, err := mq.NewBackend(cmd.Context(), cfg.MQ)
		if err != nil {
			return fmt.Errorf("failed to connect to broker: %w", err)
		}
		if backend == nil {
			fmt.Fprintln(os.Stderr, "no message broker configured; nothing to consume")
			os.Exit(1)
		}
		defer func() {
			_ = backend.Close()
		}()

		mailer := email.NewService(cfg.Email, logger)

		logger.Info().
			Str("channel", cfg.MQ.NotificationsChannel).
			Str("backend", cfg.MQ.Backend).
			Msg("notification worker started")

		return backend.Subscribe(cmd.Context(), cfg.MQ.NotificationsChannel, func(ctx context.Context, msg mq.Message) error {
			var confirmation notify.RegistrationConfirmation
			if err := json.Unmarshal(msg.Data, &confirmation); err != nil {
				// Malformed payloads would never succeed on redelivery; drop them.
				logger.Error().Err(err).Str("message_id", msg.ID).Msg("discarding undecodable notification")
				return nil
			}
			return mailer.SendRegistrationConfirmation(ctx, confirmation)
		})
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
