package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dmora/tdlink/client"
	"github.com/dmora/tdlink/internal/config"
	"github.com/dmora/tdlink/internal/logging"
	"github.com/dmora/tdlink/transporttest"
)

func newReplayCmd(v *viper.Viper) *cobra.Command {
	var (
		sessionFile string
		idle        time.Duration
		timeout     time.Duration
		phone       string
		code        string
		password    string
		key         string
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded frame session through the runtime",
		Long: `Replay feeds a newline-delimited JSON frame recording through the full
client runtime: dispatch, correlation, and the authorization handshake.
Outgoing requests are acknowledged with generic ok frames; unclaimed
frames are printed to stdout as they surface on the update stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			log := logging.Setup(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

			script := transporttest.NewScript()
			script.RespondDefault(func(sent transporttest.Sent) [][]byte {
				return [][]byte{transporttest.Ok(sent)}
			})
			queued, err := queueRecording(script, sessionFile)
			if err != nil {
				return err
			}
			log.Info("recording loaded", "file", sessionFile, "frames", queued)

			metrics := client.NewMetrics()
			c, err := client.New(script, 1, cfg.Telegram,
				client.WithLogger(log),
				client.WithMetrics(metrics),
				client.WithPollTimeout(cfg.Runtime.PollTimeout),
				client.WithUpdateBuffer(cfg.Runtime.UpdateBuffer),
				client.WithHandler(client.StaticHandler{
					Key:      key,
					Phone:    phone,
					AuthCode: code,
					Secret:   password,
				}),
			)
			if err != nil {
				return err
			}
			if err := c.Start(); err != nil {
				return err
			}
			defer c.Stop()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			state, err := c.WaitUntilReady(ctx)
			if err != nil {
				return fmt.Errorf("handshake: %w", err)
			}
			log.Info("handshake finished", "state", state.String())

			printed := drainUpdates(cmd, c, idle)
			log.Info("replay finished", "updates", printed)
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionFile, "session", "", "newline-delimited JSON frame recording (required)")
	cmd.Flags().DurationVar(&idle, "idle", time.Second, "stop after this long without an update")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "handshake deadline")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number for the handshake")
	cmd.Flags().StringVar(&code, "code", "", "authentication code for the handshake")
	cmd.Flags().StringVar(&password, "password", "", "two-step verification password")
	cmd.Flags().StringVar(&key, "encryption-key", "", "database encryption key")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

// queueRecording loads one JSON frame per line into the script's inbound
// queue, skipping blank lines. Returns the number of frames queued.
func queueRecording(script *transporttest.Script, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	queued := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)
		script.Queue(frame)
		queued++
	}
	if err := scanner.Err(); err != nil {
		return queued, fmt.Errorf("read recording: %w", err)
	}
	return queued, nil
}

// drainUpdates prints update frames to stdout until the stream closes or
// stays idle past the given duration.
func drainUpdates(cmd *cobra.Command, c *client.Client, idle time.Duration) int {
	printed := 0
	timer := time.NewTimer(idle)
	defer timer.Stop()
	for {
		select {
		case frame, ok := <-c.Updates():
			if !ok {
				return printed
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(frame.Raw))
			printed++
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idle)
		case <-timer.C:
			return printed
		case <-cmd.Context().Done():
			return printed
		}
	}
}
