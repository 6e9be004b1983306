package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/logging"
	"github.com/ayusman/fingerspell/internal/session"
	"github.com/ayusman/fingerspell/internal/store"
)

const (
	replaySource   = "replay"
	replayInterval = 33 * time.Millisecond
	maxReplayLine  = 1 << 20
)

// replayFrame is one recorded frame, in the same shape the WebSocket accepts.
type replayFrame struct {
	Landmarks []detector.Point3D `json:"landmarks"`
	Timestamp int64              `json:"timestamp"`
}

func newReplayCommand(ctx *commandContext) *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "replay <file.jsonl|->",
		Short: "Run recorded landmark frames through the recognizer",
		Long: "Reads one JSON frame per line ({\"landmarks\":[...],\"timestamp\":ms}) and prints\n" +
			"each committed letter followed by the final text. Frames without a timestamp\n" +
			"are spaced 33ms apart.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open recording: %w", err)
				}
				defer f.Close()
				in = f
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			sessions := session.NewManager(cfg.Params(), logger)
			if save {
				st, err := store.New(cfg.Store.Path)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				sessions.AddSink(app.NewStoreSink(st, logger.Named("store")))
			}

			text, err := replay(in, cmd.OutOrStdout(), sessions, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "text: %q\n", text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Save the transcript to the configured store")
	return cmd
}

// replay feeds every frame in r to a new session and writes one line per
// committed letter to out. It returns the final text.
func replay(r io.Reader, out io.Writer, sessions *session.Manager, logger *zap.Logger) (string, error) {
	sess := sessions.Create(replaySource)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxReplayLine)

	var last time.Time
	frames := 0
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var f replayFrame
		if err := json.Unmarshal(scanner.Bytes(), &f); err != nil {
			logger.Warn("skipping malformed frame", zap.Int("line", line), zap.Error(err))
			continue
		}

		now := last.Add(replayInterval)
		if f.Timestamp > 0 {
			now = time.UnixMilli(f.Timestamp)
		} else if last.IsZero() {
			now = time.Unix(0, 0)
		}
		last = now

		var hand *detector.HandLandmarks
		if f.Landmarks != nil {
			h, err := detector.NewHandLandmarks(f.Landmarks)
			if err != nil {
				logger.Debug("frame has no usable hand", zap.Int("line", line), zap.Error(err))
			} else {
				hand = h
			}
		}

		snap := sess.Process(hand, now)
		frames++
		if snap.Emitted != "" {
			fmt.Fprintf(out, "%6d  %s  %.2f\n", frames, snap.Emitted, snap.Confidence)
		}
	}
	if err := scanner.Err(); err != nil {
		sessions.Close(sess.ID()) //nolint:errcheck
		return "", fmt.Errorf("read recording: %w", err)
	}

	summary, err := sessions.Close(sess.ID())
	if err != nil {
		return "", err
	}
	logger.Info("replay finished", zap.Int("frames", frames), zap.Int("letters", summary.Letters))
	return summary.Text, nil
}
