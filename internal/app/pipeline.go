package app

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/session"
)

// run is the frame loop. One tick reads a frame, detects the primary hand,
// and feeds it to the camera session. Disabled ticks are skipped entirely.
func (a *App) run(stopCh <-chan struct{}, doneCh chan<- struct{}, sess *session.Session) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	var readErrors int
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			snap, err := a.ProcessFrame(sess, now)
			if err != nil {
				readErrors++
				// Log the first failure of a streak and every 100th after.
				if readErrors%100 == 1 {
					a.logger.Warn("error reading frame", zap.Error(err), zap.Int("consecutive", readErrors))
				}
				if errors.Is(err, capture.ErrCameraNotOpen) {
					return
				}
				continue
			}
			readErrors = 0

			if snap.Emitted != "" {
				a.logger.Info("letter committed",
					zap.String("letter", snap.Emitted),
					zap.Float64("confidence", snap.Confidence),
					zap.String("text", snap.Text),
				)
			}
		}
	}
}

func encodeJPEG(frame *gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	// GetBytes aliases native memory that Close frees.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
