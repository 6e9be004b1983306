// Package app runs the server-side camera pipeline: capture, detect, and
// feed the camera session.
package app

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/session"
)

// SourceCamera is the session source name used by the pipeline.
const SourceCamera = "camera"

// Config holds the collaborators of the pipeline.
type Config struct {
	Camera   capture.Camera
	Detector detector.Detector
	Sessions *session.Manager
	FPS      int
	Logger   *zap.Logger
}

// App owns the camera pipeline and the session it feeds.
type App struct {
	config Config
	logger *zap.Logger

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	session *session.Session

	frameMu  sync.RWMutex
	frame    []byte
	frameSeq uint64
	viewers  atomic.Int32
}

// New creates an App. The pipeline starts enabled but not running.
func New(config Config) *App {
	if config.FPS <= 0 {
		config.FPS = capture.DefaultFPS
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		config:  config,
		logger:  logger.Named("pipeline"),
		enabled: true,
	}
}

// SetEnabled pauses or resumes frame processing without closing the camera.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
	a.logger.Info("pipeline toggled", zap.Bool("enabled", enabled))
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Start opens the camera, creates the camera session, and begins the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}
	a.config.Camera.SetFPS(a.config.FPS)

	a.session = a.config.Sessions.Create(SourceCamera)
	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.run(a.stopCh, a.doneCh, a.session)

	a.logger.Info("detection pipeline started", zap.Int("fps", a.config.FPS), zap.String("session", a.session.ID()))
	return nil
}

// Stop halts the pipeline, closes the camera session, and releases the
// camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh, sess := a.stopCh, a.doneCh, a.session
	a.stopCh, a.doneCh, a.session = nil, nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-doneCh

	if _, err := a.config.Sessions.Close(sess.ID()); err != nil {
		a.logger.Warn("close camera session", zap.Error(err))
	}
	if err := a.config.Camera.Close(); err != nil {
		a.logger.Error("error closing camera", zap.Error(err))
	}
	if err := a.config.Detector.Close(); err != nil {
		a.logger.Error("error closing detector", zap.Error(err))
	}

	a.logger.Info("detection pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Session returns the camera session, or nil when the pipeline is stopped.
func (a *App) Session() *session.Session {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.session
}

// WatchFrames asks the pipeline to keep a JPEG of the latest frame. Call the
// returned function when done.
func (a *App) WatchFrames() func() {
	a.viewers.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.viewers.Add(-1) })
	}
}

// LatestFrame returns the most recent JPEG frame and its sequence number.
// The sequence is 0 before any frame has been encoded.
func (a *App) LatestFrame() ([]byte, uint64) {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.frame, a.frameSeq
}

func (a *App) storeFrame(jpeg []byte) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.frame = jpeg
	a.frameSeq++
}

// ProcessFrame runs one pipeline step at now. It is exported so tests and
// callers with their own clock can drive the pipeline directly.
func (a *App) ProcessFrame(sess *session.Session, now time.Time) (session.Snapshot, error) {
	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		return session.Snapshot{}, err
	}
	defer frame.Close()

	if a.viewers.Load() > 0 {
		if jpeg, err := encodeJPEG(frame); err != nil {
			a.logger.Debug("encode preview frame", zap.Error(err))
		} else {
			a.storeFrame(jpeg)
		}
	}

	hands, err := a.config.Detector.Detect(frame)
	if err != nil {
		// A failed detection counts as a frame without a hand.
		a.logger.Warn("hand detection failed", zap.Error(err))
		hands = nil
	}

	return sess.Process(detector.Primary(hands), now), nil
}
