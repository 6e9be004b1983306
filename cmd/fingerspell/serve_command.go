package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/fingerspell/internal/app"
	"github.com/ayusman/fingerspell/internal/capture"
	"github.com/ayusman/fingerspell/internal/config"
	"github.com/ayusman/fingerspell/internal/detector"
	"github.com/ayusman/fingerspell/internal/logging"
	"github.com/ayusman/fingerspell/internal/plugin"
	"github.com/ayusman/fingerspell/internal/server"
	"github.com/ayusman/fingerspell/internal/server/api"
	"github.com/ayusman/fingerspell/internal/session"
	"github.com/ayusman/fingerspell/internal/store"
	"github.com/ayusman/fingerspell/internal/tray"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addrFlag string
	var noTray bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addrFlag != "" {
				cfg.Server.Addr = addrFlag
			}
			if noTray {
				cfg.Tray.Enabled = false
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "Disable the system tray")
	return cmd
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", zap.String("path", st.Path()))

	sessions := session.NewManager(cfg.Params(), logger)
	sessions.AddSink(app.NewStoreSink(st, logger.Named("store")))

	if len(cfg.Plugins.Enabled) > 0 {
		dispatcher, err := newDispatcher(cfg, logger)
		if err != nil {
			return err
		}
		dispatcher.Start()
		defer dispatcher.Stop()
		sessions.AddSink(app.NewPluginSink(dispatcher))
	}

	var pipeline *app.App
	if cfg.Camera.Enabled {
		pipeline = newPipeline(cfg, sessions, logger)
		pipeline.SetEnabled(st.Settings().Bool(store.SettingPipelineEnabled, true))
	}

	runCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The tray sink must be registered before the camera session exists.
	var t *tray.Tray
	if cfg.Tray.Enabled {
		t = newTray(cfg, st, pipeline, sessions, logger, stop)
	}

	if pipeline != nil {
		if err := pipeline.Start(); err != nil {
			return fmt.Errorf("start camera pipeline: %w", err)
		}
		defer pipeline.Stop()
	}

	srvCfg := server.Config{
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Sessions:  sessions,
		Logger:    logger,
	}
	if srvCfg.StaticDir == "" {
		srvCfg.StaticDir = findWebDir()
	}
	if pipeline != nil {
		srvCfg.Pipeline = pipeline
	}
	srv := server.New(srvCfg)

	go sessions.ExpireIdle(runCtx, api.SourceWebSocket, cfg.SessionIdle())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(runCtx, cfg.Server.Addr)
		stop()
	}()

	if t != nil {
		go func() {
			<-runCtx.Done()
			t.Quit()
		}()
		// Blocks on the main goroutine until the tray quits.
		t.Run()
		stop()
	}

	err = <-errCh
	if pipeline != nil {
		pipeline.Stop()
	}
	sessions.CloseAll()
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func newDispatcher(cfg *config.Config, logger *zap.Logger) (*plugin.Dispatcher, error) {
	manager := plugin.NewManager(cfg.Plugins.Dir, logger.Named("plugins"))
	if err := manager.Discover(); err != nil {
		return nil, fmt.Errorf("discover plugins: %w", err)
	}
	executor := plugin.NewExecutor(time.Duration(cfg.Plugins.TimeoutMs) * time.Millisecond)
	dispatcher, err := plugin.NewDispatcher(manager, executor, cfg.Plugins.Enabled, logger.Named("plugins"))
	if err != nil {
		return nil, fmt.Errorf("enable plugins: %w", err)
	}
	logger.Info("plugins enabled", zap.Strings("plugins", cfg.Plugins.Enabled))
	return dispatcher, nil
}

func newPipeline(cfg *config.Config, sessions *session.Manager, logger *zap.Logger) *app.App {
	detCfg := detector.DefaultConfig()
	detCfg.ScriptPath = cfg.Detector.ScriptPath
	detCfg.PythonPath = cfg.Detector.PythonPath
	if cfg.Detector.MinConfidence > 0 {
		detCfg.MinConfidence = cfg.Detector.MinConfidence
	}
	if cfg.Detector.MinTrackingConf > 0 {
		detCfg.MinTrackingConf = cfg.Detector.MinTrackingConf
	}

	var det detector.Detector
	mp, err := detector.NewMediaPipeDetector(detCfg, logger)
	if err != nil {
		logger.Warn("mediapipe unavailable, camera frames will show no hand", zap.Error(err))
		det = detector.NewMockDetector()
	} else {
		det = mp
	}

	camera := capture.NewCamera(capture.Options{
		DeviceID: cfg.Camera.DeviceID,
		FPS:      cfg.Camera.FPS,
		Mirror:   cfg.Camera.Mirror,
	})

	return app.New(app.Config{
		Camera:   camera,
		Detector: det,
		Sessions: sessions,
		FPS:      cfg.Camera.FPS,
		Logger:   logger,
	})
}

func newTray(cfg *config.Config, st *store.Store, pipeline *app.App, sessions *session.Manager, logger *zap.Logger, quit func()) *tray.Tray {
	enabled := pipeline != nil && pipeline.IsEnabled()
	t := tray.New(enabled)

	t.OnToggle(func(enabled bool) {
		if pipeline == nil {
			return
		}
		pipeline.SetEnabled(enabled)
		if err := st.Settings().SetBool(store.SettingPipelineEnabled, enabled); err != nil {
			logger.Warn("failed to persist pipeline setting", zap.Error(err))
		}
	})
	t.OnOpen(func() {
		if err := openBrowser(browserURL(cfg.Server.Addr)); err != nil {
			logger.Warn("failed to open browser", zap.Error(err))
		}
	})
	t.OnQuit(quit)

	sessions.AddSink(app.NewTraySink(t))
	return t
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web client in common locations.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWeb := filepath.Join(home, ".fingerspell", "web")
	if info, err := os.Stat(homeWeb); err == nil && info.IsDir() {
		return homeWeb
	}
	return ""
}
