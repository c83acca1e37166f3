// Package app wires camera capture, pose detection, command classification
// and plugin dispatch into the running postural application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/postural/internal/capture"
	"github.com/ayusman/postural/internal/detector"
	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/plugin"
	"github.com/ayusman/postural/internal/pose"
	"github.com/ayusman/postural/internal/store"
)

// ErrNoPreview is returned by PreviewJPEG before the first frame arrives.
var ErrNoPreview = errors.New("no preview frame yet")

// settingEnabled persists the detection toggle across restarts.
const settingEnabled = "detection_enabled"

// Config holds configuration options for the application.
type Config struct {
	Store *store.Store

	// Camera is opened by Start. When nil a device camera is created from
	// CameraID and FPS.
	Camera   capture.Camera
	CameraID int
	FPS      int

	// Detector is used as given. When nil the MediaPipe pose service is
	// tried, falling back to a mock that never detects anyone.
	Detector       detector.Detector
	DetectorConfig detector.Config

	// Classifier defaults to the built-in rule set.
	Classifier *gesture.Classifier

	PluginDir     string
	PluginTimeout time.Duration

	// StableFrames is how many consecutive frames must agree before a
	// command is acted on.
	StableFrames int
	// RepeatInterval re-fires a held command at this period. Zero fires
	// once per hold.
	RepeatInterval time.Duration

	RecordEvents   bool
	EventRetention int

	Logger *slog.Logger
}

// Update is published to result listeners for every processed frame.
type Update struct {
	Command   gesture.Command `json:"command"`
	Rule      string          `json:"rule,omitempty"`
	Stable    gesture.Command `json:"stable"`
	Feedback  string          `json:"feedback"`
	Landmarks int             `json:"landmarks"`
	Enabled   bool            `json:"enabled"`
	Timestamp int64           `json:"timestamp"`
}

// App is the main application that orchestrates detection and action execution.
type App struct {
	config     Config
	logger     *slog.Logger
	camera     capture.Camera
	detector   detector.Detector
	classifier *gesture.Classifier
	stabilizer *gesture.Stabilizer
	dispatcher *Dispatcher
	pluginMgr  *plugin.Manager

	mu        sync.RWMutex
	enabled   bool
	cancel    context.CancelFunc
	done      chan struct{}
	listeners []func(Update)

	fireMu    sync.Mutex
	lastFired time.Time
	now       func() time.Time

	previewMu sync.Mutex
	preview   *gocv.Mat
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	camera := config.Camera
	if camera == nil {
		camera = capture.NewCameraWithConfig(capture.CameraConfig{
			DeviceID: config.CameraID,
			FPS:      config.FPS,
			Mirror:   true,
		})
	}

	classifier := config.Classifier
	if classifier == nil {
		classifier = gesture.NewDefaultClassifier()
	}

	pluginMgr := plugin.NewManager(config.PluginDir)
	pluginMgr.SetLogger(logger)

	a := &App{
		config:     config,
		logger:     logger,
		camera:     camera,
		detector:   config.Detector,
		classifier: classifier,
		stabilizer: gesture.NewStabilizer(config.StableFrames),
		pluginMgr:  pluginMgr,
		enabled:    true,
		now:        time.Now,
	}
	a.dispatcher = NewDispatcher(DispatcherConfig{
		Store:          config.Store,
		Plugins:        pluginMgr,
		Executor:       plugin.NewExecutor(config.PluginTimeout),
		RecordEvents:   config.RecordEvents,
		EventRetention: config.EventRetention,
		Logger:         logger,
	})

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(settingEnabled, true)
	}

	if a.detector == nil {
		detCfg := config.DetectorConfig
		if detCfg == (detector.Config{}) {
			detCfg = detector.DefaultConfig()
		}
		if mp, err := detector.NewMediaPipeDetector(detCfg); err == nil {
			a.detector = mp
			logger.Info("using MediaPipe pose detection")
		} else {
			logger.Warn("MediaPipe not available, using mock detector", "error", err)
			a.detector = detector.NewMockDetector()
		}
	}

	return a
}

// SetEnabled enables or disables command recognition. The choice is
// persisted when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	if !enabled {
		a.stabilizer.Reset()
	}
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(settingEnabled, enabled); err != nil {
			a.logger.Warn("persist enabled flag", "error", err)
		}
	}
	a.logger.Info("recognition toggled", "enabled", enabled)
}

// IsEnabled returns whether command recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector replaces the pose detector implementation.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// OnResult registers fn to receive an Update for every processed frame.
// Listeners run on the pipeline goroutine and must not block.
func (a *App) OnResult(fn func(Update)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return fmt.Errorf("discover plugins: %w", err)
	}
	a.logger.Info("plugins discovered", "dir", a.pluginMgr.PluginDir(), "count", len(a.pluginMgr.List()))
	return nil
}

// SeedBindings installs DefaultBindings for commands that have none.
func (a *App) SeedBindings() error {
	if a.config.Store == nil {
		return nil
	}
	added, err := a.config.Store.Bindings().Seed(DefaultBindings())
	if err != nil {
		return fmt.Errorf("seed bindings: %w", err)
	}
	if added > 0 {
		a.logger.Info("seeded default bindings", "count", added)
	}
	return nil
}

// ProcessSnapshot classifies one snapshot, notifies listeners and, when
// recognition is enabled, dispatches the stable command.
func (a *App) ProcessSnapshot(ctx context.Context, snap *pose.Snapshot) gesture.Result {
	res := a.classifier.Evaluate(snap)

	// Observe under the same lock SetEnabled resets under, so a frame in
	// flight cannot leave a candidate behind after recognition is disabled.
	stable := gesture.CommandNone
	changed := false
	a.mu.RLock()
	enabled := a.enabled
	if enabled {
		stable, changed = a.stabilizer.Observe(res.Command)
	}
	a.mu.RUnlock()

	a.notify(Update{
		Command:   res.Command,
		Rule:      res.Rule,
		Stable:    stable,
		Feedback:  res.Command.Feedback(),
		Landmarks: snap.Len(),
		Enabled:   enabled,
		Timestamp: a.now().UnixMilli(),
	})

	if !enabled || stable.IsNone() || res.Command != stable {
		return res
	}
	if a.shouldFire(changed) {
		// Failed actions are logged and recorded by the dispatcher.
		if ev, err := a.dispatcher.Dispatch(ctx, res); err != nil && ev == nil && !errors.Is(err, ErrNoBinding) {
			a.logger.Warn("dispatch failed", "command", res.Command, "error", err)
		}
	}
	return res
}

// shouldFire decides whether the held command acts on this frame: always on
// a change, then every RepeatInterval while held.
func (a *App) shouldFire(changed bool) bool {
	a.fireMu.Lock()
	defer a.fireMu.Unlock()

	now := a.now()
	if changed || (a.config.RepeatInterval > 0 && now.Sub(a.lastFired) >= a.config.RepeatInterval) {
		a.lastFired = now
		return true
	}
	return false
}

func (a *App) notify(u Update) {
	a.mu.RLock()
	listeners := a.listeners
	a.mu.RUnlock()

	for _, fn := range listeners {
		fn(u)
	}
}

// Start opens the camera and begins the detection pipeline. It returns
// immediately; the pipeline runs until ctx ends or Stop is called.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan struct{})

	slot := capture.NewLatest(func(m *gocv.Mat) { m.Close() })
	go a.runPipeline(ctx, slot, a.done)

	a.logger.Info("detection pipeline started", "fps", a.camera.FPS())
	return nil
}

// Stop halts the detection pipeline and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	det := a.detector
	a.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("close camera", "error", err)
	}

	if det != nil {
		if err := det.Close(); err != nil {
			a.logger.Warn("close detector", "error", err)
		}
	}

	a.previewMu.Lock()
	if a.preview != nil {
		a.preview.Close()
		a.preview = nil
	}
	a.previewMu.Unlock()

	a.logger.Info("detection pipeline stopped")
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Classifier returns the command classifier.
func (a *App) Classifier() *gesture.Classifier {
	return a.classifier
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Dispatcher returns the action dispatcher.
func (a *App) Dispatcher() *Dispatcher {
	return a.dispatcher
}

// PreviewJPEG encodes the most recent camera frame.
func (a *App) PreviewJPEG() ([]byte, error) {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.preview == nil || a.preview.Empty() {
		return nil, ErrNoPreview
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *a.preview)
	if err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}

func (a *App) setPreview(frame *gocv.Mat) {
	clone := frame.Clone()

	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.preview != nil {
		a.preview.Close()
	}
	a.preview = &clone
}
