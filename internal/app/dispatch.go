package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/postural/internal/gesture"
	"github.com/ayusman/postural/internal/plugin"
	"github.com/ayusman/postural/internal/store"
)

var (
	// ErrNoBinding is returned when a command has no enabled binding.
	ErrNoBinding = errors.New("no binding for command")
	// ErrUnknownAction is returned when a binding names an action its plugin does not declare.
	ErrUnknownAction = errors.New("plugin does not declare action")
)

// DefaultBindings returns the bindings installed on first run: raised arms
// turn the volume up and a hand on the hip turns it down.
func DefaultBindings() []*store.Binding {
	return []*store.Binding{
		{
			ID:         uuid.New().String(),
			Command:    string(gesture.CommandVolumeUp),
			PluginName: "system-control",
			ActionName: "volume-up",
			Config:     json.RawMessage(`{"step":10}`),
			Enabled:    true,
		},
		{
			ID:         uuid.New().String(),
			Command:    string(gesture.CommandPause),
			PluginName: "system-control",
			ActionName: "volume-down",
			Config:     json.RawMessage(`{"step":10}`),
			Enabled:    true,
		},
	}
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	Store          *store.Store
	Plugins        *plugin.Manager
	Executor       *plugin.Executor
	RecordEvents   bool
	EventRetention int
	Logger         *slog.Logger
}

// Dispatcher turns a recognized command into a plugin action using the
// stored bindings and records the outcome.
type Dispatcher struct {
	config DispatcherConfig
	logger *slog.Logger
}

// NewDispatcher creates a Dispatcher. A nil Executor uses the default timeout.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Executor == nil {
		config.Executor = plugin.NewExecutor(0)
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{config: config, logger: logger}
}

// actionParams is sent to plugins as Request.Params.
type actionParams struct {
	Rule string `json:"rule,omitempty"`
}

// Dispatch looks up the binding for res.Command and runs its plugin action.
// It returns ErrNoBinding when nothing is bound or the binding is disabled.
// Every attempted action is recorded as an event when recording is on.
func (d *Dispatcher) Dispatch(ctx context.Context, res gesture.Result) (*store.Event, error) {
	if d.config.Store == nil || d.config.Plugins == nil || res.Command.IsNone() {
		return nil, ErrNoBinding
	}

	binding, err := d.config.Store.Bindings().GetByCommand(string(res.Command))
	if err != nil {
		return nil, fmt.Errorf("lookup binding: %w", err)
	}
	if binding == nil || !binding.Enabled {
		d.logger.Debug("command not bound", "command", res.Command)
		return nil, ErrNoBinding
	}

	event := &store.Event{
		ID:         uuid.New().String(),
		Command:    string(res.Command),
		Rule:       res.Rule,
		PluginName: binding.PluginName,
		ActionName: binding.ActionName,
	}

	runErr := d.run(ctx, binding, res)
	if runErr != nil {
		event.Error = runErr.Error()
		d.logger.Warn("action failed", "command", res.Command, "plugin", binding.PluginName,
			"action", binding.ActionName, "error", runErr)
	} else {
		event.Success = true
		d.logger.Info("action executed", "command", res.Command, "plugin", binding.PluginName,
			"action", binding.ActionName)
	}

	d.record(event)
	return event, runErr
}

func (d *Dispatcher) run(ctx context.Context, binding *store.Binding, res gesture.Result) error {
	p, err := d.config.Plugins.Get(binding.PluginName)
	if err != nil {
		return fmt.Errorf("%s: %w", binding.PluginName, err)
	}
	if !p.Manifest.HasAction(binding.ActionName) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAction, binding.PluginName, binding.ActionName)
	}

	params, err := json.Marshal(actionParams{Rule: res.Rule})
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	start := time.Now()
	resp, err := d.config.Executor.Execute(ctx, p, &plugin.Request{
		Action:  binding.ActionName,
		Command: string(res.Command),
		Config:  binding.Config,
		Params:  params,
	})
	if err != nil {
		return err
	}
	d.logger.Debug("plugin finished", "plugin", p.Manifest.Name, "took", time.Since(start))

	if !resp.Success {
		return fmt.Errorf("plugin %s: %s", p.Manifest.Name, resp.Error)
	}
	return nil
}

func (d *Dispatcher) record(event *store.Event) {
	if !d.config.RecordEvents {
		return
	}

	events := d.config.Store.Events()
	if err := events.Record(event); err != nil {
		d.logger.Warn("record event", "error", err)
		return
	}

	if d.config.EventRetention > 0 {
		if _, err := events.Prune(d.config.EventRetention); err != nil {
			d.logger.Warn("prune events", "error", err)
		}
	}
}
