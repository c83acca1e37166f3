// Package main provides the system-control plugin. It changes the output
// volume and toggles media playback through osascript on macOS and
// pactl/playerctl on Linux.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// defaultStep is the volume change in percent when the binding config sets none.
const defaultStep = 10

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Command string          `json:"command"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-binding configuration.
type Config struct {
	Step int `json:"step"`
}

// commandBuilder returns the argv that performs an action with the given step.
type commandBuilder func(step int) []string

var darwinActions = map[string]commandBuilder{
	"volume-up": func(step int) []string {
		return osascript(fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) + %d)`, step))
	},
	"volume-down": func(step int) []string {
		return osascript(fmt.Sprintf(`set volume output volume ((output volume of (get volume settings)) - %d)`, step))
	},
	"volume-mute": func(int) []string {
		return osascript(`set volume output muted (not (output muted of (get volume settings)))`)
	},
	"media-play-pause": func(int) []string {
		return osascript("tell application \"System Events\"\n\tkey code 100\nend tell")
	},
}

var linuxActions = map[string]commandBuilder{
	"volume-up": func(step int) []string {
		return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+" + strconv.Itoa(step) + "%"}
	},
	"volume-down": func(step int) []string {
		return []string{"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-" + strconv.Itoa(step) + "%"}
	},
	"volume-mute": func(int) []string {
		return []string{"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"}
	},
	"media-play-pause": func(int) []string {
		return []string{"playerctl", "play-pause"}
	},
}

func osascript(script string) []string {
	return []string{"osascript", "-e", script}
}

func main() {
	resp := handle(os.Stdin, runtime.GOOS, run)
	json.NewEncoder(os.Stdout).Encode(resp)
}

// handle decodes one request and performs it with runCmd.
func handle(r io.Reader, goos string, runCmd func(argv []string) error) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return errorResponse(fmt.Sprintf("failed to decode request: %v", err))
	}

	cfg, err := parseConfig(req.Config)
	if err != nil {
		return errorResponse(err.Error())
	}

	argv, err := commandFor(goos, req.Action, cfg.Step)
	if err != nil {
		return errorResponse(err.Error())
	}

	if err := runCmd(argv); err != nil {
		return errorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
	}

	data, _ := json.Marshal(map[string]string{"action": req.Action, "command": req.Command})
	return Response{Success: true, Data: data}
}

// commandFor resolves an action to the argv for the given platform.
func commandFor(goos, action string, step int) ([]string, error) {
	var actions map[string]commandBuilder
	switch goos {
	case "darwin":
		actions = darwinActions
	case "linux":
		actions = linuxActions
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}

	build, ok := actions[action]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", action)
	}
	return build(step), nil
}

// parseConfig applies the binding's config over the defaults. A step outside
// 1..100 falls back to the default; a config that does not decode is an error.
func parseConfig(raw json.RawMessage) (Config, error) {
	cfg := Config{Step: defaultStep}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	if cfg.Step <= 0 || cfg.Step > 100 {
		cfg.Step = defaultStep
	}
	return cfg, nil
}

func errorResponse(msg string) Response {
	return Response{Success: false, Error: msg}
}

// run executes argv and folds its output into the error.
func run(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
