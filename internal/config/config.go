// Package config loads interpreter settings from CUE (or JSON) files.
//
// The embedded schema supplies every default; a user file is unified with
// it, validated as concrete, and decoded into Config.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/puppet/internal/motion"
)

//go:embed schema.cue
var schemaCUE string

// Config is the decoded configuration.
type Config struct {
	Motion  Motion   `json:"motion"`
	Stage   Stage    `json:"stage"`
	Windows []string `json:"windows"`
	Echo    bool     `json:"echo"`
}

// Motion holds engine timing and defaults.
type Motion struct {
	TickMS       int     `json:"tick_ms"`
	WatchdogMS   int     `json:"watchdog_ms"`
	MaxSkips     int     `json:"max_skips"`
	Speed        float64 `json:"speed"`
	CloseEpsilon float64 `json:"close_epsilon"`
}

// Stage describes the actor surface.
type Stage struct {
	Kind       string  `json:"kind"`
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`
}

// Stage kinds.
const (
	StageVirtual  = "virtual"
	StageTerminal = "terminal"
)

// Error codes carried by LoadError.
const (
	ErrCodeRead     = "C001" // config file could not be read
	ErrCodeSyntax   = "C002" // CUE/JSON syntax error
	ErrCodeConflict = "C003" // value conflicts with the schema
	ErrCodeDecode   = "C004" // concrete value does not decode
)

// LoadError is a configuration failure, with a source position when CUE
// reports one.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Default returns the schema defaults.
func Default() *Config {
	cfg, err := LoadBytes("", nil)
	if err != nil {
		// The embedded schema is fixed; failing here is a build defect.
		panic(fmt.Sprintf("config: embedded schema: %v", err))
	}
	return cfg
}

// Load reads path and merges it over the defaults. An empty path returns
// Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRead, Message: err.Error()}
	}
	return LoadBytes(path, data)
}

// LoadBytes merges data, named filename in diagnostics, over the defaults.
func LoadBytes(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, toLoadError(ErrCodeSyntax, err)
	}

	merged := schema
	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(filename))
		if err := user.Err(); err != nil {
			return nil, toLoadError(ErrCodeSyntax, err)
		}
		merged = schema.Unify(user)
	}

	if err := merged.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return nil, toLoadError(ErrCodeConflict, err)
	}

	var cfg Config
	if err := merged.Decode(&cfg); err != nil {
		return nil, toLoadError(ErrCodeDecode, err)
	}
	if cfg.Windows == nil {
		cfg.Windows = []string{}
	}
	return &cfg, nil
}

// toLoadError keeps the first CUE error and its position.
func toLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		first := errs[0]
		le.Message = first.Error()
		le.Pos = first.Position()
	}
	return le
}

// Tick returns the step interval.
func (m Motion) Tick() time.Duration {
	return time.Duration(m.TickMS) * time.Millisecond
}

// Watchdog returns the callback timeout.
func (m Motion) Watchdog() time.Duration {
	return time.Duration(m.WatchdogMS) * time.Millisecond
}

// EngineOptions converts the settings into motion engine options.
func (m Motion) EngineOptions() []motion.Option {
	return []motion.Option{
		motion.WithTick(m.Tick()),
		motion.WithWatchdog(m.Watchdog()),
		motion.WithMaxSkips(m.MaxSkips),
		motion.WithDefaultSpeed(m.Speed),
		motion.WithCloseEpsilon(m.CloseEpsilon),
	}
}

// Bounds returns the actor's starting bounding box.
func (s Stage) Bounds() motion.Rect {
	return motion.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}
