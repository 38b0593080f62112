package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/puppet/internal/command"
	"github.com/roach88/puppet/internal/motion"
	"github.com/roach88/puppet/internal/value"
)

// Scenario is one scripted session.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Stage is the actor's starting box. Nil means a 10x10 box at the origin.
	Stage *StageSpec `yaml:"stage,omitempty"`

	// Windows seeds the window registry, in handle order.
	Windows []string `yaml:"windows,omitempty"`

	Steps []Step `yaml:"steps"`

	Final *FinalClause `yaml:"final,omitempty"`
}

// StageSpec is the actor's starting bounding box.
type StageSpec struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Step is one dispatched line.
type Step struct {
	Command string `yaml:"command"`

	// Expect, when set, is checked against the dispatch result.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause names the expected result code and, optionally, the value.
type ExpectClause struct {
	// Code is an error code name ("Success", "VarDoesNotExist") or number.
	Code string `yaml:"code"`

	// Kind is the expected value kind name ("string", "pointer", ...).
	Kind string `yaml:"kind,omitempty"`

	// Value is compared with the rendered value.
	Value *string `yaml:"value,omitempty"`
}

// FinalClause asserts where an anchor of the actor ends up.
type FinalClause struct {
	Anchor string  `yaml:"anchor"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`

	// Tolerance is the allowed distance; zero means exact within 1e-9.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// DefaultStage is used when a scenario has no stage block.
var DefaultStage = StageSpec{Width: 10, Height: 10}

// Bounds returns the box as motion geometry.
func (s StageSpec) Bounds() motion.Rect {
	return motion.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios lists the .yaml/.yml files directly under dir, sorted. A
// non-empty filter is a filepath.Match pattern applied to the base name
// without extension.
func FindScenarios(dir, filter string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", s.Name)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if s.Stage != nil && (s.Stage.Width <= 0 || s.Stage.Height <= 0) {
		return fmt.Errorf("stage: width and height must be positive")
	}

	for i, step := range s.Steps {
		if step.Expect == nil {
			continue
		}
		if step.Expect.Code == "" {
			return fmt.Errorf("steps[%d].expect: code is required", i)
		}
		if _, ok := command.ParseCode(step.Expect.Code); !ok {
			return fmt.Errorf("steps[%d].expect: unknown code %q", i, step.Expect.Code)
		}
		if step.Expect.Kind != "" {
			if _, ok := value.ParseKind(step.Expect.Kind); !ok {
				return fmt.Errorf("steps[%d].expect: unknown kind %q", i, step.Expect.Kind)
			}
		}
	}

	if s.Final != nil {
		if _, err := finalAnchor(s.Final.Anchor); err != nil {
			return fmt.Errorf("final: %w", err)
		}
		if s.Final.Tolerance < 0 {
			return fmt.Errorf("final: tolerance must be non-negative")
		}
	}
	return nil
}

// finalAnchor resolves a concrete anchor name. The closest modes depend on
// a target and are rejected.
func finalAnchor(name string) (motion.Anchor, error) {
	if name == "" {
		return motion.Center, nil
	}
	side, err := motion.ParseSide(name)
	if err != nil {
		return 0, err
	}
	switch side {
	case motion.SideClosest, motion.SideClosestSide, motion.SideClosestCorner:
		return 0, fmt.Errorf("anchor %q is not a fixed anchor", name)
	}
	return motion.Anchor(side), nil
}
