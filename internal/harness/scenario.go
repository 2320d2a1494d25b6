package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/epicflow/internal/action"
	"github.com/roach88/epicflow/internal/epic"
)

// Scenario is a scripted run of the engine.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Epics lists the registered epics to run.
	Epics []string `yaml:"epics"`

	// Session is a fixed session token. If empty, defaults to
	// "test-session-default" so golden traces are stable.
	Session string `yaml:"session,omitempty"`

	// API configures the fake backend.
	API APIConfig `yaml:"api,omitempty"`

	// Messages are played to each message subscription, then the feed ends.
	Messages []string `yaml:"messages,omitempty"`

	// Flow is dispatched in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are evaluated after the engine has drained.
	Assertions []Assertion `yaml:"assertions"`
}

// APIConfig configures the fake backend. Unset fields keep the canned
// answers.
type APIConfig struct {
	// LoginID is the entity ID returned by login.
	LoginID string `yaml:"login_id,omitempty"`

	// Users restricts fetchUser to these IDs.
	Users map[string]UserConfig `yaml:"users,omitempty"`

	// Products maps product IDs to names and restricts fetchProduct to them.
	Products map[string]string `yaml:"products,omitempty"`

	// FailProducts are product IDs whose fetch fails.
	FailProducts []string `yaml:"fail_products,omitempty"`

	// PhotoPrefix is prepended to file names to form upload URLs.
	PhotoPrefix string `yaml:"photo_prefix,omitempty"`

	// Latency delays every call.
	Latency time.Duration `yaml:"latency,omitempty"`
}

// UserConfig is a canned user profile.
type UserConfig struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name,omitempty"`
}

// FlowStep dispatches one action.
type FlowStep struct {
	Dispatch Envelope `yaml:"dispatch"`

	// Await blocks the flow until the trace holds enough actions of a type.
	Await *Await `yaml:"await,omitempty"`
}

// Envelope is an action as written in a scenario.
type Envelope struct {
	Type    string         `yaml:"type"`
	Payload map[string]any `yaml:"payload,omitempty"`
}

// Action decodes the envelope.
func (e Envelope) Action() (action.Action, error) {
	return action.FromPayload(action.Kind(e.Type), e.Payload)
}

// Await waits until the trace holds at least Count actions of Type in total.
type Await struct {
	Type  string `yaml:"type"`
	Count int    `yaml:"count,omitempty"`
}

func (a Await) want() int {
	if a.Count == 0 {
		return 1
	}
	return a.Count
}

// Assertion checks the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action is the action type (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Source restricts trace_contains to actions from this source.
	Source string `yaml:"source,omitempty"`

	// Payload is matched as a subset (trace_contains).
	Payload map[string]any `yaml:"payload,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Path is a dotted path into the state JSON (final_state).
	Path string `yaml:"path,omitempty"`

	// Equals is the expected value at Path (final_state).
	Equals any `yaml:"equals,omitempty"`

	// Epic is the epic expected to have failed (epic_failed).
	Epic string `yaml:"epic,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertEpicFailed    = "epic_failed"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected so typos do not silently disable a check.
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

// LoadDir loads every *.yaml and *.yml scenario in dir whose base name
// matches filter (a filepath.Match pattern; empty matches all), sorted by
// file name.
func LoadDir(dir, filter string) ([]*Scenario, []string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	var (
		scenarios []*Scenario
		kept      []string
	)
	for _, p := range paths {
		if filter != "" {
			ok, err := filepath.Match(filter, filepath.Base(p))
			if err != nil {
				return nil, nil, fmt.Errorf("bad filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		s, err := LoadScenario(p)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
		kept = append(kept, p)
	}
	return scenarios, kept, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Epics) == 0 {
		return fmt.Errorf("epics list is required and must be non-empty")
	}
	if _, err := epic.Resolve(s.Epics); err != nil {
		return err
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Dispatch.Type == "" {
			return fmt.Errorf("flow[%d]: dispatch type is required", i)
		}
		if _, err := step.Dispatch.Action(); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
		if step.Await != nil {
			if !action.Known(action.Kind(step.Await.Type)) {
				return fmt.Errorf("flow[%d].await: unknown action type %q", i, step.Await.Type)
			}
			if step.Await.Count < 0 {
				return fmt.Errorf("flow[%d].await: count must be non-negative", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for final_state", index)
		}
	case AssertEpicFailed:
		if a.Epic == "" {
			return fmt.Errorf("assertions[%d]: epic is required for epic_failed", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
