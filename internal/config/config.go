// Package config loads epicflow configuration files.
//
// Files are CUE or YAML. Either way the content is unified with an embedded
// CUE schema that supplies defaults and rejects unknown fields, then
// decoded and checked against the epic registry.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cueyaml "cuelang.org/go/encoding/yaml"

	"github.com/roach88/epicflow/internal/epic"
)

//go:embed schema.cue
var schemaCUE string

// Config is a validated configuration.
type Config struct {
	Epics    []string
	Throttle Throttle
	API      API
	Socket   Socket
	Journal  Journal
	Log      Log
}

type Throttle struct {
	Login  time.Duration
	Search time.Duration
}

type API struct {
	Latency      time.Duration
	FailProducts []string
}

type Socket struct {
	URL string
}

type Journal struct {
	Path string
}

type Log struct {
	Level string
}

// file mirrors the schema. Durations stay strings until checked.
type file struct {
	Epics    []string `json:"epics"`
	Throttle struct {
		Login  string `json:"login"`
		Search string `json:"search"`
	} `json:"throttle"`
	API struct {
		Latency      string   `json:"latency"`
		FailProducts []string `json:"fail_products"`
	} `json:"api"`
	Socket struct {
		URL string `json:"url"`
	} `json:"socket"`
	Journal struct {
		Path string `json:"path"`
	} `json:"journal"`
	Log struct {
		Level string `json:"level"`
	} `json:"log"`
}

// Load reads and validates the configuration at path. The format follows
// the extension: .cue, .yaml or .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates configuration content. filename selects the format and
// is used in error positions.
func Parse(filename string, data []byte) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue":
		v = ctx.CompileBytes(data, cue.Filename(filename))
	case ".yaml", ".yml":
		f, err := cueyaml.Extract(filename, data)
		if err != nil {
			return nil, newError(filename, err)
		}
		v = ctx.BuildFile(f)
	default:
		return nil, &Error{Path: filename, Problems: []Problem{{
			Message: fmt.Sprintf("unsupported config format %q (want .cue, .yaml or .yml)", ext),
		}}}
	}
	if err := v.Err(); err != nil {
		return nil, newError(filename, err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(v)
	if err := unified.Validate(); err != nil {
		return nil, newError(filename, err)
	}

	var raw file
	if err := unified.Decode(&raw); err != nil {
		return nil, newError(filename, err)
	}
	return raw.resolve(filename)
}

// Default returns the configuration of an empty file.
func Default() *Config {
	c, err := Parse("default.cue", nil)
	if err != nil {
		panic(fmt.Sprintf("default config: %v", err))
	}
	return c
}

func (f file) resolve(filename string) (*Config, error) {
	var problems []Problem
	duration := func(field, s string) time.Duration {
		d, err := time.ParseDuration(s)
		if err != nil {
			problems = append(problems, Problem{Field: field, Message: err.Error()})
		}
		return d
	}
	window := func(field, s string) time.Duration {
		d, err := time.ParseDuration(s)
		switch {
		case err != nil:
			problems = append(problems, Problem{Field: field, Message: err.Error()})
		case d <= 0:
			problems = append(problems, Problem{Field: field, Message: "must be positive"})
		}
		return d
	}

	c := &Config{
		Epics: f.Epics,
		Throttle: Throttle{
			Login:  window("throttle.login", f.Throttle.Login),
			Search: window("throttle.search", f.Throttle.Search),
		},
		API: API{
			Latency:      duration("api.latency", f.API.Latency),
			FailProducts: f.API.FailProducts,
		},
		Socket:  Socket{URL: f.Socket.URL},
		Journal: Journal{Path: f.Journal.Path},
		Log:     Log{Level: f.Log.Level},
	}
	if c.Epics == nil {
		c.Epics = epic.DefaultNames()
	}
	for i, name := range c.Epics {
		if _, ok := epic.Lookup(name); !ok {
			problems = append(problems, Problem{
				Field:   fmt.Sprintf("epics[%d]", i),
				Message: fmt.Sprintf("unknown epic %q", name),
			})
		}
	}

	if len(problems) > 0 {
		return nil, &Error{Path: filename, Problems: problems}
	}
	return c, nil
}

// LogLevel returns the slog level named by Log.Level.
func (c *Config) LogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// EpicSet resolves the configured epic names.
func (c *Config) EpicSet() ([]epic.Named, error) {
	return epic.Resolve(c.Epics)
}

// Dependencies returns epic dependencies with the configured throttle
// windows. API and message source are left to the caller.
func (c *Config) Dependencies() epic.Dependencies {
	return epic.Dependencies{
		LoginThrottle:  c.Throttle.Login,
		SearchThrottle: c.Throttle.Search,
	}
}

// Problem is one configuration error.
type Problem struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", p.Line)
	}
	if p.Field != "" {
		b.WriteString(p.Field)
		b.WriteString(": ")
	}
	b.WriteString(p.Message)
	return b.String()
}

// Error reports every problem found in a configuration file.
type Error struct {
	Path     string
	Problems []Problem
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return fmt.Sprintf("invalid config %s: %s", e.Path, strings.Join(msgs, "; "))
}

// newError converts a CUE error, which may hold several, into an Error
// with positions.
func newError(filename string, err error) *Error {
	e := &Error{Path: filename}
	for _, ce := range cueerrors.Errors(err) {
		format, args := ce.Msg()
		p := Problem{Field: strings.Join(ce.Path(), "."), Message: fmt.Sprintf(format, args...)}
		if pos := cueerrors.Positions(ce); len(pos) > 0 && pos[0].Filename() == filename {
			p.Line = pos[0].Line()
		}
		e.Problems = append(e.Problems, p)
	}
	if len(e.Problems) == 0 {
		e.Problems = []Problem{{Message: err.Error()}}
	}
	return e
}
