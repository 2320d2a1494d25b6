package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// FormatTrace renders a result as golden text: a header, one line per
// reduced action and one line per failed epic.
//
//	# fetch_user
//	session: test-session-default
//	001 dispatch fetchUser {"id":"1"}
//	002 fetchUser setUser {"user":{"firstName":"Ada","id":"1"}}
func FormatTrace(name string, result *Result) []byte {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(name)
	b.WriteByte('\n')
	b.WriteString("session: ")
	b.WriteString(result.Session)
	b.WriteByte('\n')
	for _, e := range result.Trace {
		b.WriteString(e.Line())
		b.WriteByte('\n')
	}
	for _, f := range result.Failures {
		b.WriteString("failed ")
		b.WriteString(f.Epic)
		b.WriteString(": ")
		b.WriteString(f.Error)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, FormatTrace(name, result))
}
