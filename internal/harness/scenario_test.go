package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: demo
description: demo scenario
epics: [fetchUser]
api:
  latency: 5ms
  users:
    "1": {first_name: Ada}
flow:
  - dispatch: {type: fetchUser, payload: {id: "1"}}
    await: {type: setUser}
assertions:
  - type: trace_count
    action: setUser
    count: 1
`))
	require.NoError(t, err)

	assert.Equal(t, "demo", s.Name)
	assert.Equal(t, 5*time.Millisecond, s.API.Latency)
	assert.Equal(t, "Ada", s.API.Users["1"].FirstName)
	require.Len(t, s.Flow, 1)
	require.NotNil(t, s.Flow[0].Await)
	assert.Equal(t, 1, s.Flow[0].Await.want())
}

func TestParseScenario_Invalid(t *testing.T) {
	base := "name: n\ndescription: d\n"
	flow := "flow:\n  - dispatch: {type: ping}\n"
	asserts := "assertions:\n  - {type: trace_count, action: pong, count: 1}\n"

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing name", "description: d\nepics: [ping]\n" + flow + asserts, "name is required"},
		{"no epics", base + flow + asserts, "epics list is required"},
		{"unknown epic", base + "epics: [nope]\n" + flow + asserts, `unknown epic "nope"`},
		{"no flow", base + "epics: [ping]\n" + asserts, "flow list is required"},
		{"no assertions", base + "epics: [ping]\n" + flow, "assertions list is required"},
		{"unknown action", base + "epics: [ping]\nflow:\n  - dispatch: {type: bogus}\n" + asserts, "unknown action kind"},
		{"bad payload", base + "epics: [ping]\nflow:\n  - dispatch: {type: fetchUser, payload: {idd: x}}\n" + asserts, "flow[0]"},
		{"unknown await", base + "epics: [ping]\nflow:\n  - dispatch: {type: ping}\n    await: {type: bogus}\n" + asserts, "flow[0].await"},
		{"unknown field", base + "epics: [ping]\nflwo: []\n" + flow + asserts, "field flwo not found"},
		{"unknown assertion", base + "epics: [ping]\n" + flow + "assertions:\n  - {type: nope}\n", `unknown assertion type "nope"`},
		{"trace_order without actions", base + "epics: [ping]\n" + flow + "assertions:\n  - {type: trace_order}\n", "actions list is required"},
		{"final_state without path", base + "epics: [ping]\n" + flow + "assertions:\n  - {type: final_state}\n", "path is required"},
		{"epic_failed without epic", base + "epics: [ping]\n" + flow + "assertions:\n  - {type: epic_failed}\n", "epic is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadDir_SortedAndFiltered(t *testing.T) {
	scenarios, paths, err := LoadDir("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	assert.Len(t, paths, len(scenarios))
	assert.IsIncreasing(t, paths)

	filtered, _, err := LoadDir("testdata/scenarios", "fetch_*")
	require.NoError(t, err)
	names := make([]string, len(filtered))
	for i, s := range filtered {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"fetch_product_recover", "fetch_product_terminate", "fetch_user"}, names)
}

func TestLoadDir_ReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [\n"), 0o644))

	_, _, err := LoadDir(dir, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
