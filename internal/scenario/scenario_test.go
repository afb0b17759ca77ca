package scenario_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/viewhost"
	"github.com/aretw0/viewhost/internal/scenario"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/ports"
)

func newRunner(t *testing.T) (*scenario.Runner, *sim.Engine, *bytes.Buffer) {
	t.Helper()
	eng := sim.NewEngine()
	vh, err := viewhost.New(eng)
	require.NoError(t, err)
	t.Cleanup(vh.Destroy)
	out := &bytes.Buffer{}
	return &scenario.Runner{
		Viewhost: vh,
		NewView:  func(name string) ports.View { return sim.NewView(name) },
		Output:   out,
	}, eng, out
}

func TestParse_Validation(t *testing.T) {
	tests := map[string]string{
		"two actions":   "steps:\n  - pause: true\n    resume: true\n",
		"no action":     "steps:\n  - expect: {current: x}\n",
		"bad display":   "steps:\n  - display: dimmed\n",
		"empty render":  "steps:\n  - render: {token: x}\n",
		"both sources":  "steps:\n  - render: {file: a.json, document: {type: APL}}\n",
		"invalid yaml":  "steps: [",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := scenario.Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestParse_Defaults(t *testing.T) {
	s, err := scenario.Parse([]byte("name: x\nsteps:\n  - wait: 10ms\n"))
	require.NoError(t, err)
	assert.Equal(t, "main", s.View)
	assert.Equal(t, "wait", s.Steps[0].Kind())
}

func TestRun_BackNavigation(t *testing.T) {
	runner, eng, out := newRunner(t)
	s, err := scenario.Load("testdata/back.yaml")
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), s)
	require.NoError(t, err)

	want := []scenario.StepResult{
		{Index: 1, Kind: "render", Token: "home", State: "displayed"},
		{Index: 2, Kind: "render", Token: "detail", State: "displayed"},
		{Index: 3, Kind: "configure", Token: "detail", State: "displayed"},
		{Index: 4, Kind: "display", Token: "detail", State: "displayed"},
		{Index: 5, Kind: "execute", Token: "detail", State: "displayed", Completed: true},
		{Index: 6, Kind: "back", Token: "home", State: "displayed", Restored: true},
		{Index: 7, Kind: "back", Token: "home", State: "displayed"},
	}
	if diff := cmp.Diff(want, results, cmpopts.IgnoreFields(scenario.StepResult{}, "Err")); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}

	detail, _ := eng.Renderer("detail")
	v, _ := detail.Value("title", "text")
	assert.Equal(t, "Changed", v)
	assert.True(t, detail.Destroyed())

	home, _ := eng.Renderer("home")
	assert.Equal(t, 800.0, home.Metrics().Width, "cached documents receive configuration changes on restore")

	assert.Contains(t, out.String(), "restored=true")
}

func TestRun_ExpectationFailure(t *testing.T) {
	runner, _, _ := newRunner(t)
	s, err := scenario.Parse([]byte(`
steps:
  - render:
      token: a
      document: '{"type":"APL"}'
    expect:
      current: b
`))
	require.NoError(t, err)

	_, err = runner.Run(context.Background(), s)
	assert.ErrorContains(t, err, `current is "a", want "b"`)
}

func TestRun_ExpectedError(t *testing.T) {
	runner, _, _ := newRunner(t)
	s, err := scenario.Parse([]byte(`
steps:
  - render:
      document: '{"type":"Other"}'
    expect:
      error: invalid document type
  - execute:
      commands: []
`))
	require.NoError(t, err)

	results, err := runner.Run(context.Background(), s)
	require.Error(t, err)
	assert.Len(t, results, 2)
	assert.ErrorContains(t, err, "no current document")
}
