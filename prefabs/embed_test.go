package prefabs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPaths(t *testing.T) {
	tests := []struct {
		in         string
		wantPrefab string
		wantScript string
	}{
		{"motor.yaml", "motor.yaml", "scripts/motor.yaml"},
		{"prefabs/motor.yaml", "motor.yaml", "scripts/motor.yaml"},
		{"/home/dev/game/prefabs/scenarios/ramp.yaml", "scenarios/ramp.yaml", "scripts/scenarios/ramp.yaml"},
		{"prefabs/scripts/run.tengo", "scripts/run.tengo", "scripts/run.tengo"},
		{"run.tengo", "run.tengo", "scripts/run.tengo"},
		{"", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.wantPrefab, cleanPrefabPath(tc.in))
			require.Equal(t, tc.wantScript, cleanScriptPath(tc.in))
		})
	}
}

func TestSamePrefab(t *testing.T) {
	require.True(t, SamePrefab("motor.yaml", "prefabs/motor.yaml"))
	require.True(t, SamePrefab("scenarios/jump.yaml", "/tmp/x/prefabs/scenarios/jump.yaml"))
	require.False(t, SamePrefab("motor.yaml", "motor_direct.yaml"))
	require.False(t, SamePrefab("", ""))

	require.True(t, SameScript("run_and_jump.tengo", "prefabs/scripts/run_and_jump.tengo"))
	require.False(t, SameScript("", "scripts/x.tengo"))
}

func TestLoadScript(t *testing.T) {
	data, err := LoadScript("run_and_jump.tengo")
	require.NoError(t, err)
	require.Contains(t, string(data), "move_x")

	_, err = LoadScript("nope.tengo")
	require.Error(t, err)
}
