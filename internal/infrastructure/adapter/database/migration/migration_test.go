package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versions(steps []Step) []string {
	out := make([]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, s.Version)
	}
	return out
}

func TestPendingSteps(t *testing.T) {
	steps := []Step{{Version: "1.0.0"}, {Version: "1.1.0"}, {Version: "1.2.0"}}

	pending, err := pendingSteps(steps, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.0.0", "1.1.0", "1.2.0"}, versions(pending))

	pending, err = pendingSteps(steps, "1.1.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.0"}, versions(pending))

	pending, err = pendingSteps(steps, "1.2.0")
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = pendingSteps(steps, "9.0.0")
	assert.ErrorContains(t, err, "unknown to this build")
}

func TestStepsAreOrderedAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, step := range Steps {
		assert.False(t, seen[step.Version], "duplicate version %s", step.Version)
		seen[step.Version] = true
		assert.NotNil(t, step.Apply)
		assert.NotEmpty(t, step.Details)
	}
	assert.Equal(t, Steps[len(Steps)-1].Version, CurrentSchemaVersion)
}
