package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeReliability(t *testing.T) {
	_, err := New(ModePermissive, 4, nil)
	assert.Error(t, err)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(Mode("yolo"), 1, nil)
	assert.Error(t, err)
}

func TestPermissiveModeNeverRequiresConfirmation(t *testing.T) {
	p, err := New(ModePermissive, 3, DefaultStrictParams())
	require.NoError(t, err)
	assert.False(t, p.RequiresConfirmation("download", map[string]bool{"path": true}))
}

func TestStrictModeWildcardRequiresConfirmation(t *testing.T) {
	p, err := New(ModeStrict, 1, DefaultStrictParams())
	require.NoError(t, err)
	assert.True(t, p.RequiresConfirmation("download", map[string]bool{"path": true}))
	assert.False(t, p.RequiresConfirmation("click", map[string]bool{"ref": true}))
}

func TestStrictModeParamSpecificGate(t *testing.T) {
	p, err := New(ModeStrict, 1, []StrictParam{{Tool: "dialog", Param: "accept"}})
	require.NoError(t, err)
	assert.True(t, p.RequiresConfirmation("dialog", map[string]bool{"accept": true}))
	assert.False(t, p.RequiresConfirmation("dialog", map[string]bool{"dismiss": true}))
}

func TestReliabilityGates(t *testing.T) {
	off, _ := New(ModePermissive, 0, nil)
	assert.False(t, off.AllowsRetry())

	basic, _ := New(ModePermissive, 1, nil)
	assert.True(t, basic.AllowsRetry())
	assert.False(t, basic.AllowsSoftRecovery())

	standard, _ := New(ModePermissive, 2, nil)
	assert.True(t, standard.AllowsSoftRecovery())
	assert.False(t, standard.AllowsHardRecovery())

	aggressive, _ := New(ModePermissive, 3, nil)
	assert.True(t, aggressive.AllowsHardRecovery())
}
