package presets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamaheux/pyodas2/geometry"
)

func allNames() []string {
	return []string{
		"RESPEAKER_USB_4", "RESPEAKER_USB_6", "MINIDSP_UMA",
		"SC16_DEMO_ARRAY", "SC16F", "VIBEUS_CIRCULAR", "SOUNDSKRIT_MUG",
	}
}

func TestByNameFindsEveryPreset(t *testing.T) {
	for _, name := range allNames() {
		mics, ok := ByName(name)
		require.True(t, ok, name)
		require.GreaterOrEqual(t, len(mics), 2, name)
		_, err := geometry.NewArray(mics)
		assert.NoError(t, err, name)
	}
}

func TestByNameRejectsUnknown(t *testing.T) {
	_, ok := ByName("NOT_A_PRESET")
	assert.False(t, ok)
}

func TestRespeakerUSB4IsSquare(t *testing.T) {
	mics := RespeakerUSB4()
	require.Len(t, mics, 4)
	arr, err := geometry.NewArray(mics)
	require.NoError(t, err)
	assert.Greater(t, arr.Aperture(), 0.0)
}

func TestMinidspUMAHasCenterMic(t *testing.T) {
	mics := MinidspUMA()
	require.Len(t, mics, 7)
	center := mics[len(mics)-1]
	assert.InDelta(t, 0, center.Position.Norm(), 1e-9)
}

func TestSC16FIsLinearAlongX(t *testing.T) {
	mics := SC16F()
	require.Len(t, mics, 16)
	for _, m := range mics {
		assert.Equal(t, 0.0, m.Position.Y)
		assert.Equal(t, 0.0, m.Position.Z)
	}
}
