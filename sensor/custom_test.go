package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	starrsonarr "golift.io/starr/sonarr"

	"github.com/hassbridge/sonarrbridge/coordinator"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

func TestNewCustomCompileError(t *testing.T) {
	_, err := NewCustom(CustomSpec{Key: "broken", State: "len("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile expression")
}

func TestNewCustomRequiresKey(t *testing.T) {
	_, err := NewCustom(CustomSpec{State: "1"})
	require.Error(t, err)
}

func TestNewCustomUnknownDatapoint(t *testing.T) {
	_, err := NewCustom(CustomSpec{Key: "x", State: "1", Datapoints: []string{"movies"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown datapoint")
}

func TestCustomSensorState(t *testing.T) {
	def, err := NewCustom(CustomSpec{
		Key:        "library_size",
		State:      "len(series)",
		Datapoints: []string{"series"},
	})
	require.NoError(t, err)

	assert.Equal(t, "library_size", def.Name, "name falls back to key")
	assert.True(t, def.EnabledDefault)
	require.Len(t, def.Datapoints, 1)
	assert.Equal(t, coordinator.DatapointSeries, def.Datapoints[0])

	data := &coordinator.Data{
		Series: []*starrsonarr.Series{{Title: "A"}, {Title: "B"}},
	}

	state, ok := def.State(data)
	require.True(t, ok)
	assert.Equal(t, 2, state)

	attrs := def.Attributes(data)
	assert.Equal(t, "len(series)", attrs["expression"])
}

func TestCustomSensorFieldAccess(t *testing.T) {
	def, err := NewCustom(CustomSpec{
		Key:        "wanted_total",
		State:      "wanted.TotalRecords",
		Datapoints: []string{"wanted"},
	})
	require.NoError(t, err)

	data := &coordinator.Data{
		Wanted: &sonarr.WantedMissing{TotalRecords: 9},
	}

	state, ok := def.State(data)
	require.True(t, ok)
	assert.Equal(t, 9, state)
}

func TestCustomSensorHelpers(t *testing.T) {
	def, err := NewCustom(CustomSpec{
		Key:   "free_space",
		State: "gigabytes(app.Disks[0].FreeSpace)",
	})
	require.NoError(t, err)

	data := &coordinator.Data{
		App: &sonarr.App{
			Disks: []sonarr.DiskSpace{{FreeSpace: 2 * bytesPerGiB}},
		},
	}

	state, ok := def.State(data)
	require.True(t, ok)
	assert.Equal(t, 2.0, state)
}

func TestCustomSensorRuntimeErrorReturnsNoState(t *testing.T) {
	def, err := NewCustom(CustomSpec{
		Key:   "bad_index",
		State: "app.Disks[5].FreeSpace",
	})
	require.NoError(t, err)

	_, ok := def.State(&coordinator.Data{App: &sonarr.App{}})
	assert.False(t, ok)
}
