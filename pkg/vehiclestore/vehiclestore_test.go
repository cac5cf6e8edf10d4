package vehiclestore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/bods-client/pkg/siri_vm"
)

func openTestStore(t *testing.T) *VehicleStore {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "vehicles.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func activity(itemIdentifier, vehicleRef string, recordedAt time.Time, longitude float64) siri_vm.VehicleActivity {
	bearing := 90.0

	return siri_vm.VehicleActivity{
		RecordedAtTime: recordedAt,
		ItemIdentifier: itemIdentifier,
		ValidUntilTime: siri_vm.DateTime{Time: recordedAt.Add(5 * time.Minute), Naive: true},
		MonitoredVehicleJourney: siri_vm.MonitoredVehicleJourney{
			LineRef:     "9",
			OperatorRef: "AKSS",
			FramedVehicleJourneyRef: &siri_vm.FramedVehicleJourneyRef{
				DataFrameRef:           "2022-01-29",
				DatedVehicleJourneyRef: "1609",
			},
			VehicleLocation: siri_vm.VehicleLocation{Longitude: longitude, Latitude: 51.277118},
			Bearing:         &bearing,
			VehicleRef:      vehicleRef,
		},
	}
}

func TestLoadAndCount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	recordedAt := time.Date(2022, 1, 29, 16, 9, 19, 0, time.UTC)

	loaded, err := store.Load(ctx, []siri_vm.VehicleActivity{
		activity("a", "6409", recordedAt, 0.557191),
		activity("b", "6410", recordedAt, 0.6),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Same item identifier replaces the earlier row
	_, err = store.Load(ctx, []siri_vm.VehicleActivity{activity("a", "6409", recordedAt, 0.7)})
	require.NoError(t, err)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	latest, err := store.LatestForVehicle(ctx, "AKSS", "6409")
	require.NoError(t, err)
	assert.Equal(t, 0.7, latest.MonitoredVehicleJourney.VehicleLocation.Longitude)
}

func TestLoadSkipsUnencodableActivities(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	recordedAt := time.Date(2022, 1, 29, 16, 9, 19, 0, time.UTC)

	loaded, err := store.Load(ctx, []siri_vm.VehicleActivity{
		activity("a", "6409", recordedAt, 0.557191),
		activity("nan", "6410", recordedAt, math.NaN()),
		activity("b", "6411", recordedAt, 0.6),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = store.LatestForVehicle(ctx, "AKSS", "6410")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLatestForVehicle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	recordedAt := time.Date(2022, 1, 29, 16, 9, 19, 0, time.UTC)

	_, err := store.Load(ctx, []siri_vm.VehicleActivity{
		activity("late", "6409", recordedAt.Add(time.Minute), 0.56),
		activity("early", "6409", recordedAt, 0.55),
	})
	require.NoError(t, err)

	latest, err := store.LatestForVehicle(ctx, "AKSS", "6409")
	require.NoError(t, err)

	expected := activity("late", "6409", recordedAt.Add(time.Minute), 0.56)
	assert.Equal(t, expected.ItemIdentifier, latest.ItemIdentifier)
	assert.True(t, expected.RecordedAtTime.Equal(latest.RecordedAtTime))
	assert.True(t, latest.ValidUntilTime.Naive)
	assert.Equal(t, expected.MonitoredVehicleJourney, latest.MonitoredVehicleJourney)

	_, err = store.LatestForVehicle(ctx, "AKSS", "9999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicles.sqlite")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	_, err = store.Load(ctx, []siri_vm.VehicleActivity{activity("a", "6409", time.Now(), 0.5)})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
