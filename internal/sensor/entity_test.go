package sensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/model"
)

type stubCoordinator struct {
	data *model.Snapshot
}

func (s *stubCoordinator) Data() *model.Snapshot { return s.data }

func testSnapshot(batteries int) *model.Snapshot {
	snapshot := &model.Snapshot{
		Inverter: model.Fields{
			"serial_number":      "SA1234G567",
			"model":              "2",
			"p_pv1":              1000.0,
			"p_pv2":              250.0,
			"battery_power_mode": 1.0,
			"enable_discharge":   false,
		},
	}
	for i := 0; i < batteries; i++ {
		battery := model.Fields{
			"serial_number": []string{"BG0001", "BG0002", "BG0003"}[i],
			"soc":           float64(50 + i),
			"num_cells":     16.0,
			"cap_remaining": 150.0,
			"v_cells_sum":   52.0,
		}
		for c := 1; c <= MaxBatteryCells; c++ {
			battery[cellVoltageRegister(c)] = 3.25
		}
		snapshot.Batteries = append(snapshot.Batteries, battery)
	}
	return snapshot
}

func TestCatalogSizes(t *testing.T) {
	assert.Len(t, InverterSensors, 24)
	assert.Len(t, ComputedInverterSensors, 5)
	assert.Len(t, BatterySensors, 3+MaxBatteryCells+7)
	assert.Len(t, ComputedBatterySensors, 2)

	seen := map[string]bool{}
	for _, group := range [][]Descriptor{InverterSensors, ComputedInverterSensors, BatterySensors, ComputedBatterySensors} {
		for _, d := range group {
			assert.False(t, seen[d.Key], "duplicate key %s", d.Key)
			seen[d.Key] = true
			assert.NotEmpty(t, d.Name, d.Key)
		}
	}

	for _, d := range BatterySensors {
		assert.NotEmpty(t, d.RegisterKey, "battery sensor %s needs a register key", d.Key)
		assert.Equal(t, ComputeDirect, d.Compute)
	}
	for _, d := range InverterSensors {
		assert.Empty(t, d.RegisterKey)
		assert.Equal(t, ComputeDirect, d.Compute)
	}
	assert.Equal(t, "v_cell_16", BatterySensors[3+MaxBatteryCells-1].RegisterKey)
}

func TestSetup_NoData(t *testing.T) {
	_, err := Setup(&stubCoordinator{}, ConfigEntry{Title: "house"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
}

func TestSetup_EntityCount(t *testing.T) {
	inverterOnly := len(InverterSensors) + len(ComputedInverterSensors)
	perBattery := len(BatterySensors) + len(ComputedBatterySensors)

	for batteries := 0; batteries <= 3; batteries++ {
		entities, err := Setup(&stubCoordinator{data: testSnapshot(batteries)}, ConfigEntry{EntryID: "1"})
		require.NoError(t, err)
		assert.Len(t, entities, inverterOnly+batteries*perBattery)
	}
}

func TestSetup_UniqueIDs(t *testing.T) {
	entities, err := Setup(&stubCoordinator{data: testSnapshot(2)}, ConfigEntry{EntryID: "1"})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, e := range entities {
		assert.False(t, ids[e.UniqueID()], "duplicate unique id %s", e.UniqueID())
		ids[e.UniqueID()] = true
	}

	assert.True(t, ids["SA1234G567_p_pv"])
	assert.True(t, ids["BG0001_battery_soc"])
	assert.True(t, ids["BG0002_battery_soc"])
	assert.Equal(t, -1, entities[0].BatteryIndex())
	assert.Equal(t, "1", entities[0].Entry().EntryID)
}

func TestEntity_ReadsLatestSnapshot(t *testing.T) {
	coord := &stubCoordinator{data: testSnapshot(1)}
	entities, err := Setup(coord, ConfigEntry{})
	require.NoError(t, err)

	byID := map[string]*Entity{}
	for _, e := range entities {
		byID[e.UniqueID()] = e
	}

	pv := byID["SA1234G567_p_pv"]
	require.NotNil(t, pv)
	v, ok := pv.Value()
	require.True(t, ok)
	assert.Equal(t, 1250.0, v)

	mode, ok := byID["SA1234G567_battery_mode_description"].Value()
	require.True(t, ok)
	assert.Equal(t, BatteryModeEco, mode)

	capacity, ok := byID["BG0001_battery_remaining_capacity"].Value()
	require.True(t, ok)
	assert.InDelta(t, 7.8, capacity, 1e-9)

	cells := byID["BG0001_v_battery_cells_sum"]
	v, ok = cells.Value()
	require.True(t, ok)
	assert.Equal(t, 52.0, v)
	assert.Len(t, cells.Attributes(), 16)

	_, ok = byID["SA1234G567_e_pv_total"].Value()
	assert.False(t, ok, "unmapped register is unavailable")
	assert.Nil(t, byID["SA1234G567_e_pv_total"].Attributes())

	// next poll cycle
	next := testSnapshot(1)
	next.Inverter["p_pv2"] = 0.0
	next.Inverter["enable_discharge"] = true
	coord.data = next

	v, ok = pv.Value()
	require.True(t, ok)
	assert.Equal(t, 1000.0, v)

	mode, _ = byID["SA1234G567_battery_mode_description"].Value()
	assert.Equal(t, BatteryModeTimedDischarge, mode)

	// battery disappeared from the snapshot
	coord.data = testSnapshot(0)
	_, ok = byID["BG0001_battery_soc"].Value()
	assert.False(t, ok)

	coord.data = nil
	_, ok = pv.Value()
	assert.False(t, ok)
}

func TestSetup_BatteryWithoutSerial(t *testing.T) {
	snapshot := testSnapshot(2)
	delete(snapshot.Batteries[0], "serial_number")
	delete(snapshot.Batteries[1], "serial_number")

	entities, err := Setup(&stubCoordinator{data: snapshot}, ConfigEntry{Title: "house"})
	require.NoError(t, err)

	ids := map[string]bool{}
	for _, e := range entities {
		assert.False(t, ids[e.UniqueID()], "duplicate unique ID %s", e.UniqueID())
		ids[e.UniqueID()] = true
	}
	assert.True(t, ids["SA1234G567_battery1_battery_soc"])
	assert.True(t, ids["SA1234G567_battery2_battery_soc"])

	// Inverter and serial-bearing batteries keep their serial
	assert.True(t, ids["SA1234G567_p_pv"])
}
