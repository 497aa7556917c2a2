package sensor

import (
	"math"
	"strconv"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/model"
)

// Battery mode labels.
const (
	BatteryModeEco            = "Eco"
	BatteryModeTimedDischarge = "Timed Discharge"
	BatteryModeTimedExport    = "Timed Export"
	BatteryModeUnknown        = "Unknown"
)

// battery_power_mode register values.
const (
	powerModeExport = 0
	powerModeDemand = 1
)

type valueFunc func(fields model.Fields) (State, bool)

var valueFuncs = map[Compute]valueFunc{
	ComputePVEnergyToday:            PVEnergyToday,
	ComputePVPower:                  PVPower,
	ComputeConsumptionToday:         ConsumptionToday,
	ComputeConsumptionTotal:         ConsumptionTotal,
	ComputeBatteryMode:              BatteryMode,
	ComputeBatteryRemainingCapacity: BatteryRemainingCapacity,
}

// Evaluate returns the value of d over fields. ok is false when any register
// the sensor needs is absent.
func Evaluate(d Descriptor, fields model.Fields) (State, bool) {
	if fn, ok := valueFuncs[d.Compute]; ok {
		return fn(fields)
	}
	return fields.Get(d.LookupKey())
}

// Attributes returns auxiliary display attributes for d, or nil.
func Attributes(d Descriptor, fields model.Fields) map[string]any {
	if d.Compute == ComputeBatteryCellsVoltage {
		return CellVoltages(fields)
	}
	return nil
}

// PVEnergyToday sums today's energy across both PV strings.
func PVEnergyToday(fields model.Fields) (State, bool) {
	return sum(fields, "e_pv1_day", "e_pv2_day")
}

// PVPower sums the power of both PV strings.
func PVPower(fields model.Fields) (State, bool) {
	return sum(fields, "p_pv1", "p_pv2")
}

// ConsumptionToday is net inverter output plus net grid import for today.
func ConsumptionToday(fields model.Fields) (State, bool) {
	return consumption(fields, "e_inverter_out_day", "e_inverter_in_day", "e_grid_in_day", "e_grid_out_day",
		"e_pv1_day", "e_pv2_day")
}

// ConsumptionTotal is lifetime net inverter output plus net grid import.
func ConsumptionTotal(fields model.Fields) (State, bool) {
	return consumption(fields, "e_inverter_out_total", "e_inverter_in_total", "e_grid_in_total", "e_grid_out_total",
		"e_pv_total")
}

func consumption(fields model.Fields, invOut, invIn, gridIn, gridOut string, pv ...string) (State, bool) {
	var v [4]float64
	for i, key := range []string{invOut, invIn, gridIn, gridOut} {
		f, ok := fields.Float(key)
		if !ok {
			return nil, false
		}
		v[i] = f
	}
	total := v[0] - v[1] + v[2] - v[3]

	// AC-coupled inverters don't count PV generation in their output.
	if modelOf(fields) == model.ModelAC {
		pvTotal, ok := sum(fields, pv...)
		if !ok {
			return nil, false
		}
		total += pvTotal.(float64)
	}
	return total, true
}

// BatteryMode classifies the battery_power_mode and enable_discharge flags.
func BatteryMode(fields model.Fields) (State, bool) {
	mode, modeOK := fields.Int("battery_power_mode")
	discharge, dischargeOK := fields.Bool("enable_discharge")
	return classifyBatteryMode(mode, modeOK, discharge, dischargeOK), true
}

func classifyBatteryMode(mode int, modeOK bool, discharge, dischargeOK bool) string {
	if !modeOK || !dischargeOK {
		return BatteryModeUnknown
	}
	switch {
	case mode == powerModeDemand && !discharge:
		return BatteryModeEco
	case discharge && mode == powerModeDemand:
		return BatteryModeTimedDischarge
	case discharge && mode == powerModeExport:
		return BatteryModeTimedExport
	}
	return BatteryModeUnknown
}

// BatteryRemainingCapacity converts cap_remaining from Ah to kWh using the
// summed cell voltage, rounded to 3 decimal places.
func BatteryRemainingCapacity(fields model.Fields) (State, bool) {
	capAh, ok := fields.Float("cap_remaining")
	if !ok {
		return nil, false
	}
	cellsSum, ok := fields.Float("v_cells_sum")
	if !ok {
		return nil, false
	}
	return roundTo(capAh*cellsSum/1000, 3), true
}

// CellVoltages maps each 1-based cell index up to num_cells onto that cell's
// voltage register. Absent cells are left out.
func CellVoltages(fields model.Fields) map[string]any {
	cells, ok := fields.Int("num_cells")
	if !ok || cells <= 0 {
		return nil
	}
	out := make(map[string]any, cells)
	for i := 1; i <= cells; i++ {
		if v, ok := fields.Get(cellVoltageRegister(i)); ok {
			out[strconv.Itoa(i)] = v
		}
	}
	return out
}

func sum(fields model.Fields, keys ...string) (State, bool) {
	var total float64
	for _, key := range keys {
		v, ok := fields.Float(key)
		if !ok {
			return nil, false
		}
		total += v
	}
	return total, true
}

func modelOf(fields model.Fields) model.Model {
	value, ok := fields.String("model")
	if !ok {
		return model.ModelUnknown
	}
	return model.ParseModel(value)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
