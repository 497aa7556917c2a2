package sensor

import "fmt"

// InverterSensors map directly onto inverter registers of the same name.
var InverterSensors = []Descriptor{
	{
		Key:         "e_pv_total",
		Name:        "PV Energy Total",
		Icon:        IconPV,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "p_pv1",
		Name:        "PV Power (String 1)",
		Icon:        IconPV,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "p_pv2",
		Name:        "PV Power (String 2)",
		Icon:        IconPV,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "e_grid_in_day",
		Name:        "Grid Import Today",
		Icon:        IconGridImport,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_grid_in_total",
		Name:        "Grid Import Total",
		Icon:        IconGridImport,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_grid_out_day",
		Name:        "Grid Export Today",
		Icon:        IconGridExport,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_grid_out_total",
		Name:        "Grid Export Total",
		Icon:        IconGridExport,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_inverter_out_day",
		Name:        "Inverter Output Today",
		Icon:        IconInverter,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_inverter_out_total",
		Name:        "Inverter Output Total",
		Icon:        IconInverter,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "p_inverter_out",
		Name:        "Inverter Total Power",
		Icon:        IconInverter,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "e_battery_charge_day",
		Name:        "Battery Charge Today",
		Icon:        IconBatteryPlus,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_battery_discharge_day",
		Name:        "Battery Discharge Today",
		Icon:        IconBatteryMinus,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "e_battery_throughput_total",
		Name:        "Battery Throughput Total",
		Icon:        IconBattery,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
	},
	{
		Key:         "p_load_demand",
		Name:        "Consumption Power",
		Icon:        IconAC,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "p_grid_out",
		Name:        "Grid Export Power",
		Icon:        IconGridExport,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "v_battery",
		Name:        "Battery Voltage",
		Icon:        IconBattery,
		DeviceClass: DeviceClassVoltage,
		StateClass:  StateClassMeasurement,
		Unit:        UnitVolt,
	},
	{
		Key:         "p_battery",
		Name:        "Battery Power",
		Icon:        IconBattery,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "p_eps_backup",
		Name:        "Inverter EPS Backup Power",
		Icon:        IconEPS,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
	},
	{
		Key:         "battery_percent",
		Name:        "Battery Percent",
		DeviceClass: DeviceClassBattery,
		Unit:        UnitPercentage,
	},
	{
		Key:        "temp_battery",
		Name:       "Battery Temperature",
		Icon:       IconBatteryTemperature,
		StateClass: StateClassMeasurement,
		Unit:       UnitCelsius,
	},
	{
		Key:         "v_ac1",
		Name:        "Grid Voltage",
		Icon:        IconAC,
		DeviceClass: DeviceClassVoltage,
		StateClass:  StateClassMeasurement,
		Unit:        UnitVolt,
	},
	{
		Key:         "f_ac1",
		Name:        "Grid Frequency",
		Icon:        IconAC,
		DeviceClass: DeviceClassFrequency,
		StateClass:  StateClassMeasurement,
		Unit:        UnitHertz,
	},
	{
		Key:         "temp_inverter_heatsink",
		Name:        "Inverter Heatsink Temperature",
		Icon:        IconTemperature,
		DeviceClass: DeviceClassTemperature,
		StateClass:  StateClassMeasurement,
		Unit:        UnitCelsius,
	},
	{
		Key:         "temp_charger",
		Name:        "Inverter Charger Temperature",
		Icon:        IconTemperature,
		DeviceClass: DeviceClassTemperature,
		StateClass:  StateClassMeasurement,
		Unit:        UnitCelsius,
	},
}

var (
	PVEnergyTodaySensor = Descriptor{
		Key:         "e_pv_day",
		Name:        "PV Energy Today",
		Icon:        IconPV,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
		Compute:     ComputePVEnergyToday,
	}
	PVPowerSensor = Descriptor{
		Key:         "p_pv",
		Name:        "PV Power",
		Icon:        IconPV,
		DeviceClass: DeviceClassPower,
		StateClass:  StateClassMeasurement,
		Unit:        UnitWatt,
		Compute:     ComputePVPower,
	}
	ConsumptionTodaySensor = Descriptor{
		Key:         "e_consumption_today",
		Name:        "Consumption Today",
		Icon:        IconAC,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
		Compute:     ComputeConsumptionToday,
	}
	// The key is kept as-is so existing unique IDs stay stable.
	ConsumptionTotalSensor = Descriptor{
		Key:         "e_consumption_consumption",
		Name:        "Consumption Total",
		Icon:        IconAC,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotalIncreasing,
		Unit:        UnitKiloWattH,
		Compute:     ComputeConsumptionTotal,
	}
	BatteryModeSensor = Descriptor{
		Key:     "battery_mode_description",
		Name:    "Battery Mode",
		Icon:    IconBattery,
		Compute: ComputeBatteryMode,
	}
)

// ComputedInverterSensors derive their value from several inverter registers.
var ComputedInverterSensors = []Descriptor{
	PVEnergyTodaySensor,
	PVPowerSensor,
	ConsumptionTodaySensor,
	ConsumptionTotalSensor,
	BatteryModeSensor,
}

// MaxBatteryCells is the number of per-cell voltage registers a battery BMS reports.
const MaxBatteryCells = 16

// BatterySensors map onto the per-battery register named by RegisterKey.
var BatterySensors = concat(
	[]Descriptor{
		{
			Key:         "battery_soc",
			Name:        "Battery Charge",
			DeviceClass: DeviceClassBattery,
			StateClass:  StateClassMeasurement,
			Unit:        UnitPercentage,
			RegisterKey: "soc",
		},
		{
			Key:         "battery_num_cycles",
			Name:        "Battery Cycles",
			Icon:        IconBatteryCycles,
			StateClass:  StateClassTotalIncreasing,
			RegisterKey: "num_cycles",
		},
		{
			Key:         "v_battery_out",
			Name:        "Battery Output Voltage",
			Icon:        IconBattery,
			StateClass:  StateClassMeasurement,
			Unit:        UnitVolt,
			RegisterKey: "v_out",
		},
	},
	cellVoltageSensors(MaxBatteryCells),
	[]Descriptor{
		{
			Key:         "bat_bms_temp",
			Name:        "Battery BMS Temperature",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_bms_mosfet",
		},
		{
			Key:         "bat_t_max",
			Name:        "Cells Max Temp",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_max",
		},
		{
			Key:         "bat_t_min",
			Name:        "Cells Min Temp",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_min",
		},
		{
			Key:         "bat_cell_temp_1",
			Name:        "Cell Temp Probe 1",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_cells_01_04",
		},
		{
			Key:         "bat_cell_temp_2",
			Name:        "Cell Temp Probe 2",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_cells_05_08",
		},
		{
			Key:         "bat_cell_temp_3",
			Name:        "Cell Temp Probe 3",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_cells_09_12",
		},
		{
			Key:         "bat_cell_temp_4",
			Name:        "Cell Temp Probe 4",
			Icon:        IconBatteryTemperature,
			DeviceClass: DeviceClassTemperature,
			StateClass:  StateClassMeasurement,
			Unit:        UnitCelsius,
			RegisterKey: "t_cells_13_16",
		},
	},
)

var (
	BatteryRemainingCapacitySensor = Descriptor{
		Key:         "battery_remaining_capacity",
		Name:        "Battery Remaining Capacity",
		Icon:        IconBattery,
		DeviceClass: DeviceClassEnergy,
		StateClass:  StateClassTotal,
		Unit:        UnitKiloWattH,
		RegisterKey: "cap_remaining",
		Compute:     ComputeBatteryRemainingCapacity,
	}
	BatteryCellsVoltageSensor = Descriptor{
		Key:         "v_battery_cells_sum",
		Name:        "Battery Cells Voltage",
		Icon:        IconBattery,
		StateClass:  StateClassMeasurement,
		Unit:        UnitVolt,
		RegisterKey: "v_cells_sum",
		Compute:     ComputeBatteryCellsVoltage,
	}
)

// ComputedBatterySensors are added once per battery after BatterySensors.
var ComputedBatterySensors = []Descriptor{
	BatteryRemainingCapacitySensor,
	BatteryCellsVoltageSensor,
}

func cellVoltageSensors(cells int) []Descriptor {
	out := make([]Descriptor, 0, cells)
	for i := 1; i <= cells; i++ {
		out = append(out, Descriptor{
			Key:         fmt.Sprintf("v_battery_cell_%d_Voltage", i),
			Name:        fmt.Sprintf("Battery Cell %d Voltage", i),
			Icon:        IconBattery,
			StateClass:  StateClassMeasurement,
			Unit:        UnitVolt,
			RegisterKey: cellVoltageRegister(i),
		})
	}
	return out
}

// cellVoltageRegister names the voltage register of a 1-based cell index.
func cellVoltageRegister(cell int) string {
	return fmt.Sprintf("v_cell_%02d", cell)
}

func concat(groups ...[]Descriptor) []Descriptor {
	var out []Descriptor
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
