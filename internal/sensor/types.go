package sensor

// Icon is a Material Design icon reference understood by Home Assistant.
type Icon string

const (
	IconNone               Icon = ""
	IconAC                 Icon = "mdi:power-plug-outline"
	IconBattery            Icon = "mdi:battery-high"
	IconBatteryCycles      Icon = "mdi:battery-sync"
	IconBatteryMinus       Icon = "mdi:battery-minus"
	IconBatteryPlus        Icon = "mdi:battery-plus"
	IconBatteryTemperature Icon = "mdi:thermometer"
	IconEPS                Icon = "mdi:power-socket"
	IconGridExport         Icon = "mdi:transmission-tower-import"
	IconGridImport         Icon = "mdi:transmission-tower-export"
	IconInverter           Icon = "mdi:flash"
	IconPV                 Icon = "mdi:solar-power"
	IconTemperature        Icon = "mdi:thermometer"
)

// Unit is a native unit of measurement.
type Unit string

const (
	UnitNone       Unit = ""
	UnitPercentage Unit = "%"
	UnitVolt       Unit = "V"
	UnitWatt       Unit = "W"
	UnitKiloWattH  Unit = "kWh"
	UnitHertz      Unit = "Hz"
	UnitCelsius    Unit = "°C"
)

type DeviceClass string

const (
	DeviceClassNone        DeviceClass = ""
	DeviceClassBattery     DeviceClass = "battery"
	DeviceClassEnergy      DeviceClass = "energy"
	DeviceClassFrequency   DeviceClass = "frequency"
	DeviceClassPower       DeviceClass = "power"
	DeviceClassTemperature DeviceClass = "temperature"
	DeviceClassVoltage     DeviceClass = "voltage"
)

// StateClass tells Home Assistant how to build long-term statistics.
type StateClass string

const (
	StateClassNone            StateClass = ""
	StateClassMeasurement     StateClass = "measurement"
	StateClassTotal           StateClass = "total"
	StateClassTotalIncreasing StateClass = "total_increasing"
)

// Compute selects how a sensor derives its value from the snapshot.
type Compute int

const (
	// ComputeDirect returns the mapped register verbatim.
	ComputeDirect Compute = iota
	ComputePVEnergyToday
	ComputePVPower
	ComputeConsumptionToday
	ComputeConsumptionTotal
	ComputeBatteryMode
	ComputeBatteryRemainingCapacity
	ComputeBatteryCellsVoltage
)

var computeNames = map[Compute]string{
	ComputeDirect:                   "direct",
	ComputePVEnergyToday:            "pv_energy_today",
	ComputePVPower:                  "pv_power",
	ComputeConsumptionToday:         "consumption_today",
	ComputeConsumptionTotal:         "consumption_total",
	ComputeBatteryMode:              "battery_mode",
	ComputeBatteryRemainingCapacity: "battery_remaining_capacity",
	ComputeBatteryCellsVoltage:      "battery_cells_voltage",
}

func (c Compute) String() string {
	if name, ok := computeNames[c]; ok {
		return name
	}
	return "unknown"
}

// State is a sensor value: a number, a flag or a label.
type State = any

// Descriptor is the static metadata for one sensor.
type Descriptor struct {
	Key         string
	Name        string
	Icon        Icon
	Unit        Unit
	DeviceClass DeviceClass
	StateClass  StateClass

	// RegisterKey names the battery register backing the sensor. Inverter
	// sensors are looked up by Key.
	RegisterKey string

	Compute Compute
}

// LookupKey is the register name a direct sensor reads.
func (d Descriptor) LookupKey() string {
	if d.RegisterKey != "" {
		return d.RegisterKey
	}
	return d.Key
}
