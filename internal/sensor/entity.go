package sensor

import (
	"errors"
	"fmt"

	"github.com/JHOFER-Cloud/givenergy-hass/internal/model"
)

// ErrNoData is returned by Setup before the coordinator has a snapshot.
var ErrNoData = errors.New("coordinator has no data yet")

// ConfigEntry identifies one configured installation.
type ConfigEntry struct {
	EntryID string
	Title   string
}

// Entity is a read-only view of one sensor over the coordinator's latest
// snapshot.
type Entity struct {
	coordinator model.Coordinator
	entry       ConfigEntry
	description Descriptor
	battery     int
	uniqueID    string
}

// Setup builds every sensor entity for an installation: the direct inverter
// sensors, the computed inverter sensors, then the battery sensors for each
// battery present in the current snapshot.
func Setup(coordinator model.Coordinator, entry ConfigEntry) ([]*Entity, error) {
	data := coordinator.Data()
	if data == nil {
		return nil, fmt.Errorf("setup %s: %w", entry.Title, ErrNoData)
	}

	entities := make([]*Entity, 0, len(InverterSensors)+len(ComputedInverterSensors)+
		len(data.Batteries)*(len(BatterySensors)+len(ComputedBatterySensors)))

	for _, d := range InverterSensors {
		entities = append(entities, newEntity(coordinator, entry, d, -1))
	}
	for _, d := range ComputedInverterSensors {
		entities = append(entities, newEntity(coordinator, entry, d, -1))
	}

	for i := range data.Batteries {
		for _, d := range BatterySensors {
			entities = append(entities, newEntity(coordinator, entry, d, i))
		}
		for _, d := range ComputedBatterySensors {
			entities = append(entities, newEntity(coordinator, entry, d, i))
		}
	}

	return entities, nil
}

func newEntity(coordinator model.Coordinator, entry ConfigEntry, d Descriptor, battery int) *Entity {
	e := &Entity{
		coordinator: coordinator,
		entry:       entry,
		description: d,
		battery:     battery,
	}
	e.uniqueID = fmt.Sprintf("%s_%s", e.DeviceID(), d.Key)
	return e
}

func (e *Entity) fields() model.Fields {
	data := e.coordinator.Data()
	if data == nil {
		return nil
	}
	if e.battery < 0 {
		return data.Inverter
	}
	return data.Battery(e.battery)
}

// UniqueID is the device ID joined with the sensor key.
func (e *Entity) UniqueID() string { return e.uniqueID }

func (e *Entity) Descriptor() Descriptor { return e.description }

func (e *Entity) Entry() ConfigEntry { return e.entry }

// BatteryIndex is the battery the entity reads from, or -1 for inverter sensors.
func (e *Entity) BatteryIndex() int { return e.battery }

// SerialNumber returns the serial of the device backing the entity.
func (e *Entity) SerialNumber() string { return e.fields().SerialNumber() }

// DeviceID identifies the device backing the entity. It is the serial number,
// except for batteries that report none, which are named after the inverter
// serial and their 1-based position.
func (e *Entity) DeviceID() string {
	serial := e.SerialNumber()
	if serial != "" || e.battery < 0 {
		return serial
	}
	var inverter string
	if data := e.coordinator.Data(); data != nil {
		inverter = data.Inverter.SerialNumber()
	}
	return fmt.Sprintf("%s_battery%d", inverter, e.battery+1)
}

// Value computes the current state. ok is false when the value is unavailable.
func (e *Entity) Value() (State, bool) {
	fields := e.fields()
	if fields == nil {
		return nil, false
	}
	return Evaluate(e.description, fields)
}

// Attributes returns extra state attributes, or nil when the sensor has none.
func (e *Entity) Attributes() map[string]any {
	fields := e.fields()
	if fields == nil {
		return nil
	}
	return Attributes(e.description, fields)
}
