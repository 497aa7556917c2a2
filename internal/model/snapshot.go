package model

import (
	"math"
	"strconv"
)

// Fields is a decoded register set keyed by register name.
//
// Values carry the types produced by decoding JSON: float64 for numbers,
// bool for flags and string for identifiers. The accessors report ok=false
// when a register is absent or holds a different kind of value.
type Fields map[string]any

func (f Fields) Get(key string) (any, bool) {
	if f == nil {
		return nil, false
	}
	value, ok := f[key]
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

func (f Fields) Float(key string) (float64, bool) {
	value, ok := f.Get(key)
	if !ok {
		return 0, false
	}
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case uint16:
		return float64(typed), true
	}
	return 0, false
}

func (f Fields) Int(key string) (int, bool) {
	value, ok := f.Float(key)
	if !ok || value != math.Trunc(value) {
		return 0, false
	}
	return int(value), true
}

func (f Fields) Bool(key string) (bool, bool) {
	value, ok := f.Get(key)
	if !ok {
		return false, false
	}
	typed, ok := value.(bool)
	return typed, ok
}

func (f Fields) String(key string) (string, bool) {
	value, ok := f.Get(key)
	if !ok {
		return "", false
	}
	switch typed := value.(type) {
	case string:
		return typed, true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	}
	return "", false
}

// SerialNumber returns the serial_number register or an empty string.
func (f Fields) SerialNumber() string {
	serial, _ := f.String("serial_number")
	return serial
}

// Snapshot is the coordinator's view of the most recent successful poll.
type Snapshot struct {
	Inverter  Fields   `json:"inverter"`
	Batteries []Fields `json:"batteries"`
}

// Model returns the inverter hardware variant from the model register.
func (s *Snapshot) Model() Model {
	if s == nil {
		return ModelUnknown
	}
	value, ok := s.Inverter.String("model")
	if !ok {
		return ModelUnknown
	}
	return ParseModel(value)
}

// Battery returns the register set for battery i, or nil if not present.
func (s *Snapshot) Battery(i int) Fields {
	if s == nil || i < 0 || i >= len(s.Batteries) {
		return nil
	}
	return s.Batteries[i]
}

// Coordinator exposes the latest decoded snapshot. Data returns nil until
// the first successful poll.
type Coordinator interface {
	Data() *Snapshot
}
