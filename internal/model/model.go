package model

import "strings"

// Model identifies the inverter hardware variant. Values follow the first
// digit of the GivEnergy device type code.
type Model string

const (
	ModelUnknown   Model = ""
	ModelHybrid    Model = "2"
	ModelAC        Model = "3"
	ModelHybrid3PH Model = "4"
	ModelEMS       Model = "5"
	ModelAC3PH     Model = "6"
	ModelGateway   Model = "7"
	ModelAllInOne  Model = "8"
)

var modelNames = map[Model]string{
	ModelHybrid:    "Hybrid",
	ModelAC:        "AC",
	ModelHybrid3PH: "Hybrid - 3ph",
	ModelEMS:       "EMS",
	ModelAC3PH:     "AC - 3ph",
	ModelGateway:   "Gateway",
	ModelAllInOne:  "All in One",
}

func (m Model) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return "Unknown"
}

// ParseModel accepts either the device type digit or the display name.
func ParseModel(value string) Model {
	value = strings.TrimSpace(value)
	if _, ok := modelNames[Model(value)]; ok {
		return Model(value)
	}
	for m, name := range modelNames {
		if strings.EqualFold(name, value) {
			return m
		}
	}
	return ModelUnknown
}
