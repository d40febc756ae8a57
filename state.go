package godsiot

import "fmt"

// State is the canonical, caller-facing snapshot of device status,
// independent of wire encoding. Optional fields are nil when the device did
// not report a usable value. A State is replaced wholesale on a successful
// refresh; a failed refresh leaves the previous one untouched.
type State struct {
	MAC   string
	Model string

	Power bool
	Mode  string // off, auto, cool, heat, fan or dry

	InsideTemp  float64
	OutsideTemp *float64
	Humidity    *int
	TargetTemp  *float64

	FanRate   string // auto, quiet or 1..5
	SwingMode string // off, vertical, horizontal or both

	TodayRuntime string
	WeeklyEnergy []string
}

// TempAdjustment records that the device refused a requested setpoint and a
// nearby value was accepted instead. Replaced or cleared on every
// temperature-only write.
type TempAdjustment struct {
	Requested float64
	Accepted  float64
	Message   string
}

func newTempAdjustment(requested, accepted float64) *TempAdjustment {
	return &TempAdjustment{
		Requested: requested,
		Accepted:  accepted,
		Message: fmt.Sprintf(
			"temperature adjusted from %.1f to %.1f (nearest accepted value)",
			requested, accepted),
	}
}

func formatMAC(mac string) string {
	if len(mac) != 12 {
		return mac
	}

	result := ""
	for i := 0; i < len(mac); i += 2 {
		if i > 0 {
			result += ":"
		}
		result += mac[i : i+2]
	}
	return result
}
