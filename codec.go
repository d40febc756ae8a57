package godsiot

import (
	"fmt"
	"strconv"
)

// Power codes. The device reports power on the same status tree as the
// operating mode but with a distinct two-digit code.
const (
	powerOff = "00"
	powerOn  = "01"
)

// Swing axis values: six hex digits per axis.
const (
	swingAxisOff = "000000"
	swingAxisOn  = "0F0000"
)

// Operating mode code to name.
var modeMap = map[string]string{
	"0300": "auto",
	"0200": "cool",
	"0100": "heat",
	"0000": "fan",
	"0500": "dry",
}

// Fan rate code to name.
var fanRateMap = map[string]string{
	"0A00": "auto",
	"0B00": "quiet",
	"0300": "1",
	"0400": "2",
	"0500": "3",
	"0600": "4",
	"0700": "5",
}

var reverseModeMap = make(map[string]string)
var reverseFanRateMap = make(map[string]string)

func init() {
	for k, v := range modeMap {
		reverseModeMap[v] = k
	}
	for k, v := range fanRateMap {
		reverseFanRateMap[v] = k
	}
}

// hexToTemp converts the first two hex digits of value to a temperature.
// Values above 0x7F are two's-complement negatives. The divisor selects the
// resolution: 2 for half-degree setpoints and the outdoor sensor, 1 for the
// whole-degree indoor sensor.
func hexToTemp(value string, divisor int) (float64, error) {
	if len(value) < 2 {
		return 0, NewProtocolError(fmt.Sprintf("temperature value %q too short", value), nil)
	}
	raw, err := strconv.ParseInt(value[:2], 16, 64)
	if err != nil {
		return 0, NewProtocolError(fmt.Sprintf("invalid temperature value %q", value), err)
	}
	if raw > 127 {
		raw -= 256
	}
	return float64(raw) / float64(divisor), nil
}

// tempToHex converts a temperature to the two-digit hex the device expects.
// Unlike hexToTemp it performs no two's-complement encoding; setpoints are
// bounded to [16, 30] degrees so a negative value never reaches this encoder.
func tempToHex(temperature float64, divisor int) string {
	return fmt.Sprintf("%02x", int(temperature*float64(divisor)))
}

func hexToInt(value string) (int, error) {
	v, err := strconv.ParseInt(value, 16, 64)
	if err != nil {
		return 0, NewProtocolError(fmt.Sprintf("invalid hex value %q", value), err)
	}
	return int(v), nil
}

// fanRateCode resolves a fan rate given either its human label ("auto",
// "quiet", "1".."5") or the raw device code, as the device app sends both.
func fanRateCode(rate string) (string, bool) {
	for code, label := range fanRateMap {
		if label == rate || code == rate {
			return code, true
		}
	}
	return "", false
}

// swingAxisValues maps a logical fan direction to the vertical and
// horizontal axis values to write.
func swingAxisValues(direction string) (vertical, horizontal string) {
	vertical, horizontal = swingAxisOff, swingAxisOff
	switch direction {
	case "vertical":
		vertical = swingAxisOn
	case "horizontal":
		horizontal = swingAxisOn
	case "both", "3d":
		vertical = swingAxisOn
		horizontal = swingAxisOn
	}
	return vertical, horizontal
}
