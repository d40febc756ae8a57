package godsiot

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
)

// UpdateStatus refreshes the full observable state in one multireq exchange.
// Mandatory fields (identity, power, mode, indoor temperature) abort the
// refresh on failure and leave the previous state in place; sensor extras
// degrade to their zero placeholder instead.
func (d *Device) UpdateStatus(ctx context.Context) error {
	resp, err := d.getResource(ctx, statusPayload())
	if err != nil {
		return err
	}

	st := State{}

	mac, err := findString(resp, apiPaths.macAddress)
	if err != nil {
		return err
	}
	st.MAC = mac

	// Model arrives hex-encoded ASCII, best-effort.
	if modelHex, err := findString(resp, apiPaths.model); err == nil && modelHex != "" {
		if raw, err := hex.DecodeString(modelHex); err == nil {
			st.Model = strings.TrimRight(string(raw), "\x00 ")
		} else {
			d.Logger.Warn("could not parse model number", "value", modelHex, "error", err)
		}
	}

	powerVal, err := findString(resp, apiPaths.power)
	if err != nil {
		return err
	}
	st.Power = powerVal != powerOff

	modeVal, err := findString(resp, apiPaths.mode)
	if err != nil {
		return err
	}
	if !st.Power {
		st.Mode = "off"
	} else {
		name, ok := modeMap[modeVal]
		if !ok {
			return NewProtocolError("unknown mode code "+modeVal, nil)
		}
		st.Mode = name
	}

	if otempHex, err := findString(resp, apiPaths.outdoorTemp); err == nil && otempHex != "" {
		// Four-digit readings starting "20" misreport the low byte on some
		// units; only the first byte is meaningful then.
		if len(otempHex) == 4 && strings.HasPrefix(otempHex, "20") {
			otempHex = otempHex[:2]
		}
		if t, err := hexToTemp(otempHex, 2); err == nil {
			st.OutsideTemp = &t
		} else {
			d.Logger.Warn("could not parse outdoor temperature", "value", otempHex, "error", err)
		}
	}

	htempHex, err := findString(resp, apiPaths.indoorTemp)
	if err != nil {
		return err
	}
	htemp, err := hexToTemp(htempHex, 1)
	if err != nil {
		return err
	}
	st.InsideTemp = htemp

	if humHex, err := findString(resp, apiPaths.indoorHumidity); err == nil {
		if h, err := hexToInt(humHex); err == nil {
			st.Humidity = &h
		}
	}

	if p, ok := apiPaths.tempSettings[st.Mode]; ok {
		stempHex, err := findString(resp, p)
		if err != nil {
			return err
		}
		stemp, err := hexToTemp(stempHex, 2)
		if err != nil {
			return err
		}
		st.TargetTemp = &stemp
		cached := stemp
		d.cachedTargetTemp = &cached
	} else if d.cachedTargetTemp != nil {
		cached := *d.cachedTargetTemp
		st.TargetTemp = &cached
	}

	if p, ok := apiPaths.fanSettings[st.Mode]; ok {
		fanVal, err := findString(resp, p)
		if err != nil {
			return err
		}
		if label, ok := fanRateMap[fanVal]; ok {
			st.FanRate = label
		} else {
			st.FanRate = "auto"
		}
	} else {
		st.FanRate = "auto"
	}

	st.SwingMode = swingState(resp, st.Mode)

	if runtime, err := findValue(resp, endpointEnergy, apiPaths.energy["today_runtime"].Keys()...); err == nil {
		st.TodayRuntime = fmt.Sprintf("%v", runtime)
	}
	if raw, err := findValue(resp, endpointEnergy, apiPaths.energy["weekly_data"].Keys()...); err == nil {
		if entries, ok := raw.([]any); ok && len(entries) > 0 {
			for _, e := range entries {
				st.WeeklyEnergy = append(st.WeeklyEnergy, fmt.Sprintf("%v", e))
			}
		}
	}

	d.state = st
	return nil
}

// swingState derives the logical fan direction from the per-axis byte
// strings. Any lookup failure yields "off"; swing is a best-effort field.
func swingState(resp *multiResponse, mode string) string {
	axes, ok := apiPaths.swingSettings[mode]
	if !ok {
		return "off"
	}

	verticalVal, err := findString(resp, axes["vertical"])
	if err != nil {
		return "off"
	}
	horizontalVal, err := findString(resp, axes["horizontal"])
	if err != nil {
		return "off"
	}

	vertical := strings.Contains(verticalVal, "F")
	horizontal := strings.Contains(horizontalVal, "F")

	switch {
	case vertical && horizontal:
		return "both"
	case horizontal:
		return "horizontal"
	case vertical:
		return "vertical"
	}
	return "off"
}
