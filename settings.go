package godsiot

import (
	"context"
	"strconv"
)

// Set applies a partial settings update. Accepted keys: "mode" (off, auto,
// cool, heat, fan, dry), "stemp" (numeric string), "f_rate" (label or raw
// device code) and "f_dir" (off, vertical, horizontal, both).
//
// A temperature sent while the unit is off is remembered and applied with
// the next mode change that powers it on; off units reject temperature
// writes outright. A temperature-only update on a running unit goes through
// the negotiator, since the setpoint is the one value the device routinely
// rejects for quantization.
//
// Local state is updated optimistically before the write and not rolled back
// on failure; a following UpdateStatus reconciles with ground truth.
func (d *Device) Set(ctx context.Context, settings map[string]string) error {
	d.Logger.Debug("updating settings", "settings", settings)
	d.applySettingsLocally(settings)

	_, hasTemp := settings["stemp"]
	hasOther := false
	for key := range settings {
		if key != "stemp" {
			hasOther = true
		}
	}

	if hasTemp && !hasOther {
		if !d.state.Power {
			d.Logger.Info("unit is off, storing temperature for power-on", "stemp", settings["stemp"])
			return nil
		}
		requested, err := strconv.ParseFloat(settings["stemp"], 64)
		if err != nil {
			return NewProtocolError("invalid temperature "+settings["stemp"], err)
		}
		_, err = d.setTemperatureClipped(ctx, requested)
		return err
	}

	var writes []Attribute
	d.handlePowerSetting(settings, &writes)
	if settings["mode"] != "off" {
		d.handleTemperatureSetting(settings, &writes)
		d.handleFanSetting(settings, &writes)
		d.handleSwingSetting(settings, &writes)
	}

	if len(writes) == 0 {
		return nil
	}

	request := Request{Attributes: writes}
	resp, err := d.getResource(ctx, request.Payload())
	if err != nil {
		return err
	}
	if err := validateResponse(resp); err != nil {
		return err
	}

	return d.UpdateStatus(ctx)
}

// applySettingsLocally mirrors the requested settings into local state ahead
// of the write. Setting mode "off" only clears the power flag; the last
// operating mode is kept for gating and reporting.
func (d *Device) applySettingsLocally(settings map[string]string) {
	for key, value := range settings {
		switch key {
		case "mode":
			if value == "off" {
				d.state.Power = false
			} else {
				d.state.Power = true
				d.state.Mode = value
			}
		case "stemp":
			if t, err := strconv.ParseFloat(value, 64); err == nil {
				d.state.TargetTemp = &t
			}
		case "f_rate":
			d.state.FanRate = value
		case "f_dir":
			d.state.SwingMode = value
		}
	}

	if stemp, ok := settings["stemp"]; ok && !d.state.Power {
		d.pendingTargetTemp = stemp
		d.Logger.Debug("stored pending temperature", "stemp", stemp)
	}
}

func (d *Device) handlePowerSetting(settings map[string]string, writes *[]Attribute) {
	mode, ok := settings["mode"]
	if !ok {
		return
	}

	if mode == "off" {
		*writes = append(*writes, newAttribute(apiPaths.power, powerOff))
		return
	}

	*writes = append(*writes, newAttribute(apiPaths.power, powerOn))
	if code, ok := reverseModeMap[mode]; ok {
		*writes = append(*writes, newAttribute(apiPaths.mode, code))
	}

	// Consume the temperature deferred while the unit was off.
	if d.pendingTargetTemp != "" && apiPaths.supportsTemperature(mode) {
		d.Logger.Info("applying pending temperature at power-on", "stemp", d.pendingTargetTemp)
		settings["stemp"] = d.pendingTargetTemp
		d.pendingTargetTemp = ""
	}
}

func (d *Device) handleTemperatureSetting(settings map[string]string, writes *[]Attribute) {
	stemp, ok := settings["stemp"]
	if !ok {
		return
	}
	path, ok := apiPaths.tempSettings[d.state.Mode]
	if !ok {
		return
	}

	t, err := strconv.ParseFloat(stemp, 64)
	if err != nil {
		d.Logger.Warn("ignoring unparseable temperature", "stemp", stemp)
		return
	}
	*writes = append(*writes, newAttribute(path, tempToHex(t, 2)))
}

func (d *Device) handleFanSetting(settings map[string]string, writes *[]Attribute) {
	rate, ok := settings["f_rate"]
	if !ok {
		return
	}
	path, ok := apiPaths.fanSettings[d.state.Mode]
	if !ok {
		return
	}

	if code, ok := fanRateCode(rate); ok {
		*writes = append(*writes, newAttribute(path, code))
	}
}

func (d *Device) handleSwingSetting(settings map[string]string, writes *[]Attribute) {
	direction, ok := settings["f_dir"]
	if !ok {
		return
	}
	axes, ok := apiPaths.swingSettings[d.state.Mode]
	if !ok {
		return
	}

	vertical, horizontal := swingAxisValues(direction)
	*writes = append(*writes, newAttribute(axes["vertical"], vertical))
	*writes = append(*writes, newAttribute(axes["horizontal"], horizontal))
}
