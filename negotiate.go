package godsiot

import (
	"context"
	"fmt"
)

// Setpoint bounds shared by every supported mode.
const (
	minSetpoint = 16.0
	maxSetpoint = 30.0
)

// setTemperatureClipped writes a target temperature, searching nearby values
// when the device rejects the exact one with code 4000 (out of range or not
// matching its step size). Warmer candidates are preferred first. Returns
// the accepted value; a deviation from the request is recorded as the last
// adjustment, a clean acceptance clears it.
func (d *Device) setTemperatureClipped(ctx context.Context, target float64) (float64, error) {
	path, ok := apiPaths.tempSettings[d.state.Mode]
	if !ok {
		return 0, NewProtocolError("temperature setting not supported in mode "+d.state.Mode, nil)
	}

	err := d.trySetTemperature(ctx, path, target)
	if err == nil {
		d.recordAdjustment(target, target)
		return target, d.UpdateStatus(ctx)
	}
	if !isRejection(err) {
		return 0, err
	}

	accepted, found, err := d.searchValidTemperature(ctx, path, target, 1)
	if err != nil {
		return 0, err
	}
	if !found {
		accepted, found, err = d.searchValidTemperature(ctx, path, target, -1)
		if err != nil {
			return 0, err
		}
	}
	if !found {
		return 0, NewProtocolError(fmt.Sprintf(
			"no valid temperature found near %.1f; device may have a limited range in %s mode",
			target, d.state.Mode), nil)
	}

	d.recordAdjustment(target, accepted)
	return accepted, d.UpdateStatus(ctx)
}

// trySetTemperature issues a single setpoint write and validates the result
// codes. Strictly sequential; the negotiator never has two writes in flight.
func (d *Device) trySetTemperature(ctx context.Context, path Path, temperature float64) error {
	request := Request{Attributes: []Attribute{
		newAttribute(path, tempToHex(temperature, 2)),
	}}

	d.Logger.Debug("trying temperature", "temperature", temperature)
	resp, err := d.getResource(ctx, request.Payload())
	if err != nil {
		return err
	}
	return validateResponse(resp)
}

// searchValidTemperature probes candidates around start in the given
// direction: first the nearby offsets most likely to match the device's step
// size, then a linear half-degree scan of up to 10 steps. found is false
// when the direction is exhausted; any non-rejection failure aborts.
func (d *Device) searchValidTemperature(ctx context.Context, path Path, start float64, direction int) (accepted float64, found bool, err error) {
	offsets := []float64{0.5, 1.0, -0.5, -1.0}
	if direction < 0 {
		offsets = []float64{-0.5, -1.0, 0.5, 1.0}
	}

	for _, offset := range offsets {
		candidate := start + offset
		if candidate < minSetpoint || candidate > maxSetpoint {
			continue
		}
		err := d.trySetTemperature(ctx, path, candidate)
		if err == nil {
			return candidate, true, nil
		}
		if !isRejection(err) {
			return 0, false, err
		}
	}

	candidate := start
	for i := 0; i < 10; i++ {
		candidate += float64(direction) * 0.5
		if candidate < minSetpoint || candidate > maxSetpoint {
			break
		}
		err := d.trySetTemperature(ctx, path, candidate)
		if err == nil {
			return candidate, true, nil
		}
		if !isRejection(err) {
			return 0, false, err
		}
	}

	return 0, false, nil
}

func (d *Device) recordAdjustment(requested, accepted float64) {
	if requested == accepted {
		d.lastAdjustment = nil
		return
	}
	d.lastAdjustment = newTempAdjustment(requested, accepted)
	d.Logger.Info(d.lastAdjustment.Message)
}
