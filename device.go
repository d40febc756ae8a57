package godsiot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/semaphore"
)

// Limiter gates access to the outbound channel: one slot is acquired per
// outstanding request and released unconditionally on completion or failure.
// The device firmware handles only a few concurrent exchanges gracefully.
type Limiter interface {
	Acquire(ctx context.Context) error
	Release()
}

type semaphoreLimiter struct {
	sem *semaphore.Weighted
}

func newSemaphoreLimiter(slots int64) *semaphoreLimiter {
	return &semaphoreLimiter{sem: semaphore.NewWeighted(slots)}
}

func (l *semaphoreLimiter) Acquire(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

func (l *semaphoreLimiter) Release() {
	l.sem.Release(1)
}

// Device is a handle on one appliance running firmware 2.8.0. State, the
// pending power-on temperature and the last adjustment record belong to this
// instance; callers are expected to serialize Set and UpdateStatus calls per
// instance.
type Device struct {
	DeviceIP   string
	URL        string
	HTTPClient *http.Client
	Headers    map[string]string
	Logger     Logger
	Limiter    Limiter

	state             State
	cachedTargetTemp  *float64
	pendingTargetTemp string
	lastAdjustment    *TempAdjustment
}

// Init fetches the initial state.
func (d *Device) Init(ctx context.Context) error {
	return d.UpdateStatus(ctx)
}

// State returns the last successfully decoded snapshot.
func (d *Device) State() State {
	return d.state
}

// MAC returns the colon-formatted hardware address, or the device IP before
// the first refresh.
func (d *Device) MAC() string {
	if d.state.MAC == "" {
		return d.DeviceIP
	}
	return formatMAC(d.state.MAC)
}

func (d *Device) Model() string {
	return d.state.Model
}

func (d *Device) PowerState() bool {
	return d.state.Power
}

// Mode returns the operating mode, reporting "off" whenever power is off.
func (d *Device) Mode() string {
	if !d.state.Power {
		return "off"
	}
	return d.state.Mode
}

func (d *Device) InsideTemperature() (float64, error) {
	if d.state.Mode == "" {
		return 0, NewProtocolError("inside temperature not available", nil)
	}
	return d.state.InsideTemp, nil
}

func (d *Device) OutsideTemperature() (float64, error) {
	if d.state.OutsideTemp == nil {
		return 0, NewProtocolError("outside temperature not available", nil)
	}
	return *d.state.OutsideTemp, nil
}

// TargetTemperature returns the current setpoint. While the unit is off it
// falls back to the last value cached from an on-state refresh.
func (d *Device) TargetTemperature() (float64, error) {
	if d.state.TargetTemp != nil {
		return *d.state.TargetTemp, nil
	}
	if d.cachedTargetTemp != nil {
		return *d.cachedTargetTemp, nil
	}
	return 0, NewProtocolError("target temperature not available", nil)
}

func (d *Device) FanRate() string {
	return d.state.FanRate
}

func (d *Device) FanDirection() string {
	return d.state.SwingMode
}

// LastTempAdjustment returns the record of the most recent negotiated
// deviation, or nil if the last temperature write was accepted as requested.
func (d *Device) LastTempAdjustment() *TempAdjustment {
	return d.lastAdjustment
}

func (d *Device) SupportsFanRate() bool {
	return d.state.FanRate != ""
}

func (d *Device) SupportsSwingMode() bool {
	return d.state.SwingMode != ""
}

func (d *Device) SupportsEnergyConsumption() bool {
	return d.state.TodayRuntime != "" || len(d.state.WeeklyEnergy) > 0
}

// getResource performs one multireq round trip. Transport failures, timeouts
// and a response missing its top-level container all come back as CommError;
// the caller retries or gives up, but never inspects message text.
func (d *Device) getResource(ctx context.Context, payload *multiRequest) (*multiResponse, error) {
	if err := d.Limiter.Acquire(ctx); err != nil {
		return nil, NewCommError("request slot unavailable", err)
	}
	defer d.Limiter.Release()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProtocolError("failed to encode request", err)
	}

	d.Logger.Debug("calling device", "url", d.URL, "payload", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return nil, NewCommError("failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range d.Headers {
		req.Header.Set(key, value)
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		d.Logger.Warn("request failed", "device", d.DeviceIP, "error", err)
		return nil, NewCommError("request to "+d.DeviceIP+" failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewCommError(fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), nil)
	}

	var mr multiResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, NewCommError("failed to decode response", err)
	}
	if mr.Responses == nil {
		return nil, NewCommError("response missing top-level container", nil)
	}

	return &mr, nil
}
