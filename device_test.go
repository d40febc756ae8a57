package godsiot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitFixture describes what the mock appliance reports.
type unitFixture struct {
	power    string
	modeCode string
	outdoor  string
	setpoint string
}

func defaultFixture() unitFixture {
	return unitFixture{
		power:    powerOn,
		modeCode: "0200", // cool
		outdoor:  "24",   // 18.0
		setpoint: "30",   // 24.0
	}
}

func (f unitFixture) body() string {
	return fmt.Sprintf(`{"responses":[
		{"fr":"%s","pc":{"pn":"dgc_status","pch":[
			{"pn":"e_1002","pch":[
				{"pn":"e_A002","pch":[{"pn":"p_01","pv":"%s"}]},
				{"pn":"e_A001","pch":[{"pn":"p_0D","pv":"4144503130"}]},
				{"pn":"e_A00B","pch":[{"pn":"p_01","pv":"19"},{"pn":"p_02","pv":"32"}]},
				{"pn":"e_3001","pch":[
					{"pn":"p_01","pv":"%s"},
					{"pn":"p_02","pv":"%s"},
					{"pn":"p_09","pv":"0A00"},
					{"pn":"p_05","pv":"0F0000"},
					{"pn":"p_06","pv":"000000"}
				]}
			]}
		]},"rsc":2000},
		{"fr":"%s","pc":{"pn":"dgc_status","pch":[
			{"pn":"e_1003","pch":[{"pn":"e_A00D","pch":[{"pn":"p_01","pv":"%s"}]}]}
		]},"rsc":2000},
		{"fr":"%s","pc":{"pn":"week_power","pch":[
			{"pn":"today_runtime","pv":"120"},
			{"pn":"datas","pv":[100,200,300]}
		]},"rsc":2000},
		{"fr":"%s","pc":{"pn":"adp_i","pch":[{"pn":"mac","pv":"AABBCCDDEEFF"}]},"rsc":2000}
	]}`,
		endpointStatus, f.power, f.modeCode, f.setpoint,
		endpointOutdoor, f.outdoor, endpointEnergy, endpointIdentity)
}

func ackBody(code int) string {
	return fmt.Sprintf(`{"responses":[{"fr":"%s","rsc":%d}]}`, endpointStatus, code)
}

// mockDevice serves the multireq endpoint: op-2 payloads get the status
// body, op-3 payloads are recorded and answered by writeHandler.
type mockDevice struct {
	server       *httptest.Server
	writes       []*multiRequest
	reads        int
	statusBody   func() string
	writeHandler func(req *multiRequest) string
}

func newMockDevice(t *testing.T) (*mockDevice, *Device) {
	t.Helper()

	fixture := defaultFixture()
	m := &mockDevice{
		statusBody:   fixture.body,
		writeHandler: func(*multiRequest) string { return ackBody(rscOK) },
	}
	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req multiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(req.Requests) > 0 && req.Requests[0].Op == opWrite {
			m.writes = append(m.writes, &req)
			io.WriteString(w, m.writeHandler(&req))
			return
		}
		m.reads++
		io.WriteString(w, m.statusBody())
	}))
	t.Cleanup(m.server.Close)

	device := New("192.168.1.50")
	device.URL = m.server.URL + "/dsiot/multireq"
	return m, device
}

// writtenLeaves flattens a recorded write payload into path-qualified
// leaf values, e.g. "e_1002/e_3001/p_02" -> "30".
func writtenLeaves(req *multiRequest) map[string]string {
	leaves := map[string]string{}
	var walk func(prefix string, n *treeNode)
	walk = func(prefix string, n *treeNode) {
		name := n.PN
		if prefix != "" {
			name = prefix + "/" + n.PN
		}
		if len(n.PCH) == 0 {
			leaves[name] = n.PV
			return
		}
		for _, c := range n.PCH {
			walk(name, c)
		}
	}
	for _, r := range req.Requests {
		if r.PC != nil {
			for _, c := range r.PC.PCH {
				walk("", c)
			}
		}
	}
	return leaves
}

func TestUpdateStatus(t *testing.T) {
	_, device := newMockDevice(t)

	require.NoError(t, device.UpdateStatus(context.Background()))

	st := device.State()
	assert.Equal(t, "AABBCCDDEEFF", st.MAC)
	assert.Equal(t, "AA:BB:CC:DD:EE:FF", device.MAC())
	assert.Equal(t, "ADP10", st.Model)
	assert.True(t, st.Power)
	assert.Equal(t, "cool", st.Mode)
	assert.Equal(t, 25.0, st.InsideTemp)
	require.NotNil(t, st.OutsideTemp)
	assert.Equal(t, 18.0, *st.OutsideTemp)
	require.NotNil(t, st.Humidity)
	assert.Equal(t, 50, *st.Humidity)
	require.NotNil(t, st.TargetTemp)
	assert.Equal(t, 24.0, *st.TargetTemp)
	assert.Equal(t, "auto", st.FanRate)
	assert.Equal(t, "vertical", st.SwingMode)
	assert.Equal(t, "120", st.TodayRuntime)
	assert.Equal(t, []string{"100", "200", "300"}, st.WeeklyEnergy)

	assert.True(t, device.SupportsFanRate())
	assert.True(t, device.SupportsSwingMode())
	assert.True(t, device.SupportsEnergyConsumption())
}

func TestUpdateStatusPoweredOff(t *testing.T) {
	m, device := newMockDevice(t)
	fixture := defaultFixture()
	fixture.power = powerOff
	m.statusBody = fixture.body

	require.NoError(t, device.UpdateStatus(context.Background()))

	st := device.State()
	assert.False(t, st.Power)
	assert.Equal(t, "off", st.Mode)
	assert.Equal(t, "off", device.Mode())
	assert.Equal(t, "auto", st.FanRate)
	assert.Equal(t, "off", st.SwingMode)
	// No cached on-state setpoint yet, so no target temperature either.
	assert.Nil(t, st.TargetTemp)
	_, err := device.TargetTemperature()
	assert.Error(t, err)
}

func TestUpdateStatusRetainsCachedSetpointWhileOff(t *testing.T) {
	m, device := newMockDevice(t)

	// First refresh while on caches the setpoint.
	require.NoError(t, device.UpdateStatus(context.Background()))

	fixture := defaultFixture()
	fixture.power = powerOff
	m.statusBody = fixture.body
	require.NoError(t, device.UpdateStatus(context.Background()))

	temp, err := device.TargetTemperature()
	assert.NoError(t, err)
	assert.Equal(t, 24.0, temp)
}

func TestUpdateStatusUnknownModeCode(t *testing.T) {
	m, device := newMockDevice(t)
	require.NoError(t, device.UpdateStatus(context.Background()))

	fixture := defaultFixture()
	fixture.modeCode = "0800"
	m.statusBody = fixture.body

	err := device.UpdateStatus(context.Background())
	assert.Error(t, err)
	assert.IsType(t, &ProtocolError{}, err)

	// The failed refresh must not corrupt the previously held state.
	assert.Equal(t, "cool", device.State().Mode)
}

func TestUpdateStatusOutdoorQuirk(t *testing.T) {
	m, device := newMockDevice(t)
	fixture := defaultFixture()
	fixture.outdoor = "2080"
	m.statusBody = fixture.body

	require.NoError(t, device.UpdateStatus(context.Background()))

	// Only the first byte of a "20"-prefixed four-digit reading counts.
	require.NotNil(t, device.State().OutsideTemp)
	assert.Equal(t, 16.0, *device.State().OutsideTemp)
}

func TestUpdateStatusMissingContainer(t *testing.T) {
	m, device := newMockDevice(t)
	m.statusBody = func() string { return `{}` }

	err := device.UpdateStatus(context.Background())
	assert.Error(t, err)
	assert.IsType(t, &CommError{}, err)
}

type countingLimiter struct {
	acquired int
	released int
}

func (l *countingLimiter) Acquire(context.Context) error {
	l.acquired++
	return nil
}

func (l *countingLimiter) Release() {
	l.released++
}

func TestLimiterReleasedOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	limiter := &countingLimiter{}
	device := New("192.168.1.50", WithLimiter(limiter))
	device.URL = server.URL + "/dsiot/multireq"

	err := device.UpdateStatus(context.Background())
	assert.Error(t, err)
	assert.IsType(t, &CommError{}, err)
	assert.Equal(t, 1, limiter.acquired)
	assert.Equal(t, limiter.acquired, limiter.released)
}

func TestInitFetchesState(t *testing.T) {
	m, _ := newMockDevice(t)

	device := New("192.168.1.50")
	device.URL = m.server.URL + "/dsiot/multireq"
	require.NoError(t, device.Init(context.Background()))
	assert.Equal(t, "cool", device.Mode())
}

func TestNewOptions(t *testing.T) {
	device := New("192.168.1.50", WithPort(8080))
	assert.Equal(t, "http://192.168.1.50:8080/dsiot/multireq", device.URL)

	device = New("192.168.1.50")
	assert.Equal(t, "http://192.168.1.50/dsiot/multireq", device.URL)
	assert.Equal(t, defaultTimeout, device.HTTPClient.Timeout)

	custom := &http.Client{}
	device = New("192.168.1.50", WithHTTPClient(custom))
	assert.Same(t, custom, device.HTTPClient)
}
