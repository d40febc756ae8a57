package godsiot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptOnly makes the mock reject every setpoint write with 4000 except
// the given hex value.
func acceptOnly(hex string) func(*multiRequest) string {
	return func(req *multiRequest) string {
		leaves := writtenLeaves(req)
		if leaves["e_1002/e_3001/p_02"] == hex {
			return ackBody(rscOK)
		}
		return ackBody(rscRejected)
	}
}

func TestNegotiateFindsNearbyTemperature(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "cool"}
	m.writeHandler = acceptOnly("30") // only 24.0 is valid

	require.NoError(t, device.Set(context.Background(), map[string]string{"stemp": "23.0"}))

	// Exact 23.0, then +0.5, then +1.0 which lands on 24.0.
	require.Len(t, m.writes, 3)
	assert.Equal(t, "2e", writtenLeaves(m.writes[0])["e_1002/e_3001/p_02"])
	assert.Equal(t, "2f", writtenLeaves(m.writes[1])["e_1002/e_3001/p_02"])
	assert.Equal(t, "30", writtenLeaves(m.writes[2])["e_1002/e_3001/p_02"])

	adjustment := device.LastTempAdjustment()
	require.NotNil(t, adjustment)
	assert.Equal(t, 23.0, adjustment.Requested)
	assert.Equal(t, 24.0, adjustment.Accepted)
	assert.NotEmpty(t, adjustment.Message)

	assert.Equal(t, 1, m.reads) // one reconciling refresh at the end
}

func TestNegotiateExactAcceptanceClearsAdjustment(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "cool"}
	device.lastAdjustment = newTempAdjustment(20.0, 21.0)

	require.NoError(t, device.Set(context.Background(), map[string]string{"stemp": "24.0"}))

	require.Len(t, m.writes, 1)
	assert.Nil(t, device.LastTempAdjustment())
	assert.Equal(t, 1, m.reads)
}

func TestNegotiateNonRejectionAbortsImmediately(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "cool"}
	m.writeHandler = func(*multiRequest) string { return ackBody(5000) }

	err := device.Set(context.Background(), map[string]string{"stemp": "23.0"})

	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, 5000, devErr.Code)
	assert.Len(t, m.writes, 1) // no search after a fatal code
	assert.Zero(t, m.reads)
}

func TestNegotiateRejectionDuringSearchAborts(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "cool"}
	m.writeHandler = func(req *multiRequest) string {
		if len(m.writes) <= 2 {
			return ackBody(rscRejected)
		}
		return ackBody(5000)
	}

	err := device.Set(context.Background(), map[string]string{"stemp": "23.0"})

	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, 5000, devErr.Code)
	assert.Len(t, m.writes, 3)
}

func TestNegotiateExhaustsBothDirections(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "cool"}
	m.writeHandler = func(*multiRequest) string { return ackBody(rscRejected) }

	err := device.Set(context.Background(), map[string]string{"stemp": "23.0"})

	assert.Error(t, err)
	assert.IsType(t, &ProtocolError{}, err)
	assert.Contains(t, err.Error(), "no valid temperature")
	// Exact try, then quick offsets and the bounded scan in each direction.
	assert.Equal(t, 29, len(m.writes))
	assert.Zero(t, m.reads)
	assert.Nil(t, device.LastTempAdjustment())
}

func TestNegotiateRespectsBounds(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "heat"}
	m.writeHandler = func(*multiRequest) string { return ackBody(rscRejected) }

	err := device.Set(context.Background(), map[string]string{"stemp": "16.0"})
	assert.Error(t, err)

	// From the lower bound the downward scan never starts: the exact try,
	// two quick offsets and ten scan steps upward, and the two in-bounds
	// quick offsets of the downward pass.
	assert.Equal(t, 15, len(m.writes))
	for _, w := range m.writes {
		temp, convErr := hexToTemp(writtenLeaves(w)["e_1002/e_3001/p_03"], 2)
		require.NoError(t, convErr)
		assert.GreaterOrEqual(t, temp, minSetpoint)
		assert.LessOrEqual(t, temp, maxSetpoint)
	}
}

func TestNegotiateUnsupportedMode(t *testing.T) {
	m, device := newMockDevice(t)
	device.state = State{Power: true, Mode: "dry"}

	err := device.Set(context.Background(), map[string]string{"stemp": "23.0"})

	assert.Error(t, err)
	assert.IsType(t, &ProtocolError{}, err)
	assert.Empty(t, m.writes)
}
