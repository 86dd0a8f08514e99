package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radiosim/radiosim/sim/internal/testutil"
)

func TestMedium_UpdateSignalStrengths_RaisesFromBase(t *testing.T) {
	// GIVEN a sender, a destination half the range away and an idle radio
	// with a raised noise floor far away
	src, dst, idle := NewRadio(0, Position{}), NewRadio(1, Position{X: 5}), NewRadio(2, Position{X: 100})
	idle.SetBaseRSSI(-90)
	m := newTestMedium(t, testutil.AlwaysReceive(), nil, src, dst, idle)
	conn := m.CreateConnection(src)
	require.True(t, conn.IsDestination(dst))

	// WHEN signal strengths are updated
	m.UpdateSignalStrengths()

	// THEN each radio reports the strongest contribution or its floor
	assert.Equal(t, SignalStrong, src.SignalStrength())
	assert.InDelta(t, -72.0, dst.SignalStrength(), 1e-9)
	assert.Equal(t, -90.0, idle.SignalStrength())

	// WHEN the connection is retired
	m.RetireConnection(conn)
	m.UpdateSignalStrengths()

	// THEN everyone returns to the base RSSI
	assert.Equal(t, SignalNothing, src.SignalStrength())
	assert.Equal(t, SignalNothing, dst.SignalStrength())
}

func TestMedium_UpdateSignalStrengths_InterferedContributes(t *testing.T) {
	// GIVEN a failed draw leaving the receiver interfered
	src, recv := NewRadio(0, Position{}), NewRadio(1, Position{X: 5})
	m := newTestMedium(t, &testutil.FixedSource{Uniform: []float64{1}, Noise: 2}, nil, src, recv)
	conn := m.CreateConnection(src)
	require.True(t, conn.IsInterfered(recv))

	m.UpdateSignalStrengths()

	// THEN the interfering signal still raises its strength, with noise
	assert.InDelta(t, -70.0, recv.SignalStrength(), 1e-9)
}

func TestMedium_UpdateSignalStrengths_ChannelMismatchContributesNothing(t *testing.T) {
	src, recv := NewRadio(0, Position{}), NewRadio(1, Position{X: 1})
	src.SetChannel(11)
	recv.SetChannel(26)
	m := newTestMedium(t, testutil.AlwaysReceive(), nil, src, recv)
	conn := m.CreateConnection(src)
	require.True(t, conn.IsInterfered(recv))

	m.UpdateSignalStrengths()

	assert.Equal(t, SignalNothing, recv.SignalStrength())
}

func TestMedium_UpdateSignalStrengths_GatewayIsStrong(t *testing.T) {
	src, recv := NewRadio(0, Position{}), NewRadio(1, Position{X: 1000})
	m := newTestMedium(t, testutil.AlwaysReceive(), GatewayBelow(2), src, recv)
	m.CreateConnection(src)

	m.UpdateSignalStrengths()

	assert.Equal(t, SignalStrong, recv.SignalStrength())
}

func TestMedium_UpdateSignalStrengths_ExplicitLinkHasNoNoise(t *testing.T) {
	src, recv := NewRadio(0, Position{}), NewRadio(1, Position{X: 300})
	m := newTestMedium(t, &testutil.FixedSource{Uniform: []float64{0}, Noise: 4}, nil, src, recv)
	require.NoError(t, m.Links().SetLink(Link{Src: 0, Dst: 1, Channel: ChannelAny, Ratio: 1, RSSI: -81}))
	m.CreateConnection(src)

	m.UpdateSignalStrengths()

	assert.Equal(t, -81.0, recv.SignalStrength())
}

func TestMedium_UpdateSignalStrengths_KeepsStrongest(t *testing.T) {
	// GIVEN a receiver reached by a near and a far sender
	recv := NewRadio(0, Position{})
	near, far := NewRadio(1, Position{X: 2}), NewRadio(2, Position{X: -8})
	m := newTestMedium(t, testutil.AlwaysReceive(), nil, recv, near, far)
	m.CreateConnection(far)
	m.CreateConnection(near)

	m.UpdateSignalStrengths()

	// THEN the stronger mean RSSI wins (-57 vs -87)
	assert.InDelta(t, -57.0, recv.SignalStrength(), 1e-9)
}
