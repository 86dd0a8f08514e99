package sim

// UpdateSignalStrengths recomputes every registered radio's signal strength
// from the active connections. Each radio is reset to its base RSSI, then
// only ever raised:
//   - a transmitting source to SignalStrong
//   - a destination to the noisy RSSI from its source, or to SignalStrong for
//     a gateway pair
//   - an interfered radio to the noisy RSSI from the interfering source
//
// Channel-mismatched pairs contribute nothing unless they are gateways.
// Runs once per simulation step, after all connections of that step exist.
func (m *Medium) UpdateSignalStrengths() {
	for _, r := range m.registry.radios {
		r.signal = r.baseRSSI
	}

	for _, c := range m.active {
		if m.registry.Contains(c.source) {
			c.source.raiseSignal(SignalStrong)
		}
	}

	for _, c := range m.active {
		for _, dst := range c.destinations {
			m.contribute(c.source, dst)
		}
	}
	for _, c := range m.active {
		for _, intf := range c.interfered {
			m.contribute(c.source, intf)
		}
	}
}

func (m *Medium) contribute(src, dst *Radio) {
	if !m.registry.Contains(src) || !m.registry.Contains(dst) {
		return
	}
	if m.gateway.matches(src, dst) {
		dst.raiseSignal(SignalStrong)
		return
	}
	if channelsConflict(src.channel, dst.channel) {
		return
	}
	dst.raiseSignal(m.noisySignalBetween(src, dst))
}
