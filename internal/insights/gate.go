package insights

// Gate is a one-shot latch for the entrance transition of one view
// instance. It fires the first time it observes StatusPopulated. Observing
// Error or Empty first disarms it, so a view takes either the entrance path
// or the error/empty path, never both.
type Gate struct {
	onFire   func()
	fired    bool
	disarmed bool
}

// NewGate returns an armed gate. onFire may be nil.
func NewGate(onFire func()) *Gate {
	return &Gate{onFire: onFire}
}

// Observe feeds the primary status to the gate and reports whether this
// call fired it.
func (g *Gate) Observe(s Status) bool {
	if g.fired || g.disarmed {
		return false
	}
	switch s {
	case StatusPopulated:
		g.fired = true
		if g.onFire != nil {
			g.onFire()
		}
		return true
	case StatusError, StatusEmpty:
		g.disarmed = true
	}
	return false
}

// Fired reports whether the gate has fired.
func (g *Gate) Fired() bool { return g.fired }

// Armed reports whether the gate can still fire.
func (g *Gate) Armed() bool { return !g.fired && !g.disarmed }
