package cpu

import "time"

// TickTimers decrements the delay and sound timers by one if more than
// TimerPeriod has passed since the last decrement. At most one decrement
// happens per call, however long the gap.
func (c *CPU) TickTimers(now time.Time) {
	if now.Sub(c.lastTick) <= TimerPeriod {
		return
	}
	if c.DelayTimer > 0 {
		c.DelayTimer--
	}
	if c.SoundTimer > 0 {
		c.SoundTimer--
	}
	c.lastTick = now
}

// SoundActive reports whether the sound timer is running. The tone itself
// is left to the host.
func (c *CPU) SoundActive() bool {
	return c.SoundTimer > 0
}

func (c *CPU) setDelay(v byte) {
	c.DelayTimer = v
	c.lastTick = c.Now()
}
