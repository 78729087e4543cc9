package scheduler

import "time"

// RegistrationSnapshot is a point-in-time, read-only view of one trigger
// (§4.12 get_triggers()).
type RegistrationSnapshot struct {
	ID        string
	Enabled   bool
	FireCount int64
	NextFire  *time.Time
	LastFired *time.Time
	Raw       string
	Tags      []string
}

// Snapshot returns a copy of every registered trigger's observable state.
func (s *Scheduler) Snapshot() []RegistrationSnapshot {
	regs := s.snapshotRegs()
	out := make([]RegistrationSnapshot, 0, len(regs))
	for _, r := range regs {
		snap := RegistrationSnapshot{
			ID:        r.id,
			Enabled:   r.Enabled(),
			FireCount: r.FireCount(),
			Raw:       r.expr.Raw(),
			Tags:      r.expr.Options().Tags,
		}
		if next, ok := r.NextFire(); ok {
			snap.NextFire = &next
		}
		if last, ok := r.LastFired(); ok {
			snap.LastFired = &last
		}
		out = append(out, snap)
	}
	return out
}
