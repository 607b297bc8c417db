package scheduler

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Running:  s.c != nil,
		Timezone: s.loc.String(),
	}
	if s.sup != nil {
		snap.Jobs = s.sup.Snapshot()
	}

	snap.Schedules = make([]ScheduleInfo, 0, len(s.defs))
	for _, d := range s.defs {
		it := ScheduleInfo{
			Name:     d.name,
			Spec:     d.spec,
			Runs:     d.runs,
			Skips:    d.skips,
			LastRun:  d.lastRun,
			LastTook: d.lastTook,
			LastErr:  d.lastErr,
		}
		if s.c != nil && d.entryID != 0 {
			e := s.c.Entry(d.entryID)
			it.Next = e.Next
			it.Prev = e.Prev
		}
		snap.Schedules = append(snap.Schedules, it)
	}
	return snap
}
