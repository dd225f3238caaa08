package planner

// undoRecord holds the most recently deleted task and where it sat in
// the pre-deletion ordering.
type undoRecord struct {
	task  Task
	index int
}

// undoBuffer is the bounded-time holding area for the last deleted task:
// empty -> armed -> empty. Arming bumps the generation, and an expiry
// carrying a stale generation is ignored, so a timer from an earlier
// deletion can never discard a newer record. At most one record is held;
// arming while armed replaces it and the previous deletion becomes
// permanent.
type undoBuffer struct {
	rec *undoRecord
	gen uint64
}

func (u *undoBuffer) arm(t Task, index int) uint64 {
	u.rec = &undoRecord{task: t, index: index}
	u.gen++
	return u.gen
}

func (u *undoBuffer) peek() (undoRecord, bool) {
	if u.rec == nil {
		return undoRecord{}, false
	}
	return *u.rec, true
}

func (u *undoBuffer) clear() {
	u.rec = nil
}

func (u *undoBuffer) expire(gen uint64) {
	if gen == u.gen {
		u.rec = nil
	}
}

func (u *undoBuffer) armed() bool {
	return u.rec != nil
}
