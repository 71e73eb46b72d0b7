// SPDX-License-Identifier: EPL-2.0

package graph

import "sort"

type scheduled struct {
	time float64
	id   uint64
	fn   func()
}

// Scheduler is a time ordered list of callbacks. Callbacks due at the same
// time run in the order they were scheduled.
type Scheduler struct {
	events []scheduled
	nextID uint64
}

// Schedule adds fn to run at time, in seconds, and returns its id.
func (s *Scheduler) Schedule(time float64, fn func()) uint64 {
	s.nextID++
	i := sort.Search(len(s.events), func(i int) bool { return s.events[i].time > time })
	s.events = append(s.events, scheduled{})
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = scheduled{time: time, id: s.nextID, fn: fn}

	return s.nextID
}

// Cancel removes a pending callback. It reports whether id was pending.
func (s *Scheduler) Cancel(id uint64) bool {
	for i, e := range s.events {
		if e.id == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return true
		}
	}

	return false
}

// Drain runs every callback due at or before now, including those the
// callbacks schedule, and returns how many ran.
func (s *Scheduler) Drain(now float64) int {
	n := 0
	for len(s.events) > 0 && s.events[0].time <= now {
		e := s.events[0]
		s.events = s.events[1:]
		e.fn()
		n++
	}

	return n
}

func (s *Scheduler) Len() int { return len(s.events) }
