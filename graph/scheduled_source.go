// SPDX-License-Identifier: EPL-2.0

package graph

import "fmt"

// scheduledSource tracks the start and stop frames of a source node. Both
// are sample accurate.
type scheduledSource struct {
	node    *AudioNode
	started bool
	start   int64
	stop    int64
	ended   bool

	// OnEnded runs once, in the tick after the source stopped producing.
	OnEnded func()
}

func (s *scheduledSource) bind(n *AudioNode) {
	s.node = n
	s.stop = -1
}

// Start begins playback at time when, in seconds.
func (s *scheduledSource) Start(when float64) error {
	if s.started {
		return fmt.Errorf("%w: source already started", ErrInvalidState)
	}
	if when < 0 {
		return fmt.Errorf("%w: negative start time %v", ErrInvalidValue, when)
	}
	s.started = true
	s.start = s.toFrame(when)

	return nil
}

// Stop ends playback at time when, in seconds.
func (s *scheduledSource) Stop(when float64) error {
	if !s.started {
		return fmt.Errorf("%w: source not started", ErrInvalidState)
	}
	if when < 0 {
		return fmt.Errorf("%w: negative stop time %v", ErrInvalidValue, when)
	}
	s.stop = s.toFrame(when)

	return nil
}

func (s *scheduledSource) toFrame(t float64) int64 {
	return int64(t*float64(s.node.ctx.SampleRate()) + 0.5)
}

// span returns the block frames [from, to) the source plays this tick. A
// stop inside the block ends the source.
func (s *scheduledSource) span() (int, int) {
	if !s.started || s.ended {
		return 0, 0
	}

	ctx := s.node.ctx
	n := int64(ctx.BlockSize())
	from := min(max(0, s.start-ctx.frame), n)
	to := n
	if s.stop >= 0 {
		to = min(n, max(0, s.stop-ctx.frame))
		if s.stop <= ctx.frame+n {
			s.finish(s.stop)
		}
	}
	if from >= to {
		return 0, 0
	}

	return int(from), int(to)
}

// finish marks the source ended at absolute frame f and queues OnEnded.
func (s *scheduledSource) finish(f int64) {
	if s.ended {
		return
	}
	s.ended = true

	t := float64(f) / float64(s.node.ctx.SampleRate())
	s.node.sched.Schedule(t, func() {
		if s.OnEnded != nil {
			s.OnEnded()
		}
	})
}
