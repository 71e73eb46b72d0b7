// SPDX-License-Identifier: EPL-2.0

package graph

import (
	"fmt"
	"math"
	"sort"
)

// AutomationRate selects how often a param is evaluated.
type AutomationRate int

const (
	// ARate params are evaluated for every sample.
	ARate AutomationRate = iota
	// KRate params are evaluated once per block.
	KRate
)

type eventKind int

const (
	setValue eventKind = iota
	linearRamp
	exponentialRamp
	setTarget
	valueCurve
)

func (k eventKind) ramp() bool { return k == linearRamp || k == exponentialRamp }

type paramEvent struct {
	kind  eventKind
	time  float64
	value float64
	// tau is the time constant of setTarget.
	tau      float64
	curve    []float32
	duration float64
}

// AudioParam is a value driven by scheduled automation events plus the
// outputs connected to it.
type AudioParam struct {
	ctx   *Context
	rate  AutomationRate
	def   float64
	min   float64
	max   float64
	input *AudioInput

	events []paramEvent
	// lastTime and lastValue are where a following ramp starts.
	lastTime  float64
	lastValue float64
	// held is the automation after the last event that came due; fn adds
	// the ramp towards the next event when there is one.
	held      func(t float64) float64
	fn        func(t float64) float64
	targeting bool
	dirty     bool

	value float64
	block []float32
	frame int64
}

func newParam(ctx *Context, rate AutomationRate, def, lo, hi float64) *AudioParam {
	p := &AudioParam{
		ctx:       ctx,
		rate:      rate,
		def:       def,
		min:       lo,
		max:       hi,
		lastValue: def,
		value:     def,
		held:      constant(def),
		frame:     -1,
	}
	p.fn = p.held
	p.input = &AudioInput{ctx: ctx, cfg: &mixConfig{count: 1, mode: Explicit, interp: Speakers}}

	return p
}

func constant(v float64) func(float64) float64 {
	return func(float64) float64 { return v }
}

func (p *AudioParam) DefaultValue() float64 { return p.def }

func (p *AudioParam) Rate() AutomationRate { return p.rate }

// Value returns the value computed for the last rendered sample.
func (p *AudioParam) Value() float64 { return p.value }

// SetValue sets the value from the current time on.
func (p *AudioParam) SetValue(v float64) {
	p.value = v
	p.insert(paramEvent{kind: setValue, time: p.ctx.CurrentTime(), value: v})
}

func (p *AudioParam) SetValueAtTime(v, t float64) error {
	if t < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidValue, t)
	}
	p.insert(paramEvent{kind: setValue, time: t, value: v})

	return nil
}

// LinearRampToValueAtTime ramps from the previous event to v, reached at t.
func (p *AudioParam) LinearRampToValueAtTime(v, t float64) error {
	if t < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidValue, t)
	}
	p.insert(paramEvent{kind: linearRamp, time: t, value: v})

	return nil
}

// ExponentialRampToValueAtTime ramps geometrically from the previous event
// to v, reached at t. v must not be zero.
func (p *AudioParam) ExponentialRampToValueAtTime(v, t float64) error {
	if t < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidValue, t)
	}
	if v == 0 {
		return fmt.Errorf("%w: exponential ramp to zero", ErrInvalidValue)
	}
	p.insert(paramEvent{kind: exponentialRamp, time: t, value: v})

	return nil
}

// SetTargetAtTime approaches target from t on with time constant tau.
func (p *AudioParam) SetTargetAtTime(target, t, tau float64) error {
	if t < 0 || tau <= 0 {
		return fmt.Errorf("%w: target at %v with time constant %v", ErrInvalidValue, t, tau)
	}
	p.insert(paramEvent{kind: setTarget, time: t, value: target, tau: tau})

	return nil
}

// SetValueCurveAtTime interpolates linearly through curve over duration
// seconds from t, then holds its last value.
func (p *AudioParam) SetValueCurveAtTime(curve []float32, t, duration float64) error {
	if t < 0 || duration <= 0 || len(curve) < 2 {
		return fmt.Errorf("%w: curve of %d values over %v", ErrInvalidValue, len(curve), duration)
	}
	p.insert(paramEvent{
		kind:     valueCurve,
		time:     t,
		value:    float64(curve[len(curve)-1]),
		curve:    append([]float32(nil), curve...),
		duration: duration,
	})

	return nil
}

// CancelScheduledValues drops every event at or after t.
func (p *AudioParam) CancelScheduledValues(t float64) error {
	if t < 0 {
		return fmt.Errorf("%w: negative time %v", ErrInvalidValue, t)
	}
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	p.events = p.events[:i]
	p.dirty = true

	return nil
}

// insert keeps events sorted by time. An event of the same kind at the same
// time is replaced by the newer one.
func (p *AudioParam) insert(e paramEvent) {
	p.dirty = true

	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > e.time })
	for j := i - 1; j >= 0 && p.events[j].time == e.time; j-- {
		if p.events[j].kind == e.kind {
			p.events[j] = e
			return
		}
	}

	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}

// advance passes every event due at t and rebuilds fn if needed.
func (p *AudioParam) advance(t float64) {
	for len(p.events) > 0 && p.events[0].time <= t {
		p.pass(p.events[0])
		p.events = p.events[1:]
		p.dirty = true
	}
	if !p.dirty {
		return
	}
	p.dirty = false

	p.fn = p.held
	if len(p.events) == 0 || !p.events[0].kind.ramp() {
		return
	}

	if p.targeting {
		// A ramp after a target approach starts where the approach is now.
		p.lastTime, p.lastValue = t, p.held(t)
		p.targeting = false
	}
	e := p.events[0]
	if e.kind == linearRamp {
		p.fn = linear(p.lastTime, p.lastValue, e.time, e.value)
	} else {
		p.fn = exponential(p.lastTime, p.lastValue, e.time, e.value)
	}
}

func (p *AudioParam) pass(e paramEvent) {
	switch e.kind {
	case setTarget:
		v0 := p.fn(e.time)
		p.lastTime, p.lastValue = e.time, v0
		p.held = target(e.time, v0, e.value, e.tau)
		p.targeting = true
	case valueCurve:
		p.lastTime, p.lastValue = e.time+e.duration, e.value
		p.held = curve(e.time, e.duration, e.curve)
		p.targeting = false
	default:
		p.lastTime, p.lastValue = e.time, e.value
		p.held = constant(e.value)
		p.targeting = false
	}
	p.fn = p.held
}

func linear(t0, v0, t1, v1 float64) func(float64) float64 {
	return func(t float64) float64 {
		if t >= t1 || t1 <= t0 {
			return v1
		}
		return v0 + (v1-v0)*(t-t0)/(t1-t0)
	}
}

// exponential holds v0 until t1 when the two values cannot be joined
// geometrically.
func exponential(t0, v0, t1, v1 float64) func(float64) float64 {
	if v0 == 0 || v0*v1 < 0 {
		return func(t float64) float64 {
			if t >= t1 {
				return v1
			}
			return v0
		}
	}

	return func(t float64) float64 {
		if t >= t1 || t1 <= t0 {
			return v1
		}
		return v0 * math.Pow(v1/v0, (t-t0)/(t1-t0))
	}
}

func target(t0, v0, v1, tau float64) func(float64) float64 {
	return func(t float64) float64 {
		return v1 + (v0-v1)*math.Exp(-(t-t0)/tau)
	}
}

func curve(t0, duration float64, values []float32) func(float64) float64 {
	last := len(values) - 1

	return func(t float64) float64 {
		if t >= t0+duration {
			return float64(values[last])
		}
		pos := (t - t0) / duration * float64(last)
		k := min(int(pos), last-1)
		frac := pos - float64(k)

		return float64(values[k]) + (float64(values[k+1])-float64(values[k]))*frac
	}
}

func (p *AudioParam) clamp(v float64) float64 {
	return min(max(v, p.min), p.max)
}

// pull computes the param's values for the current block: one value per
// frame for a-rate params, a constant block for k-rate. Connected outputs
// are added to the automation before the result is clamped.
func (p *AudioParam) pull() []float32 {
	ctx := p.ctx
	if p.frame == ctx.frame && p.block != nil {
		return p.block
	}

	n := ctx.BlockSize()
	if len(p.block) != n {
		p.block = make([]float32, n)
	}

	if p.rate == KRate {
		t := ctx.sampleTime(0)
		p.advance(t)
		v := p.fn(t)
		if len(p.input.sources) > 0 {
			v += float64(p.input.pull().Channel(0)[0])
		}
		c := float32(p.clamp(v))
		for i := range p.block {
			p.block[i] = c
		}
	} else {
		var mod []float32
		if len(p.input.sources) > 0 {
			mod = p.input.pull().Channel(0)
		}
		for i := range p.block {
			t := ctx.sampleTime(i)
			p.advance(t)
			v := p.fn(t)
			if mod != nil {
				v += float64(mod[i])
			}
			p.block[i] = float32(p.clamp(v))
		}
	}

	p.frame = ctx.frame
	p.value = float64(p.block[n-1])

	return p.block
}
