/*
Package alignment keeps the reference points which bring two board packages to a common origin
*/
package alignment

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	. "github.com/vasilyturchenko/gerbcompare/gerberbasetypes"
	it "github.com/vasilyturchenko/gerbcompare/imagetree"
)

// Packet selects one of the two compared packages
type Packet int

const (
	PacketNone Packet = iota
	PacketA
	PacketB
)

func (p Packet) String() string {
	switch p {
	case PacketA:
		return "A"
	case PacketB:
		return "B"
	}
	return "none"
}

// Manager holds one optional reference point per packet. When both are set every
// packet is shifted so its reference point lands on the origin.
type Manager struct {
	mu      sync.RWMutex
	refA    *it.Point
	refB    *it.Point
	picking Packet
}

func NewManager() *Manager {
	return new(Manager)
}

// SetRef stores the reference point of a packet and ends picking
func (m *Manager) SetRef(p Packet, pt it.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch p {
	case PacketA:
		m.refA = &pt
	case PacketB:
		m.refB = &pt
	default:
		return fmt.Errorf("unknown packet %d", p)
	}
	m.picking = PacketNone
	glog.V(1).Infof("alignment: packet %v reference set to (%g, %g)", p, pt.X, pt.Y)
	return nil
}

// Ref returns the reference point of a packet, ok is false when it is not set
func (m *Manager) Ref(p Packet) (it.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var r *it.Point
	switch p {
	case PacketA:
		r = m.refA
	case PacketB:
		r = m.refB
	}
	if r == nil {
		return it.Point{}, false
	}
	return *r, true
}

func (m *Manager) IsAligned() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refA != nil && m.refB != nil
}

func (m *Manager) offset(r *it.Point) it.Point {
	if m.refA == nil || m.refB == nil {
		return it.Point{}
	}
	return it.Point{X: -r.X, Y: -r.Y}
}

// OffsetA is the gerber offset of packet A, zero until both points are set
func (m *Manager) OffsetA() it.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offset(m.refA)
}

// OffsetB is the gerber offset of packet B, zero until both points are set
func (m *Manager) OffsetB() it.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.offset(m.refB)
}

// Offsets returns both offsets. Before both points are set they are zero and the
// error is ErrAlignmentIncomplete, callers may render with them anyway.
func (m *Manager) Offsets() (a, b it.Point, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.refA == nil || m.refB == nil {
		return it.Point{}, it.Point{}, ErrAlignmentIncomplete
	}
	return m.offset(m.refA), m.offset(m.refB), nil
}

func (m *Manager) StartPicking(p Packet) {
	m.mu.Lock()
	m.picking = p
	m.mu.Unlock()
}

func (m *Manager) CancelPicking() {
	m.mu.Lock()
	m.picking = PacketNone
	m.mu.Unlock()
}

// Picking returns the packet waiting for a reference point, PacketNone if any
func (m *Manager) Picking() Packet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.picking
}

// Clear drops both reference points
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refA, m.refB = nil, nil
	m.picking = PacketNone
}

func ShiftBounds(b it.Bounds, offset it.Point) it.Bounds {
	return b.Shift(offset.X, offset.Y)
}

// SharedBounds is the union of both packets' bounds after alignment, used to fit a common viewport
func SharedBounds(a, b it.Bounds, offA, offB it.Point) it.Bounds {
	switch {
	case a.IsEmpty():
		return ShiftBounds(b, offB)
	case b.IsEmpty():
		return ShiftBounds(a, offA)
	}
	return ShiftBounds(a, offA).Merge(ShiftBounds(b, offB))
}
