package domain

import (
	"hash/fnv"
	"math"
)

const (
	OfficeWidth  = 1200.0
	OfficeHeight = 700.0
	// SceneScale converts office units to 3D scene units.
	SceneScale = 50.0

	MeetingSeatRadius = 60.0
	MaxMeetingGroups  = 3
)

type Position struct {
	X float64
	Y float64
}

type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// To3D maps an office position onto the ground plane of the 3D scene,
// centered on the office midpoint.
func (p Position) To3D() Vec3 {
	return Vec3{
		X: (p.X - OfficeWidth/2) / SceneScale,
		Y: 0,
		Z: (p.Y - OfficeHeight/2) / SceneScale,
	}
}

type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

func (r Rect) Contains(p Position) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

var (
	DeskBounds    = Rect{X: 40, Y: 40, W: 560, H: 380}
	HotDeskBounds = Rect{X: 640, Y: 40, W: 520, H: 240}
	LoungeBounds  = Rect{X: 640, Y: 480, W: 520, H: 180}

	MeetingCenters = [MaxMeetingGroups]Position{
		{X: 140, Y: 560},
		{X: 320, Y: 560},
		{X: 500, Y: 560},
	}
)

// SlotGrid lays out Cols x Rows slot centers inside Bounds.
type SlotGrid struct {
	Zone   Zone
	Bounds Rect
	Cols   int
	Rows   int
}

func (g SlotGrid) Slots() []Position {
	slots := make([]Position, 0, g.Cols*g.Rows)
	cellW := g.Bounds.W / float64(g.Cols)
	cellH := g.Bounds.H / float64(g.Rows)
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			slots = append(slots, Position{
				X: g.Bounds.X + (float64(col)+0.5)*cellW,
				Y: g.Bounds.Y + (float64(row)+0.5)*cellH,
			})
		}
	}
	return slots
}

// Allocator assigns deterministic, collision-avoiding positions.
type Allocator struct {
	Desk    SlotGrid
	HotDesk SlotGrid
}

func DefaultAllocator() Allocator {
	return Allocator{
		Desk:    SlotGrid{Zone: ZoneDesk, Bounds: DeskBounds, Cols: 4, Rows: 3},
		HotDesk: SlotGrid{Zone: ZoneHotDesk, Bounds: HotDeskBounds, Cols: 4, Rows: 2},
	}
}

// Allocate picks a slot for id. Top-level agents start in the desk grid and
// sub-agents in the hot-desk grid; each overflows into the other. When both
// are full the position is a hash-derived point inside the primary zone and
// may collide with another agent.
func (a Allocator) Allocate(id AgentID, isSubAgent bool, occupied []Position) (Position, Zone) {
	primary, secondary := a.Desk, a.HotDesk
	if isSubAgent {
		primary, secondary = a.HotDesk, a.Desk
	}

	taken := make(map[Position]struct{}, len(occupied))
	for _, pos := range occupied {
		taken[pos] = struct{}{}
	}

	h := HashID(id)
	for _, grid := range []SlotGrid{primary, secondary} {
		if pos, ok := probe(grid.Slots(), h, taken); ok {
			return pos, grid.Zone
		}
	}

	bounds := primary.Bounds
	w := max(int(bounds.W), 1)
	hh := max(int(bounds.H), 1)
	return Position{
		X: bounds.X + float64(h%uint32(w)),
		Y: bounds.Y + float64((h/uint32(w))%uint32(hh)),
	}, primary.Zone
}

func probe(slots []Position, h uint32, taken map[Position]struct{}) (Position, bool) {
	n := len(slots)
	if n == 0 {
		return Position{}, false
	}
	start := int(h % uint32(n))
	for i := 0; i < n; i++ {
		slot := slots[(start+i)%n]
		if _, ok := taken[slot]; !ok {
			return slot, true
		}
	}
	return Position{}, false
}

// HashID returns a stable 32-bit FNV-1a hash of the agent id.
func HashID(id AgentID) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return h.Sum32()
}

// CalculateMeetingSeats places n seats evenly around center.
func CalculateMeetingSeats(center Position, n int) []Position {
	if n <= 0 {
		return nil
	}
	seats := make([]Position, n)
	step := 2 * math.Pi / float64(n)
	for i := range seats {
		angle := step*float64(i) - math.Pi/2
		seats[i] = Position{
			X: center.X + MeetingSeatRadius*math.Cos(angle),
			Y: center.Y + MeetingSeatRadius*math.Sin(angle),
		}
	}
	return seats
}
