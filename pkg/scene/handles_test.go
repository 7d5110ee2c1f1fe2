package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/df07/go-optics-engine/pkg/core"
	"github.com/df07/go-optics-engine/pkg/geometry"
)

func TestHandlesSkipStaticElements(t *testing.T) {
	s := NewCorridorScene(1280, 720)
	handles := s.Handles()
	require.Len(t, handles, 2)
	for _, h := range handles {
		assert.Equal(t, EmitterTarget, h.Target)
	}

	s = NewDefaultScene(1280, 720)
	// emitter: drag + direction, circle: drag + three radius controls
	assert.Len(t, s.Handles(), 6)
}

func TestNearest(t *testing.T) {
	s := NewDefaultScene(1280, 720)

	h, ok := s.Nearest(core.NewVec2(645, 360))
	require.True(t, ok)
	assert.Equal(t, EmitterTarget, h.Target)
	assert.Equal(t, geometry.ControlDrag, h.Control.Kind)

	h, ok = s.Nearest(core.NewVec2(1088, 362))
	require.True(t, ok)
	assert.Equal(t, ObjectTarget, h.Target)
	assert.Equal(t, geometry.ControlRadius, h.Control.Kind)

	_, ok = s.Nearest(core.NewVec2(0, 0))
	assert.False(t, ok)
}

func TestApplyHandleInvalid(t *testing.T) {
	s := NewDefaultScene(1280, 720)

	err := s.ApplyHandle(Handle{Target: ObjectTarget, Index: 5}, core.NewVec2(0, 0))
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = s.HandlePosition(Handle{Target: EmitterTarget, Index: -1})
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = s.HandlePosition(Handle{Target: TargetKind(9)})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSelectorDragGesture(t *testing.T) {
	s := NewDefaultScene(1280, 720)
	sel := NewSelector()

	require.NoError(t, sel.Update(s, core.NewVec2(645, 360), true))
	active, ok := sel.Active()
	require.True(t, ok)
	assert.Equal(t, EmitterTarget, active.Target)
	assert.Equal(t, core.NewVec2(645, 360), s.Emitters[0].Position)

	require.NoError(t, sel.Update(s, core.NewVec2(700, 300), true))
	assert.Equal(t, core.NewVec2(700, 300), s.Emitters[0].Position)

	require.NoError(t, sel.Update(s, core.NewVec2(710, 310), false))
	_, ok = sel.Active()
	assert.False(t, ok)
	assert.False(t, sel.Pressed())

	// Moving with the button up edits nothing
	require.NoError(t, sel.Update(s, core.NewVec2(0, 0), false))
	assert.Equal(t, core.NewVec2(700, 300), s.Emitters[0].Position)
}

func TestSelectorRadiusControl(t *testing.T) {
	s := NewDefaultScene(1280, 720)
	sel := NewSelector()

	require.NoError(t, sel.Update(s, core.NewVec2(1090, 360), true))
	require.NoError(t, sel.Update(s, core.NewVec2(1100, 360), true))

	circle, ok := s.Objects[0].Hitbox.(*geometry.Circle)
	require.True(t, ok)
	assert.InDelta(t, 60.0, circle.Radius, 1e-9)
	assert.Equal(t, core.NewVec2(1040, 360), circle.Center)
}

func TestSelectorPressOnEmptySpace(t *testing.T) {
	s := NewDefaultScene(1280, 720)
	sel := NewSelector()

	require.NoError(t, sel.Update(s, core.NewVec2(10, 10), true))
	_, ok := sel.Active()
	assert.False(t, ok)

	// Sliding onto a handle while held does not grab it
	require.NoError(t, sel.Update(s, core.NewVec2(640, 360), true))
	_, ok = sel.Active()
	assert.False(t, ok)
	assert.Equal(t, core.NewVec2(640, 360), s.Emitters[0].Position)
}

func TestSelectorDropsStaleHandle(t *testing.T) {
	s := NewDefaultScene(1280, 720)
	sel := NewSelector()

	require.NoError(t, sel.Update(s, core.NewVec2(1040, 360), true))
	_, ok := sel.Active()
	require.True(t, ok)

	s.Objects = nil
	err := sel.Update(s, core.NewVec2(1000, 360), true)
	assert.ErrorIs(t, err, ErrInvalidHandle)
	_, ok = sel.Active()
	assert.False(t, ok)
}

func TestApplyHandleRejectsStatic(t *testing.T) {
	s := NewCorridorScene(1280, 720)
	line := s.Objects[0].Hitbox.(*geometry.LineSegment)
	before := line.Center

	err := s.ApplyHandle(Handle{Target: ObjectTarget, Index: 0, Control: geometry.Control{Kind: geometry.ControlDrag}}, core.NewVec2(300, 300))
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, before, line.Center)

	s.Emitters[0].Static = true
	err = s.ApplyHandle(Handle{Target: EmitterTarget, Index: 0, Control: geometry.Control{Kind: geometry.ControlDrag}}, core.NewVec2(300, 300))
	assert.ErrorIs(t, err, ErrInvalidHandle)
	assert.Equal(t, core.NewVec2(640, 360), s.Emitters[0].Position)

	// Static elements still report their positions
	_, err = s.HandlePosition(Handle{Target: ObjectTarget, Index: 0, Control: geometry.Control{Kind: geometry.ControlDrag}})
	assert.NoError(t, err)
}

func TestSelectorReleasesGrabOnSceneSwap(t *testing.T) {
	a := NewDefaultScene(1280, 720)
	sel := NewSelector()
	require.NoError(t, sel.Update(a, core.NewVec2(1040, 360), true))
	active, ok := sel.Active()
	require.True(t, ok)
	require.Equal(t, ObjectTarget, active.Target)

	// Scene b has a static circle at the index the grab points to
	b := NewScene("swapped")
	b.AddEmitter(core.NewVec2(100, 100), core.NewVec2(1, 0), 0, 0, 1, false)
	b.AddObject(geometry.NewCircle(core.NewVec2(1040, 360), 50), nil, true)

	require.NoError(t, sel.Update(b, core.NewVec2(300, 300), true))
	_, ok = sel.Active()
	assert.False(t, ok)
	assert.True(t, sel.Pressed())
	assert.Equal(t, core.NewVec2(1040, 360), b.Objects[0].Hitbox.(*geometry.Circle).Center)
	assert.Equal(t, core.NewVec2(100, 100), b.Emitters[0].Position)

	// Holding still edits nothing until a fresh press
	require.NoError(t, sel.Update(b, core.NewVec2(100, 100), true))
	assert.Equal(t, core.NewVec2(100, 100), b.Emitters[0].Position)
	_, ok = sel.Active()
	assert.False(t, ok)

	require.NoError(t, sel.Update(b, core.NewVec2(100, 100), false))
	require.NoError(t, sel.Update(b, core.NewVec2(105, 100), true))
	active, ok = sel.Active()
	require.True(t, ok)
	assert.Equal(t, EmitterTarget, active.Target)
	assert.Equal(t, core.NewVec2(105, 100), b.Emitters[0].Position)
}

type circleCounter struct {
	circles int
}

func (c *circleCounter) DrawLine(from, to core.Vec2, color core.Color, width float64) {}

func (c *circleCounter) DrawCircle(center core.Vec2, radius float64, color core.Color, width float64) {
	if color == core.ColorControl {
		c.circles++
	}
}

func TestRenderHandles(t *testing.T) {
	s := NewMirrorScene(1280, 720)
	canvas := &circleCounter{}
	s.RenderHandles(canvas, 6)
	assert.Equal(t, len(s.Handles()), canvas.circles)
}
