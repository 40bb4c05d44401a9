package viewer

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AssemSadek/habitat-sim2real/pkg/config"
	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/sim"
)

const room = `
name: room
cell_size: 0.5
agent_start: [5, 0, 5]
floors:
  - height: 0
    navigable:
      - rect: [0, 0, 10, 10]
`

func testConfig() config.Simulator {
	return config.Simulator{
		Type:            "grid",
		ForwardStepSize: 0.25,
		TurnAngle:       10,
		DepthSensor: config.DepthSensor{
			Width:          64,
			HFOV:           90,
			MaxDepth:       10,
			NormalizeDepth: true,
		},
	}
}

func newViewer(t *testing.T, cfg config.Simulator) *Viewer {
	t.Helper()
	scene, err := sim.ParseScene([]byte(room))
	require.NoError(t, err)
	g, err := sim.NewGridSimulator(scene, cfg.DepthSensor)
	require.NoError(t, err)
	return New(g, cfg, nil)
}

func assertPosition(t *testing.T, want, got geo.Point3) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x")
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y")
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z")
}

func TestMapProjection(t *testing.T) {
	v := newViewer(t, testConfig())
	m := v.Map()
	assert.Equal(t, 20, m.Width)
	assert.Equal(t, 20, m.Height)

	assert.Equal(t, MapPoint{U: 10, V: 7}, v.ProjectPosToMap(geo.P3(5.2, 0, 3.7)))
	assertPosition(t, geo.P3(5, 0, 3.5), v.ProjectMapToPos(MapPoint{U: 10, V: 7}))

	p := geo.P3(7.25, 0, 1.75)
	assert.Equal(t, MapPoint{U: 14, V: 3}, v.ProjectPosToMap(v.ProjectMapToPos(v.ProjectPosToMap(p))))
}

func TestInitialFrame(t *testing.T) {
	v := newViewer(t, testConfig())
	f := v.Frame()

	assertPosition(t, geo.P3(5, 0, 5), f.State.Position)
	assert.Equal(t, MapPoint{U: 10, V: 10}, f.Map)
	assert.InDelta(t, 0, f.Heading[0], 1e-9)
	assert.InDelta(t, -1, f.Heading[1], 1e-9)
	assert.Len(t, f.Depth, 64)
	assert.True(t, f.Running)
	assert.False(t, f.Collision)
	assert.Nil(t, f.Pin)
}

func TestKeysMoveAgent(t *testing.T) {
	v := newViewer(t, testConfig())

	f, ok := v.OnKey('w')
	require.True(t, ok)
	assertPosition(t, geo.P3(5, 0, 4.75), f.State.Position)

	f, _ = v.OnKey('s')
	assertPosition(t, geo.P3(5, 0, 5), f.State.Position)

	f, _ = v.OnKey('d')
	assertPosition(t, geo.P3(5.25, 0, 5), f.State.Position)

	f, _ = v.OnKey('a')
	assertPosition(t, geo.P3(5, 0, 5), f.State.Position)
}

func TestKeysRotateAgent(t *testing.T) {
	v := newViewer(t, testConfig())
	a := 10 * math.Pi / 180

	f, ok := v.OnKey('q')
	require.True(t, ok)
	assert.InDelta(t, a, f.State.Rotation.Yaw(), 1e-9)
	assertPosition(t, geo.P3(5, 0, 5), f.State.Position)

	f, _ = v.OnKey('w')
	assertPosition(t, geo.P3(5-0.25*math.Sin(a), 0, 5-0.25*math.Cos(a)), f.State.Position)

	v.OnKey('e')
	f, _ = v.OnKey('e')
	assert.InDelta(t, -a, f.State.Rotation.Yaw(), 1e-9)
}

func TestOtherKeys(t *testing.T) {
	v := newViewer(t, testConfig())

	_, ok := v.OnKey('z')
	assert.False(t, ok)

	f, ok := v.OnKey('c')
	assert.True(t, ok)
	assert.True(t, f.Collision)

	v.OnKey('w')
	f, _ = v.OnKey('r')
	assertPosition(t, geo.P3(5, 0, 5), f.State.Position)

	f, _ = v.OnKey('x')
	assert.False(t, f.Running)
	assert.False(t, v.Running())
}

func TestTeleport(t *testing.T) {
	v := newViewer(t, testConfig())

	f := v.Teleport(MapPoint{U: 4, V: 6}, nil)
	assertPosition(t, geo.P3(2, 0, 3), f.State.Position)
	assert.InDelta(t, 0, f.Heading[0], 1e-9)
	assert.InDelta(t, 1, f.Heading[1], 1e-9, "faces +z without a heading")

	f = v.Teleport(MapPoint{U: 4, V: 6}, &geo.Point2D{X: 1, Z: 0})
	assert.InDelta(t, 1, f.Heading[0], 1e-9)
	assert.InDelta(t, 0, f.Heading[1], 1e-9)

	f = v.Teleport(MapPoint{U: 4, V: 6}, &geo.Point2D{X: 0, Z: -3})
	assert.InDelta(t, 0, f.Heading[0], 1e-9)
	assert.InDelta(t, -1, f.Heading[1], 1e-9)

	f, _ = v.OnKey('w')
	assertPosition(t, geo.P3(2, 0, 2.75), f.State.Position)
}

func TestCollisionStopsAtEdge(t *testing.T) {
	cfg := testConfig()
	cfg.ForwardStepSize = 1
	v := newViewer(t, cfg)
	start := v.ProjectMapToPos(MapPoint{U: 10, V: 19}).Add(geo.P3(0, 0, 0.1))

	v.Teleport(MapPoint{U: 10, V: 19}, &geo.Point2D{X: 0, Z: -1})
	f, _ := v.OnKey('s')
	assert.Greater(t, f.State.Position.Z, 10.0, "without collisions the agent leaves the map")

	v.Teleport(MapPoint{U: 10, V: 19}, &geo.Point2D{X: 0, Z: -1})
	v.OnKey('c')
	f, _ = v.OnKey('s')
	assert.Less(t, f.State.Position.Z, 10.0)
	assert.Greater(t, f.State.Position.Z, start.Z)
}

func TestPin(t *testing.T) {
	v := newViewer(t, testConfig())

	pin, err := v.Pin(32)
	require.NoError(t, err)
	assert.InDelta(t, 5, pin.Depth, 0.2)
	assert.InDelta(t, 5, pin.World.X, 0.2)
	assert.InDelta(t, 0, pin.World.Z, 0.2)
	assert.Equal(t, v.ProjectPosToMap(pin.World), pin.Map)

	f := v.Frame()
	require.NotNil(t, f.Pin)
	assert.Equal(t, pin, *f.Pin)

	_, err = v.Pin(64)
	assert.ErrorIs(t, err, ErrPinOutOfRange)
	_, err = v.Pin(-1)
	assert.ErrorIs(t, err, ErrPinOutOfRange)
}

func TestPinAfterQuit(t *testing.T) {
	v := newViewer(t, testConfig())
	v.OnKey('x')

	_, err := v.Pin(32)
	assert.ErrorIs(t, err, ErrSessionEnded)
	assert.Nil(t, v.Frame().Pin)
}

func TestConcurrentKeys(t *testing.T) {
	v := newViewer(t, testConfig())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, k := range "wsadqe" {
				v.OnKey(k)
			}
		}()
	}
	wg.Wait()
	assert.True(t, v.Running())
}
