package render

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/ludock/ludock/pkg/datamodel"
)

func mustInstance(t *testing.T, class, name string) *datamodel.Instance {
	t.Helper()
	i, err := datamodel.New(class, name)
	if err != nil {
		t.Fatal(err)
	}
	return i
}

func mustSet(t *testing.T, i *datamodel.Instance, name string, v datamodel.Value) {
	t.Helper()
	if err := i.SetProperty(name, v); err != nil {
		t.Fatalf("SetProperty %s: %v", name, err)
	}
}

// sceneWithPart builds game/Workspace/<name> with the given properties and
// assigned identities.
func sceneWithPart(t *testing.T, props map[string]datamodel.Value) *datamodel.Instance {
	t.Helper()
	root := datamodel.NewRoot()
	ws := mustInstance(t, datamodel.ClassWorkspace, "Workspace")
	if err := root.AddChild(ws); err != nil {
		t.Fatal(err)
	}
	part := mustInstance(t, datamodel.ClassPart, "Brick")
	for k, v := range props {
		mustSet(t, part, k, v)
	}
	if err := ws.AddChild(part); err != nil {
		t.Fatal(err)
	}
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	return root
}

func renderOK(t *testing.T, root *datamodel.Instance, opts Options) *Framebuffer {
	t.Helper()
	fb, err := Render(root, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return fb
}

func TestRenderDeterministic(t *testing.T) {
	build := func() *datamodel.Instance {
		return sceneWithPart(t, map[string]datamodel.Value{
			"Size":  datamodel.Vector3{X: 4, Y: 4, Z: 4},
			"Color": datamodel.Color3FromRGB(255, 0, 0),
		})
	}
	opts := Options{Width: 200, Height: 150}

	first, err := EncodePNGBytes(renderOK(t, build(), opts))
	if err != nil {
		t.Fatal(err)
	}
	second, err := EncodePNGBytes(renderOK(t, build(), opts))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("two renders of the same scene produced different bytes")
	}
}

func TestRenderPartAppearsNearCenter(t *testing.T) {
	root := sceneWithPart(t, map[string]datamodel.Value{
		"Size":  datamodel.Vector3{X: 6, Y: 6, Z: 6},
		"Color": datamodel.Color3FromRGB(255, 0, 0),
	})
	fb := renderOK(t, root, Options{Width: 200, Height: 150})

	c := fb.At(100, 75)
	// Red part, shaded: red dominates, green and blue are near zero.
	if c.R < 0.2 || c.G > 0.05 || c.B > 0.05 {
		t.Fatalf("center pixel not red: %+v", c)
	}
	// A corner should still be sky.
	if got := fb.At(2, 2); got != backgroundColor {
		t.Fatalf("corner pixel = %+v, want background", got)
	}
}

func TestRenderEmptySceneIsBackground(t *testing.T) {
	root := datamodel.NewRoot()
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}
	fb := renderOK(t, root, Options{Width: 64, Height: 48})
	for y := 0; y < 48; y += 7 {
		for x := 0; x < 64; x += 9 {
			if fb.At(x, y) != backgroundColor {
				t.Fatalf("pixel (%d,%d) = %+v, want background", x, y, fb.At(x, y))
			}
		}
	}
}

func TestFramebufferDepthTieBreak(t *testing.T) {
	idLow := datamodel.Identity{}
	idHigh := datamodel.Identity{}
	idHigh[0] = 1

	red := RGB{1, 0, 0}
	blue := RGB{0, 0, 1}

	// Same depth, high identity drawn first: low identity must win.
	fb := NewFramebuffer(4, 4, RGB{})
	fb.Plot(1, 1, 5.0, blue, idHigh)
	fb.Plot(1, 1, 5.0, red, idLow)
	if fb.At(1, 1) != red {
		t.Fatalf("tie not won by smaller identity: %+v", fb.At(1, 1))
	}

	// Reversed draw order must give the same pixel.
	fb2 := NewFramebuffer(4, 4, RGB{})
	fb2.Plot(1, 1, 5.0, red, idLow)
	fb2.Plot(1, 1, 5.0, blue, idHigh)
	if fb2.At(1, 1) != fb.At(1, 1) {
		t.Fatal("tie resolution depends on draw order")
	}

	// Strictly nearer always wins, identity regardless.
	fb3 := NewFramebuffer(4, 4, RGB{})
	fb3.Plot(1, 1, 5.0, red, idLow)
	fb3.Plot(1, 1, 4.0, blue, idHigh)
	if fb3.At(1, 1) != blue {
		t.Fatalf("nearer sample lost: %+v", fb3.At(1, 1))
	}
}

func TestQuantize(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{0, 0},
		{1, 255},
		{-0.5, 0},
		{1.5, 255},
		{0.5, 128},
		{200.0 / 255, 200},
	}
	for _, tc := range cases {
		if got := quantize(tc.in); got != tc.want {
			t.Errorf("quantize(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMeshesAreClosedAndFixed(t *testing.T) {
	if got := len(BlockMesh()); got != 12 {
		t.Errorf("block mesh has %d triangles, want 12", got)
	}
	if len(BallMesh()) == 0 || len(CylinderMesh()) == 0 {
		t.Fatal("empty mesh")
	}
	// Tessellation must not drift between calls.
	if len(BallMesh()) != len(BallMesh()) || &BallMesh()[0] != &ballMesh[0] {
		t.Fatal("ball mesh rebuilt per call")
	}
}

func TestAutoFrameContainsScene(t *testing.T) {
	p := scenePart{
		size:      Vec3{4, 1, 2},
		transform: FromCFrame(datamodel.NewCFrame(10, 0, -10)),
	}
	v := autoFrame([]scenePart{p})

	center := Vec3{10, 0, -10}
	if v.target.Sub(center).Length() > 1e-9 {
		t.Fatalf("target = %+v, want scene center %+v", v.target, center)
	}
	if v.eye.Sub(center).Length() <= 5 {
		t.Fatal("camera too close to frame the scene")
	}
	if math.Abs(v.fovY-defaultFOVDegrees*math.Pi/180) > 1e-12 {
		t.Fatalf("fov = %v", v.fovY)
	}
}

func TestExplicitCameraWins(t *testing.T) {
	root := sceneWithPart(t, map[string]datamodel.Value{})
	ws := root.FindFirstClass(datamodel.ClassWorkspace)
	cam := mustInstance(t, datamodel.ClassCamera, "Camera")
	mustSet(t, cam, "CFrame", datamodel.NewCFrame(0, 50, 0))
	mustSet(t, cam, "FieldOfView", datamodel.Number(45))
	if err := ws.AddChild(cam); err != nil {
		t.Fatal(err)
	}
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}

	v, err := resolveCamera(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.eye != (Vec3{0, 50, 0}) {
		t.Fatalf("eye = %+v", v.eye)
	}
	if math.Abs(v.fovY-45*math.Pi/180) > 1e-12 {
		t.Fatalf("fov = %v", v.fovY)
	}
}

func TestBrokenCameraFailsRender(t *testing.T) {
	// A Camera without a usable CFrame must fail the render rather than
	// silently framing the scene from the origin.
	addCamera := func(t *testing.T, set func(cam *datamodel.Instance)) *datamodel.Instance {
		t.Helper()
		root := sceneWithPart(t, map[string]datamodel.Value{})
		ws := root.FindFirstClass(datamodel.ClassWorkspace)
		cam := mustInstance(t, datamodel.ClassCamera, "Camera")
		set(cam)
		if err := ws.AddChild(cam); err != nil {
			t.Fatal(err)
		}
		if err := datamodel.AssignIdentities(root); err != nil {
			t.Fatal(err)
		}
		return root
	}

	cases := []struct {
		name string
		set  func(cam *datamodel.Instance)
	}{
		{"missing CFrame", func(cam *datamodel.Instance) {}},
		{"out-of-range FieldOfView", func(cam *datamodel.Instance) {
			mustSet(t, cam, "CFrame", datamodel.NewCFrame(0, 10, 20))
			mustSet(t, cam, "FieldOfView", datamodel.Number(180))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := addCamera(t, tc.set)
			fb, err := Render(root, Options{Width: 64, Height: 48})
			if !errors.Is(err, ErrCameraConfig) {
				t.Fatalf("err = %v, want ErrCameraConfig", err)
			}
			if fb != nil {
				t.Fatal("framebuffer returned alongside camera error")
			}
		})
	}
}

func TestGuiComposite(t *testing.T) {
	root := datamodel.NewRoot()
	starter := mustInstance(t, datamodel.ClassStarterGui, "StarterGui")
	if err := root.AddChild(starter); err != nil {
		t.Fatal(err)
	}
	gui := mustInstance(t, datamodel.ClassScreenGui, "Hud")
	if err := starter.AddChild(gui); err != nil {
		t.Fatal(err)
	}
	frame := mustInstance(t, datamodel.ClassFrame, "Panel")
	mustSet(t, frame, "Position", datamodel.NewUDim2(0, 10, 0, 10))
	mustSet(t, frame, "Size", datamodel.NewUDim2(0, 20, 0, 20))
	mustSet(t, frame, "BackgroundColor3", datamodel.Color3FromRGB(0, 255, 0))
	if err := gui.AddChild(frame); err != nil {
		t.Fatal(err)
	}

	hidden := mustInstance(t, datamodel.ClassFrame, "Hidden")
	mustSet(t, hidden, "Position", datamodel.NewUDim2(0, 50, 0, 50))
	mustSet(t, hidden, "Size", datamodel.NewUDim2(0, 10, 0, 10))
	mustSet(t, hidden, "Visible", datamodel.Bool(false))
	if err := gui.AddChild(hidden); err != nil {
		t.Fatal(err)
	}
	if err := datamodel.AssignIdentities(root); err != nil {
		t.Fatal(err)
	}

	fb := renderOK(t, root, Options{Width: 100, Height: 100})
	if got := fb.At(15, 15); got != (RGB{0, 1, 0}) {
		t.Fatalf("frame pixel = %+v, want green", got)
	}
	if got := fb.At(55, 55); got != backgroundColor {
		t.Fatalf("hidden frame drew: %+v", got)
	}
	// Frame paints over the 3D pass only within its rect.
	if got := fb.At(5, 5); got != backgroundColor {
		t.Fatalf("outside frame = %+v, want background", got)
	}
}

func TestDebugOverlaysDraw(t *testing.T) {
	root := sceneWithPart(t, map[string]datamodel.Value{
		"Size": datamodel.Vector3{X: 2, Y: 2, Z: 2},
	})
	plain := renderOK(t, root, Options{Width: 120, Height: 90})
	debug := renderOK(t, root, Options{Width: 120, Height: 90, DebugBounds: true, DebugOrigin: true, DebugAxes: true})

	diff := 0
	for y := 0; y < 90; y++ {
		for x := 0; x < 120; x++ {
			if plain.At(x, y) != debug.At(x, y) {
				diff++
			}
		}
	}
	if diff == 0 {
		t.Fatal("debug overlays changed nothing")
	}
}
