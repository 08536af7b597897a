// Package render is the deterministic software renderer: a 3D rasterizer
// for world geometry and a 2D compositor for GUI elements, sharing one
// framebuffer. No GPU, no external renderer, no time or randomness inputs;
// the same snapshot always produces the same bytes.
package render

import (
	"math"
	"slices"

	"github.com/ludock/ludock/pkg/datamodel"
)

// Default output dimensions.
const (
	DefaultWidth  = 800
	DefaultHeight = 600
)

// Fixed scene constants.
var (
	// backgroundColor is the sky.
	backgroundColor = RGB{200.0 / 255, 230.0 / 255, 255.0 / 255}
	// defaultPartSize and defaultPartColor apply when a Part omits them.
	defaultPartSize  = Vec3{4, 1, 2}
	defaultPartColor = RGB{163.0 / 255, 162.0 / 255, 165.0 / 255}
	// lightDirection is the single directional light, pointing down and
	// slightly askew so every box face shades distinctly.
	lightDirection = Vec3{-0.4, -1, -0.6}.Normalize()
)

const (
	ambientLight = 0.35
	diffuseLight = 0.65
)

// Options configures one render.
type Options struct {
	Width  int
	Height int

	// Debug overlays, drawn after the 3D pass.
	DebugBounds bool
	DebugOrigin bool
	DebugAxes   bool
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// scenePart is a Part resolved to renderable form.
type scenePart struct {
	id        datamodel.Identity
	transform Mat4
	size      Vec3
	color     RGB
	mesh      Mesh
}

// bounds returns the world-space AABB of the part's oriented box.
func (p scenePart) bounds() (Vec3, Vec3) {
	lo := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i < 8; i++ {
		corner := Vec3{
			p.size.X / 2 * sign(i&1),
			p.size.Y / 2 * sign(i&2),
			p.size.Z / 2 * sign(i&4),
		}
		w := p.transform.TransformPoint(corner)
		lo = Vec3{math.Min(lo.X, w.X), math.Min(lo.Y, w.Y), math.Min(lo.Z, w.Z)}
		hi = Vec3{math.Max(hi.X, w.X), math.Max(hi.Y, w.Y), math.Max(hi.Z, w.Z)}
	}
	return lo, hi
}

func sign(bit int) float64 {
	if bit != 0 {
		return 1
	}
	return -1
}

// Render rasterizes the scene into a fresh framebuffer: 3D world pass,
// debug overlays, then the 2D GUI pass on top. It fails with
// ErrCameraConfig when the scene carries a Camera whose properties cannot
// produce a view.
func Render(root *datamodel.Instance, opts Options) (*Framebuffer, error) {
	opts = opts.withDefaults()
	fb := NewFramebuffer(opts.Width, opts.Height, backgroundColor)

	parts := collectParts(root)
	v, err := resolveCamera(root, parts)
	if err != nil {
		return nil, err
	}

	aspect := float64(opts.Width) / float64(opts.Height)
	viewMat := LookAt(v.eye, v.target, Vec3{0, 1, 0})
	projMat := Perspective(v.fovY, aspect, nearPlane, farPlane)
	vp := projMat.Mul(viewMat)

	// Ascending identity order; combined with the framebuffer's tie rule
	// this makes output independent of tree traversal order.
	for _, p := range parts {
		drawPart(fb, vp, p)
	}

	drawOverlays(fb, vp, parts, opts)
	compositeGui(fb, root)
	return fb, nil
}

// collectParts gathers every Part with resolved defaults, sorted by
// identity.
func collectParts(root *datamodel.Instance) []scenePart {
	var parts []scenePart
	root.Walk(func(i *datamodel.Instance) bool {
		if i.Class != datamodel.ClassPart {
			return true
		}
		if t, ok := i.Property("Transparency"); ok {
			if n, isNum := t.(datamodel.Number); isNum && float64(n) >= 1 {
				return true
			}
		}
		parts = append(parts, resolvePart(i))
		return true
	})
	slices.SortFunc(parts, func(a, b scenePart) int {
		return datamodel.CompareIdentity(a.id, b.id)
	})
	return parts
}

func resolvePart(i *datamodel.Instance) scenePart {
	p := scenePart{
		id:    i.ID(),
		size:  defaultPartSize,
		color: defaultPartColor,
		mesh:  BlockMesh(),
	}

	if v, ok := i.Property("Size"); ok {
		if s, isVec := v.(datamodel.Vector3); isVec {
			p.size = fromValueVec3(s)
		}
	}
	if v, ok := i.Property("Color"); ok {
		if c, isCol := v.(datamodel.Color3); isCol {
			p.color = rgbFromColor3(c)
		}
	}
	if v, ok := i.Property("Shape"); ok {
		if e, isEnum := v.(datamodel.Enum); isEnum {
			switch e.Item {
			case "Ball":
				p.mesh = BallMesh()
			case "Cylinder":
				p.mesh = CylinderMesh()
			}
		}
	}

	cf := datamodel.NewCFrame(0, 0, 0)
	if v, ok := i.Property("CFrame"); ok {
		if got, isCF := v.(datamodel.CFrame); isCF {
			cf = got
		}
	} else if v, ok := i.Property("Position"); ok {
		if pos, isVec := v.(datamodel.Vector3); isVec {
			cf = datamodel.NewCFrame(pos.X, pos.Y, pos.Z)
		}
	}
	p.transform = FromCFrame(cf)
	return p
}

func drawPart(fb *Framebuffer, vp Mat4, p scenePart) {
	for _, tri := range p.mesh {
		var world [3]Vec3
		for i, v := range tri {
			local := Vec3{v.X * p.size.X, v.Y * p.size.Y, v.Z * p.size.Z}
			w := p.transform.TransformPoint(local)
			world[i] = Vec3{w.X, w.Y, w.Z}
		}

		normal := world[1].Sub(world[0]).Cross(world[2].Sub(world[0])).Normalize()
		shade := ambientLight + diffuseLight*math.Max(0, normal.Dot(lightDirection.Scale(-1)))
		c := RGB{p.color.R * shade, p.color.G * shade, p.color.B * shade}

		rasterizeTriangle(fb, vp, world, c, p.id)
	}
}

// rasterizeTriangle projects one world-space triangle and fills it with
// edge functions sampled at pixel centers. Triangles crossing the near
// plane are dropped rather than clipped; the cost is missing geometry
// hugging the camera, the gain is a much simpler deterministic path.
func rasterizeTriangle(fb *Framebuffer, vp Mat4, world [3]Vec3, c RGB, id datamodel.Identity) {
	var sx, sy, sz [3]float64
	for i, w := range world {
		clip := vp.TransformPoint(w)
		if clip.W <= nearPlane {
			return
		}
		ndcX, ndcY, ndcZ := clip.X/clip.W, clip.Y/clip.W, clip.Z/clip.W
		sx[i], sy[i] = ndcToScreen(ndcX, ndcY, fb.Width, fb.Height)
		sz[i] = ndcZ
	}

	area := edge(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if area == 0 {
		return
	}

	minX := int(math.Floor(math.Min(sx[0], math.Min(sx[1], sx[2]))))
	maxX := int(math.Ceil(math.Max(sx[0], math.Max(sx[1], sx[2]))))
	minY := int(math.Floor(math.Min(sy[0], math.Min(sy[1], sy[2]))))
	maxY := int(math.Ceil(math.Max(sy[0], math.Max(sy[1], sy[2]))))
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, fb.Width-1)
	maxY = min(maxY, fb.Height-1)

	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5
			w0 := edge(sx[1], sy[1], sx[2], sy[2], px, py) / area
			w1 := edge(sx[2], sy[2], sx[0], sy[0], px, py) / area
			w2 := edge(sx[0], sy[0], sx[1], sy[1], px, py) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			z := w0*sz[0] + w1*sz[1] + w2*sz[2]
			fb.Plot(x, y, z, c, id)
		}
	}
}

// edge is the signed-area edge function for point (px, py) against the
// directed edge (ax, ay) -> (bx, by).
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}
