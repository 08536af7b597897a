package render

import "math"

// Overlay colors.
var (
	boundsColor = RGB{1, 1, 0}
	originColor = RGB{1, 0, 1}
	axisXColor  = RGB{1, 0, 0}
	axisYColor  = RGB{0, 1, 0}
	axisZColor  = RGB{0, 0, 1}
)

// drawOverlays draws the requested debug geometry over the finished 3D
// pass. Overlays ignore the depth buffer; draw order here is fixed, so the
// result stays deterministic.
func drawOverlays(fb *Framebuffer, vp Mat4, parts []scenePart, opts Options) {
	if opts.DebugBounds {
		for _, p := range parts {
			lo, hi := p.bounds()
			drawWireBox(fb, vp, lo, hi, boundsColor)
		}
	}
	if opts.DebugAxes {
		const axisLen = 10
		drawLine3(fb, vp, Vec3{}, Vec3{axisLen, 0, 0}, axisXColor)
		drawLine3(fb, vp, Vec3{}, Vec3{0, axisLen, 0}, axisYColor)
		drawLine3(fb, vp, Vec3{}, Vec3{0, 0, axisLen}, axisZColor)
	}
	if opts.DebugOrigin {
		drawMarker(fb, vp, Vec3{}, originColor)
	}
}

// wireBoxEdges enumerates the 12 edges of an AABB as corner-index pairs,
// corners indexed by bitmask (1 = x hi, 2 = y hi, 4 = z hi).
var wireBoxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

func drawWireBox(fb *Framebuffer, vp Mat4, lo, hi Vec3, c RGB) {
	corner := func(mask int) Vec3 {
		v := lo
		if mask&1 != 0 {
			v.X = hi.X
		}
		if mask&2 != 0 {
			v.Y = hi.Y
		}
		if mask&4 != 0 {
			v.Z = hi.Z
		}
		return v
	}
	for _, e := range wireBoxEdges {
		drawLine3(fb, vp, corner(e[0]), corner(e[1]), c)
	}
}

// drawLine3 projects a world-space segment and plots it with a DDA walk.
// Segments crossing the near plane are dropped, like triangles.
func drawLine3(fb *Framebuffer, vp Mat4, a, b Vec3, c RGB) {
	pa, ok := project(fb, vp, a)
	if !ok {
		return
	}
	pb, ok := project(fb, vp, b)
	if !ok {
		return
	}
	dx, dy := pb[0]-pa[0], pb[1]-pa[1]
	steps := int(math.Ceil(math.Max(math.Abs(dx), math.Abs(dy))))
	if steps == 0 {
		fb.PlotOverlay(int(pa[0]), int(pa[1]), c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		fb.PlotOverlay(int(pa[0]+dx*t), int(pa[1]+dy*t), c)
	}
}

// drawMarker plots a small cross at a world position.
func drawMarker(fb *Framebuffer, vp Mat4, p Vec3, c RGB) {
	s, ok := project(fb, vp, p)
	if !ok {
		return
	}
	cx, cy := int(s[0]), int(s[1])
	const r = 4
	for d := -r; d <= r; d++ {
		fb.PlotOverlay(cx+d, cy, c)
		fb.PlotOverlay(cx, cy+d, c)
	}
}

func project(fb *Framebuffer, vp Mat4, v Vec3) ([2]float64, bool) {
	clip := vp.TransformPoint(v)
	if clip.W <= nearPlane {
		return [2]float64{}, false
	}
	x, y := ndcToScreen(clip.X/clip.W, clip.Y/clip.W, fb.Width, fb.Height)
	return [2]float64{x, y}, true
}
