package render

import (
	"image"
	"image/color"
	"math"

	"github.com/ludock/ludock/pkg/datamodel"
)

// depthEps is the window within which two depth samples are considered tied
// and ownership falls back to identity order.
const depthEps = 1e-9

// RGB is a linear color with components in [0, 1].
type RGB struct{ R, G, B float64 }

func rgbFromColor3(c datamodel.Color3) RGB { return RGB{c.R, c.G, c.B} }

// Framebuffer holds per-pixel color, depth, and the identity of the
// instance that owns each sample. Ownership makes depth ties resolvable
// deterministically, independent of draw order.
type Framebuffer struct {
	Width, Height int
	color         []RGB
	depth         []float64
	owner         []datamodel.Identity
	owned         []bool
}

// NewFramebuffer allocates a buffer cleared to the background color with
// depth at +Inf.
func NewFramebuffer(width, height int, background RGB) *Framebuffer {
	n := width * height
	fb := &Framebuffer{
		Width:  width,
		Height: height,
		color:  make([]RGB, n),
		depth:  make([]float64, n),
		owner:  make([]datamodel.Identity, n),
		owned:  make([]bool, n),
	}
	for i := range fb.color {
		fb.color[i] = background
		fb.depth[i] = math.Inf(1)
	}
	return fb
}

// Plot writes a depth-tested sample. A strictly nearer sample always wins;
// within depthEps of the stored depth, the sample with the smaller identity
// wins. This makes coplanar overlaps render identically regardless of the
// order parts were drawn in.
func (fb *Framebuffer) Plot(x, y int, z float64, c RGB, id datamodel.Identity) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	i := y*fb.Width + x
	d := fb.depth[i]
	switch {
	case z < d-depthEps:
		// strictly nearer
	case math.Abs(z-d) <= depthEps && fb.owned[i] &&
		datamodel.CompareIdentity(id, fb.owner[i]) < 0:
		// tied, smaller identity wins
	default:
		return
	}
	fb.color[i] = c
	fb.depth[i] = z
	fb.owner[i] = id
	fb.owned[i] = true
}

// PlotOverlay writes a sample unconditionally, ignoring depth. Used by the
// debug overlays and the 2D compositor, which both draw strictly after the
// 3D pass in a defined order.
func (fb *Framebuffer) PlotOverlay(x, y int, c RGB) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.color[y*fb.Width+x] = c
}

// At returns the stored color at (x, y).
func (fb *Framebuffer) At(x, y int) RGB {
	return fb.color[y*fb.Width+x]
}

// DepthAt returns the stored depth at (x, y); +Inf where nothing was drawn.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	return fb.depth[y*fb.Width+x]
}

// OwnerAt returns the identity owning (x, y), if any sample was plotted.
func (fb *Framebuffer) OwnerAt(x, y int) (datamodel.Identity, bool) {
	i := y*fb.Width + x
	return fb.owner[i], fb.owned[i]
}

// Image quantizes the buffer to 8-bit RGBA. Quantization is
// round-half-away-from-zero on c*255, clamped, which together with the
// deterministic float pipeline gives byte-identical output for identical
// scenes.
func (fb *Framebuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.color[y*fb.Width+x]
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(c.R),
				G: quantize(c.G),
				B: quantize(c.B),
				A: 255,
			})
		}
	}
	return img
}

func quantize(c float64) uint8 {
	v := math.Round(c * 255)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
