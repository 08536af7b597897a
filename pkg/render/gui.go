package render

import (
	"math"
	"slices"

	"github.com/ludock/ludock/pkg/datamodel"
)

// guiRect is a resolved screen-space rectangle in pixels.
type guiRect struct {
	x, y, w, h float64
}

// compositeGui draws every enabled ScreenGui over the 3D pass. ScreenGuis
// are ordered by DisplayOrder, ties broken by identity; within one gui,
// elements paint parent-before-child so children overlay their containers.
func compositeGui(fb *Framebuffer, root *datamodel.Instance) {
	starter := root.FindFirstClass(datamodel.ClassStarterGui)
	if starter == nil {
		return
	}

	type orderedGui struct {
		inst  *datamodel.Instance
		order float64
	}
	var guis []orderedGui
	for _, child := range starter.Children() {
		if child.Class != datamodel.ClassScreenGui {
			continue
		}
		if v, ok := child.Property("Enabled"); ok {
			if b, isBool := v.(datamodel.Bool); isBool && !bool(b) {
				continue
			}
		}
		order := 0.0
		if v, ok := child.Property("DisplayOrder"); ok {
			if n, isNum := v.(datamodel.Number); isNum {
				order = float64(n)
			}
		}
		guis = append(guis, orderedGui{child, order})
	}
	slices.SortFunc(guis, func(a, b orderedGui) int {
		if a.order != b.order {
			if a.order < b.order {
				return -1
			}
			return 1
		}
		return datamodel.CompareIdentity(a.inst.ID(), b.inst.ID())
	})

	screen := guiRect{0, 0, float64(fb.Width), float64(fb.Height)}
	for _, g := range guis {
		for _, child := range g.inst.Children() {
			compositeElement(fb, child, screen)
		}
	}
}

func compositeElement(fb *Framebuffer, inst *datamodel.Instance, parent guiRect) {
	spec, ok := datamodel.LookupClass(inst.Class)
	if !ok || !spec.Gui {
		return
	}
	if v, ok := inst.Property("Visible"); ok {
		if b, isBool := v.(datamodel.Bool); isBool && !bool(b) {
			return // hidden elements hide their subtree too
		}
	}

	rect := resolveRect(inst, parent)
	drawGuiRect(fb, inst, rect)

	for _, child := range inst.Children() {
		compositeElement(fb, child, rect)
	}
}

// resolveRect turns the element's UDim2 Position and Size into absolute
// pixels: scale is a fraction of the parent span, offset is added in whole
// pixels.
func resolveRect(inst *datamodel.Instance, parent guiRect) guiRect {
	pos := udim2Of(inst, "Position", datamodel.NewUDim2(0, 0, 0, 0))
	size := udim2Of(inst, "Size", datamodel.NewUDim2(0, 100, 0, 100))
	return guiRect{
		x: parent.x + pos.X.Scale*parent.w + float64(pos.X.Offset),
		y: parent.y + pos.Y.Scale*parent.h + float64(pos.Y.Offset),
		w: size.X.Scale*parent.w + float64(size.X.Offset),
		h: size.Y.Scale*parent.h + float64(size.Y.Offset),
	}
}

func udim2Of(inst *datamodel.Instance, name string, fallback datamodel.UDim2) datamodel.UDim2 {
	if v, ok := inst.Property(name); ok {
		if u, isU := v.(datamodel.UDim2); isU {
			return u
		}
	}
	return fallback
}

func drawGuiRect(fb *Framebuffer, inst *datamodel.Instance, rect guiRect) {
	transparency := 0.0
	if v, ok := inst.Property("BackgroundTransparency"); ok {
		if n, isNum := v.(datamodel.Number); isNum {
			transparency = float64(n)
		}
	}
	if transparency >= 1 {
		return
	}

	bg := RGB{1, 1, 1}
	if v, ok := inst.Property("BackgroundColor3"); ok {
		if c, isCol := v.(datamodel.Color3); isCol {
			bg = rgbFromColor3(c)
		}
	}

	x0 := int(math.Floor(rect.x))
	y0 := int(math.Floor(rect.y))
	x1 := int(math.Floor(rect.x + rect.w))
	y1 := int(math.Floor(rect.y + rect.h))
	alpha := 1 - transparency

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
				continue
			}
			if alpha >= 1 {
				fb.PlotOverlay(x, y, bg)
				continue
			}
			under := fb.At(x, y)
			fb.PlotOverlay(x, y, RGB{
				R: bg.R*alpha + under.R*(1-alpha),
				G: bg.G*alpha + under.G*(1-alpha),
				B: bg.B*alpha + under.B*(1-alpha),
			})
		}
	}
}
