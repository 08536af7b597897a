package render

import (
	"errors"
	"fmt"
	"math"

	"github.com/ludock/ludock/pkg/datamodel"
)

// ErrCameraConfig marks a scene Camera whose properties cannot produce a
// view: a missing or mistyped CFrame, a mistyped Focus, or a FieldOfView
// outside (0, 180). It aborts the render stage only; the snapshot and
// diagnostics outputs are unaffected.
var ErrCameraConfig = errors.New("invalid camera configuration")

// Default viewing parameters, used when the scene supplies no Camera.
const (
	defaultFOVDegrees = 70.0
	nearPlane         = 0.1
	farPlane          = 1000.0
)

// autoViewDirection is the direction the auto-framing camera looks along,
// from above and to the side of the scene.
var autoViewDirection = Vec3{1, 0.8, 1}.Normalize()

// view bundles the resolved camera for one frame.
type view struct {
	eye    Vec3
	target Vec3
	fovY   float64 // radians
}

// resolveCamera picks the scene camera. An explicit Camera instance wins;
// when several exist the one with the smallest identity is chosen so the
// selection does not depend on traversal order. Without one, the camera is
// framed automatically around the scene bounds.
func resolveCamera(root *datamodel.Instance, parts []scenePart) (view, error) {
	var chosen *datamodel.Instance
	root.Walk(func(i *datamodel.Instance) bool {
		if i.Class == datamodel.ClassCamera {
			if chosen == nil || datamodel.CompareIdentity(i.ID(), chosen.ID()) < 0 {
				chosen = i
			}
		}
		return true
	})
	if chosen != nil {
		return cameraFromInstance(chosen)
	}
	return autoFrame(parts), nil
}

func cameraFromInstance(cam *datamodel.Instance) (view, error) {
	v := view{fovY: defaultFOVDegrees * math.Pi / 180}
	if f, ok := cam.Property("FieldOfView"); ok {
		n, isNum := f.(datamodel.Number)
		if !isNum || n <= 0 || n >= 180 {
			return view{}, fmt.Errorf("%w: %s: FieldOfView must be a number in (0, 180), got %s",
				ErrCameraConfig, cam.Path(), f)
		}
		v.fovY = float64(n) * math.Pi / 180
	}

	c, ok := cam.Property("CFrame")
	if !ok {
		return view{}, fmt.Errorf("%w: %s: CFrame is required", ErrCameraConfig, cam.Path())
	}
	cf, isCF := c.(datamodel.CFrame)
	if !isCF {
		return view{}, fmt.Errorf("%w: %s: CFrame has kind %s", ErrCameraConfig, cam.Path(), c.Kind())
	}
	v.eye = fromValueVec3(cf.Position)

	// The camera looks along its -Z basis vector unless Focus overrides it.
	if f, ok := cam.Property("Focus"); ok {
		got, isFocusCF := f.(datamodel.CFrame)
		if !isFocusCF {
			return view{}, fmt.Errorf("%w: %s: Focus has kind %s", ErrCameraConfig, cam.Path(), f.Kind())
		}
		v.target = fromValueVec3(got.Position)
		return v, nil
	}
	r := cf.Rotation
	look := Vec3{-r[2], -r[5], -r[8]}
	v.target = v.eye.Add(look)
	return v, nil
}

// autoFrame positions the camera so the scene's bounding box fits the
// default field of view with margin. An empty scene gets a fixed vantage of
// the origin.
func autoFrame(parts []scenePart) view {
	fov := defaultFOVDegrees * math.Pi / 180
	if len(parts) == 0 {
		return view{
			eye:    autoViewDirection.Scale(20),
			target: Vec3{},
			fovY:   fov,
		}
	}

	min := Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, p := range parts {
		lo, hi := p.bounds()
		min = Vec3{math.Min(min.X, lo.X), math.Min(min.Y, lo.Y), math.Min(min.Z, lo.Z)}
		max = Vec3{math.Max(max.X, hi.X), math.Max(max.Y, hi.Y), math.Max(max.Z, hi.Z)}
	}

	center := min.Add(max).Scale(0.5)
	extent := max.Sub(min)
	maxDim := math.Max(extent.X, math.Max(extent.Y, extent.Z))
	distance := maxDim/2/math.Tan(fov/2)*1.5 + 5

	return view{
		eye:    center.Add(autoViewDirection.Scale(distance)),
		target: center,
		fovY:   fov,
	}
}
