package render

import "math"

// Triangle is three vertices in local part space, counter-clockwise when
// viewed from outside.
type Triangle [3]Vec3

// Mesh is a unit-size triangle list, scaled per part at draw time.
type Mesh []Triangle

// Tessellation constants. Fixed so the same scene always produces the same
// triangle soup, and therefore the same pixels.
const (
	sphereSegments   = 12
	sphereRings      = 12
	cylinderSegments = 16
)

var (
	blockMesh    = buildBlockMesh()
	ballMesh     = buildBallMesh()
	cylinderMesh = buildCylinderMesh()
)

// BlockMesh returns the unit cube (side 1, centered at origin) as 12
// triangles.
func BlockMesh() Mesh { return blockMesh }

// BallMesh returns a unit-diameter UV sphere.
func BallMesh() Mesh { return ballMesh }

// CylinderMesh returns a unit cylinder whose axis lies along +X, matching
// the Part convention that a cylinder's length is its X size.
func CylinderMesh() Mesh { return cylinderMesh }

func buildBlockMesh() Mesh {
	const h = 0.5
	corners := [8]Vec3{
		{-h, -h, -h}, {h, -h, -h}, {h, h, -h}, {-h, h, -h},
		{-h, -h, h}, {h, -h, h}, {h, h, h}, {-h, h, h},
	}
	// Each face as two CCW triangles, normals outward.
	quads := [6][4]int{
		{4, 5, 6, 7}, // +Z
		{1, 0, 3, 2}, // -Z
		{5, 1, 2, 6}, // +X
		{0, 4, 7, 3}, // -X
		{7, 6, 2, 3}, // +Y
		{0, 1, 5, 4}, // -Y
	}
	mesh := make(Mesh, 0, 12)
	for _, q := range quads {
		a, b, c, d := corners[q[0]], corners[q[1]], corners[q[2]], corners[q[3]]
		mesh = append(mesh, Triangle{a, b, c}, Triangle{a, c, d})
	}
	return mesh
}

func buildBallMesh() Mesh {
	const r = 0.5
	ring := func(i int) []Vec3 {
		phi := math.Pi * float64(i) / sphereRings
		y := r * math.Cos(phi)
		rad := r * math.Sin(phi)
		pts := make([]Vec3, sphereSegments+1)
		for j := 0; j <= sphereSegments; j++ {
			theta := 2 * math.Pi * float64(j) / sphereSegments
			pts[j] = Vec3{rad * math.Cos(theta), y, rad * math.Sin(theta)}
		}
		return pts
	}

	var mesh Mesh
	prev := ring(0)
	for i := 1; i <= sphereRings; i++ {
		cur := ring(i)
		for j := 0; j < sphereSegments; j++ {
			a, b := prev[j], prev[j+1]
			c, d := cur[j], cur[j+1]
			if i > 1 {
				mesh = append(mesh, Triangle{a, c, b})
			}
			if i < sphereRings {
				mesh = append(mesh, Triangle{b, c, d})
			}
		}
		prev = cur
	}
	return mesh
}

func buildCylinderMesh() Mesh {
	const r, h = 0.5, 0.5
	var mesh Mesh

	// Built with the axis along Y, then rotated 90 degrees about Z so the
	// axis lands on X.
	rim := func(y float64) []Vec3 {
		pts := make([]Vec3, cylinderSegments+1)
		for j := 0; j <= cylinderSegments; j++ {
			theta := 2 * math.Pi * float64(j) / cylinderSegments
			pts[j] = Vec3{r * math.Cos(theta), y, r * math.Sin(theta)}
		}
		return pts
	}
	top, bottom := rim(h), rim(-h)
	topCenter, bottomCenter := Vec3{0, h, 0}, Vec3{0, -h, 0}

	for j := 0; j < cylinderSegments; j++ {
		// Side wall.
		mesh = append(mesh,
			Triangle{bottom[j], top[j], top[j+1]},
			Triangle{bottom[j], top[j+1], bottom[j+1]},
		)
		// Caps.
		mesh = append(mesh,
			Triangle{topCenter, top[j], top[j+1]},
			Triangle{bottomCenter, bottom[j+1], bottom[j]},
		)
	}

	rot := func(v Vec3) Vec3 { return Vec3{v.Y, -v.X, v.Z} }
	for i := range mesh {
		mesh[i] = Triangle{rot(mesh[i][0]), rot(mesh[i][1]), rot(mesh[i][2])}
	}
	return mesh
}
