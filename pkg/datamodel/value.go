package datamodel

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies one member of the closed set of property value kinds.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindNumber
	KindVector3
	KindCFrame
	KindColor3
	KindUDim2
	KindEnum
)

// kindNames maps kinds to their wire names. The names are part of the
// snapshot schema and must not change within a schema version.
var kindNames = map[Kind]string{
	KindString:  "String",
	KindBool:    "Bool",
	KindNumber:  "Number",
	KindVector3: "Vector3",
	KindCFrame:  "CFrame",
	KindColor3:  "Color3",
	KindUDim2:   "UDim2",
	KindEnum:    "Enum",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Value is one typed property value. The implementations form a closed set;
// downstream code may switch exhaustively on Kind.
//
// Equal is exact (bit-level for floats). Tolerance-based comparison is the
// diff engine's concern, not the value model's.
type Value interface {
	// Kind reports which member of the closed union this value is.
	Kind() Kind

	// Equal reports exact equality with another value. Values of different
	// kinds are never equal.
	Equal(other Value) bool

	// String returns the canonical text form. The same bytes feed identity
	// hashing, so the format must stay stable across runs and platforms.
	String() string

	appendCanonical(dst []byte) []byte
}

// appendFloat writes f in shortest round-trip decimal form. Negative zero
// is normalized so that 0 and -0 hash identically.
func appendFloat(dst []byte, f float64) []byte {
	if f == 0 {
		f = 0
	}
	return strconv.AppendFloat(dst, f, 'g', -1, 64)
}

// =============================================================================
// Scalars
// =============================================================================

// String is a text property value.
type String string

func (String) Kind() Kind { return KindString }

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && s == o
}

func (s String) String() string { return strconv.Quote(string(s)) }

func (s String) appendCanonical(dst []byte) []byte {
	return strconv.AppendQuote(dst, string(s))
}

// Bool is a boolean property value.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && b == o
}

func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

func (b Bool) appendCanonical(dst []byte) []byte {
	return strconv.AppendBool(dst, bool(b))
}

// Number is a float64 property value.
type Number float64

func (Number) Kind() Kind { return KindNumber }

func (n Number) Equal(other Value) bool {
	o, ok := other.(Number)
	return ok && n == o
}

func (n Number) String() string { return string(appendFloat(nil, float64(n))) }

func (n Number) appendCanonical(dst []byte) []byte {
	return appendFloat(dst, float64(n))
}

// =============================================================================
// Vector3
// =============================================================================

// Vector3 is a spatial vector with float64 components.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (Vector3) Kind() Kind { return KindVector3 }

func (v Vector3) Equal(other Value) bool {
	o, ok := other.(Vector3)
	return ok && v == o
}

func (v Vector3) String() string { return string(v.appendCanonical(nil)) }

func (v Vector3) appendCanonical(dst []byte) []byte {
	dst = append(dst, "Vector3("...)
	dst = appendFloat(dst, v.X)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, v.Y)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, v.Z)
	return append(dst, ')')
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Length returns the Euclidean norm.
func (v Vector3) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Distance returns the Euclidean distance between v and o.
func (v Vector3) Distance(o Vector3) float64 { return v.Sub(o).Length() }

// =============================================================================
// CFrame
// =============================================================================

// Rotation is a 3x3 rotation matrix in row-major order. Every constructor
// path renormalizes, so stored rotations are always orthonormal.
type Rotation [9]float64

// IdentityRotation is the no-rotation matrix.
var IdentityRotation = Rotation{1, 0, 0, 0, 1, 0, 0, 0, 1}

// Orthonormalize renormalizes r with Gram-Schmidt over its rows. A matrix
// with a degenerate (near-zero) leading row falls back to identity.
func (r Rotation) Orthonormalize() Rotation {
	r0 := Vector3{r[0], r[1], r[2]}
	r1 := Vector3{r[3], r[4], r[5]}

	l0 := r0.Length()
	if l0 < 1e-12 {
		return IdentityRotation
	}
	r0 = Vector3{r0.X / l0, r0.Y / l0, r0.Z / l0}

	d := r1.X*r0.X + r1.Y*r0.Y + r1.Z*r0.Z
	r1 = Vector3{r1.X - d*r0.X, r1.Y - d*r0.Y, r1.Z - d*r0.Z}
	l1 := r1.Length()
	if l1 < 1e-12 {
		return IdentityRotation
	}
	r1 = Vector3{r1.X / l1, r1.Y / l1, r1.Z / l1}

	r2 := Vector3{
		r0.Y*r1.Z - r0.Z*r1.Y,
		r0.Z*r1.X - r0.X*r1.Z,
		r0.X*r1.Y - r0.Y*r1.X,
	}

	return Rotation{r0.X, r0.Y, r0.Z, r1.X, r1.Y, r1.Z, r2.X, r2.Y, r2.Z}
}

// AngleTo returns the rotation angle in radians between r and o, derived
// from the trace of r^T * o.
func (r Rotation) AngleTo(o Rotation) float64 {
	// trace(r^T * o): rows of r dotted with rows of o.
	trace := 0.0
	for i := 0; i < 3; i++ {
		trace += r[3*i]*o[3*i] + r[3*i+1]*o[3*i+1] + r[3*i+2]*o[3*i+2]
	}
	cos := (trace - 1) / 2
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}

// CFrame is a pose: a position plus an orthonormal rotation.
type CFrame struct {
	Position Vector3  `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// NewCFrame returns a CFrame at (x, y, z) with identity rotation.
func NewCFrame(x, y, z float64) CFrame {
	return CFrame{Position: Vector3{x, y, z}, Rotation: IdentityRotation}
}

// NewCFrameWithRotation returns a CFrame with the rotation renormalized.
func NewCFrameWithRotation(pos Vector3, rot Rotation) CFrame {
	return CFrame{Position: pos, Rotation: rot.Orthonormalize()}
}

func (CFrame) Kind() Kind { return KindCFrame }

func (c CFrame) Equal(other Value) bool {
	o, ok := other.(CFrame)
	return ok && c == o
}

func (c CFrame) String() string { return string(c.appendCanonical(nil)) }

func (c CFrame) appendCanonical(dst []byte) []byte {
	dst = append(dst, "CFrame("...)
	dst = appendFloat(dst, c.Position.X)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, c.Position.Y)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, c.Position.Z)
	for _, m := range c.Rotation {
		dst = append(dst, ", "...)
		dst = appendFloat(dst, m)
	}
	return append(dst, ')')
}

// =============================================================================
// Color3
// =============================================================================

// Color3 is an RGB color with components in [0, 1].
type Color3 struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Color3FromRGB converts 0-255 channel values to a Color3.
func Color3FromRGB(r, g, b float64) Color3 {
	return Color3{R: r / 255, G: g / 255, B: b / 255}
}

// Valid reports whether all components are within [0, 1].
func (c Color3) Valid() bool {
	ok := func(f float64) bool { return f >= 0 && f <= 1 && !math.IsNaN(f) }
	return ok(c.R) && ok(c.G) && ok(c.B)
}

func (Color3) Kind() Kind { return KindColor3 }

func (c Color3) Equal(other Value) bool {
	o, ok := other.(Color3)
	return ok && c == o
}

func (c Color3) String() string { return string(c.appendCanonical(nil)) }

func (c Color3) appendCanonical(dst []byte) []byte {
	dst = append(dst, "Color3("...)
	dst = appendFloat(dst, c.R)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, c.G)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, c.B)
	return append(dst, ')')
}

// =============================================================================
// UDim2
// =============================================================================

// UDim is one axis of a 2D layout unit: a parent-relative scale plus a
// pixel offset.
type UDim struct {
	Scale  float64 `json:"scale"`
	Offset int32   `json:"offset"`
}

// UDim2 is a 2D layout unit. Resolution against a parent extent is the
// renderer's concern; the value itself is pure data.
type UDim2 struct {
	X UDim `json:"x"`
	Y UDim `json:"y"`
}

// NewUDim2 builds a UDim2 from per-axis scale and offset.
func NewUDim2(xScale float64, xOffset int32, yScale float64, yOffset int32) UDim2 {
	return UDim2{X: UDim{xScale, xOffset}, Y: UDim{yScale, yOffset}}
}

func (UDim2) Kind() Kind { return KindUDim2 }

func (u UDim2) Equal(other Value) bool {
	o, ok := other.(UDim2)
	return ok && u == o
}

func (u UDim2) String() string { return string(u.appendCanonical(nil)) }

func (u UDim2) appendCanonical(dst []byte) []byte {
	dst = append(dst, "UDim2("...)
	dst = appendFloat(dst, u.X.Scale)
	dst = append(dst, ", "...)
	dst = strconv.AppendInt(dst, int64(u.X.Offset), 10)
	dst = append(dst, ", "...)
	dst = appendFloat(dst, u.Y.Scale)
	dst = append(dst, ", "...)
	dst = strconv.AppendInt(dst, int64(u.Y.Offset), 10)
	return append(dst, ')')
}

// =============================================================================
// Enum
// =============================================================================

// Enum is an enumerated symbol: a category plus one of its allowed items.
// Use [NewEnum] to construct validated values; a zero or hand-built Enum
// may name symbols outside the registry and must be checked with Validate.
type Enum struct {
	Category string `json:"category"`
	Item     string `json:"item"`
}

// NewEnum builds an enum value, rejecting categories and items that are not
// in the closed registry.
func NewEnum(category, item string) (Enum, error) {
	e := Enum{Category: category, Item: item}
	if err := e.Validate(); err != nil {
		return Enum{}, err
	}
	return e, nil
}

func (Enum) Kind() Kind { return KindEnum }

func (e Enum) Equal(other Value) bool {
	o, ok := other.(Enum)
	return ok && e == o
}

func (e Enum) String() string { return string(e.appendCanonical(nil)) }

func (e Enum) appendCanonical(dst []byte) []byte {
	dst = append(dst, "Enum."...)
	dst = append(dst, e.Category...)
	dst = append(dst, '.')
	return append(dst, e.Item...)
}

// =============================================================================
// JSON wire format
// =============================================================================

// wireValue is the tagged envelope used in snapshot and diff artifacts.
type wireValue struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalValue encodes a value into its tagged JSON envelope.
func MarshalValue(v Value) ([]byte, error) {
	var inner any
	switch val := v.(type) {
	case String:
		inner = string(val)
	case Bool:
		inner = bool(val)
	case Number:
		inner = float64(val)
	case Vector3, CFrame, Color3, UDim2, Enum:
		inner = val
	default:
		return nil, fmt.Errorf("marshal value: unsupported kind %v", v.Kind())
	}
	raw, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Kind: v.Kind().String(), Value: raw})
}

// UnmarshalValue decodes a tagged JSON envelope back into a value. Enum
// values are re-validated against the registry: a snapshot naming symbols
// outside the closed set is malformed.
func UnmarshalValue(data []byte) (Value, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode value envelope: %w", err)
	}

	switch w.Kind {
	case "String":
		var s string
		if err := json.Unmarshal(w.Value, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case "Bool":
		var b bool
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case "Number":
		var n float64
		if err := json.Unmarshal(w.Value, &n); err != nil {
			return nil, err
		}
		return Number(n), nil
	case "Vector3":
		var v Vector3
		if err := json.Unmarshal(w.Value, &v); err != nil {
			return nil, err
		}
		return v, nil
	case "CFrame":
		var c CFrame
		if err := json.Unmarshal(w.Value, &c); err != nil {
			return nil, err
		}
		c.Rotation = c.Rotation.Orthonormalize()
		return c, nil
	case "Color3":
		var c Color3
		if err := json.Unmarshal(w.Value, &c); err != nil {
			return nil, err
		}
		return c, nil
	case "UDim2":
		var u UDim2
		if err := json.Unmarshal(w.Value, &u); err != nil {
			return nil, err
		}
		return u, nil
	case "Enum":
		var e Enum
		if err := json.Unmarshal(w.Value, &e); err != nil {
			return nil, err
		}
		if err := e.Validate(); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("decode value envelope: unknown kind %q", w.Kind)
	}
}

// Properties maps property names to typed values.
type Properties map[string]Value

// MarshalJSON encodes each value in its tagged envelope. Key order is
// handled by encoding/json (maps marshal with sorted keys), which keeps
// snapshot bytes deterministic.
func (p Properties) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(p))
	for name, v := range p {
		raw, err := MarshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a map of tagged value envelopes.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Properties, len(raw))
	for name, rv := range raw {
		v, err := UnmarshalValue(rv)
		if err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
		out[name] = v
	}
	*p = out
	return nil
}
