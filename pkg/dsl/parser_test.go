package dsl

import (
	"strings"
	"testing"

	"github.com/ludock/ludock/pkg/datamodel"
)

func parseOne(t *testing.T, src string) datamodel.Value {
	t.Helper()
	props, errs := Parse(src)
	if len(errs) != 0 {
		t.Fatalf("Parse(%q) errors: %v", src, errs)
	}
	if len(props) != 1 {
		t.Fatalf("Parse(%q) returned %d properties", src, len(props))
	}
	for _, v := range props {
		return v
	}
	return nil
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		src  string
		want datamodel.Value
	}{
		{`Name = "MyPart"`, datamodel.String("MyPart")},
		{`ClassName = Part`, datamodel.String("Part")},
		{`Anchored = true`, datamodel.Bool(true)},
		{`CanCollide = false`, datamodel.Bool(false)},
		{`Transparency = 0.5`, datamodel.Number(0.5)},
		{`ZIndex = -2`, datamodel.Number(-2)},
		{`Brightness = 1e2`, datamodel.Number(100)},
		{`Size = Vector3.new(4, 1, 2)`, datamodel.Vector3{X: 4, Y: 1, Z: 2}},
		{`CFrame = CFrame.new(0, 5, 0)`, datamodel.NewCFrame(0, 5, 0)},
		{`Color = Color3.new(1, 0, 0.5)`, datamodel.Color3{R: 1, B: 0.5}},
		{`Color = Color3.fromRGB(255, 0, 0)`, datamodel.Color3{R: 1}},
		{`Position = UDim2.new(0.5, 10, 0, -4)`, datamodel.NewUDim2(0.5, 10, 0, -4)},
		{`Shape = Enum.PartType.Ball`, datamodel.Enum{Category: "PartType", Item: "Ball"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := parseOne(t, tt.src)
			if !tt.want.Equal(got) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseCFrameWithRotation(t *testing.T) {
	v := parseOne(t, `CFrame = CFrame.new(1, 2, 3, 1, 0, 0, 0, 1, 0, 0, 0, 1)`)
	cf, ok := v.(datamodel.CFrame)
	if !ok {
		t.Fatalf("got %T", v)
	}
	if cf.Position != (datamodel.Vector3{X: 1, Y: 2, Z: 3}) {
		t.Errorf("position = %v", cf.Position)
	}
	if cf.Rotation != datamodel.IdentityRotation {
		t.Errorf("rotation = %v", cf.Rotation)
	}
}

func TestParseCommentsAndBlanks(t *testing.T) {
	src := strings.Join([]string{
		`-- a header comment`,
		``,
		`Anchored = true -- trailing comment`,
		`Name = "has -- inside"`,
	}, "\n")
	props, errs := Parse(src)
	if len(errs) != 0 {
		t.Fatalf("errors: %v", errs)
	}
	if len(props) != 2 {
		t.Fatalf("got %d properties", len(props))
	}
	if props["Name"] != datamodel.String("has -- inside") {
		t.Errorf("comment marker inside string was stripped: %v", props["Name"])
	}
}

func TestParseAccumulatesErrors(t *testing.T) {
	src := strings.Join([]string{
		`Size = Vector3.new(4, 1)`,      // wrong arity
		`Anchored = true`,               // fine
		`Color = Color3.new(2, 0, 0)`,   // out of range
		`Shape = Enum.PartType.Teapot`,  // unknown enum item
		`Weird = Quaternion.new(1)`,     // unknown constructor
		`Name = "unterminated`,          // unterminated string
		`Transparency = 0.5 extra`,      // trailing input
	}, "\n")
	props, errs := Parse(src)

	if len(errs) != 6 {
		t.Fatalf("got %d errors: %v", len(errs), errs)
	}
	if len(props) != 1 || props["Anchored"] != datamodel.Bool(true) {
		t.Errorf("well-formed line lost: %v", props)
	}

	// Locations are 1-based and per-line.
	if errs[0].Line != 1 {
		t.Errorf("first error line = %d", errs[0].Line)
	}
	if errs[1].Line != 3 {
		t.Errorf("second error line = %d", errs[1].Line)
	}
	for _, e := range errs {
		if e.Col < 1 {
			t.Errorf("column not 1-based: %+v", e)
		}
	}
}

func TestParseErrorMessages(t *testing.T) {
	tests := []struct {
		src      string
		contains string
	}{
		{`= true`, "identifier"},
		{`Anchored true`, `expected "="`},
		{`Size = Vector3.new(1, 2)`, "wants 3 arguments"},
		{`CFrame = CFrame.new(1, 2, 3, 4)`, "3 or 12 arguments"},
		{`Shape = Enum.PartType`, "Enum.Category.Item"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, errs := Parse(tt.src)
			if len(errs) != 1 {
				t.Fatalf("got %d errors: %v", len(errs), errs)
			}
			if !strings.Contains(errs[0].Message, tt.contains) {
				t.Errorf("error %q does not mention %q", errs[0].Message, tt.contains)
			}
		})
	}
}
