// Package dsl parses declarative instance files: a sequence of
// `Property = Value` assignments, one per line, with Roblox-style value
// constructors.
//
// Supported value forms:
//
//	Name = "MyPart"              quoted string
//	Anchored = true              boolean
//	Transparency = 0.5           number
//	Size = Vector3.new(4, 1, 2)
//	CFrame = CFrame.new(0, 5, 0)          position, identity rotation
//	CFrame = CFrame.new(x,y,z, R00..R22)  position + rotation components
//	Color = Color3.new(1, 0, 0)
//	Color = Color3.fromRGB(255, 0, 0)
//	Position = UDim2.new(0.5, 0, 0.5, 0)
//	Shape = Enum.PartType.Ball
//	ClassName = Part             bare identifier (string)
//
// Errors are accumulated with line and column; a bad assignment never
// hides the findings after it.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ludock/ludock/pkg/datamodel"
)

// ParseError is one syntax finding with its source location.
type ParseError struct {
	Line    int
	Col     int
	Message string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

// Parse reads every assignment in src. It returns the parsed property map
// together with all accumulated errors; properties from well-formed lines
// are returned even when other lines fail.
func Parse(src string) (map[string]datamodel.Value, []ParseError) {
	props := make(map[string]datamodel.Value)
	var errs []ParseError

	for lineNo, raw := range strings.Split(src, "\n") {
		line := stripComment(raw)
		if strings.TrimSpace(line) == "" {
			continue
		}
		p := &lineParser{src: line, line: lineNo + 1}
		name, v, err := p.parseAssignment()
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		props[name] = v
	}
	return props, errs
}

func stripComment(line string) string {
	// A comment marker inside a string literal stays part of the string.
	inString := false
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '"':
			inString = !inString
		case !inString && line[i] == '-' && i+1 < len(line) && line[i+1] == '-':
			return line[:i]
		}
	}
	return line
}

// lineParser scans one assignment. Columns are 1-based byte offsets.
type lineParser struct {
	src  string
	pos  int
	line int
}

func (p *lineParser) errf(format string, args ...any) *ParseError {
	return &ParseError{Line: p.line, Col: p.pos + 1, Message: fmt.Sprintf(format, args...)}
}

func (p *lineParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t' || p.src[p.pos] == '\r') {
		p.pos++
	}
}

func (p *lineParser) eof() bool {
	p.skipSpace()
	return p.pos >= len(p.src)
}

func (p *lineParser) expect(ch byte) *ParseError {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != ch {
		return p.errf("expected %q", string(ch))
	}
	p.pos++
	return nil
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (p *lineParser) parseIdent() (string, *ParseError) {
	p.skipSpace()
	if p.pos >= len(p.src) || !isIdentStart(p.src[p.pos]) {
		return "", p.errf("expected identifier")
	}
	start := p.pos
	for p.pos < len(p.src) && isIdent(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos], nil
}

func (p *lineParser) parseNumber() (float64, *ParseError) {
	p.skipSpace()
	start := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || p.src[p.pos] == '+') {
		p.pos++
	}
	for p.pos < len(p.src) && (p.src[p.pos] >= '0' && p.src[p.pos] <= '9' || p.src[p.pos] == '.' || p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
	}
	if p.pos == start {
		return 0, p.errf("expected number")
	}
	text := p.src[start:p.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.pos = start
		return 0, p.errf("invalid number %q", text)
	}
	return f, nil
}

func (p *lineParser) parseString() (string, *ParseError) {
	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '"' {
		return "", p.errf("expected string")
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		return "", p.errf("unterminated string")
	}
	s := p.src[start:p.pos]
	p.pos++
	return s, nil
}

// parseArgs parses a parenthesized, comma-separated list of numbers.
func (p *lineParser) parseArgs() ([]float64, *ParseError) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var args []float64
	p.skipSpace()
	if p.pos < len(p.src) && p.src[p.pos] == ')' {
		p.pos++
		return args, nil
	}
	for {
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		args = append(args, n)
		p.skipSpace()
		if p.pos < len(p.src) && p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *lineParser) parseAssignment() (string, datamodel.Value, *ParseError) {
	name, err := p.parseIdent()
	if err != nil {
		return "", nil, err
	}
	if e := p.expect('='); e != nil {
		return "", nil, e
	}
	v, err := p.parseValue()
	if err != nil {
		return "", nil, err
	}
	if !p.eof() {
		return "", nil, p.errf("unexpected trailing input")
	}
	return name, v, nil
}

func (p *lineParser) parseValue() (datamodel.Value, *ParseError) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, p.errf("expected value")
	}

	c := p.src[p.pos]
	switch {
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return datamodel.String(s), nil
	case c == '-' || c == '+' || (c >= '0' && c <= '9'):
		n, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		return datamodel.Number(n), nil
	case isIdentStart(c):
		return p.parseNamedValue()
	default:
		return nil, p.errf("unexpected character %q", string(c))
	}
}

// parseNamedValue handles booleans, constructor calls, enum literals, and
// bare identifiers.
func (p *lineParser) parseNamedValue() (datamodel.Value, *ParseError) {
	segments := []string{}
	for {
		seg, err := p.parseIdent()
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
		if p.pos < len(p.src) && p.src[p.pos] == '.' {
			p.pos++
			continue
		}
		break
	}
	name := strings.Join(segments, ".")

	if len(segments) == 1 {
		switch name {
		case "true":
			return datamodel.Bool(true), nil
		case "false":
			return datamodel.Bool(false), nil
		default:
			// Bare identifier, e.g. `ClassName = Part`.
			return datamodel.String(name), nil
		}
	}

	if segments[0] == "Enum" {
		if len(segments) != 3 {
			return nil, p.errf("enum literal must be Enum.Category.Item")
		}
		e, err := datamodel.NewEnum(segments[1], segments[2])
		if err != nil {
			return nil, p.errf("%v", err)
		}
		return e, nil
	}

	args, perr := p.parseArgs()
	if perr != nil {
		return nil, perr
	}
	return p.construct(name, args)
}

func (p *lineParser) construct(name string, args []float64) (datamodel.Value, *ParseError) {
	arity := func(n int) *ParseError {
		if len(args) != n {
			return p.errf("%s wants %d arguments, got %d", name, n, len(args))
		}
		return nil
	}

	switch name {
	case "Vector3.new":
		if err := arity(3); err != nil {
			return nil, err
		}
		return datamodel.Vector3{X: args[0], Y: args[1], Z: args[2]}, nil
	case "CFrame.new":
		switch len(args) {
		case 3:
			return datamodel.NewCFrame(args[0], args[1], args[2]), nil
		case 12:
			var rot datamodel.Rotation
			copy(rot[:], args[3:])
			return datamodel.NewCFrameWithRotation(
				datamodel.Vector3{X: args[0], Y: args[1], Z: args[2]}, rot), nil
		default:
			return nil, p.errf("CFrame.new wants 3 or 12 arguments, got %d", len(args))
		}
	case "Color3.new":
		if err := arity(3); err != nil {
			return nil, err
		}
		c := datamodel.Color3{R: args[0], G: args[1], B: args[2]}
		if !c.Valid() {
			return nil, p.errf("Color3 components must be in [0, 1]")
		}
		return c, nil
	case "Color3.fromRGB":
		if err := arity(3); err != nil {
			return nil, err
		}
		c := datamodel.Color3FromRGB(args[0], args[1], args[2])
		if !c.Valid() {
			return nil, p.errf("Color3.fromRGB components must be in [0, 255]")
		}
		return c, nil
	case "UDim2.new":
		if err := arity(4); err != nil {
			return nil, err
		}
		return datamodel.NewUDim2(args[0], int32(args[1]), args[2], int32(args[3])), nil
	default:
		return nil, p.errf("unknown constructor %s", name)
	}
}
