package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// DecodeError reports a malformed program document together with the best
// known position of the offending element.
type DecodeError struct {
	Message string
	Span    Span
}

func (e *DecodeError) Error() string {
	if e.Span.IsZero() {
		return "decode: " + e.Message
	}
	return fmt.Sprintf("decode: line %d, column %d: %s", e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

type programJSON struct {
	Functions []functionJSON `json:"functions"`
}

type functionJSON struct {
	Name   string            `json:"name"`
	Args   []argumentJSON    `json:"args"`
	Type   json.RawMessage   `json:"type"`
	Instrs []json.RawMessage `json:"instrs"`
	Pos    *Position         `json:"pos"`
	PosEnd *Position         `json:"pos_end"`
}

type argumentJSON struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type codeJSON struct {
	Label  *string         `json:"label"`
	Op     string          `json:"op"`
	Dest   *string         `json:"dest"`
	Type   json.RawMessage `json:"type"`
	Value  json.RawMessage `json:"value"`
	Args   []string        `json:"args"`
	Funcs  []string        `json:"funcs"`
	Labels []string        `json:"labels"`
	Pos    *Position       `json:"pos"`
	PosEnd *Position       `json:"pos_end"`
}

// DecodeProgram reads a program in the JSON interchange format.
func DecodeProgram(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode: read program: %w", err)
	}
	return UnmarshalProgram(data)
}

// UnmarshalProgram decodes a program from an in-memory JSON document.
func UnmarshalProgram(data []byte) (*Program, error) {
	var raw programJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}
	prog := &Program{Functions: make([]*Function, 0, len(raw.Functions))}
	for _, rf := range raw.Functions {
		fn, err := rf.toFunction()
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, fn)
	}
	return prog, nil
}

func spanOf(start, end *Position) Span {
	var span Span
	if start != nil {
		span.Start = *start
	}
	if end != nil {
		span.End = *end
	}
	return span
}

func (rf functionJSON) toFunction() (*Function, error) {
	span := spanOf(rf.Pos, rf.PosEnd)
	if rf.Name == "" {
		return nil, &DecodeError{Message: "function without a name", Span: span}
	}
	fn := &Function{Name: rf.Name}
	fn.setSpan(span)
	if len(rf.Type) > 0 {
		ret, err := decodeType(rf.Type)
		if err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("function %s: %v", rf.Name, err), Span: span}
		}
		fn.Return = ret
	}
	for _, ra := range rf.Args {
		typ, err := decodeType(ra.Type)
		if err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("function %s: argument %s: %v", rf.Name, ra.Name, err), Span: span}
		}
		fn.Args = append(fn.Args, Argument{Name: ra.Name, Type: typ})
	}
	fn.Body = make([]Code, 0, len(rf.Instrs))
	for _, rawCode := range rf.Instrs {
		var rc codeJSON
		dec := json.NewDecoder(bytes.NewReader(rawCode))
		dec.UseNumber()
		if err := dec.Decode(&rc); err != nil {
			return nil, &DecodeError{Message: fmt.Sprintf("function %s: %v", rf.Name, err), Span: span}
		}
		code, err := rc.toCode()
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, code)
	}
	return fn, nil
}

func (rc codeJSON) toCode() (Code, error) {
	span := spanOf(rc.Pos, rc.PosEnd)
	fail := func(format string, args ...any) error {
		return &DecodeError{Message: fmt.Sprintf(format, args...), Span: span}
	}
	if rc.Label != nil {
		lbl := &Label{Name: *rc.Label}
		lbl.setSpan(span)
		return lbl, nil
	}
	op, err := ParseOpcode(rc.Op)
	if err != nil {
		return nil, fail("%v", err)
	}
	if op == OpConst {
		if rc.Dest == nil {
			return nil, fail("const without destination")
		}
		typ, err := decodeType(rc.Type)
		if err != nil {
			return nil, fail("const %s: %v", *rc.Dest, err)
		}
		lit, err := decodeLiteral(rc.Value, typ)
		if err != nil {
			return nil, fail("const %s: %v", *rc.Dest, err)
		}
		c := &Constant{Dest: *rc.Dest, Type: typ, Value: lit}
		c.setSpan(span)
		return c, nil
	}
	if rc.Dest != nil {
		typ, err := decodeType(rc.Type)
		if err != nil {
			return nil, fail("%s %s: %v", op, *rc.Dest, err)
		}
		v := &ValueOperation{Op: op, Dest: *rc.Dest, Type: typ, Args: rc.Args, Funcs: rc.Funcs, Labels: rc.Labels}
		v.setSpan(span)
		return v, nil
	}
	e := &EffectOperation{Op: op, Args: rc.Args, Funcs: rc.Funcs, Labels: rc.Labels}
	e.setSpan(span)
	return e, nil
}

func decodeType(raw json.RawMessage) (Type, error) {
	if len(raw) == 0 {
		return Void, fmt.Errorf("missing type")
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return ParsePrimitive(name)
	}
	var param map[string]json.RawMessage
	if err := json.Unmarshal(raw, &param); err != nil {
		return Void, fmt.Errorf("malformed type %s", string(raw))
	}
	inner, ok := param["ptr"]
	if !ok || len(param) != 1 {
		return Void, fmt.Errorf("unsupported parameterized type %s", string(raw))
	}
	elem, err := decodeType(inner)
	if err != nil {
		return Void, err
	}
	return Ptr(elem), nil
}

// decodeLiteral interprets a const value according to its declared type. An
// integer literal is accepted for a float constant.
func decodeLiteral(raw json.RawMessage, typ Type) (Literal, error) {
	if len(raw) == 0 {
		return Literal{}, fmt.Errorf("missing value")
	}
	if typ.IsPointer() {
		return Literal{}, fmt.Errorf("pointer constants are not supported")
	}
	switch typ.Prim {
	case PrimBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Literal{}, fmt.Errorf("expected a boolean literal, found %s", string(raw))
		}
		return BoolLit(b), nil
	case PrimInt:
		v, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return Literal{}, fmt.Errorf("expected an integer literal, found %s", string(raw))
		}
		return IntLit(v), nil
	case PrimFloat:
		v, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return Literal{}, fmt.Errorf("expected a float literal, found %s", string(raw))
		}
		return FloatLit(v), nil
	default:
		return Literal{}, fmt.Errorf("unsupported const type %s", typ)
	}
}
