package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/buildspec/internal/ir"
)

// toValue converts a concrete CUE value into an ir.Value. Floats, bytes and
// incomplete values are rejected.
func toValue(field string, v cue.Value) (ir.Value, error) {
	if err := v.Err(); err != nil {
		return nil, FormatCUEError(field, err)
	}
	if !v.IsConcrete() {
		return nil, &CompileError{
			Field:   field,
			Code:    ErrCodeInvalidType,
			Message: "value must be concrete",
			Pos:     v.Pos(),
		}
	}

	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, FormatCUEError(field, err)
		}
		return ir.Bool(b), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, FormatCUEError(field, err)
		}
		return ir.Int(n), nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, FormatCUEError(field, err)
		}
		return ir.String(s), nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Code:    ErrCodeFloatForbidden,
			Message: "float values are forbidden, use a string or int",
			Pos:     v.Pos(),
		}
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, FormatCUEError(field, err)
		}
		var arr ir.Array
		for i := 0; iter.Next(); i++ {
			elem, err := toValue(fmt.Sprintf("%s[%d]", field, i), iter.Value())
			if err != nil {
				return nil, err
			}
			arr = append(arr, elem)
		}
		if arr == nil {
			arr = ir.Array{}
		}
		return arr, nil
	case cue.StructKind:
		return toObject(field, v)
	default:
		return nil, &CompileError{
			Field:   field,
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("unsupported value kind: %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func toObject(field string, v cue.Value) (ir.Object, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, FormatCUEError(field, err)
	}
	obj := ir.Object{}
	for iter.Next() {
		label := iter.Label()
		elem, err := toValue(field+"."+label, iter.Value())
		if err != nil {
			return nil, err
		}
		obj[label] = elem
	}
	return obj, nil
}
