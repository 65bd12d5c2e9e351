package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/tournevent/postage/pkg/quote"
	"github.com/tournevent/postage/pkg/shipper"
)

const (
	codeBadRequest = "BAD_REQUEST"
	codeInternal   = "INTERNAL_ERROR"
)

type execution struct {
	doc  *ast.QueryDocument
	vars map[string]any
}

// fields flattens a selection set, expanding inline fragments and named
// fragment spreads in document order.
func (ex *execution) fields(set ast.SelectionSet) []*ast.Field {
	var out []*ast.Field
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			out = append(out, s)
		case *ast.InlineFragment:
			out = append(out, ex.fields(s.SelectionSet)...)
		case *ast.FragmentSpread:
			if def := ex.doc.Fragments.ForName(s.Name); def != nil {
				out = append(out, ex.fields(def.SelectionSet)...)
			}
		}
	}
	return out
}

func (ex *execution) arguments(field *ast.Field) (map[string]any, *gqlerror.Error) {
	args := make(map[string]any, len(field.Arguments))
	for _, arg := range field.Arguments {
		v, err := arg.Value.Value(ex.vars)
		if err != nil {
			return nil, gqlerror.Errorf("argument %s: %v", arg.Name, err)
		}
		args[arg.Name] = v
	}
	return args, nil
}

// project keeps only the selected fields of v, using its JSON shape.
func (ex *execution) project(v any, set ast.SelectionSet) (any, *gqlerror.Error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, gqlerror.Errorf("encode result: %v", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, gqlerror.Errorf("decode result: %v", err)
	}
	return ex.filter(generic, set)
}

func (ex *execution) filter(v any, set ast.SelectionSet) (any, *gqlerror.Error) {
	if len(set) == 0 {
		return v, nil
	}
	switch val := v.(type) {
	case []any:
		out := make([]any, 0, len(val))
		for _, elem := range val {
			f, err := ex.filter(elem, set)
			if err != nil {
				return nil, err
			}
			out = append(out, f)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(set))
		for _, field := range ex.fields(set) {
			if field.Name == "__typename" {
				continue
			}
			child, ok := val[field.Name]
			if !ok {
				return nil, gqlerror.Errorf("cannot query field %q", field.Name)
			}
			f, err := ex.filter(child, field.SelectionSet)
			if err != nil {
				return nil, err
			}
			out[responseKey(field)] = f
		}
		return out, nil
	default:
		return v, nil
	}
}

func responseKey(field *ast.Field) string {
	if field.Alias != "" {
		return field.Alias
	}
	return field.Name
}

// shipmentRequest converts the quote input argument into a request using
// the same field names as the REST body.
func shipmentRequest(input any) (shipper.ShipmentRequest, *gqlerror.Error) {
	var req shipper.ShipmentRequest
	if input == nil {
		return req, badRequest("quote requires an input argument")
	}
	data, err := json.Marshal(input)
	if err != nil {
		return req, badRequest(fmt.Sprintf("invalid input: %v", err))
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, badRequest(fmt.Sprintf("invalid input: %v", err))
	}
	return req, nil
}

func badRequest(msg string) *gqlerror.Error {
	return &gqlerror.Error{Message: msg, Extensions: map[string]any{"code": codeBadRequest}}
}

func codeFor(err error) string {
	if quote.IsClientError(err) {
		return codeBadRequest
	}
	return codeInternal
}
