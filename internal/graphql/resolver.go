// Package graphql serves a small read-only GraphQL surface over the quote
// engine: health, carriers and quote(input).
package graphql

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"go.uber.org/zap"

	"github.com/tournevent/postage/pkg/shipper"
)

// Quoter prices a shipment request.
type Quoter interface {
	Quote(ctx context.Context, req shipper.ShipmentRequest) (*shipper.QuoteResult, error)
}

// Resolver is the root resolver. It holds dependencies needed by all fields.
type Resolver struct {
	Registry  *shipper.Registry
	Providers shipper.ProvidersConfig
	Quotes    Quoter
	Logger    *otelzap.Logger
}

// NewResolver creates a new resolver with the given dependencies.
func NewResolver(registry *shipper.Registry, providers shipper.ProvidersConfig, quotes Quoter, logger *otelzap.Logger) *Resolver {
	return &Resolver{
		Registry:  registry,
		Providers: providers,
		Quotes:    quotes,
		Logger:    logger,
	}
}

// Request is a GraphQL request body.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is a GraphQL response body.
type Response struct {
	Data   map[string]any `json:"data,omitempty"`
	Errors gqlerror.List  `json:"errors,omitempty"`
}

// Execute parses and runs req. Field errors are reported next to the data
// that did resolve; document errors yield no data.
func (r *Resolver) Execute(ctx context.Context, req Request) *Response {
	doc, perr := parser.ParseQuery(&ast.Source{Input: req.Query})
	if perr != nil {
		return &Response{Errors: asList(perr)}
	}

	op, oerr := pickOperation(doc, req.OperationName)
	if oerr != nil {
		return &Response{Errors: gqlerror.List{oerr}}
	}
	if op.Operation != ast.Query {
		return &Response{Errors: gqlerror.List{gqlerror.Errorf("%s operations are not supported", op.Operation)}}
	}

	ex := &execution{doc: doc, vars: req.Variables}
	resp := &Response{Data: map[string]any{}}
	for _, field := range ex.fields(op.SelectionSet) {
		key := responseKey(field)
		value, ferr := r.resolveRoot(ctx, ex, field)
		if ferr != nil {
			ferr.Path = ast.Path{ast.PathName(key)}
			resp.Errors = append(resp.Errors, ferr)
			resp.Data[key] = nil
			continue
		}
		resp.Data[key] = value
	}
	return resp
}

func (r *Resolver) resolveRoot(ctx context.Context, ex *execution, field *ast.Field) (any, *gqlerror.Error) {
	switch field.Name {
	case "__typename":
		return "Query", nil
	case "health":
		return r.Health(ctx), nil
	case "carriers":
		return ex.project(r.Carriers(ctx), field.SelectionSet)
	case "quote":
		args, err := ex.arguments(field)
		if err != nil {
			return nil, err
		}
		req, err := shipmentRequest(args["input"])
		if err != nil {
			return nil, err
		}
		result, qerr := r.Quotes.Quote(ctx, req)
		if qerr != nil {
			return nil, r.quoteError(ctx, qerr)
		}
		return ex.project(result, field.SelectionSet)
	default:
		return nil, gqlerror.Errorf("cannot query field %q on type Query", field.Name)
	}
}

// Health reports liveness.
func (r *Resolver) Health(context.Context) string {
	return "ok"
}

// Carriers lists registered carriers with their enablement and credentials.
func (r *Resolver) Carriers(context.Context) []shipper.ProviderStatus {
	return r.Registry.Status(r.Providers)
}

func pickOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, *gqlerror.Error) {
	if name != "" {
		op := doc.Operations.ForName(name)
		if op == nil {
			return nil, gqlerror.Errorf("unknown operation named %q", name)
		}
		return op, nil
	}
	switch len(doc.Operations) {
	case 0:
		return nil, gqlerror.Errorf("no operation provided")
	case 1:
		return doc.Operations[0], nil
	default:
		return nil, gqlerror.Errorf("operation name is required when the document has several operations")
	}
}

func (r *Resolver) quoteError(ctx context.Context, err error) *gqlerror.Error {
	code := codeFor(err)
	if code == codeInternal {
		r.Logger.Ctx(ctx).Error("graphql quote failed", zap.Error(err))
	}
	gerr := gqlerror.Wrap(err)
	gerr.Message = err.Error()
	gerr.Extensions = map[string]any{"code": code}
	return gerr
}

func asList(err error) gqlerror.List {
	switch e := err.(type) {
	case *gqlerror.Error:
		return gqlerror.List{e}
	case gqlerror.List:
		return e
	default:
		return gqlerror.List{gqlerror.Wrap(fmt.Errorf("parse: %w", err))}
	}
}
