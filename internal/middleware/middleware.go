// Package middleware implements the pluggable pre-authentication stage of
// the delivery pipeline. Each middleware may short-circuit the pipeline with
// a final response or pass a (possibly mutated) request onward.
package middleware

import (
	"context"

	"github.com/hookbridge/hookbridge/internal/config"
	"github.com/hookbridge/hookbridge/internal/types"
)

// Outcome is the result of one middleware invocation. Exactly one of the two
// fields is set: Request to continue the chain, Response to short-circuit.
type Outcome struct {
	Request  *types.InboundRequest
	Response *types.Response
}

// Continue passes control onward with req.
func Continue(req *types.InboundRequest) Outcome {
	return Outcome{Request: req}
}

// ShortCircuit stops the pipeline and returns resp to the caller.
func ShortCircuit(resp *types.Response) Outcome {
	return Outcome{Response: resp}
}

// Middleware is the capability all pipeline middleware implement.
type Middleware interface {
	Name() string
	Invoke(ctx context.Context, req *types.InboundRequest, cfg *config.EndpointConfig) Outcome
}

// Chain runs middleware in order, stopping on the first short-circuit. The
// default middleware is always appended last so it only sees requests that
// every custom middleware passed through.
type Chain struct {
	middlewares []Middleware
}

// FromConfig builds the chain selected by the middleware setting. The
// configured custom middleware (at most one) runs first, the default
// body-normalization middleware runs last.
func FromConfig(ep *config.EndpointConfig) *Chain {
	var mws []Middleware
	if ep.Middleware == config.MiddlewareDiscord {
		mws = append(mws, &Discord{})
	}
	mws = append(mws, &Default{})
	return &Chain{middlewares: mws}
}

// Run executes the chain. It returns the request to hand to the next pipeline
// stage, or a short-circuit response together with the name of the middleware
// that produced it.
func (c *Chain) Run(ctx context.Context, req *types.InboundRequest, cfg *config.EndpointConfig) (*types.InboundRequest, *types.Response, string) {
	for _, mw := range c.middlewares {
		out := mw.Invoke(ctx, req, cfg)
		if out.Response != nil {
			return nil, out.Response, mw.Name()
		}
		req = out.Request
	}
	return req, nil, ""
}
