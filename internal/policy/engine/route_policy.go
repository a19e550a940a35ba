// Package engine classifies request paths for the access gate using an OPA Rego policy.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"
)

// RouteClass is the gate's treatment of a request path.
type RouteClass string

const (
	ClassPublic        RouteClass = "public"
	ClassUnprotected   RouteClass = "unprotected"
	ClassProtectedPage RouteClass = "protected_page"
	ClassProtectedAPI  RouteClass = "protected_api"
	ClassPassthrough   RouteClass = "passthrough"
)

func (c RouteClass) valid() bool {
	switch c {
	case ClassPublic, ClassUnprotected, ClassProtectedPage, ClassProtectedAPI, ClassPassthrough:
		return true
	}
	return false
}

const routeQuery = "data.dm.gate.route_class"

// Rules are checked in order: exact public paths, exact unprotected paths, API prefixes,
// then page prefixes (matched on a segment boundary). Anything else passes through.
const routeRegoPolicy = `package dm.gate

default route_class := "passthrough"

route_class := "public" if {
	input.path in input.routes.public_paths
} else := "unprotected" if {
	input.path in input.routes.unprotected_paths
} else := "protected_api" if {
	some prefix in input.routes.api_prefixes
	startswith(input.path, prefix)
} else := "protected_page" if {
	some prefix in input.routes.page_prefixes
	path_under(input.path, prefix)
}

path_under(path, prefix) if {
	path == prefix
}

path_under(path, prefix) if {
	startswith(path, concat("", [prefix, "/"]))
}
`

// RouteTable lists the paths and prefixes fed to the policy.
type RouteTable struct {
	PublicPaths      []string
	UnprotectedPaths []string
	APIPrefixes      []string
	PagePrefixes     []string
}

// RoutePolicy is a prepared Rego query over a fixed route table. Safe for concurrent use.
type RoutePolicy struct {
	query  rego.PreparedEvalQuery
	routes map[string]any
}

// NewRoutePolicy compiles the routing policy once for table.
func NewRoutePolicy(ctx context.Context, table RouteTable) (*RoutePolicy, error) {
	q, err := rego.New(
		rego.Query(routeQuery),
		rego.Module("route_policy.rego", routeRegoPolicy),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare route policy: %w", err)
	}
	return &RoutePolicy{
		query: q,
		routes: map[string]any{
			"public_paths":      toAny(table.PublicPaths),
			"unprotected_paths": toAny(table.UnprotectedPaths),
			"api_prefixes":      toAny(table.APIPrefixes),
			"page_prefixes":     toAny(table.PagePrefixes),
		},
	}, nil
}

// Classify returns the class of path. An error means the policy could not decide;
// callers must fail closed.
func (p *RoutePolicy) Classify(ctx context.Context, path string) (RouteClass, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(map[string]any{
		"path":   path,
		"routes": p.routes,
	}))
	if err != nil {
		return "", fmt.Errorf("eval route policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return "", fmt.Errorf("route policy returned no result for %q", path)
	}
	s, ok := rs[0].Expressions[0].Value.(string)
	if !ok || !RouteClass(s).valid() {
		return "", fmt.Errorf("route policy returned unexpected value %v", rs[0].Expressions[0].Value)
	}
	return RouteClass(s), nil
}

// HealthCheck evaluates the prepared policy against a probe path. Returns nil on success.
func (p *RoutePolicy) HealthCheck(ctx context.Context) error {
	_, err := p.Classify(ctx, "/")
	return err
}

// FailClosed is the class used when classification fails: API paths get the JSON 401
// treatment, everything else the page redirect.
func FailClosed(path string, apiPrefixes []string) RouteClass {
	for _, prefix := range apiPrefixes {
		if strings.HasPrefix(path, prefix) {
			return ClassProtectedAPI
		}
	}
	return ClassProtectedPage
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
