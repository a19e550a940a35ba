// Package health reports readiness from the database and the route policy engine.
package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is satisfied by *engine.RoutePolicy.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// DefaultTimeout bounds a single readiness check.
const DefaultTimeout = 2 * time.Second

// Checker runs the readiness probes. Nil dependencies are skipped.
type Checker struct {
	db      Pinger
	policy  PolicyChecker
	timeout time.Duration
}

func NewChecker(db Pinger, policy PolicyChecker) *Checker {
	return &Checker{db: db, policy: policy, timeout: DefaultTimeout}
}

// Check returns nil when every configured dependency is healthy.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return fmt.Errorf("policy engine: %w", err)
		}
	}
	return nil
}
