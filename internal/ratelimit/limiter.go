package ratelimit

import (
	"context"
	"time"
)

// RouteClass groups guarded routes that share one window and budget.
type RouteClass string

const (
	ClassAuth       RouteClass = "auth"
	ClassDispatch   RouteClass = "dispatch"
	ClassWrite      RouteClass = "write"
	ClassSuperAdmin RouteClass = "super-admin"
	ClassGlobal     RouteClass = "global"
)

func (c RouteClass) String() string { return string(c) }

// Policy is the window and request budget of one route class.
type Policy struct {
	Window time.Duration
	Limit  int
}

// DefaultPolicies returns the per-class budgets. The global class backstops
// every guarded route in addition to its specific class.
func DefaultPolicies() map[RouteClass]Policy {
	return map[RouteClass]Policy{
		ClassAuth:       {Window: 15 * time.Minute, Limit: 10},
		ClassDispatch:   {Window: time.Minute, Limit: 30},
		ClassWrite:      {Window: time.Minute, Limit: 60},
		ClassSuperAdmin: {Window: time.Minute, Limit: 30},
		ClassGlobal:     {Window: time.Minute, Limit: 300},
	}
}

// Decision is the outcome of one rate-limit check, carrying everything the
// HTTP layer needs for the response headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Limiter is a sliding-window request throttle keyed by route class and
// client identity. Implementations back the counters with shared storage so
// every service instance enforces the same budget.
type Limiter interface {
	Check(ctx context.Context, class RouteClass, identity string) (Decision, error)
}
