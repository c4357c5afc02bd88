package security

import (
	"sync"
	"time"
)

// Limits bounds the complexity and rate of queries checked against a
// context.
type Limits struct {
	MaxQueryDepth       int
	MaxConditions       int
	MaxJoins            int
	MaxRows             int
	MaxQueriesPerMinute int
}

// DefaultLimits returns the limits applied when a context is created
// without explicit values.
func DefaultLimits() Limits {
	return Limits{
		MaxQueryDepth:       10,
		MaxConditions:       20,
		MaxJoins:            5,
		MaxRows:             1000,
		MaxQueriesPerMinute: 60,
	}
}

// Context carries the caller's authorization state: roles, table and
// column allow-lists, complexity limits and the rolling rate-limit
// counter.
type Context struct {
	mu sync.Mutex

	roles          map[string]bool
	allowedTables  map[string]bool
	allowedColumns map[string]map[string]bool

	limits Limits

	lastQueryTime time.Time
	queryCount    int

	// now is replaceable in tests.
	now func() time.Time
}

func NewContext(limits Limits) *Context {
	return &Context{
		roles:          make(map[string]bool),
		allowedTables:  make(map[string]bool),
		allowedColumns: make(map[string]map[string]bool),
		limits:         limits,
		now:            time.Now,
	}
}

// AddRole grants a role. The "admin" role bypasses table and column
// allow-list checks.
func (ctx *Context) AddRole(role string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.roles[role] = true
}

// AllowTable grants access to a table.
func (ctx *Context) AllowTable(table string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.allowedTables[table] = true
}

// AllowColumn grants access to one column of a table.
func (ctx *Context) AllowColumn(table, column string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.allowedColumns[table] == nil {
		ctx.allowedColumns[table] = make(map[string]bool)
	}
	ctx.allowedColumns[table][column] = true
}

// Limits returns the configured limits.
func (ctx *Context) Limits() Limits {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.limits
}

// SetLimits replaces the configured limits. The rate-limit counter is
// not reset.
func (ctx *Context) SetLimits(limits Limits) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.limits = limits
}

// IsAdmin reports whether the context carries the admin role.
func (ctx *Context) IsAdmin() bool {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.roles["admin"]
}

// CanAccessTable reports whether the table is on the allow-list or the
// context is admin.
func (ctx *Context) CanAccessTable(table string) bool {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.roles["admin"] || ctx.allowedTables[table]
}

// CanAccessColumn reports whether the (table, column) pair is on the
// allow-list or the context is admin. A table with no column grants at
// all permits every column of an allowed table.
func (ctx *Context) CanAccessColumn(table, column string) bool {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if ctx.roles["admin"] {
		return true
	}
	columns, restricted := ctx.allowedColumns[table]
	if !restricted {
		return ctx.allowedTables[table]
	}
	return columns[column]
}

// CheckRateLimit applies the 60-second sliding window: the counter is
// reset when more than a minute has passed since the previous query,
// incremented on every check, and the check fails once the count
// exceeds MaxQueriesPerMinute.
func (ctx *Context) CheckRateLimit() bool {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	now := ctx.now()
	if !ctx.lastQueryTime.IsZero() && now.Sub(ctx.lastQueryTime) > time.Minute {
		ctx.queryCount = 0
	}

	ctx.queryCount++
	ctx.lastQueryTime = now

	return ctx.queryCount <= ctx.limits.MaxQueriesPerMinute
}
