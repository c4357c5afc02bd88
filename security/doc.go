// Package security gates statements between construction and planning.
//
// The validator enforces table and column allow-lists, query depth,
// condition and join limits, and a per-minute rate limit. A second
// expression-level sanitizer pass re-checks every identifier and
// literal, so directly constructed expressions cannot bypass the
// statement-level gate.
//
// # Usage
//
//	ctx := security.NewContext(security.DefaultLimits())
//	ctx.AllowTable("users")
//	ctx.AllowColumn("users", "id")
//	ctx.AllowColumn("users", "name")
//
//	validator := security.NewValidator(ctx)
//	if err := validator.ValidateStatement(stmt); err != nil {
//	    var serr *security.SecurityError
//	    if errors.As(err, &serr) {
//	        log.Printf("blocked by rule %s", serr.Rule)
//	    }
//	}
//
// The "admin" role bypasses the allow-list checks but not the
// complexity limits:
//
//	ctx.AddRole("admin")
//
// All failures are terminal; the caller decides whether to retry.
package security
