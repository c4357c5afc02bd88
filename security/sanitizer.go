package security

import "github.com/alaamer12/json-orm/sql"

// Sanitizer re-validates every identifier and literal reached through a
// statement tree. It defends against callers who construct expressions
// directly and bypass the clause-level checks.
type Sanitizer struct{}

// SanitizeStatement walks every clause of the statement and checks all
// identifiers and literal types. Failures surface as ValidationErrors.
func (Sanitizer) SanitizeStatement(statement sql.Statement) error {
	if err := sql.ValidateIdentifier(statement.Table(), "table name"); err != nil {
		return err
	}
	for _, clause := range statement.Clauses() {
		for _, expr := range clauseExpressions(clause) {
			if err := (Sanitizer{}).SanitizeExpression(expr); err != nil {
				return err
			}
		}
	}
	return nil
}

// SanitizeExpression validates a single expression tree.
func (Sanitizer) SanitizeExpression(expr sql.Expression) error {
	return expr.Validate()
}
