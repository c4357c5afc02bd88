package sql

import (
	"fmt"

	"github.com/google/uuid"
)

// Parameter is a named literal value bound into a statement. Parameters
// carry a type tag so callers can check what they bound.
type Parameter struct {
	Name  string
	Value any
	Type  string
}

// NewParameter creates a parameter with a generated unique name.
func NewParameter(value any) *Parameter {
	return &Parameter{
		Name:  "p_" + uuid.NewString()[:8],
		Value: value,
		Type:  fmt.Sprintf("%T", value),
	}
}

// Literal converts the parameter into a literal expression for use in a
// statement.
func (p *Parameter) Literal() *Literal {
	return Lit(p.Value)
}

// ParameterStore holds the parameters of a single query. It is scoped to
// one query and discarded (or cleared) after execution.
type ParameterStore struct {
	parameters map[string]*Parameter
}

func NewParameterStore() *ParameterStore {
	return &ParameterStore{parameters: make(map[string]*Parameter)}
}

// Add creates a parameter for the value and stores it under its
// generated name.
func (store *ParameterStore) Add(value any) *Parameter {
	parameter := NewParameter(value)
	store.parameters[parameter.Name] = parameter
	return parameter
}

// Get retrieves a parameter by name.
func (store *ParameterStore) Get(name string) (*Parameter, error) {
	parameter, exists := store.parameters[name]
	if !exists {
		return nil, fmt.Errorf("no parameter named %q", name)
	}
	return parameter, nil
}

// Len reports the number of stored parameters.
func (store *ParameterStore) Len() int {
	return len(store.parameters)
}

// Clear removes all parameters so the store can back a new query.
func (store *ParameterStore) Clear() {
	store.parameters = make(map[string]*Parameter)
}
