package execution

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bankapp-ledger-engine/internal/domain/transaction"
)

var (
	ErrDuplicateExecutor  = errors.New("duplicate executor")
	ErrIncompleteRegistry = errors.New("executor registry is incomplete")
	ErrUnsupportedType    = errors.New("unsupported transaction type")
)

// UnsupportedTypeError is returned by Get for a type without an executor.
type UnsupportedTypeError struct {
	Type transaction.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no executor registered for transaction type %q", e.Type)
}

func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// Registry maps every transaction type to exactly one executor.
type Registry struct {
	executors map[transaction.Type]Executor
}

// NewRegistry builds a registry and fails unless every type in transaction.Types
// has exactly one executor.
func NewRegistry(executors ...Executor) (*Registry, error) {
	byType := make(map[transaction.Type]Executor, len(executors))
	for _, e := range executors {
		if e == nil {
			return nil, fmt.Errorf("%w: nil executor", ErrIncompleteRegistry)
		}
		if _, exists := byType[e.Type()]; exists {
			return nil, fmt.Errorf("%w for transaction type %q", ErrDuplicateExecutor, e.Type())
		}
		byType[e.Type()] = e
	}

	var missing []string
	for _, t := range transaction.Types() {
		if _, ok := byType[t]; !ok {
			missing = append(missing, string(t))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteRegistry, strings.Join(missing, ", "))
	}

	return &Registry{executors: byType}, nil
}

// NewDefaultRegistry registers DefaultExecutors.
func NewDefaultRegistry(houseAccounts HouseAccountResolver) (*Registry, error) {
	return NewRegistry(DefaultExecutors(houseAccounts)...)
}

// Get returns the executor for t.
func (r *Registry) Get(t transaction.Type) (Executor, error) {
	e, ok := r.executors[t]
	if !ok {
		return nil, &UnsupportedTypeError{Type: t}
	}
	return e, nil
}

// Len returns the number of registered executors.
func (r *Registry) Len() int {
	return len(r.executors)
}
