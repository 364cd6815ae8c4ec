/*
Package validation checks commands and headers before they are sent.

Rules are specifications that can be combined with And, Or and Not.
*/
package validation

import (
	"errors"
)

var ErrNotSatisfied = errors.New("specification not satisfied")

// Specification reports why item does not satisfy it, or nil.
type Specification[T any] interface {
	IsSatisfiedBy(item *T) error
}

// Func adapts a function to a Specification.
type Func[T any] func(item *T) error

func (f Func[T]) IsSatisfiedBy(item *T) error {
	return f(item)
}

// AndSpecification is satisfied when every spec is; all failures are joined.
type AndSpecification[T any] struct {
	Specs []Specification[T]
}

func (a *AndSpecification[T]) IsSatisfiedBy(item *T) error {
	var errs error

	for _, spec := range a.Specs {
		err := spec.IsSatisfiedBy(item)
		if err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}

func And[T any](specs ...Specification[T]) *AndSpecification[T] {
	return &AndSpecification[T]{Specs: specs}
}

// OrSpecification is satisfied by the first passing spec.
type OrSpecification[T any] struct {
	Specs []Specification[T]
}

func (o *OrSpecification[T]) IsSatisfiedBy(item *T) error {
	var errs error

	for _, spec := range o.Specs {
		err := spec.IsSatisfiedBy(item)
		if err == nil {
			return nil
		}

		errs = errors.Join(errs, err)
	}

	return errs
}

func Or[T any](specs ...Specification[T]) *OrSpecification[T] {
	return &OrSpecification[T]{Specs: specs}
}

// NotSpecification inverts spec.
type NotSpecification[T any] struct {
	spec Specification[T]
}

func (n *NotSpecification[T]) IsSatisfiedBy(item *T) error {
	if n.spec.IsSatisfiedBy(item) == nil {
		return ErrNotSatisfied
	}

	return nil
}

func Not[T any](spec Specification[T]) *NotSpecification[T] {
	return &NotSpecification[T]{spec: spec}
}
