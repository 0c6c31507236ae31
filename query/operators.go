/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

// Operator tags the kind of an Operation.
type Operator int

const (
	OpExact Operator = iota
	OpPartial
	OpLessThan
	OpGreaterThan
	OpLessThanOrEqual
	OpGreaterThanOrEqual
	OpBetween
	OpAll
)

var operatorNames = map[Operator]string{
	OpExact:              "exact",
	OpPartial:            "partial",
	OpLessThan:           "lessThan",
	OpGreaterThan:        "greaterThan",
	OpLessThanOrEqual:    "lessThanOrEqual",
	OpGreaterThanOrEqual: "greaterThanOrEqual",
	OpBetween:            "between",
	OpAll:                "all",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "unknown"
}

// Operation is a key operation over values of type T. It is rendered into the value part of a
// key expression by an Index.
type Operation[T any] struct {
	Operator Operator
	Args     []T
}

// Equals matches a key exactly.
func Equals[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpExact, Args: []T{key}}
}

// Partial matches every key starting with key.
func Partial[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpPartial, Args: []T{key}}
}

// LessThan matches keys sorting strictly before key.
func LessThan[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpLessThan, Args: []T{key}}
}

// GreaterThan matches keys sorting strictly after key.
func GreaterThan[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpGreaterThan, Args: []T{key}}
}

// LessThanOrEqual matches keys sorting before or at key.
func LessThanOrEqual[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpLessThanOrEqual, Args: []T{key}}
}

// GreaterThanOrEqual matches keys sorting at or after key.
func GreaterThanOrEqual[T any](key T) Operation[T] {
	return Operation[T]{Operator: OpGreaterThanOrEqual, Args: []T{key}}
}

// Between matches keys in the closed range [a, b]. a must sort before b under the converter;
// the bounds are never reordered.
func Between[T any](a, b T) Operation[T] {
	return Operation[T]{Operator: OpBetween, Args: []T{a, b}}
}

// All matches every key of the namespace.
func All[T any]() Operation[T] {
	return Operation[T]{Operator: OpAll}
}

// Render produces the value part of a key expression using convert.
func (o Operation[T]) Render(convert Converter[T]) (string, error) {
	if o.Operator == OpAll {
		return "*", nil
	}

	want := 1
	if o.Operator == OpBetween {
		want = 2
	}
	if len(o.Args) != want {
		return "", errInvalidOperation(o)
	}

	first, err := convert(o.Args[0])
	if err != nil {
		return "", err
	}

	switch o.Operator {
	case OpExact:
		return first, nil
	case OpPartial:
		return first + "*", nil
	case OpLessThan:
		return "<" + first, nil
	case OpGreaterThan:
		return ">" + first, nil
	case OpLessThanOrEqual:
		return "<=" + first, nil
	case OpGreaterThanOrEqual:
		return ">=" + first, nil
	case OpBetween:
		second, err := convert(o.Args[1])
		if err != nil {
			return "", err
		}
		return first + "|" + second, nil
	default:
		return "", errInvalidOperation(o)
	}
}
