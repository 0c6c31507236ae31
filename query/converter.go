/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/modelstore/errors"
)

// Converter turns a typed value into the string used inside key expressions.
//
// Converters used with range or partial operators must produce strings whose lexicographic
// order matches the logical order of the values.
type Converter[T any] func(T) (string, error)

// Infallible adapts a plain conversion function.
func Infallible[T any](f func(T) string) Converter[T] {
	return func(v T) (string, error) {
		return f(v), nil
	}
}

// DefaultConverter stringifies strings, fmt.Stringer values, byte slices, booleans and
// numbers. Any other type fails with errors.ErrCannotConvert.
func DefaultConverter[T any](v T) (string, error) {
	switch x := any(v).(type) {
	case string:
		return x, nil
	case fmt.Stringer:
		return x.String(), nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int8:
		return strconv.FormatInt(int64(x), 10), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", errors.NewConversionError(v)
	}
}

// TimeKey converts a time string into one that can be stored in a key: every ':' becomes '-'.
func TimeKey(key string) string {
	return strings.ReplaceAll(key, ":", "-")
}

// sortableTimeLayout is fixed width so that lexicographic order equals chronological order.
const sortableTimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in UTC with a fixed-width layout and passes the result through TimeKey.
func FormatTime(t time.Time) string {
	return TimeKey(t.UTC().Format(sortableTimeLayout))
}

// TimeConverter converts timestamps to sortable keys, e.g. "2024-03-01T09-30-00.000000000Z".
func TimeConverter() Converter[time.Time] {
	return Infallible(FormatTime)
}

// DateTimeConverter converts strfmt.DateTime values the same way as TimeConverter.
func DateTimeConverter() Converter[strfmt.DateTime] {
	return func(dt strfmt.DateTime) (string, error) {
		return FormatTime(time.Time(dt)), nil
	}
}

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// PaddedIntConverter zero-pads non-negative integers to width digits so that they sort
// numerically. Negative values are rejected.
func PaddedIntConverter[T integer](width int) Converter[T] {
	return func(v T) (string, error) {
		if v < 0 {
			return "", errors.NewValidationError("value", fmt.Sprintf("negative value %d does not sort as a padded key", v))
		}
		return fmt.Sprintf("%0*d", width, uint64(v)), nil
	}
}

// JoinConverter joins string slices with sep.
func JoinConverter(sep string) Converter[[]string] {
	return Infallible(func(parts []string) string {
		return strings.Join(parts, sep)
	})
}
