/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-openapi/strfmt"

	kverrors "github.com/suparena/kvobject/errors"
)

// Format coerces a raw attribute value into its declared Go type.
// Values read from the store arrive as strings; staged values arrive as
// whatever the caller set.
type Format struct {
	Name   string
	Coerce func(v any) (any, error)
}

// FormatDate parses ISO-8601 timestamps into time.Time.
var FormatDate = Format{Name: "date", Coerce: coerceDate}

// FormatNumber coerces values into int64.
var FormatNumber = Format{Name: "number", Coerce: coerceNumber}

func coerceDate(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case strfmt.DateTime:
		return time.Time(t), nil
	case string:
		dt, err := strfmt.ParseDateTime(t)
		if err != nil {
			return nil, err
		}
		return time.Time(dt), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

func coerceNumber(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, nil
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return nil, err
		}
		return int64(f), nil
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

// encodeValue renders an attribute value as the string stored in the hash.
func encodeValue(field string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	case time.Time:
		return t.Format(time.RFC3339Nano), nil
	case strfmt.DateTime:
		return time.Time(t).Format(time.RFC3339Nano), nil
	case *Entity:
		return t.HashKey(), nil
	case fmt.Stringer:
		return t.String(), nil
	}
	return "", kverrors.NewValidationError(field, fmt.Sprintf("cannot store value of type %T", v))
}

// score converts a coerced attribute value to an index score. Timestamps score
// as Unix seconds.
func score(field string, v any) (float64, error) {
	switch t := v.(type) {
	case time.Time:
		return float64(t.Unix()), nil
	case float64:
		return math.Trunc(t), nil
	}
	n, err := coerceNumber(v)
	if err != nil {
		return 0, kverrors.NewFormatError(field, FormatNumber.Name, v, err)
	}
	return float64(n.(int64)), nil
}
