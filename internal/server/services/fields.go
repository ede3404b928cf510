package services

import (
	"encoding/json"
	"math"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// checkAllowed fails with common.ErrInvalidUpdateFields if fields names
// anything outside allowed. It runs before any value is looked at.
func checkAllowed(fields map[string]any, allowed map[string]bool) error {
	for k := range fields {
		if !allowed[k] {
			return common.ErrInvalidUpdateFields
		}
	}
	return nil
}

func stringField(ve *common.ValidationError, fields map[string]any, name string) (string, bool) {
	v, ok := fields[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		ve.Add(name, "must be a string")
		return "", false
	}
	return s, true
}

func boolField(ve *common.ValidationError, fields map[string]any, name string) (bool, bool) {
	v, ok := fields[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	if !ok {
		ve.Add(name, "must be a boolean")
		return false, false
	}
	return b, true
}

// intField accepts the numeric shapes a decoded JSON body can carry, as
// long as the value is whole.
func intField(ve *common.ValidationError, fields map[string]any, name string) (int, bool) {
	v, ok := fields[name]
	if !ok {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			ve.Add(name, "must be a number")
			return 0, false
		}
		f = parsed
	default:
		ve.Add(name, "must be a number")
		return 0, false
	}

	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		ve.Add(name, "must be a whole number")
		return 0, false
	}
	return int(f), true
}
