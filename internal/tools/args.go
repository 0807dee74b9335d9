// Package tools defines the static tool registry and the
// parameter-validation and result-envelope contract every metric
// tool satisfies. The registry is plain data: a name-ordered list
// of (schema, handler) pairs built once at startup.
package tools

import (
	"fmt"
	"math"
	"time"

	"github.com/usagelens/usagelens/internal/analytics"
	"github.com/usagelens/usagelens/internal/dateutil"
)

// Args is a tool's argument mapping: scalar JSON values keyed by
// parameter name.
type Args map[string]any

// Param types. Dates are YYYY-MM-DD strings.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeDate   = "date"
)

// Param describes one tool parameter.
type Param struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required,omitempty"`
	Default  any      `json:"default,omitempty"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// validateArgs checks args against the schema and returns a
// normalized copy with defaults applied. Unknown names, missing
// required fields, type mismatches, and out-of-range values are
// InvalidParameter errors naming the field; malformed dates are
// InvalidDateRange errors.
func validateArgs(params []Param, args Args) (Args, error) {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}
	for name := range args {
		if _, ok := byName[name]; !ok {
			return nil, analytics.InvalidParam(name, "unknown parameter")
		}
	}

	out := make(Args, len(params))
	for _, p := range params {
		raw, present := args[p.Name]
		if !present || raw == nil {
			if p.Required {
				return nil, analytics.InvalidParam(p.Name, "required")
			}
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		val, err := coerce(p, raw)
		if err != nil {
			return nil, err
		}
		out[p.Name] = val
	}
	return out, nil
}

// coerce converts a raw JSON scalar to the parameter's type and
// enforces range bounds. JSON numbers arrive as float64; integer
// parameters must be integral.
func coerce(p Param, raw any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, analytics.InvalidParam(p.Name, "expected string")
		}
		return s, nil

	case TypeDate:
		s, ok := raw.(string)
		if !ok {
			return nil, analytics.InvalidParam(p.Name, "expected date string")
		}
		if !dateutil.Valid(s) {
			return nil, analytics.InvalidRange(fmt.Sprintf(
				"%s: invalid date %q: expected YYYY-MM-DD", p.Name, s,
			))
		}
		return s, nil

	case TypeInt:
		f, ok := asNumber(raw)
		if !ok || f != math.Trunc(f) {
			return nil, analytics.InvalidParam(p.Name, "expected integer")
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return int(f), nil

	case TypeFloat:
		f, ok := asNumber(raw)
		if !ok {
			return nil, analytics.InvalidParam(p.Name, "expected number")
		}
		if err := checkRange(p, f); err != nil {
			return nil, err
		}
		return f, nil

	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, analytics.InvalidParam(p.Name, "expected boolean")
		}
		return b, nil
	}
	return nil, analytics.InvalidParam(p.Name, "unsupported parameter type")
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func checkRange(p Param, v float64) error {
	if p.Min != nil && v < *p.Min {
		return analytics.InvalidParam(p.Name, fmt.Sprintf(
			"must be at least %g", *p.Min,
		))
	}
	if p.Max != nil && v > *p.Max {
		return analytics.InvalidParam(p.Name, fmt.Sprintf(
			"must be at most %g", *p.Max,
		))
	}
	return nil
}

// Typed accessors over validated args. Absent values yield zero
// values; validation has already applied defaults and types.

func argString(args Args, name string) string {
	s, _ := args[name].(string)
	return s
}

func argInt(args Args, name string) int {
	switch v := args[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func argFloat(args Args, name string) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func argBool(args Args, name string) bool {
	b, _ := args[name].(bool)
	return b
}

// argRange resolves the shared start_date/end_date convention,
// defaulting to the trailing window ending at now.
func argRange(args Args, now time.Time) (dateutil.Range, error) {
	r, err := dateutil.ResolveRange(
		argString(args, "start_date"),
		argString(args, "end_date"),
		now,
	)
	if err != nil {
		return dateutil.Range{}, analytics.InvalidRange(err.Error())
	}
	return r, nil
}
