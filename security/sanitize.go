package security

import "fmt"

// DangerousOperatorError is returned by SanitizeFilter when a filter
// document contains a banned operator at any depth.
type DangerousOperatorError struct {
	Operator string
}

func (e *DangerousOperatorError) Error() string {
	return fmt.Sprintf("dangerous operator %q is not allowed in a filter", e.Operator)
}

// deniedOperators are rejected anywhere in a filter document regardless of
// nesting depth. $where and $function/$accumulator can execute arbitrary
// JavaScript server-side; there is no partial-sanitisation story for them.
var deniedOperators = map[string]struct{}{
	"$where":        {},
	"$function":     {},
	"$accumulator":  {},
}

// SanitizeFilter recursively walks filter and rejects any occurrence of
// $where, $function or $accumulator at any depth, in any mapping or slice
// nesting. Rejection is fatal: the caller must not issue the driver call on
// a filter that failed sanitisation, even partially.
func SanitizeFilter(filter map[string]any) error {
	return sanitizeValue(filter)
}

func sanitizeValue(v any) error {
	switch x := v.(type) {
	case map[string]any:
		for k, sub := range x {
			if _, denied := deniedOperators[k]; denied {
				return &DangerousOperatorError{Operator: k}
			}
			if err := sanitizeValue(sub); err != nil {
				return err
			}
		}
	case []any:
		for _, sub := range x {
			if err := sanitizeValue(sub); err != nil {
				return err
			}
		}
	}
	return nil
}
