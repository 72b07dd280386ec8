package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// envPattern matches ${NAME}. Bare $NAME is left alone so values such as
// MIME types and passwords keep their dollar signs.
var envPattern = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// UndefinedVariableError lists ${NAME} references with no value.
type UndefinedVariableError struct {
	Names []string
}

func (e *UndefinedVariableError) Error() string {
	if len(e.Names) == 1 {
		return fmt.Sprintf("undefined variable: %s", e.Names[0])
	}
	return fmt.Sprintf("undefined variables: %s", strings.Join(e.Names, ", "))
}

// LookupFunc resolves a variable name.
type LookupFunc func(name string) (string, bool)

// ExpandEnv replaces ${NAME} in every string of v, including strings nested
// in sections and lists, using the process environment.
func ExpandEnv(v Values) (Values, error) {
	return Expand(v, os.LookupEnv)
}

// Expand replaces ${NAME} in every string of v using lookup. Every
// unresolved name is reported in one *UndefinedVariableError.
func Expand(v Values, lookup LookupFunc) (Values, error) {
	var missing []string
	out := expandValue(v.Raw(), lookup, &missing)
	if len(missing) > 0 {
		return Values{}, &UndefinedVariableError{Names: missing}
	}
	m, _ := out.(map[string]any)
	return NewValues(m), nil
}

func expandValue(val any, lookup LookupFunc, missing *[]string) any {
	switch x := val.(type) {
	case string:
		return envPattern.ReplaceAllStringFunc(x, func(match string) string {
			name := match[2 : len(match)-1]
			if s, ok := lookup(name); ok {
				return s
			}
			*missing = append(*missing, name)
			return match
		})
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = expandValue(item, lookup, missing)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = expandValue(item, lookup, missing)
		}
		return out
	default:
		return val
	}
}
