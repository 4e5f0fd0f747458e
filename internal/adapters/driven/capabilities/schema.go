package capabilities

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"

	"github.com/custodia-labs/airportai/internal/core/domain"
)

// compileSchema compiles a caller-supplied JSON schema into a validator for
// extracted parameters. Compilation failures are the caller's fault.
func compileSchema(raw []byte) (func(map[string]any) error, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: compile schema: %v", domain.ErrInvalidInput, err)
	}
	return func(params map[string]any) error {
		result := schema.Validate(params)
		if result.IsValid() {
			return nil
		}
		return fmt.Errorf("%w: %s", domain.ErrSchemaValidation, describeErrors(result))
	}, nil
}

func describeErrors(result *jsonschema.EvaluationResult) string {
	msgs := make([]string, 0, len(result.Errors))
	for path, e := range result.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", path, e.Message))
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
