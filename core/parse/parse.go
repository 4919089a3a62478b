package parse

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseStringAs converts LLM output into T.
//
// Strings are returned as given. Booleans and numbers go through strconv.
// Everything else is decoded as JSON after CleanJSONResponse; invalid JSON is
// run through jsonrepair, and as a last step {"type":…,"value":…} wrappers
// (a model echoing a schema instead of data) are unwrapped.
//
//	topics, err := parse.ParseStringAs[[]content.Topic]("```json\n[{title: 'x'}]\n```")
func ParseStringAs[T any](content string) (T, error) {
	var result T
	target := reflect.ValueOf(&result).Elem()

	switch target.Kind() {
	case reflect.String:
		target.SetString(content)
		return result, nil

	case reflect.Bool:
		val, err := strconv.ParseBool(unwrapScalar(content))
		if err != nil {
			return result, fmt.Errorf("failed to parse content as bool: %w", err)
		}
		target.SetBool(val)
		return result, nil

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(unwrapScalar(content), 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as float: %w", err)
		}
		target.SetFloat(val)
		return result, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(unwrapScalar(content), 10, 64)
		if err != nil {
			return result, fmt.Errorf("failed to parse content as int: %w", err)
		}
		target.SetInt(val)
		return result, nil
	}

	cleaned := CleanJSONResponse(content)
	err := json.Unmarshal([]byte(cleaned), &result)
	if err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(cleaned)
	if repairErr != nil {
		return result, fmt.Errorf("failed to unmarshal content as %T and failed to repair it: %w (repair: %v)", result, err, repairErr)
	}
	if err = json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	if unwrapped, unwrapErr := unwrapSchemaValues(repaired); unwrapErr == nil {
		if json.Unmarshal([]byte(unwrapped), &result) == nil {
			return result, nil
		}
	}
	return result, fmt.Errorf("failed to unmarshal repaired JSON as %T: %w (repaired: %s)", result, err, repaired)
}

// unwrapScalar returns the value of a {"type":…,"value":…} wrapper, or the
// trimmed content when it is not one.
func unwrapScalar(content string) string {
	var wrapper map[string]any
	if json.Unmarshal([]byte(content), &wrapper) != nil {
		return strings.TrimSpace(content)
	}
	value, ok := schemaWrapped(wrapper)
	if !ok {
		return strings.TrimSpace(content)
	}
	if s, isString := value.(string); isString {
		return s
	}
	return fmt.Sprint(value)
}

func schemaWrapped(m map[string]any) (any, bool) {
	if len(m) != 2 {
		return nil, false
	}
	if _, hasType := m["type"]; !hasType {
		return nil, false
	}
	value, hasValue := m["value"]
	return value, hasValue
}

// unwrapSchemaValues rewrites
//
//	{"name": {"type": "string", "value": "John"}}
//
// into {"name": "John"} at every depth.
func unwrapSchemaValues(jsonStr string) (string, error) {
	var data any
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		return "", err
	}
	out, err := json.Marshal(recursiveUnwrap(data))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func recursiveUnwrap(data any) any {
	switch v := data.(type) {
	case map[string]any:
		if value, ok := schemaWrapped(v); ok {
			return recursiveUnwrap(value)
		}
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[key] = recursiveUnwrap(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = recursiveUnwrap(val)
		}
		return out
	default:
		return data
	}
}
