// File: internal/agent/parse.go
package agent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// jsonBlockRegex captures the body of a fenced code block, with or without a
// json language tag.
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// hostDecisionFields are the keys a Host agent response must carry. It has no
// operation to run, only a window to pick.
var hostDecisionFields = []string{"ControlLabel", "ControlText", "Status", "Plan"}

// extractJSON isolates the JSON object in a model response. Fenced blocks win;
// otherwise the span from the first '{' to the last '}' is used.
func extractJSON(response string) string {
	if m := jsonBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		return m[1]
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return strings.TrimSpace(response)
}

// ParseDecision decodes an App agent response. Every required decision field
// must be present and Status must be a known status.
func ParseDecision(response string) (schemas.Decision, error) {
	return parseDecision(response, schemas.RequiredDecisionFields)
}

// ParseHostDecision decodes a Host agent response.
func ParseHostDecision(response string) (schemas.Decision, error) {
	return parseDecision(response, hostDecisionFields)
}

func parseDecision(response string, required []string) (schemas.Decision, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(extractJSON(response)), &fields); err != nil {
		return schemas.Decision{}, &DecisionParseError{Reason: "response is not a JSON object", Err: err}
	}

	var missing []string
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return schemas.Decision{}, &DecisionParseError{Reason: "missing required fields: " + strings.Join(missing, ", ")}
	}

	var (
		d   schemas.Decision
		err error
	)
	text := func(key string) string {
		if err != nil {
			return ""
		}
		var s string
		s, err = scalarField(fields, key)
		return s
	}
	d.Observation = text("Observation")
	d.Thought = text("Thought")
	d.ControlLabel = text("ControlLabel")
	d.ControlText = text("ControlText")
	d.Function = text("Function")
	d.Comment = text("Comment")
	statusText := text("Status")
	if err != nil {
		return schemas.Decision{}, err
	}

	if d.Plan, err = planField(fields["Plan"]); err != nil {
		return schemas.Decision{}, &DecisionParseError{Reason: "Plan must be a string or a list of strings", Err: err}
	}
	if raw, ok := fields["Args"]; ok {
		if err := json.Unmarshal(raw, &d.Args); err != nil {
			return schemas.Decision{}, &DecisionParseError{Reason: "Args must be an object", Err: err}
		}
	}
	if d.Args == nil {
		d.Args = schemas.Args{}
	}
	if d.Status, err = schemas.ParseStatus(statusText); err != nil {
		return schemas.Decision{}, &DecisionParseError{Reason: "unknown Status", Err: err}
	}
	return d, nil
}

// scalarField reads an optional string-like field. Numbers are accepted and
// rendered without a trailing fraction, since models often emit labels as 5.
func scalarField(fields map[string]json.RawMessage, key string) (string, error) {
	raw, ok := fields[key]
	if !ok {
		return "", nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", &DecisionParseError{Reason: key + " is not valid JSON", Err: err}
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return "", &DecisionParseError{Reason: fmt.Sprintf("%s must be a string, got %T", key, v)}
	}
}

func planField(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			lines = append(lines, fmt.Sprint(item))
		}
		return strings.Join(lines, "\n"), nil
	default:
		return "", fmt.Errorf("unexpected plan type %T", v)
	}
}
