// internal/receiver/command.go
package receiver

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/xkilldash9x/uipilot/api/schemas"
)

// ParamType is the expected JSON type of a command argument.
type ParamType string

const (
	ParamString ParamType = "str"
	ParamInt    ParamType = "int"
	ParamFloat  ParamType = "float"
	ParamBool   ParamType = "bool"
	ParamList   ParamType = "list"
)

// Param describes one keyword argument.
type Param struct {
	Name        string
	Type        ParamType
	Required    bool
	Default     any
	Description string
}

// Values are validated, typed arguments keyed by name. Defaults are filled in.
type Values map[string]any

func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

func (v Values) Int(name string) int {
	i, _ := v[name].(int)
	return i
}

func (v Values) Bool(name string) bool {
	b, _ := v[name].(bool)
	return b
}

// Handler runs a command with validated arguments.
type Handler func(ctx context.Context, args Values) (any, error)

// Command is one operation a receiver accepts.
type Command struct {
	Name    string
	Aliases []string
	Summary string
	Params  []Param
	Run     Handler
}

// Signature renders the command the way it is shown to the model,
// e.g. click(button: str = "left", double: bool = false).
func (c Command) Signature() string {
	parts := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		s := fmt.Sprintf("%s: %s", p.Name, p.Type)
		if !p.Required {
			s += fmt.Sprintf(" = %#v", p.Default)
		}
		parts = append(parts, s)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// Bind validates args against the parameter list.
func (c Command) Bind(args schemas.Args) (Values, error) {
	known := make(map[string]Param, len(c.Params))
	for _, p := range c.Params {
		known[p.Name] = p
	}

	out := make(Values, len(c.Params))
	for _, arg := range args {
		p, ok := known[arg.Key]
		if !ok {
			return nil, &InvalidArgumentError{Operation: c.Name, Argument: arg.Key, Reason: "unexpected argument"}
		}
		v, err := coerce(p.Type, arg.Value)
		if err != nil {
			return nil, &InvalidArgumentError{Operation: c.Name, Argument: arg.Key, Reason: err.Error()}
		}
		out[p.Name] = v
	}
	for _, p := range c.Params {
		if _, ok := out[p.Name]; ok {
			continue
		}
		if p.Required {
			return nil, &InvalidArgumentError{Operation: c.Name, Argument: p.Name, Reason: "missing required argument"}
		}
		out[p.Name] = p.Default
	}
	return out, nil
}

func coerce(t ParamType, v any) (any, error) {
	switch t {
	case ParamString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case ParamBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case ParamInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int64:
			return int(n), nil
		case float64:
			if n == math.Trunc(n) && !math.IsInf(n, 0) {
				return int(n), nil
			}
		}
	case ParamFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
	case ParamList:
		if l, ok := v.([]any); ok {
			return l, nil
		}
	}
	return nil, fmt.Errorf("expected %s, got %T", t, v)
}

// -- Command Set --

// CommandSet is an ordered, name-indexed group of commands.
type CommandSet struct {
	owner    string
	commands []Command
	byName   map[string]int
}

// NewCommandSet indexes commands by name and alias. Later duplicates panic,
// since command tables are static.
func NewCommandSet(owner string, commands ...Command) *CommandSet {
	s := &CommandSet{owner: owner, byName: make(map[string]int)}
	for _, c := range commands {
		s.commands = append(s.commands, c)
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			if _, dup := s.byName[name]; dup {
				panic(fmt.Sprintf("duplicate command %q in %s", name, owner))
			}
			s.byName[name] = len(s.commands) - 1
		}
	}
	return s
}

// Supports reports whether operation names a command in the set.
func (s *CommandSet) Supports(operation string) bool {
	_, ok := s.byName[operation]
	return ok
}

// Commands lists the commands in declaration order.
func (s *CommandSet) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Execute binds args and runs the named command.
func (s *CommandSet) Execute(ctx context.Context, operation string, args schemas.Args) (any, error) {
	idx, ok := s.byName[operation]
	if !ok {
		return nil, &UnsupportedOperationError{Receiver: s.owner, Operation: operation}
	}
	cmd := s.commands[idx]
	values, err := cmd.Bind(args)
	if err != nil {
		return nil, err
	}
	return cmd.Run(ctx, values)
}
