package sensor

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/hassbridge/sonarrbridge/coordinator"
)

// CustomSpec declares a user-defined sensor whose state is an expression
// evaluated against the latest snapshot.
type CustomSpec struct {
	Key        string
	Name       string
	Icon       string
	Unit       string
	State      string
	Datapoints []string
}

// NewCustom compiles a custom sensor definition. The expression sees the
// snapshot datapoints (app, commands, queue, series, upcoming, wanted)
// plus a few helper functions; see helperEnv.
func NewCustom(spec CustomSpec) (*Definition, error) {
	if spec.Key == "" {
		return nil, fmt.Errorf("custom sensor requires a key")
	}

	program, err := expr.Compile(spec.State,
		expr.Env(helperEnv()),
		expr.AllowUndefinedVariables(), // snapshot datapoints resolve at run time
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression for sensor %s: %w", spec.Key, err)
	}

	datapoints := make([]coordinator.Datapoint, 0, len(spec.Datapoints))
	for _, raw := range spec.Datapoints {
		dp := coordinator.Datapoint(strings.ToLower(raw))
		if !dp.Valid() {
			return nil, fmt.Errorf("custom sensor %s references unknown datapoint: %s", spec.Key, raw)
		}
		if dp != coordinator.DatapointApp {
			datapoints = append(datapoints, dp)
		}
	}

	name := spec.Name
	if name == "" {
		name = spec.Key
	}

	icon := spec.Icon
	if icon == "" {
		icon = "mdi:television"
	}

	return &Definition{
		Key:            spec.Key,
		Name:           name,
		Icon:           icon,
		Unit:           spec.Unit,
		EnabledDefault: true,
		Datapoints:     datapoints,
		State: func(data *coordinator.Data) (any, bool) {
			if data == nil {
				return nil, false
			}

			out, err := runProgram(program, data)
			if err != nil {
				return nil, false
			}

			return out, true
		},
		Attributes: func(data *coordinator.Data) map[string]string {
			return map[string]string{"expression": spec.State}
		},
	}, nil
}

// runProgram evaluates a compiled expression against a snapshot.
func runProgram(program *vm.Program, data *coordinator.Data) (any, error) {
	env := helperEnv()
	for _, dp := range coordinator.Datapoints {
		env[string(dp)] = data.Value(dp)
	}
	env["updated"] = data.Updated

	return expr.Run(program, env)
}

// helperEnv defines the static helper functions available to custom
// sensor expressions.
func helperEnv() map[string]any {
	return map[string]any{
		"gigabytes": gigabytes,
		"now":       time.Now,
		"daysUntil": func(t time.Time) int {
			return int(time.Until(t).Hours() / 24)
		},
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
