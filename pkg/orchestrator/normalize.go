package orchestrator

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/hmaulana/kawanan/pkg/agent"
)

// normalizeResult resolves a raw tool return into an agent.Result. This is
// the only place return-type resolution happens: Result passes through, an
// Agent becomes a handoff with a {"assistant": name} history value, and
// everything else is stringified or rejected with a ResultTypeError.
func normalizeResult(toolName string, raw any) (agent.Result, error) {
	switch v := raw.(type) {
	case nil:
		return agent.Result{}, nil
	case agent.Result:
		return v, nil
	case *agent.Result:
		if v == nil {
			return agent.Result{}, nil
		}
		return *v, nil
	case *agent.Agent:
		payload, err := json.Marshal(map[string]string{"assistant": v.Name})
		if err != nil {
			return agent.Result{}, &ResultTypeError{Tool: toolName, Value: raw}
		}
		return agent.Result{Value: string(payload), Agent: v}, nil
	case string:
		return agent.Result{Value: v}, nil
	case fmt.Stringer:
		return agent.Result{Value: v.String()}, nil
	case error:
		return agent.Result{}, &ResultTypeError{Tool: toolName, Value: raw}
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return agent.Result{Value: fmt.Sprint(raw)}, nil
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return agent.Result{}, &ResultTypeError{Tool: toolName, Value: raw}
	}

	payload, err := json.Marshal(raw)
	if err != nil {
		return agent.Result{}, &ResultTypeError{Tool: toolName, Value: raw}
	}
	return agent.Result{Value: string(payload)}, nil
}
