package ast

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// ErrMissingType is returned when a node has no type tag.
var ErrMissingType = errors.New("missing type tag")

func errMissingType(node string) error {
	return fmt.Errorf("%s: %w", node, ErrMissingType)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	exprType      = reflect.TypeOf(Expr{})
	targetType    = reflect.TypeOf(Target{})
	effectType    = reflect.TypeOf(Effect{})
	conditionType = reflect.TypeOf(Condition{})
	triggerType   = reflect.TypeOf(Trigger{})
	compareType   = reflect.TypeOf(Compare{})
)

// shorthandHook expands the compact forms the compiler emits:
// a bare number for a constant expression, a bare name for a target,
// effect, condition or trigger, and ">=3" style comparisons.
func shorthandHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() == reflect.Ptr {
			to = to.Elem()
		}
		switch from.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			switch to {
			case exprType:
				return map[string]any{"type": string(ExprConstant), "value": data}, nil
			case compareType:
				return map[string]any{"op": "==", "value": data}, nil
			}
		case reflect.String:
			s := reflect.ValueOf(data).String()
			switch to {
			case exprType:
				if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
					return map[string]any{"type": string(ExprConstant), "value": n}, nil
				}
				return map[string]any{"type": string(ExprVariable), "name": s}, nil
			case targetType, effectType, conditionType:
				return map[string]any{"type": s}, nil
			case triggerType:
				return map[string]any{"event": s}, nil
			case compareType:
				return parseCompare(s)
			}
		}
		return data, nil
	}
}

func decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			shorthandHook(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	return decoder.Decode(input)
}

// DecodeEffect builds an effect tree from compiler output.
func DecodeEffect(raw any) (*Effect, error) {
	var eff Effect
	if err := decode(raw, &eff); err != nil {
		return nil, fmt.Errorf("failed to decode effect: %w", err)
	}
	if err := eff.normalize(); err != nil {
		return nil, err
	}
	return &eff, nil
}

// DecodeTarget builds a target from compiler output.
func DecodeTarget(raw any) (*Target, error) {
	var t Target
	if err := decode(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to decode target: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

// DecodeCondition builds a condition from compiler output.
func DecodeCondition(raw any) (*Condition, error) {
	var c Condition
	if err := decode(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode condition: %w", err)
	}
	if err := c.normalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DecodeAbility builds one ability from compiler output.
func DecodeAbility(raw any) (*Ability, error) {
	var a Ability
	if err := decode(raw, &a); err != nil {
		return nil, fmt.Errorf("failed to decode ability: %w", err)
	}
	if err := a.normalize(); err != nil {
		return nil, err
	}
	return &a, nil
}

// DecodeAbilities decodes a list of abilities, naming each by index when
// the compiler left the id empty.
func DecodeAbilities(owner string, raw []any) ([]*Ability, error) {
	out := make([]*Ability, 0, len(raw))
	for i, r := range raw {
		a, err := DecodeAbility(r)
		if err != nil {
			return nil, fmt.Errorf("%s ability %d: %w", owner, i, err)
		}
		if a.ID == "" {
			a.ID = fmt.Sprintf("%s#%d", owner, i)
		}
		out = append(out, a)
	}
	return out, nil
}
