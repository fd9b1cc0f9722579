package registry

import (
	"fmt"

	"github.com/jbrulmans/uhasselt-ical/internal/modules/filter"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/input"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// Built-in module type names.
const (
	TypeICSFile   = "icsFile"
	TypeCondition = "condition"
	TypeScript    = "script"
)

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins registers every built-in module type.
// It is called from init and may be called again after ClearRegistries.
func RegisterBuiltins() {
	RegisterInput(TypeICSFile, func(path string) (input.Module, error) {
		return input.NewICSFile(path), nil
	})

	RegisterFilter(TypeCondition, func(cfg profile.FilterConfig, index int) (filter.Module, error) {
		condConfig, err := filter.ParseConditionConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid condition config at index %d: %w", index, err)
		}
		module, err := filter.NewConditionFromConfig(condConfig)
		if err != nil {
			return nil, fmt.Errorf("invalid condition config at index %d: %w", index, err)
		}
		return module, nil
	})

	RegisterFilter(TypeScript, func(cfg profile.FilterConfig, index int) (filter.Module, error) {
		scriptConfig, err := filter.ParseScriptConfig(cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("invalid script config at index %d: %w", index, err)
		}
		module, err := filter.NewScriptFromConfig(scriptConfig)
		if err != nil {
			return nil, fmt.Errorf("invalid script config at index %d: %w", index, err)
		}
		return module, nil
	})

	RegisterOutput(TypeICSFile, func(path string) (output.Module, error) {
		module, err := output.NewICSFile(path)
		if err != nil {
			return nil, err
		}
		return module, nil
	})
}
