// Package factory provides module creation functions for the runtime.
// It centralizes the logic for instantiating input, filter, and output modules
// from a profile using the module registry.
//
// To add a new module type, see the documentation in internal/registry.
// You do NOT need to modify this factory; just register your constructor.
package factory

import (
	"fmt"
	"strings"

	"github.com/jbrulmans/uhasselt-ical/internal/calendar"
	"github.com/jbrulmans/uhasselt-ical/internal/errhandling"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/filter"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/input"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/internal/registry"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// CreateInputModule creates the input module reading path.
func CreateInputModule(path string) (input.Module, error) {
	constructor := registry.GetInputConstructor(registry.TypeICSFile)
	if constructor == nil {
		return nil, fmt.Errorf("no input module registered for type %q", registry.TypeICSFile)
	}
	return constructor(path)
}

// CreateFilterModules creates the filter chain of a run: the course filter built
// from criteria, followed by the extra filters of cfgs in order.
// Unknown filter types and invalid filter configurations are validation errors.
func CreateFilterModules(criteria calendar.Criteria, cfgs []profile.FilterConfig) ([]filter.Module, error) {
	modules := make([]filter.Module, 0, len(cfgs)+1)
	modules = append(modules, filter.NewCourses(criteria))

	for i, cfg := range cfgs {
		module, err := createSingleFilterModule(cfg, i)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
	}
	return modules, nil
}

// createSingleFilterModule creates a single extra filter module based on its type.
func createSingleFilterModule(cfg profile.FilterConfig, index int) (filter.Module, error) {
	constructor := registry.GetFilterConstructor(cfg.Type)
	if constructor == nil {
		return nil, errhandling.NewValidationError(
			fmt.Sprintf("unknown filter type %q at index %d (available: %s)",
				cfg.Type, index, strings.Join(registry.ListFilterTypes(), ", ")), nil)
	}

	if cfg.Config == nil {
		cfg.Config = map[string]interface{}{}
	}
	module, err := constructor(cfg, index)
	if err != nil {
		return nil, errhandling.NewValidationError("invalid filter configuration", err)
	}
	return module, nil
}

// CreateOutputModule creates the output module writing path.
// An empty path selects output.DefaultPath.
func CreateOutputModule(path string) (output.Module, error) {
	constructor := registry.GetOutputConstructor(registry.TypeICSFile)
	if constructor == nil {
		return nil, fmt.Errorf("no output module registered for type %q", registry.TypeICSFile)
	}
	return constructor(path)
}
