// Package registry provides module registries for input, filter, and output modules.
//
// # Overview
//
// Modules register their constructors by type string instead of being wired
// through hard-coded switch statements. The factory package looks constructors
// up here when building a run from a profile.
//
// # Adding a New Module
//
// To add a new filter type (e.g., a "weekday" filter):
//
//  1. Implement filter.Module
//  2. Create a constructor function matching FilterConstructor
//  3. Register the constructor in an init() function
//
// Example:
//
//	func init() {
//	    registry.RegisterFilter("weekday", func(cfg profile.FilterConfig, index int) (filter.Module, error) {
//	        return NewWeekday(cfg.Config)
//	    })
//	}
//
// # Built-in Modules
//
// The icsFile input and output modules and the condition and script filters are
// registered automatically via init(). Unknown types are reported as errors.
package registry

import (
	"sort"
	"sync"

	"github.com/jbrulmans/uhasselt-ical/internal/modules/filter"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/input"
	"github.com/jbrulmans/uhasselt-ical/internal/modules/output"
	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// InputConstructor creates an input module reading from path.
type InputConstructor func(path string) (input.Module, error)

// FilterConstructor creates a filter module from configuration.
// The constructor receives the filter's index in the profile for error messages.
type FilterConstructor func(cfg profile.FilterConfig, index int) (filter.Module, error)

// OutputConstructor creates an output module writing to path.
type OutputConstructor func(path string) (output.Module, error)

var (
	inputMu       sync.RWMutex
	inputRegistry = make(map[string]InputConstructor)
)

var (
	filterMu       sync.RWMutex
	filterRegistry = make(map[string]FilterConstructor)
)

var (
	outputMu       sync.RWMutex
	outputRegistry = make(map[string]OutputConstructor)
)

// RegisterInput registers an input module constructor by type string.
// Registering an existing type overwrites the previous constructor.
func RegisterInput(moduleType string, constructor InputConstructor) {
	inputMu.Lock()
	defer inputMu.Unlock()
	inputRegistry[moduleType] = constructor
}

// RegisterFilter registers a filter module constructor by type string.
// Registering an existing type overwrites the previous constructor.
func RegisterFilter(moduleType string, constructor FilterConstructor) {
	filterMu.Lock()
	defer filterMu.Unlock()
	filterRegistry[moduleType] = constructor
}

// RegisterOutput registers an output module constructor by type string.
// Registering an existing type overwrites the previous constructor.
func RegisterOutput(moduleType string, constructor OutputConstructor) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputRegistry[moduleType] = constructor
}

// GetInputConstructor returns the registered constructor for an input module type,
// or nil if none is registered.
func GetInputConstructor(moduleType string) InputConstructor {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return inputRegistry[moduleType]
}

// GetFilterConstructor returns the registered constructor for a filter module type,
// or nil if none is registered.
func GetFilterConstructor(moduleType string) FilterConstructor {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return filterRegistry[moduleType]
}

// GetOutputConstructor returns the registered constructor for an output module type,
// or nil if none is registered.
func GetOutputConstructor(moduleType string) OutputConstructor {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return outputRegistry[moduleType]
}

// ListInputTypes returns all registered input module type names, sorted.
func ListInputTypes() []string {
	inputMu.RLock()
	defer inputMu.RUnlock()
	return sortedKeys(inputRegistry)
}

// ListFilterTypes returns all registered filter module type names, sorted.
func ListFilterTypes() []string {
	filterMu.RLock()
	defer filterMu.RUnlock()
	return sortedKeys(filterRegistry)
}

// ListOutputTypes returns all registered output module type names, sorted.
func ListOutputTypes() []string {
	outputMu.RLock()
	defer outputMu.RUnlock()
	return sortedKeys(outputRegistry)
}

func sortedKeys[V any](m map[string]V) []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ClearRegistries removes all registered constructors.
// This is intended for testing purposes only.
func ClearRegistries() {
	inputMu.Lock()
	inputRegistry = make(map[string]InputConstructor)
	inputMu.Unlock()

	filterMu.Lock()
	filterRegistry = make(map[string]FilterConstructor)
	filterMu.Unlock()

	outputMu.Lock()
	outputRegistry = make(map[string]OutputConstructor)
	outputMu.Unlock()
}
