package config

import (
	"fmt"

	"github.com/jbrulmans/uhasselt-ical/pkg/profile"
)

// ConvertToProfile converts validated profile data to a profile.Profile.
//
// The data is expected to have this structure:
//
//	name: my timetable
//	input: timetable.ics
//	output: courses.ics
//	courses: [Algorithms, Databases]
//	keepTimezones: true
//	dryRun: false
//	filters:
//	  - type: condition
//	    expression: status != "CANCELLED"
//	  - type: script
//	    scriptFile: filters/lectures.js
func ConvertToProfile(data map[string]interface{}) (*profile.Profile, error) {
	if data == nil {
		return nil, fmt.Errorf("profile data is nil")
	}

	p := &profile.Profile{}

	input, ok := data["input"].(string)
	if !ok {
		return nil, fmt.Errorf("missing required field 'input'")
	}
	p.Input = input

	coursesData, ok := data["courses"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("missing required field 'courses'")
	}
	for i, item := range coursesData {
		course, isString := item.(string)
		if !isString {
			return nil, fmt.Errorf("course at index %d: expected string, got %T", i, item)
		}
		p.Courses = append(p.Courses, course)
	}

	if name, ok := data["name"].(string); ok {
		p.Name = name
	}
	if output, ok := data["output"].(string); ok {
		p.Output = output
	}
	if keep, ok := data["keepTimezones"].(bool); ok {
		p.KeepTimezones = keep
	}
	if dryRun, ok := data["dryRun"].(bool); ok {
		p.DryRun = dryRun
	}

	if filtersData, ok := data["filters"].([]interface{}); ok {
		for i, filterData := range filtersData {
			filterMap, isMap := filterData.(map[string]interface{})
			if !isMap {
				return nil, fmt.Errorf("invalid filter at index %d", i)
			}
			filterConfig, err := convertFilterConfig(filterMap)
			if err != nil {
				return nil, fmt.Errorf("invalid filter at index %d: %w", i, err)
			}
			p.Filters = append(p.Filters, filterConfig)
		}
	}

	return p, nil
}

// convertFilterConfig moves every key except 'type' into the filter's Config.
func convertFilterConfig(data map[string]interface{}) (profile.FilterConfig, error) {
	cfg := profile.FilterConfig{Config: make(map[string]interface{})}

	filterType, ok := data["type"].(string)
	if !ok {
		return cfg, fmt.Errorf("missing required field 'type'")
	}
	cfg.Type = filterType

	for key, value := range data {
		if key != "type" {
			cfg.Config[key] = value
		}
	}
	return cfg, nil
}
