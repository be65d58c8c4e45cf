package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadGraph reads and decodes a graph config file, rejecting an empty
// node list, any loop period below 1, and any negative watchdog.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph config %s: %w", path, err)
	}

	var g Graph
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse graph config %s: %w", path, err)
	}

	if len(g.Nodes) == 0 {
		return nil, &ValidationError{Path: path, Field: "nodes", Message: ErrEmptyGraph.Error()}
	}

	for _, n := range g.Nodes {
		if n.Loop != nil && n.Loop.Period < 1 {
			return nil, &ValidationError{
				Path: path, Field: fmt.Sprintf("nodes[%s].loop.period", n.Name),
				Message: fmt.Sprintf("period must be >= 1, got %d", n.Loop.Period),
			}
		}
		for _, s := range n.Subscribe {
			if s.Watchdog < 0 {
				return nil, &ValidationError{
					Path: path, Field: fmt.Sprintf("nodes[%s].subscribe[%s].watchdog", n.Name, s.Topic),
					Message: fmt.Sprintf("watchdog must be >= 0, got %d", s.Watchdog),
				}
			}
		}
	}

	return &g, nil
}

// LoadFault reads and decodes a fault config file. Exactly one of
// AffectPublish/AffectReceive must be set.
func LoadFault(path string) (*Fault, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fault config %s: %w", path, err)
	}

	var f Fault
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fault config %s: %w", path, err)
	}

	if f.InjectTo == "" {
		return nil, &ValidationError{Path: path, Field: "inject_to", Message: "must not be empty"}
	}
	if f.InjectAt < 0 {
		return nil, &ValidationError{Path: path, Field: "inject_at", Message: "must be >= 0"}
	}
	if f.AffectPublish == nil && f.AffectReceive == nil {
		return nil, &ValidationError{Path: path, Field: "affect_publish/affect_receive", Message: ErrMissingFaultTarget.Error()}
	}
	if f.AffectPublish != nil && f.AffectReceive != nil {
		return nil, &ValidationError{Path: path, Field: "affect_publish/affect_receive", Message: "exactly one of affect_publish, affect_receive is allowed"}
	}
	if f.AffectPublish != nil {
		ap := f.AffectPublish
		if ap.Drop == nil && ap.Value == nil {
			return nil, &ValidationError{Path: path, Field: "affect_publish", Message: "must set either drop or value+count"}
		}
		if ap.Value != nil && ap.Count == nil {
			return nil, &ValidationError{Path: path, Field: "affect_publish.count", Message: "required when value is set"}
		}
	}
	if f.AffectReceive != nil && f.AffectReceive.Delay < 0 {
		return nil, &ValidationError{Path: path, Field: "affect_receive.delay", Message: "must be >= 0"}
	}

	return &f, nil
}
