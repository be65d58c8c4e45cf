// Package config decodes the graph and fault YAML schemas that drive a
// faultsim run. It only knows the single-file schema described by the
// simulator's data model; merging subsystem files together is left to
// whatever produced the file this package reads.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Lo, Hi] integer bound, written in YAML as a
// two-element sequence: `value_range: [5, 10]`.
type Range struct {
	Lo int
	Hi int
}

// UnmarshalYAML decodes a two-element sequence into Lo/Hi and rejects
// malformed or out-of-order bounds.
func (r *Range) UnmarshalYAML(value *yaml.Node) error {
	var arr []int
	if err := value.Decode(&arr); err != nil {
		return fmt.Errorf("range: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("range: expected exactly 2 elements, got %d", len(arr))
	}
	if arr[0] > arr[1] {
		return fmt.Errorf("range: lo (%d) must not exceed hi (%d)", arr[0], arr[1])
	}
	r.Lo, r.Hi = arr[0], arr[1]
	return nil
}

// PublishSpec samples a value and a delivery delay for one publication.
type PublishSpec struct {
	Topic      string `yaml:"topic"`
	ValueRange Range  `yaml:"value_range"`
	DelayRange Range  `yaml:"delay_range"`
}

// FaultDirective is a callback-produced publish-side fault: either a drop
// count or a value override with a count, never both.
type FaultDirective struct {
	Topic string `yaml:"topic"`
	Drop  *int   `yaml:"drop,omitempty"`
	Value *int   `yaml:"value,omitempty"`
	Count *int   `yaml:"count,omitempty"`
}

// IsDrop reports whether this directive is a drop (as opposed to an
// override).
func (f *FaultDirective) IsDrop() bool {
	return f.Drop != nil
}

// Callback is the tagged-variant "callback as data" slot: it either
// publishes a list of messages or installs a publish-side fault, never
// both and never neither.
type Callback struct {
	Publish []PublishSpec   `yaml:"publish,omitempty"`
	Fault   *FaultDirective `yaml:"fault,omitempty"`
}

// Subscribe is one subscription entry on a node.
type Subscribe struct {
	Topic                string    `yaml:"topic"`
	ValidRange           Range     `yaml:"valid_range"`
	Watchdog             int       `yaml:"watchdog"`
	NominalCallback      *Callback `yaml:"nominal_callback,omitempty"`
	InvalidInputCallback *Callback `yaml:"invalid_input_callback,omitempty"`
	LostInputCallback    *Callback `yaml:"lost_input_callback,omitempty"`
}

// Loop is a node's periodic publish behavior.
type Loop struct {
	Period  int           `yaml:"period"`
	Publish []PublishSpec `yaml:"publish"`
}

// Node is one entry in the graph config's node list.
type Node struct {
	Name      string      `yaml:"name"`
	Loop      *Loop       `yaml:"loop,omitempty"`
	Subscribe []Subscribe `yaml:"subscribe,omitempty"`
}

// Graph is the top-level graph config: an ordered list of nodes. Node
// declaration order is significant — it fixes the node indices used
// throughout the run and in the output files.
type Graph struct {
	Nodes []Node `yaml:"nodes"`
}

// AffectPublish is the publish-side variant of an injected fault.
type AffectPublish struct {
	Topic string `yaml:"topic"`
	Drop  *int   `yaml:"drop,omitempty"`
	Value *int   `yaml:"value,omitempty"`
	Count *int   `yaml:"count,omitempty"`
}

// AffectReceive is the receive-side variant of an injected fault.
type AffectReceive struct {
	Topic string `yaml:"topic"`
	Delay int    `yaml:"delay"`
}

// Fault is the externally supplied, once-per-run injected fault.
type Fault struct {
	InjectTo      string         `yaml:"inject_to"`
	InjectAt      int            `yaml:"inject_at"`
	AffectPublish *AffectPublish `yaml:"affect_publish,omitempty"`
	AffectReceive *AffectReceive `yaml:"affect_receive,omitempty"`
}
