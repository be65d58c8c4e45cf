// Package simnode implements the per-node state machine: watchdogs,
// last-received values per topic, the periodic loop, and dispatch of
// nominal / invalid-input / lost-input callbacks.
package simnode

import (
	"faultsim/internal/config"
	"faultsim/internal/rng"
	"faultsim/internal/simbus"
	"faultsim/internal/simfault"
)

// Env is the shared, executor-owned context every node operation reads
// and writes through: the bus, the single seeded RNG, the current tick,
// and each topic's subscriber list.
type Env struct {
	Bus    *simbus.Bus
	RNG    *rng.Source
	Tick   int
	Topics map[string][]int // topic -> subscriber node indices
	Nodes  []*Node          // all nodes, indexed by declaration order
}

// Node is one running node's state. All fields are owned by the node and
// mutated only during its own receipt, loop, or watchdog step.
type Node struct {
	Index int
	Name  string

	cfg        config.Node
	subByTopic map[string]*config.Subscribe

	lastValue  map[string]int
	hasValue   map[string]bool
	ticksSince map[string]int
	armed      map[string]bool

	nextLoopTick int

	overlay *simfault.Overlay

	lastReceivedValue int
	hasReceivedAny    bool

	lastPublishedValue int
	publishCount       int
	invalidCount       int
	lostCount          int
}

// New builds a fresh Node from its declared config, indexed by index.
func New(index int, cfg config.Node) *Node {
	n := &Node{
		Index:      index,
		Name:       cfg.Name,
		cfg:        cfg,
		subByTopic: make(map[string]*config.Subscribe, len(cfg.Subscribe)),
		lastValue:  make(map[string]int, len(cfg.Subscribe)),
		hasValue:   make(map[string]bool, len(cfg.Subscribe)),
		ticksSince: make(map[string]int, len(cfg.Subscribe)),
		armed:      make(map[string]bool, len(cfg.Subscribe)),
		overlay:    simfault.NewOverlay(),
	}
	for i := range cfg.Subscribe {
		n.subByTopic[cfg.Subscribe[i].Topic] = &cfg.Subscribe[i]
	}
	return n
}

// HasLoop reports whether this node has a periodic publish loop.
func (n *Node) HasLoop() bool {
	return n.cfg.Loop != nil
}

// DueToFire reports whether the node's loop fires at tick.
func (n *Node) DueToFire(tick int) bool {
	return n.HasLoop() && n.nextLoopTick == tick
}

// RunLoop executes the node's periodic publish list and reschedules the
// next firing.
func (n *Node) RunLoop(env *Env) {
	loop := n.cfg.Loop
	for _, spec := range loop.Publish {
		n.publish(env, spec)
	}
	n.nextLoopTick += loop.Period
}

// Receive processes one delivered message: updates observables, classifies
// it nominal/invalid, and dispatches the matching callback.
func (n *Node) Receive(env *Env, topic string, value int) {
	n.ticksSince[topic] = 0
	n.armed[topic] = true
	n.lastValue[topic] = value
	n.hasValue[topic] = true
	n.lastReceivedValue = value
	n.hasReceivedAny = true

	sub, ok := n.subByTopic[topic]
	if !ok {
		return
	}

	if value >= sub.ValidRange.Lo && value <= sub.ValidRange.Hi {
		n.dispatch(env, sub.NominalCallback)
		return
	}

	n.invalidCount++
	n.dispatch(env, sub.InvalidInputCallback)
}

// WatchdogTick advances every armed subscription's gap counter by one
// tick and fires lost-input on the tick the gap first strictly exceeds
// the watchdog threshold (fire-on-edge, rearmed by the next receive).
func (n *Node) WatchdogTick(env *Env) {
	for i := range n.cfg.Subscribe {
		sub := &n.cfg.Subscribe[i]
		if !n.armed[sub.Topic] {
			continue
		}
		n.ticksSince[sub.Topic]++
		if n.ticksSince[sub.Topic] == sub.Watchdog+1 {
			n.lostCount++
			n.dispatch(env, sub.LostInputCallback)
		}
	}
}

// dispatch runs a callback: a publish list publishes each spec in order,
// a fault directive installs a publish-side fault on this node.
func (n *Node) dispatch(env *Env, cb *config.Callback) {
	if cb == nil {
		return
	}
	if cb.Fault != nil {
		n.installPublishFault(cb.Fault)
		return
	}
	for _, spec := range cb.Publish {
		n.publish(env, spec)
	}
}

// installPublishFault installs a callback-produced publish-side fault,
// always targeting this same node.
func (n *Node) installPublishFault(fd *config.FaultDirective) {
	if fd.IsDrop() {
		n.overlay.InstallPublish(fd.Topic, simfault.NewDrop(*fd.Drop))
		return
	}
	count := 0
	if fd.Count != nil {
		count = *fd.Count
	}
	n.overlay.InstallPublish(fd.Topic, simfault.NewOverride(*fd.Value, count))
}

// InstallPublishFault installs an externally injected publish-side fault.
func (n *Node) InstallPublishFault(topic string, f simfault.PublishFault) {
	n.overlay.InstallPublish(topic, f)
}

// InstallReceiveDelay installs an externally injected receive-side delay
// override for topic.
func (n *Node) InstallReceiveDelay(topic string, delay int) {
	n.overlay.InstallReceiveDelay(topic, delay)
}

// publish samples a value and delay, consults the publish-side fault
// overlay, and schedules a delivery to every subscriber of the topic.
func (n *Node) publish(env *Env, spec config.PublishSpec) {
	sampled := env.RNG.Range(spec.ValueRange.Lo, spec.ValueRange.Hi)
	delay := env.RNG.Range(spec.DelayRange.Lo, spec.DelayRange.Hi)

	value, suppressed := n.overlay.ApplyPublish(spec.Topic, sampled)
	if suppressed {
		return
	}

	n.lastPublishedValue = value
	n.publishCount++

	for _, subIdx := range env.Topics[spec.Topic] {
		extra := env.Nodes[subIdx].overlay.ReceiveDelay(spec.Topic)
		env.Bus.Schedule(env.Tick+delay+extra, subIdx, spec.Topic, value)
	}
}
