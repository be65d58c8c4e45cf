// Package simexec implements the deterministic tick loop: it advances
// simulated time, fires due loops, delivers due messages, ticks
// watchdogs, and invokes the fault overlay and feature recorder at the
// right points in each tick.
package simexec

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"faultsim/internal/config"
	"faultsim/internal/graph"
	"faultsim/internal/rng"
	"faultsim/internal/simbus"
	"faultsim/internal/simfault"
	"faultsim/internal/simnode"
	"faultsim/internal/telemetry"
)

// Snapshotter receives one per-tick, per-node feature vector. The
// feature recorder and/or the terminal visualizer implement this.
type Snapshotter interface {
	Snapshot(tick int, nodes []*simnode.Node)
}

// Executor runs the tick loop over a derived graph.
type Executor struct {
	nodes []*simnode.Node
	env   *simnode.Env

	fault        *config.Fault
	faultNodeIdx int
	faultApplied bool

	tracer trace.Tracer
	logger *slog.Logger
	onTick []Snapshotter

	delivered int
}

// New builds an Executor for derived, optionally with a single injected
// fault. seed drives the one shared RNG. tracer may be nil, in which
// case tick spans are no-ops. logger must not be nil: no slog.Default()
// logger is substituted here, matching how the rest of this codebase
// threads dependencies explicitly.
func New(derived *graph.Derived, fault *config.Fault, seed int64, tracer trace.Tracer, logger *slog.Logger) (*Executor, error) {
	nodes := make([]*simnode.Node, len(derived.Nodes))
	for i, cfg := range derived.Nodes {
		nodes[i] = simnode.New(i, cfg)
	}

	env := &simnode.Env{
		Bus:    simbus.New(),
		RNG:    rng.New(seed),
		Topics: derived.TopicSubscribers,
		Nodes:  nodes,
	}

	e := &Executor{
		nodes:  nodes,
		env:    env,
		fault:  fault,
		tracer: tracer,
		logger: logger,
	}

	if fault != nil {
		idx, err := derived.ResolveFaultTarget(fault)
		if err != nil {
			return nil, fmt.Errorf("resolve injected fault: %w", err)
		}
		e.faultNodeIdx = idx
	}

	return e, nil
}

// Attach registers a Snapshotter to receive every tick's feature vectors.
func (e *Executor) Attach(s Snapshotter) {
	e.onTick = append(e.onTick, s)
}

// FaultNodeIndex returns the declaration index of the node the injected
// fault targets (valid only when a fault was configured).
func (e *Executor) FaultNodeIndex() int {
	return e.faultNodeIdx
}

// Nodes returns the executor's nodes in declaration order.
func (e *Executor) Nodes() []*simnode.Node {
	return e.nodes
}

// Run advances the tick loop from 0 to stopTick inclusive.
func (e *Executor) Run(ctx context.Context, stopTick int) error {
	for tick := 0; tick <= stopTick; tick++ {
		_, span := telemetry.StartTick(ctx, e.tracer, tick)

		if e.fault != nil && !e.faultApplied && tick == e.fault.InjectAt {
			e.applyFault()
			span.Event("fault.injected")
			e.logger.Info("fault injected", "node", e.nodes[e.faultNodeIdx].Name, "tick", tick)
		}

		e.env.Tick = tick
		e.drainDue(tick)

		for _, n := range e.nodes {
			if !n.DueToFire(tick) {
				continue
			}
			n.RunLoop(e.env)
			// Deliver zero-delay publications from this loop (and any
			// callback cascade they trigger) before a later node's loop
			// fires, so receipts always precede the recipient's own loop
			// within the tick.
			e.drainDue(tick)
		}

		for _, n := range e.nodes {
			n.WatchdogTick(e.env)
		}

		for _, s := range e.onTick {
			s.Snapshot(tick, e.nodes)
		}

		span.End(nil)
		e.logger.Debug("tick complete", "tick", tick, "delivered", e.delivered)
	}

	e.logger.Info("run complete", "stop_tick", stopTick, "node_count", len(e.nodes), "deliveries", e.delivered)
	return nil
}

// drainDue repeatedly drains and delivers every due message until none
// remain for the current tick. Looping until the bus is quiet is what
// lets a delay=0 publication made during this tick's own processing be
// received within the same tick.
func (e *Executor) drainDue(tick int) {
	for {
		batch := e.env.Bus.DrainDue(tick)
		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			e.nodes[d.Subscriber].Receive(e.env, d.Topic, d.Value)
		}
		e.delivered += len(batch)
	}
}

func (e *Executor) applyFault() {
	target := e.nodes[e.faultNodeIdx]
	switch {
	case e.fault.AffectPublish != nil:
		ap := e.fault.AffectPublish
		if ap.Drop != nil {
			target.InstallPublishFault(ap.Topic, simfault.NewDrop(*ap.Drop))
		} else {
			count := 0
			if ap.Count != nil {
				count = *ap.Count
			}
			target.InstallPublishFault(ap.Topic, simfault.NewOverride(*ap.Value, count))
		}
	case e.fault.AffectReceive != nil:
		target.InstallReceiveDelay(e.fault.AffectReceive.Topic, e.fault.AffectReceive.Delay)
	}
	e.faultApplied = true
}
