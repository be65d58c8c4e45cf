// Package graph derives the publisher/subscriber edge structure from a
// validated graph config: node indices, the topic-to-publisher map, and
// the per-topic subscriber lists the executor and node runtime need.
package graph

import (
	"errors"
	"fmt"

	"faultsim/internal/config"
)

// ErrDuplicatePublisher is returned when two nodes both declare a
// publication on the same topic.
var ErrDuplicatePublisher = errors.New("topic has more than one publisher")

// ErrMissingPublisher is returned when a node subscribes to a topic that
// no node publishes.
var ErrMissingPublisher = errors.New("subscribed topic has no publisher")

// Edge is a directed publisher -> subscriber edge, indexed by declaration
// order.
type Edge struct {
	Publisher  int
	Subscriber int
}

// Derived holds the graph structure computed once at load time and held
// immutable for the run.
type Derived struct {
	Nodes            []config.Node
	NodeIndex        map[string]int
	TopicPublisher   map[string]int
	TopicSubscribers map[string][]int
	Edges            []Edge
}

// Build validates the single-publisher-per-topic invariant and derives
// the edge set. It is a configuration error (not a runtime one) for a
// topic to have zero or more than one publisher.
func Build(g *config.Graph) (*Derived, error) {
	d := &Derived{
		Nodes:            g.Nodes,
		NodeIndex:        make(map[string]int, len(g.Nodes)),
		TopicPublisher:   make(map[string]int),
		TopicSubscribers: make(map[string][]int),
	}

	for i, n := range g.Nodes {
		d.NodeIndex[n.Name] = i
	}

	for i, n := range g.Nodes {
		for _, topic := range publishedTopics(n) {
			if existing, ok := d.TopicPublisher[topic]; ok && existing != i {
				return nil, fmt.Errorf("%w: topic %q published by both %q and %q",
					ErrDuplicatePublisher, topic, g.Nodes[existing].Name, n.Name)
			}
			d.TopicPublisher[topic] = i
		}
	}

	for i, n := range g.Nodes {
		for _, s := range n.Subscribe {
			if _, ok := d.TopicPublisher[s.Topic]; !ok {
				return nil, fmt.Errorf("%w: topic %q subscribed by %q", ErrMissingPublisher, s.Topic, n.Name)
			}
			d.TopicSubscribers[s.Topic] = append(d.TopicSubscribers[s.Topic], i)
			d.Edges = append(d.Edges, Edge{Publisher: d.TopicPublisher[s.Topic], Subscriber: i})
		}
	}

	return d, nil
}

// publishedTopics collects every topic a node declares it can publish on:
// its loop's publish list plus every publish list attached to any of its
// subscriptions' callbacks.
func publishedTopics(n config.Node) []string {
	var topics []string
	if n.Loop != nil {
		for _, p := range n.Loop.Publish {
			topics = append(topics, p.Topic)
		}
	}
	for _, s := range n.Subscribe {
		for _, cb := range []*config.Callback{s.NominalCallback, s.InvalidInputCallback, s.LostInputCallback} {
			if cb == nil {
				continue
			}
			for _, p := range cb.Publish {
				topics = append(topics, p.Topic)
			}
		}
	}
	return topics
}

// ResolveFaultTarget validates that a fault's target node and topic exist
// in the derived graph, so a dangling reference surfaces at load time
// instead of at the injection tick.
func (d *Derived) ResolveFaultTarget(f *config.Fault) (nodeIndex int, err error) {
	idx, ok := d.NodeIndex[f.InjectTo]
	if !ok {
		return 0, fmt.Errorf("fault targets unknown node %q", f.InjectTo)
	}
	switch {
	case f.AffectPublish != nil:
		pub, ok := d.TopicPublisher[f.AffectPublish.Topic]
		if !ok || pub != idx {
			return 0, fmt.Errorf("fault affect_publish targets topic %q which %q does not publish", f.AffectPublish.Topic, f.InjectTo)
		}
	case f.AffectReceive != nil:
		if _, ok := d.TopicPublisher[f.AffectReceive.Topic]; !ok {
			return 0, fmt.Errorf("fault affect_receive targets unknown topic %q", f.AffectReceive.Topic)
		}
	}
	return idx, nil
}
