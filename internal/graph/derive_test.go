package graph

import (
	"errors"
	"testing"

	"faultsim/internal/config"
)

func simpleGraph() *config.Graph {
	return &config.Graph{
		Nodes: []config.Node{
			{
				Name: "A",
				Loop: &config.Loop{
					Period: 10,
					Publish: []config.PublishSpec{
						{Topic: "topic1", ValueRange: config.Range{Lo: 5, Hi: 5}, DelayRange: config.Range{Lo: 0, Hi: 0}},
					},
				},
			},
			{
				Name: "B",
				Subscribe: []config.Subscribe{
					{Topic: "topic1", ValidRange: config.Range{Lo: 0, Hi: 10}, Watchdog: 20},
				},
			},
		},
	}
}

func TestBuildDerivesEdgesAndIndices(t *testing.T) {
	t.Parallel()

	d, err := Build(simpleGraph())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if d.NodeIndex["A"] != 0 || d.NodeIndex["B"] != 1 {
		t.Fatalf("NodeIndex = %+v, want A=0 B=1", d.NodeIndex)
	}
	if d.TopicPublisher["topic1"] != 0 {
		t.Fatalf("TopicPublisher[topic1] = %d, want 0", d.TopicPublisher["topic1"])
	}
	if len(d.Edges) != 1 || d.Edges[0] != (Edge{Publisher: 0, Subscriber: 1}) {
		t.Fatalf("Edges = %+v, want single edge 0->1", d.Edges)
	}
}

func TestBuildRejectsDuplicatePublisher(t *testing.T) {
	t.Parallel()

	g := simpleGraph()
	g.Nodes = append(g.Nodes, config.Node{
		Name: "C",
		Loop: &config.Loop{
			Period: 1,
			Publish: []config.PublishSpec{
				{Topic: "topic1", ValueRange: config.Range{Lo: 1, Hi: 1}, DelayRange: config.Range{Lo: 0, Hi: 0}},
			},
		},
	})

	_, err := Build(g)
	if !errors.Is(err, ErrDuplicatePublisher) {
		t.Fatalf("Build() error = %v, want ErrDuplicatePublisher", err)
	}
}

func TestBuildRejectsMissingPublisher(t *testing.T) {
	t.Parallel()

	g := &config.Graph{
		Nodes: []config.Node{
			{
				Name: "B",
				Subscribe: []config.Subscribe{
					{Topic: "ghost", ValidRange: config.Range{Lo: 0, Hi: 1}, Watchdog: 1},
				},
			},
		},
	}

	_, err := Build(g)
	if !errors.Is(err, ErrMissingPublisher) {
		t.Fatalf("Build() error = %v, want ErrMissingPublisher", err)
	}
}

func TestResolveFaultTarget(t *testing.T) {
	t.Parallel()

	d, err := Build(simpleGraph())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	drop := 1
	tests := []struct {
		name    string
		fault   *config.Fault
		wantIdx int
		wantErr bool
	}{
		{
			name: "publish fault on owned topic",
			fault: &config.Fault{InjectTo: "A", InjectAt: 5,
				AffectPublish: &config.AffectPublish{Topic: "topic1", Drop: &drop}},
			wantIdx: 0,
		},
		{
			name: "receive fault on known topic",
			fault: &config.Fault{InjectTo: "B", InjectAt: 5,
				AffectReceive: &config.AffectReceive{Topic: "topic1", Delay: 3}},
			wantIdx: 1,
		},
		{
			name: "unknown node",
			fault: &config.Fault{InjectTo: "ghost", InjectAt: 5,
				AffectReceive: &config.AffectReceive{Topic: "topic1", Delay: 3}},
			wantErr: true,
		},
		{
			name: "publish fault on topic the node does not publish",
			fault: &config.Fault{InjectTo: "B", InjectAt: 5,
				AffectPublish: &config.AffectPublish{Topic: "topic1", Drop: &drop}},
			wantErr: true,
		},
		{
			name: "receive fault on unknown topic",
			fault: &config.Fault{InjectTo: "B", InjectAt: 5,
				AffectReceive: &config.AffectReceive{Topic: "ghost", Delay: 3}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			idx, err := d.ResolveFaultTarget(tt.fault)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveFaultTarget() error = %v", err)
			}
			if idx != tt.wantIdx {
				t.Fatalf("idx = %d, want %d", idx, tt.wantIdx)
			}
		})
	}
}

func TestBuildCollectsCallbackPublishedTopics(t *testing.T) {
	t.Parallel()

	g := &config.Graph{
		Nodes: []config.Node{
			{
				Name: "A",
				Loop: &config.Loop{
					Period: 10,
					Publish: []config.PublishSpec{
						{Topic: "topic1", ValueRange: config.Range{Lo: 100, Hi: 100}, DelayRange: config.Range{Lo: 0, Hi: 0}},
					},
				},
			},
			{
				Name: "B",
				Subscribe: []config.Subscribe{
					{
						Topic:      "topic1",
						ValidRange: config.Range{Lo: 0, Hi: 10},
						Watchdog:   5,
						InvalidInputCallback: &config.Callback{
							Publish: []config.PublishSpec{
								{Topic: "topic2", ValueRange: config.Range{Lo: 1, Hi: 1}, DelayRange: config.Range{Lo: 0, Hi: 0}},
							},
						},
					},
				},
			},
			{
				Name: "C",
				Subscribe: []config.Subscribe{
					{Topic: "topic2", ValidRange: config.Range{Lo: 0, Hi: 5}, Watchdog: 5},
				},
			},
		},
	}

	d, err := Build(g)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if d.TopicPublisher["topic2"] != 1 {
		t.Fatalf("TopicPublisher[topic2] = %d, want 1 (B)", d.TopicPublisher["topic2"])
	}
}
