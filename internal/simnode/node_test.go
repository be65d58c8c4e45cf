package simnode

import (
	"testing"

	"faultsim/internal/config"
	"faultsim/internal/rng"
	"faultsim/internal/simbus"
)

func newTestEnv(topics map[string][]int, nodes []*Node) *Env {
	return &Env{
		Bus:    simbus.New(),
		RNG:    rng.New(1),
		Topics: topics,
		Nodes:  nodes,
	}
}

func subNode(watchdog int) *Node {
	cfg := config.Node{
		Name: "B",
		Subscribe: []config.Subscribe{
			{Topic: "topic1", ValidRange: config.Range{Lo: 0, Hi: 10}, Watchdog: watchdog},
		},
	}
	return New(1, cfg)
}

func TestReceiveClassifiesNominalAndInvalid(t *testing.T) {
	t.Parallel()

	n := subNode(20)
	env := newTestEnv(nil, []*Node{nil, n})

	n.Receive(env, "topic1", 5)
	if n.invalidCount != 0 {
		t.Fatalf("invalidCount = %d, want 0 for in-range value", n.invalidCount)
	}

	n.Receive(env, "topic1", 100)
	if n.invalidCount != 1 {
		t.Fatalf("invalidCount = %d, want 1 for out-of-range value", n.invalidCount)
	}

	fv := n.Snapshot(0)
	if fv[4] != 100 {
		t.Fatalf("last received value = %d, want 100 (most recent)", fv[4])
	}
}

func TestEmptyValueRangeClassifiesOnlyExactMatchNominal(t *testing.T) {
	t.Parallel()

	cfg := config.Node{
		Name: "B",
		Subscribe: []config.Subscribe{
			{Topic: "topic1", ValidRange: config.Range{Lo: 7, Hi: 7}, Watchdog: 5},
		},
	}
	n := New(0, cfg)
	env := newTestEnv(nil, []*Node{n})

	n.Receive(env, "topic1", 7)
	if n.invalidCount != 0 {
		t.Fatal("value 7 against range [7,7] must be nominal")
	}
	n.Receive(env, "topic1", 8)
	if n.invalidCount != 1 {
		t.Fatal("value 8 against range [7,7] must be invalid")
	}
}

func TestWatchdogFiresOnceOnEdge(t *testing.T) {
	t.Parallel()

	n := subNode(3)
	env := newTestEnv(nil, []*Node{nil, n})

	n.Receive(env, "topic1", 1) // arms the watchdog, resets counter to 0

	for tick := 1; tick <= 6; tick++ {
		n.WatchdogTick(env)
	}

	if n.lostCount != 1 {
		t.Fatalf("lostCount = %d, want exactly 1 (fire-on-edge, not every tick)", n.lostCount)
	}
}

func TestWatchdogNeverFiresBeforeFirstReceive(t *testing.T) {
	t.Parallel()

	n := subNode(1)
	env := newTestEnv(nil, []*Node{nil, n})

	for tick := 0; tick < 10; tick++ {
		n.WatchdogTick(env)
	}
	if n.lostCount != 0 {
		t.Fatalf("lostCount = %d, want 0 when no message was ever received", n.lostCount)
	}
}

func TestWatchdogRearmsAfterReceive(t *testing.T) {
	t.Parallel()

	n := subNode(2)
	env := newTestEnv(nil, []*Node{nil, n})

	n.Receive(env, "topic1", 1)
	for i := 0; i < 3; i++ {
		n.WatchdogTick(env) // fires once at the 3rd tick (2+1)
	}
	if n.lostCount != 1 {
		t.Fatalf("lostCount = %d, want 1 after first gap", n.lostCount)
	}

	n.Receive(env, "topic1", 2) // rearm
	for i := 0; i < 3; i++ {
		n.WatchdogTick(env)
	}
	if n.lostCount != 2 {
		t.Fatalf("lostCount = %d, want 2 after second gap", n.lostCount)
	}
}

func TestPublishAppliesDropFault(t *testing.T) {
	t.Parallel()

	cfg := config.Node{
		Name: "A",
		Loop: &config.Loop{
			Period: 10,
			Publish: []config.PublishSpec{
				{Topic: "topic1", ValueRange: config.Range{Lo: 5, Hi: 5}, DelayRange: config.Range{Lo: 0, Hi: 0}},
			},
		},
	}
	n := New(0, cfg)
	sub := New(1, config.Node{Name: "B"})
	env := newTestEnv(map[string][]int{"topic1": {1}}, []*Node{n, sub})

	n.installPublishFault(&config.FaultDirective{Topic: "topic1", Drop: intPtr(1)})

	n.RunLoop(env) // suppressed
	if n.publishCount != 0 {
		t.Fatalf("publishCount = %d, want 0 (suppressed)", n.publishCount)
	}
	if env.Bus.Pending() {
		t.Fatal("suppressed publish must not schedule a delivery")
	}

	n.RunLoop(env) // fault expired after 1, resumes
	if n.publishCount != 1 {
		t.Fatalf("publishCount = %d, want 1 after fault expiry", n.publishCount)
	}
}

func intPtr(v int) *int { return &v }
