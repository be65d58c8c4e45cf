package simnode

// Snapshot returns the 9-dimensional integer feature vector for this node
// at the given tick. Column semantics must stay stable across a run
// because the downstream datasets key on them; index 3 is the
// authoritative per-row timestamp.
func (n *Node) Snapshot(tick int) [9]int {
	var category int
	if n.HasLoop() && len(n.cfg.Subscribe) == 0 {
		category = 0
	} else {
		category = 1
	}

	pastWatchdog := 0
	for i := range n.cfg.Subscribe {
		sub := &n.cfg.Subscribe[i]
		if n.armed[sub.Topic] && n.ticksSince[sub.Topic] > sub.Watchdog {
			pastWatchdog++
		}
	}

	lastReceived := 0
	if n.hasReceivedAny {
		lastReceived = n.lastReceivedValue
	}

	return [9]int{
		category,
		len(n.cfg.Subscribe),
		n.lastPublishedValue,
		tick,
		lastReceived,
		pastWatchdog,
		n.publishCount,
		n.invalidCount,
		n.lostCount,
	}
}
