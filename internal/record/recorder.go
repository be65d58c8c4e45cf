// Package record implements the feature recorder (C5): the per-tick,
// per-node feature vector snapshot, plus the edge-index and fault-label
// outputs emitted once at termination.
package record

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"faultsim/internal/graph"
	"faultsim/internal/simnode"
)

// Recorder writes one CSV row per tick to the node-feature output file.
// Each row is the concatenation of every node's "name,f0..f8" record, in
// declaration order.
type Recorder struct {
	f *os.File
	w *csv.Writer
}

// NewRecorder opens path for the node-feature output.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create node feature output %s: %w", path, err)
	}
	return &Recorder{f: f, w: csv.NewWriter(f)}, nil
}

// Snapshot implements simexec.Snapshotter: it writes one row containing
// every node's feature vector at tick.
func (r *Recorder) Snapshot(tick int, nodes []*simnode.Node) {
	record := make([]string, 0, len(nodes)*10)
	for _, n := range nodes {
		fv := n.Snapshot(tick)
		record = append(record, n.Name)
		for _, v := range fv {
			record = append(record, strconv.Itoa(v))
		}
	}
	// csv.Writer.Write never fails for an in-memory bufio sink except on
	// a genuine I/O error, which Close/Flush below will surface.
	_ = r.w.Write(record)
}

// Close flushes and closes the output file.
func (r *Recorder) Close() error {
	r.w.Flush()
	if err := r.w.Error(); err != nil {
		r.f.Close()
		return fmt.Errorf("write node feature output: %w", err)
	}
	return r.f.Close()
}

// WriteEdgeIndex writes the derived edge set once, as
// "publisher_index,subscriber_index" CSV rows with no header.
func WriteEdgeIndex(path string, d *graph.Derived) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create edge index output %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	for _, e := range d.Edges {
		if err := w.Write([]string{strconv.Itoa(e.Publisher), strconv.Itoa(e.Subscriber)}); err != nil {
			return fmt.Errorf("write edge index output: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFaultLabel writes the single "node_index,inject_at" line.
func WriteFaultLabel(path string, nodeIndex, injectAt int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fault label output %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{strconv.Itoa(nodeIndex), strconv.Itoa(injectAt)}); err != nil {
		return fmt.Errorf("write fault label output: %w", err)
	}
	w.Flush()
	return w.Error()
}
