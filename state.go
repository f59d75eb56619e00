package sckm

import "fmt"

// TaskState is the lifecycle flag serializing all model mutation.
//
// Valid transitions are ready -> pending -> done, and back through
// pending to ready via UpdateData. Pending is owned by exactly one
// writer at a time; done is the only state from which queries succeed.
type TaskState uint8

const (
	// TaskStateReady means the model holds a fresh dataset and accepts Train.
	TaskStateReady TaskState = iota
	// TaskStatePending means a training run or a data replacement is in flight.
	TaskStatePending
	// TaskStateDone means centers are frozen and queries are served.
	TaskStateDone
)

func (s TaskState) String() string {
	switch s {
	case TaskStateReady:
		return "ready"
	case TaskStatePending:
		return "pending"
	case TaskStateDone:
		return "done"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Connectivity is the verdict of SameCluster.
type Connectivity uint8

const (
	// ConnectivitySeparate means the two vectors resolve to different centers.
	ConnectivitySeparate Connectivity = iota
	// ConnectivityLinked means the two vectors resolve to the same center.
	ConnectivityLinked
)

func (c Connectivity) String() string {
	switch c {
	case ConnectivitySeparate:
		return "separate"
	case ConnectivityLinked:
		return "linked"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(c))
	}
}

// CountJob tracks the asynchronous resolution of the cluster count.
// It is kept separate from the model's lifecycle flag so the count
// could be resolved speculatively without serializing against the
// training loop.
type CountJob struct {
	// Count is the resolved cluster count. Meaningful only while
	// State is TaskStateDone.
	Count int
	// State is the resolution state of the count.
	State TaskState
}

// Resolved returns the count and whether it has been resolved.
func (j CountJob) Resolved() (int, bool) {
	return j.Count, j.State == TaskStateDone
}
