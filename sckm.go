package sckm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/sckm/distance"
	"github.com/hupe1980/sckm/internal/bitmap"
	"github.com/hupe1980/sckm/point"
)

// modelState is one immutable generation of the model: the dataset,
// the per-point assignment, the center list, and the label index sets.
// Writers build a complete replacement state off-lock and install it
// in a single critical section, so readers never observe a mixed
// old/new state.
type modelState struct {
	dim     int
	data    []point.Labeled
	assign  []int
	centers []point.BoolPoint
	malware *bitmap.Bitmap
	accept  *bitmap.Bitmap
}

// newModelState validates data and builds the singleton initial state:
// every point is its own cluster, centers are copies of the points.
func newModelState(data []point.Labeled) (*modelState, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDataset
	}

	dim := data[0].Point.Dim()
	if dim <= 0 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}

	st := &modelState{
		dim:     dim,
		data:    make([]point.Labeled, len(data)),
		assign:  make([]int, len(data)),
		centers: make([]point.BoolPoint, len(data)),
		malware: bitmap.New(),
		accept:  bitmap.New(),
	}

	for i, lp := range data {
		if lp.Point.Dim() != dim {
			return nil, &ErrDimensionMismatch{Expected: dim, Actual: lp.Point.Dim()}
		}

		st.data[i] = lp
		st.assign[i] = i
		st.centers[i] = lp.Point.Clone()

		switch lp.Label {
		case point.LabelMalware:
			st.malware.Add(uint32(i))
		case point.LabelAccept:
			st.accept.Add(uint32(i))
		}
	}

	return st, nil
}

// SCKM is a semi-supervised constrained k-modes clustering model over
// fixed-dimension boolean feature vectors.
//
// A model is constructed from a labeled dataset in the ready state.
// Train moves it through pending to done, freezing a center list;
// SameCluster then answers co-membership queries against the frozen
// centers; UpdateData replaces the dataset and resets the lifecycle to
// ready. All methods are safe for concurrent use.
type SCKM struct {
	mu   sync.Mutex
	cond *sync.Cond

	state  TaskState
	cur    *modelState
	job    CountJob
	closed bool

	pool *workerPool
	opts options
}

// New creates a model from a labeled dataset. The dataset must be
// non-empty and all points must share one dimension. The initial
// assignment makes every point its own singleton cluster.
func New(data []point.Labeled, optFns ...Option) (*SCKM, error) {
	o := applyOptions(optFns)

	st, err := newModelState(data)
	if err != nil {
		return nil, err
	}

	m := &SCKM{
		state: TaskStateReady,
		cur:   st,
		job:   CountJob{State: TaskStateReady},
		pool:  newWorkerPool(o.parallelism),
		opts:  o,
	}
	m.cond = sync.NewCond(&m.mu)

	m.opts.logger.WithDimension(st.dim).WithPoints(len(st.data)).
		Debug("model created")

	return m, nil
}

// Train runs the constrained relocation engine for at most eta
// iterations and freezes the resulting centers.
//
// Train proceeds only from the ready state; otherwise it fails with
// ErrNotReady and performs no mutation. eta == 0 resolves the initial
// singleton assignment as done. The context is checked at the top of
// every iteration; on cancellation the model reverts to ready with its
// previous assignment intact.
func (m *SCKM) Train(ctx context.Context, eta int) error {
	start := time.Now()

	res, err := m.train(ctx, eta)

	iterations, clusters := 0, 0
	if res != nil {
		iterations, clusters = res.iterations, res.clusters
	}
	m.opts.metricsCollector.RecordTrain(iterations, clusters, time.Since(start), err)
	m.opts.logger.LogTrain(ctx, eta, iterations, clusters, time.Since(start), err)

	return err
}

func (m *SCKM) train(ctx context.Context, eta int) (*trainResult, error) {
	if eta < 0 {
		return nil, ErrInvalidEta
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if m.state != TaskStateReady {
		s := m.state
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, s)
	}
	m.state = TaskStatePending
	m.job = CountJob{State: TaskStatePending}
	st := m.cur
	m.mu.Unlock()

	// The engine works on copies of st; st itself stays untouched so a
	// cancelled run can fall back to it.
	res, err := m.runTraining(ctx, st, eta)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.cond.Broadcast()

	if err != nil {
		m.state = TaskStateReady
		m.job = CountJob{State: TaskStateReady}
		return nil, err
	}

	m.cur = res.state
	m.job = CountJob{Count: res.clusters, State: TaskStateDone}
	m.state = TaskStateDone

	return res, nil
}

// SameCluster reports whether the two boolean vectors fall into the
// same cluster, resolving each to its nearest frozen center without
// label constraints. Both vectors must have the model's dimension.
//
// Valid only in the done state; otherwise fails with ErrNotTrained.
func (m *SCKM) SameCluster(ctx context.Context, a, b []bool) (Connectivity, error) {
	start := time.Now()

	verdict, err := m.sameCluster(ctx, a, b)

	m.opts.metricsCollector.RecordQuery(time.Since(start), err)
	m.opts.logger.LogQuery(ctx, verdict, err)

	return verdict, err
}

func (m *SCKM) sameCluster(ctx context.Context, a, b []bool) (Connectivity, error) {
	if err := ctx.Err(); err != nil {
		return ConnectivitySeparate, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ConnectivitySeparate, ErrClosed
	}
	if m.state != TaskStateDone {
		s := m.state
		m.mu.Unlock()
		return ConnectivitySeparate, fmt.Errorf("%w: state is %s", ErrNotTrained, s)
	}
	st := m.cur
	m.mu.Unlock()

	if len(a) != st.dim {
		return ConnectivitySeparate, &ErrDimensionMismatch{Expected: st.dim, Actual: len(a)}
	}
	if len(b) != st.dim {
		return ConnectivitySeparate, &ErrDimensionMismatch{Expected: st.dim, Actual: len(b)}
	}

	// Sequential over the small frozen center list; every entry is
	// total once the state is done.
	ia, _ := distance.Nearest(point.New(a), st.centers, nil)
	ib, _ := distance.Nearest(point.New(b), st.centers, nil)

	if ia == ib {
		return ConnectivityLinked, nil
	}
	return ConnectivitySeparate, nil
}

// UpdateData replaces the dataset, discarding the old assignment and
// centers, and resets the lifecycle to ready. The rebuild is
// equivalent to fresh construction; the dimension may change.
//
// UpdateData waits for an in-flight training run to finish. The wait
// is bounded by the context deadline, or by WithUpdateWaitTimeout when
// the context carries none; expiry surfaces the context error.
func (m *SCKM) UpdateData(ctx context.Context, newData []point.Labeled) error {
	start := time.Now()

	err := m.updateData(ctx, newData)

	m.opts.metricsCollector.RecordUpdate(len(newData), time.Since(start), err)
	m.opts.logger.LogUpdate(ctx, len(newData), err)

	return err
}

func (m *SCKM) updateData(ctx context.Context, newData []point.Labeled) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok && m.opts.updateWaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.updateWaitTimeout)
		defer cancel()
	}

	m.mu.Lock()
	prev, err := m.acquirePendingLocked(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	st, err := newModelState(newData)

	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.cond.Broadcast()

	if err != nil {
		// Invalid replacement data leaves the model as it was.
		m.state = prev
		return err
	}

	m.cur = st
	m.job = CountJob{State: TaskStateReady}
	m.state = TaskStateReady

	return nil
}

// acquirePendingLocked waits until the state is not pending, then
// claims it for the caller. It returns the state that was replaced.
// The model mutex must be held; it is released while waiting.
func (m *SCKM) acquirePendingLocked(ctx context.Context) (TaskState, error) {
	if m.state == TaskStatePending {
		// Wake the cond wait when the context fires; Broadcast takes
		// the mutex so a wakeup cannot slip between the check and the
		// wait below.
		stop := context.AfterFunc(ctx, func() {
			m.mu.Lock()
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		defer stop()

		for m.state == TaskStatePending {
			if m.closed {
				return 0, ErrClosed
			}
			if err := ctx.Err(); err != nil {
				return 0, fmt.Errorf("waiting for pending training: %w", err)
			}
			m.cond.Wait()
		}
	}

	if m.closed {
		return 0, ErrClosed
	}

	prev := m.state
	m.state = TaskStatePending
	return prev, nil
}

// ClusterCount returns the resolved number of clusters.
// Valid only once training has completed; otherwise fails with
// ErrNotTrained.
func (m *SCKM) ClusterCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}
	count, ok := m.job.Resolved()
	if !ok {
		return 0, ErrNotTrained
	}
	return count, nil
}

// Centers returns a copy of the frozen center list.
// Valid only in the done state; otherwise fails with ErrNotTrained.
func (m *SCKM) Centers() ([]point.BoolPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.state != TaskStateDone {
		return nil, ErrNotTrained
	}

	centers := make([]point.BoolPoint, len(m.cur.centers))
	copy(centers, m.cur.centers)
	return centers, nil
}

// Assignments returns a copy of the per-point center indices, parallel
// to the dataset. Valid only in the done state; otherwise fails with
// ErrNotTrained.
func (m *SCKM) Assignments() ([]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.state != TaskStateDone {
		return nil, ErrNotTrained
	}

	assign := make([]int, len(m.cur.assign))
	copy(assign, m.cur.assign)
	return assign, nil
}

// State returns the current lifecycle state.
func (m *SCKM) State() TaskState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dim returns the established dimension of the current dataset.
func (m *SCKM) Dim() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.dim
}

// Len returns the number of points in the current dataset.
func (m *SCKM) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cur.data)
}

// Stats is a point-in-time snapshot of model shape and lifecycle.
type Stats struct {
	State    TaskState
	Dim      int
	Points   int
	Clusters int // zero until a training run resolves the count
}

// Stats returns a snapshot of the model's shape and lifecycle state.
func (m *SCKM) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		State:  m.state,
		Dim:    m.cur.dim,
		Points: len(m.cur.data),
	}
	if count, ok := m.job.Resolved(); ok {
		s.Clusters = count
	}
	return s
}
