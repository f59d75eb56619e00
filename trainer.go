package sckm

import (
	"context"
	"slices"
	"sync"

	"github.com/hupe1980/sckm/distance"
	"github.com/hupe1980/sckm/internal/bitmap"
	"github.com/hupe1980/sckm/internal/bitvec"
	"github.com/hupe1980/sckm/point"
)

// trainResult carries the replacement state produced by a training run
// along with run statistics.
type trainResult struct {
	state      *modelState
	iterations int
	clusters   int
}

// trainRun is the working state of one training run. Center slots keep
// their original indices for the whole run; retired slots are marked
// inactive and compacted away only at the end, which keeps assignment
// entries stable across iterations.
type trainRun struct {
	data    []point.Labeled
	dim     int
	malware *bitmap.Bitmap
	accept  *bitmap.Bitmap

	centers  []point.BoolPoint
	active   []bool
	assign   []int
	members  []*bitmap.Bitmap
	polarity []point.Label

	next   []int // assignment buffer for the current iteration
	counts []int // per-coordinate ones buffer for the update step
}

func newTrainRun(st *modelState) *trainRun {
	n := len(st.data)

	tr := &trainRun{
		data:     st.data,
		dim:      st.dim,
		malware:  st.malware,
		accept:   st.accept,
		centers:  slices.Clone(st.centers),
		active:   make([]bool, len(st.centers)),
		assign:   slices.Clone(st.assign),
		members:  make([]*bitmap.Bitmap, len(st.centers)),
		polarity: make([]point.Label, len(st.centers)),
		next:     make([]int, n),
		counts:   make([]int, st.dim),
	}

	for s := range tr.active {
		tr.active[s] = true
		tr.members[s] = bitmap.New()
	}
	for p, c := range tr.assign {
		tr.members[c].Add(uint32(p))
	}
	for s := range tr.centers {
		tr.refreshPolarity(s)
	}

	return tr
}

// runTraining executes the constrained relocation loop against a frozen
// input state and returns the compacted replacement state.
//
// Relocation alone cannot leave the singleton initialization (every
// point sits at distance zero from its own center), so each iteration
// first coalesces label-compatible centers whose distance is within
// the iteration number. Labels stop harmful merges: strictly opposed
// centers never coalesce, and the loop settles once neither merging
// nor relocation changes anything.
func (m *SCKM) runTraining(ctx context.Context, st *modelState, eta int) (*trainResult, error) {
	tr := newTrainRun(st)

	iterations := 0
	for t := 1; t <= eta; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		merged := tr.mergeStep(t)

		changed, err := tr.assignStep(ctx, m.pool)
		if err != nil {
			return nil, err
		}

		tr.updateStep()
		iterations = t

		m.opts.logger.Debug("training iteration",
			"iteration", t,
			"clusters", tr.clusterCount(),
			"changed", changed,
			"merged", merged,
		)

		if !changed && !merged {
			break
		}
	}

	state, clusters := tr.finalize(st)

	return &trainResult{
		state:      state,
		iterations: iterations,
		clusters:   clusters,
	}, nil
}

// mergeStep retires every active center that sits within the given
// radius of a lower-indexed, label-compatible active center. Members
// of retired centers relocate in the following assignment step.
func (tr *trainRun) mergeStep(radius int) bool {
	merged := false
	for j := 1; j < len(tr.centers); j++ {
		if !tr.active[j] {
			continue
		}
		for i := 0; i < j; i++ {
			if !tr.active[i] || tr.polarity[i].Opposes(tr.polarity[j]) {
				continue
			}
			if distance.Hamming(tr.centers[i], tr.centers[j]) <= radius {
				tr.active[j] = false
				merged = true
				break
			}
		}
	}
	return merged
}

// assignStep relocates every point to its nearest compatible active
// center, in parallel across fixed point ranges. It reports whether
// any assignment changed.
func (tr *trainRun) assignStep(ctx context.Context, pool *workerPool) (bool, error) {
	n := len(tr.data)
	chunks := pool.numWorkers
	if chunks > n {
		chunks = n
	}

	var wg sync.WaitGroup
	var submitErr error
	for c := 0; c < chunks; c++ {
		lo, hi := c*n/chunks, (c+1)*n/chunks
		if lo == hi {
			continue
		}

		wg.Add(1)
		err := pool.submit(ctx, func() {
			defer wg.Done()
			for p := lo; p < hi; p++ {
				tr.next[p] = tr.assignPoint(p)
			}
		})
		if err != nil {
			wg.Done()
			submitErr = err
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		return false, submitErr
	}

	changed := !slices.Equal(tr.next, tr.assign)
	copy(tr.assign, tr.next)
	return changed, nil
}

// assignPoint resolves the nearest active center for one point,
// honoring the label constraint: a malware point never joins an
// accept-majority center and vice versa. When every compatible center
// is exhausted the point keeps the unconstrained nearest.
func (tr *trainRun) assignPoint(p int) int {
	lbl := tr.data[p].Label

	idx, _ := distance.Nearest(tr.data[p].Point, tr.centers, func(c int) bool {
		return tr.active[c] && !lbl.Opposes(tr.polarity[c])
	})
	if idx < 0 {
		idx, _ = distance.Nearest(tr.data[p].Point, tr.centers, func(c int) bool {
			return tr.active[c]
		})
	}
	return idx
}

// updateStep rebuilds memberships from the fresh assignment, recomputes
// each active center as the per-coordinate majority of its members
// (unlabeled members weigh the same as labeled ones), retires centers
// emptied by relocation, and refreshes label polarities.
func (tr *trainRun) updateStep() {
	for s := range tr.members {
		tr.members[s].Clear()
	}
	for p, c := range tr.assign {
		tr.members[c].Add(uint32(p))
	}

	for s := range tr.centers {
		if !tr.active[s] {
			continue
		}

		total := int(tr.members[s].Cardinality())
		if total == 0 {
			tr.active[s] = false
			continue
		}

		clear(tr.counts)
		for p := range tr.members[s].Iterator() {
			bitvec.AccumulateOnes(tr.counts, tr.data[p].Point.Words())
		}

		bits := make([]bool, tr.dim)
		for j, ones := range tr.counts {
			bits[j] = ones*2 > total
		}
		tr.centers[s] = point.New(bits)

		tr.refreshPolarity(s)
	}
}

// refreshPolarity sets the label majority of center s: malware or
// accept when one strictly outweighs the other among labeled members,
// none otherwise.
func (tr *trainRun) refreshPolarity(s int) {
	mal := tr.members[s].AndCardinality(tr.malware)
	acc := tr.members[s].AndCardinality(tr.accept)

	switch {
	case mal > acc:
		tr.polarity[s] = point.LabelMalware
	case acc > mal:
		tr.polarity[s] = point.LabelAccept
	default:
		tr.polarity[s] = point.LabelNone
	}
}

// clusterCount returns the number of active non-empty centers.
func (tr *trainRun) clusterCount() int {
	count := 0
	for s, a := range tr.active {
		if a && !tr.members[s].IsEmpty() {
			count++
		}
	}
	return count
}

// finalize compacts the surviving centers in index order, remaps the
// assignment onto the compacted list, and assembles the replacement
// state. Center lookups are total from here on.
func (tr *trainRun) finalize(st *modelState) (*modelState, int) {
	remap := make([]int, len(tr.centers))
	centers := make([]point.BoolPoint, 0, tr.clusterCount())

	for s := range tr.centers {
		if tr.active[s] && !tr.members[s].IsEmpty() {
			remap[s] = len(centers)
			centers = append(centers, tr.centers[s])
		} else {
			remap[s] = -1
		}
	}

	assign := make([]int, len(tr.assign))
	for p, c := range tr.assign {
		assign[p] = remap[c]
	}

	return &modelState{
		dim:     st.dim,
		data:    st.data,
		assign:  assign,
		centers: centers,
		malware: st.malware,
		accept:  st.accept,
	}, len(centers)
}
