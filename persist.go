package sckm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/sckm/internal/bitmap"
	"github.com/hupe1980/sckm/point"
	"github.com/hupe1980/sckm/snapshot"
)

// SaveToWriter writes a snapshot of the model to w. Valid in any
// non-pending state; a ready model snapshots its initialization, a
// trained model its frozen clustering.
func (m *SCKM) SaveToWriter(w io.Writer, optFns ...func(o *snapshot.Options)) error {
	start := time.Now()

	state, err := m.snapshotState()
	if err == nil {
		err = snapshot.Write(w, state, optFns...)
	}

	m.opts.metricsCollector.RecordSnapshot("save", 0, time.Since(start), err)
	return err
}

// SaveToFile writes a snapshot to a temporary file and renames it into
// place, so a crash never leaves a truncated snapshot behind.
func (m *SCKM) SaveToFile(name string, optFns ...func(o *snapshot.Options)) error {
	tmp, err := os.CreateTemp(filepath.Dir(name), ".sckm-snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := m.SaveToWriter(bw, optFns...); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	err = os.Rename(tmp.Name(), name)
	m.opts.logger.LogSnapshot(context.Background(), "save", name, err)
	return err
}

func (m *SCKM) snapshotState() (*snapshot.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.state == TaskStatePending {
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, m.state)
	}

	st := m.cur
	state := &snapshot.State{
		Dim:     st.dim,
		Trained: m.state == TaskStateDone,
		Points:  st.data,
		Assign:  st.assign,
		Centers: st.centers,
	}
	if count, ok := m.job.Resolved(); ok {
		state.ClusterCount = count
	}
	return state, nil
}

// NewFromReader restores a model from a snapshot stream. A snapshot of
// a trained model restores in the done state and serves queries
// immediately; a snapshot of a ready model restores ready for Train.
func NewFromReader(r io.Reader, optFns ...Option) (*SCKM, error) {
	o := applyOptions(optFns)
	start := time.Now()

	state, err := snapshot.Read(r)
	o.metricsCollector.RecordSnapshot("load", 0, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	st := &modelState{
		dim:     state.Dim,
		data:    state.Points,
		assign:  state.Assign,
		centers: state.Centers,
		malware: bitmap.New(),
		accept:  bitmap.New(),
	}
	for i, lp := range state.Points {
		switch lp.Label {
		case point.LabelMalware:
			st.malware.Add(uint32(i))
		case point.LabelAccept:
			st.accept.Add(uint32(i))
		}
	}

	m := &SCKM{
		state: TaskStateReady,
		cur:   st,
		job:   CountJob{State: TaskStateReady},
		pool:  newWorkerPool(o.parallelism),
		opts:  o,
	}
	if state.Trained {
		m.state = TaskStateDone
		m.job = CountJob{Count: state.ClusterCount, State: TaskStateDone}
	}
	m.cond = sync.NewCond(&m.mu)

	return m, nil
}

// NewFromFile restores a model from a snapshot file.
func NewFromFile(name string, optFns ...Option) (*SCKM, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return NewFromReader(bufio.NewReader(f), optFns...)
}
