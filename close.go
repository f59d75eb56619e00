package sckm

// Close releases the model's worker pool and unblocks any waiters.
// Operations on a closed model return ErrClosed. Close is idempotent.
func (m *SCKM) Close() error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.cond.Broadcast()
	m.mu.Unlock()

	m.pool.stop()
	return nil
}
