package utils

// JobPool limits the number of goroutines running at the same time.
// A nil pool never blocks.
type JobPool struct {
	jobs chan struct{}
}

// Get blocks until a slot is available
func (p *JobPool) Get() {
	if p == nil {
		return
	}
	<-p.jobs
}

// Put releases a slot taken with Get
func (p *JobPool) Put() {
	if p == nil {
		return
	}
	p.jobs <- struct{}{}
}

// NewJobPool returns a pool with size slots. Sizes lower than 1 return a nil (unbounded) pool
func NewJobPool(size int) (j *JobPool) {
	if size < 1 {
		return nil
	}
	j = &JobPool{jobs: make(chan struct{}, size)}
	for range size {
		j.jobs <- struct{}{}
	}
	return j
}
