package orientation

import (
	"context"

	"github.com/verte-zerg/tiltup/internal/model"
)

// Source delivers raw orientation samples. The channel stays open until ctx
// ends or the source has nothing more to deliver.
type Source interface {
	Open(ctx context.Context) (<-chan model.Sample, error)
}

// ChanSource is a Source fed by Push. It backs the keyboard tilt simulator.
type ChanSource struct {
	ch chan model.Sample
}

// NewChanSource returns a source buffering up to size samples.
func NewChanSource(size int) *ChanSource {
	if size < 1 {
		size = 1
	}
	return &ChanSource{ch: make(chan model.Sample, size)}
}

// Push queues a sample. It reports false when the buffer is full and the
// sample was dropped.
func (c *ChanSource) Push(sample model.Sample) bool {
	select {
	case c.ch <- sample:
		return true
	default:
		return false
	}
}

func (c *ChanSource) Open(context.Context) (<-chan model.Sample, error) {
	return c.ch, nil
}
