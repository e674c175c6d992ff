package device

import (
	"context"

	"github.com/hupe1980/bcache/resource"
)

// Throttled charges every transfer of the wrapped Device against the IO
// budget of a resource.Controller. Devices sharing one controller share
// one budget.
type Throttled struct {
	dev Device
	rc  *resource.Controller
}

// NewThrottled wraps dev. A nil controller disables throttling.
func NewThrottled(dev Device, rc *resource.Controller) *Throttled {
	return &Throttled{dev: dev, rc: rc}
}

// ReadBlock implements Device.
func (t *Throttled) ReadBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := t.rc.AcquireIO(ctx, len(p)); err != nil {
		return err
	}
	return t.dev.ReadBlock(ctx, blockno, p)
}

// WriteBlock implements Device.
func (t *Throttled) WriteBlock(ctx context.Context, blockno uint32, p []byte) error {
	if err := t.rc.AcquireIO(ctx, len(p)); err != nil {
		return err
	}
	return t.dev.WriteBlock(ctx, blockno, p)
}

// Close implements Device.
func (t *Throttled) Close() error {
	return t.dev.Close()
}
