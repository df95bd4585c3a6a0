package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/canon/pkg/world"
)

// New initializes the configured storage and wires a world service on top.
//
//	svc, err := canon.New("./my-world", canon.WithAutoInit(true))
//
// The URI argument is adapter-specific (see Init).
func New(uri string, opts ...Option) (*world.Service, error) {
	o := applyOptions(opts)
	ctx := context.Background()

	store, err := initStorage(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	var serviceOpts []world.Option
	if o.logger != nil {
		serviceOpts = append(serviceOpts, world.WithLogger(o.logger))
	}
	if o.clock != nil {
		serviceOpts = append(serviceOpts, world.WithClock(o.clock))
	}
	if o.workers > 0 {
		serviceOpts = append(serviceOpts, world.WithCaptureConcurrency(o.workers))
	}
	if o.archive != nil {
		if err := o.archive.Initialize(ctx); err != nil {
			closeQuietly(store)
			return nil, fmt.Errorf("initialize snapshot storage: %w", err)
		}
		serviceOpts = append(serviceOpts, world.WithSnapshotStorage(o.archive))
	}

	return world.New(store, serviceOpts...), nil
}
