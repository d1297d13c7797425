package queue

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry caches already-attached or already-initialized *Queue handles
// keyed by their three file paths, so multiple goroutines in one process
// sharing a queue don't redundantly mmap the same files, per SPEC_FULL.md
// §4.10.
type Registry struct {
	handles cmap.ConcurrentMap[string, *Queue]
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handles: cmap.New[*Queue]()}
}

func registryKey(p Paths) string {
	return p.IndexPath + "|" + p.DataPath + "|" + p.ControlPath
}

// GetOrInitProducer returns the cached producer handle for paths, or
// calls InitProducer and caches the result.
func (r *Registry) GetOrInitProducer(cfg Config, paths Paths, opts ...Option) (*Queue, error) {
	key := registryKey(paths)
	if q, ok := r.handles.Get(key); ok {
		return q, nil
	}
	q, err := InitProducer(cfg, paths, opts...)
	if err != nil {
		return nil, err
	}
	r.handles.Set(key, q)
	return q, nil
}

// GetOrAttachConsumer returns the cached consumer handle for paths, or
// calls AttachConsumer and caches the result.
func (r *Registry) GetOrAttachConsumer(paths Paths, maxConsumers uint32, opts ...Option) (*Queue, error) {
	key := registryKey(paths)
	if q, ok := r.handles.Get(key); ok {
		return q, nil
	}
	q, err := AttachConsumer(paths, maxConsumers, opts...)
	if err != nil {
		return nil, err
	}
	r.handles.Set(key, q)
	return q, nil
}

// Close drains and closes every cached handle, aggregating the first error
// encountered.
func (r *Registry) Close() error {
	var firstErr error
	for item := range r.handles.IterBuffered() {
		if err := item.Val.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.handles.Clear()
	return firstErr
}
