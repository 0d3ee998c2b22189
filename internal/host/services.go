package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrServiceNotFound = errors.New("service not found")

// ServiceHandler executes one method of a named OS-level service. Args
// arrive normalized (int64/float64/string/bool/maps/slices); the returned
// value is encoded into the correlated response.
type ServiceHandler func(ctx context.Context, method string, args map[string]any) (any, error)

// Registry maps service names to handlers for the generic service
// request/response kind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]ServiceHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: map[string]ServiceHandler{}}
}

func (r *Registry) Register(name string, h ServiceHandler) {
	if name == "" || h == nil {
		return
	}
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
}

// Call resolves and invokes the named service. An unknown name is
// ErrServiceNotFound; the dispatcher turns it into a correlated failure
// response rather than a dropped message.
func (r *Registry) Call(ctx context.Context, service, method string, args map[string]any) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[service]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrServiceNotFound, service)
	}
	return h(ctx, method, args)
}
