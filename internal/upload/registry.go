package upload

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// PreviewPrefix marks handles issued by a Registry
const PreviewPrefix = "preview:"

// Registry issues preview handles for selected local files and tracks them
// until they are revoked. A handle outliving its selection is a leak.
type Registry struct {
	mu      sync.Mutex
	handles map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]string)}
}

// Create issues a new handle for path
func (r *Registry) Create(path string) string {
	handle := PreviewPrefix + uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[handle] = path
	return handle
}

// Resolve returns the file behind a live handle
func (r *Registry) Resolve(handle string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	path, ok := r.handles[handle]
	return path, ok
}

// Revoke releases a handle. Unknown or empty handles are ignored.
func (r *Registry) Revoke(handle string) {
	if handle == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handles, handle)
}

// Len returns the number of live handles
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Live returns the live handles in sorted order
func (r *Registry) Live() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.handles))
	for h := range r.handles {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
