package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Registry is the authoritative table of servers known to the gateway.
//
// All accessors return copies, so a caller never observes a record while
// another goroutine is writing it. Iteration order is registration order:
// a name keeps its original position when re-registered.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]*ServerInfo
	order   []string
	mirror  Mirror
}

func New() *Registry {
	return &Registry{
		servers: make(map[string]*ServerInfo),
	}
}

// SetMirror attaches a best-effort mirror. Mirror failures are logged and
// never affect the outcome of the primary operation.
func (r *Registry) SetMirror(m Mirror) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mirror = m
}

// Register stores a server record, replacing any existing record with the
// same name. The old record is not merged: its tool and resource lists are
// gone after this call.
func (r *Registry) Register(ctx context.Context, reg Registration) (ServerInfo, error) {
	if reg.Name == "" {
		return ServerInfo{}, fmt.Errorf("server name is required")
	}
	if reg.Endpoint == "" {
		return ServerInfo{}, fmt.Errorf("server %q: endpoint is required", reg.Name)
	}
	transport, err := ParseTransport(reg.Transport)
	if err != nil {
		return ServerInfo{}, fmt.Errorf("server %q: %w", reg.Name, err)
	}

	now := time.Now().UTC()
	info := &ServerInfo{
		Name:            reg.Name,
		Version:         reg.Version,
		Description:     reg.Description,
		Endpoint:        strings.TrimRight(reg.Endpoint, "/"),
		Transport:       transport,
		Tools:           append([]Tool(nil), reg.Tools...),
		Resources:       append([]Resource(nil), reg.Resources...),
		Metadata:        cloneMetadata(reg.Metadata),
		Status:          StatusAvailable,
		LastHealthCheck: now,
		RegisteredAt:    now,
	}

	r.mu.Lock()
	if _, exists := r.servers[reg.Name]; !exists {
		r.order = append(r.order, reg.Name)
	}
	r.servers[reg.Name] = info
	mirror := r.mirror
	snapshot := info.clone()
	r.mu.Unlock()

	if mirror != nil {
		if err := mirror.Store(ctx, snapshot); err != nil {
			logf("mirror: storing %s: %s", reg.Name, err)
		}
	}

	log("Registered server:", reg.Name, "with", len(reg.Tools), "tools")
	return snapshot, nil
}

// Unregister removes a server. It reports whether a record existed.
func (r *Registry) Unregister(ctx context.Context, name string) bool {
	r.mu.Lock()
	_, exists := r.servers[name]
	if exists {
		delete(r.servers, name)
		for i, n := range r.order {
			if n == name {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
	}
	mirror := r.mirror
	r.mu.Unlock()

	if !exists {
		return false
	}
	if mirror != nil {
		if err := mirror.Remove(ctx, name); err != nil {
			logf("mirror: removing %s: %s", name, err)
		}
	}

	log("Unregistered server:", name)
	return true
}

// Get returns a copy of the named server's record.
func (r *Registry) Get(name string) (ServerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.servers[name]
	if !ok {
		return ServerInfo{}, false
	}
	return info.clone(), true
}

// List returns all records in registration order.
func (r *Registry) List() []ServerInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ServerInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.servers[name].clone())
	}
	return out
}

// Names returns the registered server names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.servers)
}

// ListAllTools returns the flattened tool catalog, each tool annotated with
// its owning server and that server's current status.
func (r *Registry) ListAllTools() []ToolEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ToolEntry
	for _, name := range r.order {
		server := r.servers[name]
		for _, tool := range server.Tools {
			out = append(out, ToolEntry{
				Server:       server.Name,
				ServerStatus: server.Status,
				Tool:         tool,
			})
		}
	}
	return out
}

// ListAllResources returns every resource from every server.
func (r *Registry) ListAllResources() []ResourceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ResourceEntry
	for _, name := range r.order {
		server := r.servers[name]
		for _, resource := range server.Resources {
			out = append(out, ResourceEntry{
				Server:   server.Name,
				Resource: resource,
			})
		}
	}
	return out
}

// SearchTools matches the query case-insensitively against tool names and
// descriptions. When category is non-empty, only servers whose
// metadata.category matches are searched. Results come back in registration
// order, unranked.
func (r *Registry) SearchTools(query, category string) []ToolEntry {
	query = strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []ToolEntry
	for _, name := range r.order {
		server := r.servers[name]
		if category != "" && server.Metadata["category"] != category {
			continue
		}
		for _, tool := range server.Tools {
			if strings.Contains(strings.ToLower(tool.Name), query) ||
				strings.Contains(strings.ToLower(tool.Description), query) {
				out = append(out, ToolEntry{
					Server:       server.Name,
					ServerStatus: server.Status,
					Tool:         tool,
				})
			}
		}
	}
	return out
}

// FindToolServer returns the first server, in registration order, that
// declares a tool with this exact name. When two servers declare the same
// tool name, the earlier registration wins; the answer is stable across
// calls as long as the registry contents don't change.
func (r *Registry) FindToolServer(toolName string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		for _, tool := range r.servers[name].Tools {
			if tool.Name == toolName {
				return name, true
			}
		}
	}
	return "", false
}

// UpdateStatus sets a server's status and refreshes its health-check
// timestamp. It reports false for an unknown name.
func (r *Registry) UpdateStatus(name string, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.servers[name]
	if !ok {
		return false
	}
	info.Status = status
	info.LastHealthCheck = time.Now().UTC()
	return true
}

func cloneMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
