package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registration(name string, tools ...string) Registration {
	reg := Registration{
		Name:      name,
		Version:   "1.0.0",
		Endpoint:  "http://localhost:9999",
		Transport: "http",
		Metadata:  map[string]string{"category": "test"},
	}
	for _, tool := range tools {
		reg.Tools = append(reg.Tools, Tool{Name: tool, Description: tool + " tool"})
	}
	return reg
}

func TestRegisterDefaultsStatusAndTimestamps(t *testing.T) {
	r := New()

	info, err := r.Register(t.Context(), registration("alpha", "do_thing"))
	require.NoError(t, err)

	assert.Equal(t, StatusAvailable, info.Status)
	assert.False(t, info.RegisteredAt.IsZero())
	assert.Equal(t, info.RegisteredAt, info.LastHealthCheck)
	assert.Equal(t, TransportHTTP, info.Transport)
}

func TestRegisterRequiresNameAndEndpoint(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), Registration{Endpoint: "http://x"})
	assert.Error(t, err)

	_, err = r.Register(t.Context(), Registration{Name: "x"})
	assert.Error(t, err)
}

func TestRegisterRejectsUnknownTransport(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), Registration{
		Name:      "alpha",
		Endpoint:  "http://localhost:9999",
		Transport: "stdio",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
	assert.Equal(t, 0, r.Len())
}

func TestRegisterEmptyTransportDefaultsToHTTP(t *testing.T) {
	r := New()

	info, err := r.Register(t.Context(), Registration{Name: "alpha", Endpoint: "http://x"})
	require.NoError(t, err)
	assert.Equal(t, TransportHTTP, info.Transport)
}

func TestReRegisterOverwritesEntirely(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("alpha", "old_tool", "older_tool"))
	require.NoError(t, err)
	_, err = r.Register(t.Context(), registration("alpha", "new_tool"))
	require.NoError(t, err)

	servers := r.List()
	require.Len(t, servers, 1)
	require.Len(t, servers[0].Tools, 1)
	assert.Equal(t, "new_tool", servers[0].Tools[0].Name)

	// The old tools are gone, not merged.
	_, found := r.FindToolServer("old_tool")
	assert.False(t, found)
}

func TestUnregister(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("alpha"))
	require.NoError(t, err)

	assert.True(t, r.Unregister(t.Context(), "alpha"))
	assert.False(t, r.Unregister(t.Context(), "alpha"))
	assert.Equal(t, 0, r.Len())
}

func TestUnregisterRemovesToolsFromCatalog(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("alpha", "tool_a", "tool_b"))
	require.NoError(t, err)
	_, err = r.Register(t.Context(), registration("beta", "tool_c"))
	require.NoError(t, err)

	require.Len(t, r.ListAllTools(), 3)

	require.True(t, r.Unregister(t.Context(), "alpha"))

	tools := r.ListAllTools()
	require.Len(t, tools, 1)
	assert.Equal(t, "tool_c", tools[0].Name)

	for _, name := range []string{"tool_a", "tool_b"} {
		_, found := r.FindToolServer(name)
		assert.False(t, found, "tool %s should be gone", name)
	}
}

func TestGetUnknownServer(t *testing.T) {
	r := New()
	_, ok := r.Get("missing")
	assert.False(t, ok)
}

func TestListPreservesRegistrationOrder(t *testing.T) {
	r := New()

	for _, name := range []string{"charlie", "alpha", "beta"} {
		_, err := r.Register(t.Context(), registration(name))
		require.NoError(t, err)
	}

	var names []string
	for _, info := range r.List() {
		names = append(names, info.Name)
	}
	assert.Equal(t, []string{"charlie", "alpha", "beta"}, names)

	// Re-registering keeps the original position.
	_, err := r.Register(t.Context(), registration("charlie"))
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie", "alpha", "beta"}, r.Names())
}

func TestFindToolServer(t *testing.T) {
	r := New()

	_, found := r.FindToolServer("anything")
	assert.False(t, found)

	_, err := r.Register(t.Context(), registration("alpha", "tool_a"))
	require.NoError(t, err)

	server, found := r.FindToolServer("tool_a")
	require.True(t, found)
	assert.Equal(t, "alpha", server)

	// Exact match only.
	_, found = r.FindToolServer("tool")
	assert.False(t, found)
}

// Two servers declaring the same tool name is undefined behavior at the API
// level. The implementation resolves it by registration order, and that
// choice must at least be stable.
func TestFindToolServerDuplicateNamesResolveByRegistrationOrder(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("first", "shared_tool"))
	require.NoError(t, err)
	_, err = r.Register(t.Context(), registration("second", "shared_tool"))
	require.NoError(t, err)

	for range 50 {
		server, found := r.FindToolServer("shared_tool")
		require.True(t, found)
		require.Equal(t, "first", server)
	}
}

func TestListAllToolsAnnotatesServerAndStatus(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("alpha", "tool_a"))
	require.NoError(t, err)
	require.True(t, r.UpdateStatus("alpha", StatusDegraded))

	tools := r.ListAllTools()
	require.Len(t, tools, 1)
	assert.Equal(t, "alpha", tools[0].Server)
	assert.Equal(t, StatusDegraded, tools[0].ServerStatus)
	assert.Equal(t, "tool_a", tools[0].Name)
}

func TestSearchTools(t *testing.T) {
	r := New()

	infra := registration("db", "query_transcripts")
	infra.Metadata["category"] = "infrastructure"
	_, err := r.Register(t.Context(), infra)
	require.NoError(t, err)

	mail := registration("mail", "send_email")
	mail.Tools[0].Description = "Send an email"
	mail.Metadata["category"] = "integration"
	_, err = r.Register(t.Context(), mail)
	require.NoError(t, err)

	// Case-insensitive substring over names.
	results := r.SearchTools("QUERY", "")
	require.Len(t, results, 1)
	assert.Equal(t, "db", results[0].Server)

	// Substring over descriptions.
	results = r.SearchTools("an email", "")
	require.Len(t, results, 1)
	assert.Equal(t, "send_email", results[0].Name)

	// Category filter.
	assert.Empty(t, r.SearchTools("query", "integration"))
	assert.Len(t, r.SearchTools("", "integration"), 1)

	// No match.
	assert.Empty(t, r.SearchTools("nonexistent", ""))
}

func TestUpdateStatus(t *testing.T) {
	r := New()

	assert.False(t, r.UpdateStatus("missing", StatusDegraded))

	info, err := r.Register(t.Context(), registration("alpha"))
	require.NoError(t, err)

	require.True(t, r.UpdateStatus("alpha", StatusUnavailable))

	updated, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, StatusUnavailable, updated.Status)
	assert.False(t, updated.LastHealthCheck.Before(info.LastHealthCheck))
}

func TestSnapshotsAreCopies(t *testing.T) {
	r := New()

	_, err := r.Register(t.Context(), registration("alpha", "tool_a"))
	require.NoError(t, err)

	info, ok := r.Get("alpha")
	require.True(t, ok)
	info.Tools[0].Name = "mutated"
	info.Metadata["category"] = "mutated"

	fresh, ok := r.Get("alpha")
	require.True(t, ok)
	assert.Equal(t, "tool_a", fresh.Tools[0].Name)
	assert.Equal(t, "test", fresh.Metadata["category"])
}

type failingMirror struct{}

func (failingMirror) Store(context.Context, ServerInfo) error { return errors.New("mirror down") }
func (failingMirror) Remove(context.Context, string) error    { return errors.New("mirror down") }

func TestMirrorFailuresDontAffectPrimary(t *testing.T) {
	r := New()
	r.SetMirror(failingMirror{})

	_, err := r.Register(t.Context(), registration("alpha"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())

	assert.True(t, r.Unregister(t.Context(), "alpha"))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SLACK_MCP_URL", "http://slack.internal:9000")

	r := New()
	require.NoError(t, r.LoadDefaults(t.Context()))

	assert.Equal(t, 11, r.Len())

	slack, ok := r.Get("slack-mcp")
	require.True(t, ok)
	assert.Equal(t, "http://slack.internal:9000", slack.Endpoint)
	assert.Equal(t, "integration", slack.Metadata["category"])

	db, ok := r.Get("database-mcp")
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8010", db.Endpoint)
	require.Len(t, db.Resources, 1)
	assert.Equal(t, "db://schemas", db.Resources[0].URI)
}

// Registrations, health updates and reads race on the same names. Run with
// -race; Get must always return an internally consistent record.
func TestConcurrentRegistrationAndStatusUpdates(t *testing.T) {
	r := New()
	ctx := t.Context()

	const workers = 8
	const iterations = 100

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(3)
		name := fmt.Sprintf("server-%d", w%4)

		go func() {
			defer wg.Done()
			for range iterations {
				_, err := r.Register(ctx, registration(name, "tool_x"))
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				r.UpdateStatus(name, StatusDegraded)
			}
		}()
		go func() {
			defer wg.Done()
			for range iterations {
				info, ok := r.Get(name)
				if !ok {
					continue
				}
				// A visible record is never torn.
				assert.Equal(t, name, info.Name)
				assert.NotEmpty(t, info.Status)
				assert.False(t, info.RegisteredAt.IsZero())
				assert.False(t, info.LastHealthCheck.IsZero())
				r.ListAllTools()
				r.FindToolServer("tool_x")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, r.Len())
}
