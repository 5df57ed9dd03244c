// Package gateway binds the server registry and the call router to the
// gateway's HTTP and WebSocket API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/converge-ai/mcp-gateway/pkg/catalog"
	"github.com/converge-ai/mcp-gateway/pkg/health"
	"github.com/converge-ai/mcp-gateway/pkg/registry"
	"github.com/converge-ai/mcp-gateway/pkg/router"
	"github.com/converge-ai/mcp-gateway/pkg/telemetry"
)

type Config struct {
	Options
	CatalogPath string
	MirrorPath  string
}

type Options struct {
	Port          int
	CallTimeout   time.Duration
	HealthTimeout time.Duration
	Concurrency   int
	SkipDefaults  bool
	Watch         bool
	Verbose       bool
}

const defaultConcurrency = 16

// Gateway owns one registry/router pair for the lifetime of the process.
// Construct it explicitly and share the handle; there is no package-level
// instance.
type Gateway struct {
	Options
	catalogPath string
	registry    *registry.Registry
	router      *router.Router
	health      *health.State
}

func New(config Config) *Gateway {
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}

	reg := registry.New()
	if config.MirrorPath != "" {
		reg.SetMirror(registry.NewFileMirror(config.MirrorPath))
	}

	return &Gateway{
		Options:     config.Options,
		catalogPath: config.CatalogPath,
		registry:    reg,
		router: router.New(reg, router.Options{
			CallTimeout:       config.CallTimeout,
			HealthTimeout:     config.HealthTimeout,
			HealthConcurrency: config.Concurrency,
		}),
		health: &health.State{},
	}
}

// Registry exposes the gateway's registry, mostly for tests and embedding.
func (g *Gateway) Registry() *registry.Registry {
	return g.registry
}

// Run serves the gateway API until ctx is canceled.
func (g *Gateway) Run(ctx context.Context) error {
	start := time.Now()

	// Listen as early as possible to not lose client connections.
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", g.Port))
	if err != nil {
		return err
	}

	telemetry.Init()

	if !g.SkipDefaults {
		if err := g.registry.LoadDefaults(ctx); err != nil {
			return fmt.Errorf("loading default servers: %w", err)
		}
	}
	if g.catalogPath != "" {
		if err := g.loadCatalog(ctx); err != nil {
			return err
		}
		if g.Watch {
			log("- Watching catalog for updates...")
			go g.watchCatalog(ctx)
		}
	}

	g.health.SetReady()
	log("> Gateway ready with", g.registry.Len(), "servers in", time.Since(start))

	server := &http.Server{
		Handler:           cors.AllowAll().Handler(g.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log("> Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			// Hijacked WebSocket connections don't drain; drop them.
			_ = server.Close()
		}
		return nil
	}
}

func (g *Gateway) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", g.handleHealth)

	mux.HandleFunc("POST /api/mcp/servers/register", g.handleRegister)
	mux.HandleFunc("DELETE /api/mcp/servers/{name}", g.handleUnregister)
	mux.HandleFunc("GET /api/mcp/servers", g.handleListServers)
	mux.HandleFunc("GET /api/mcp/servers/{name}", g.handleGetServer)
	mux.HandleFunc("GET /api/mcp/servers/{name}/health", g.handleServerHealth)
	mux.HandleFunc("GET /api/mcp/servers/{name}/tools", g.handleServerTools)

	mux.HandleFunc("GET /api/mcp/tools", g.handleListTools)
	mux.HandleFunc("GET /api/mcp/tools/search", g.handleSearchTools)
	mux.HandleFunc("GET /api/mcp/tools/{tool}/server", g.handleFindToolServer)

	mux.HandleFunc("POST /api/mcp/call", g.handleCall)
	mux.HandleFunc("POST /api/mcp/batch", g.handleBatch)
	mux.HandleFunc("POST /api/mcp/resource", g.handleResource)
	mux.HandleFunc("GET /api/mcp/resources", g.handleListResources)

	mux.HandleFunc("GET /api/mcp/health", g.handleAllHealth)

	mux.HandleFunc("/ws/mcp", g.handleWebSocket)

	return mux
}

func (g *Gateway) loadCatalog(ctx context.Context) error {
	servers, err := catalog.ReadFile(g.catalogPath)
	if err != nil {
		return err
	}
	for _, reg := range servers {
		if _, err := g.registry.Register(ctx, reg); err != nil {
			return err
		}
	}
	if len(servers) > 0 {
		log("- Registered", len(servers), "servers from", g.catalogPath)
	}
	return nil
}
