package registry

import (
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Status describes the last known availability of a registered server.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
)

// Transport is the protocol used to reach a server. It's a closed set:
// values only come out of ParseTransport.
type Transport string

const TransportHTTP Transport = "http"

// ParseTransport validates a transport declared at registration time.
// An empty value defaults to http.
func ParseTransport(s string) (Transport, error) {
	switch s {
	case "", "http":
		return TransportHTTP, nil
	default:
		return "", fmt.Errorf("unknown transport %q, expected 'http'", s)
	}
}

// Tool is a named operation declared by a server. The parameter schema is
// carried as-is for discovery purposes and is never validated before dispatch.
type Tool struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

// Resource is a named data object readable from a server.
type Resource struct {
	URI         string `json:"uri" yaml:"uri"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ServerInfo is the registry's record for one server.
type ServerInfo struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Endpoint        string            `json:"endpoint"`
	Transport       Transport         `json:"transport"`
	Tools           []Tool            `json:"tools"`
	Resources       []Resource        `json:"resources"`
	Metadata        map[string]string `json:"metadata"`
	Status          Status            `json:"status"`
	LastHealthCheck time.Time         `json:"last_health_check"`
	RegisteredAt    time.Time         `json:"registered_at"`
}

// Registration is the caller-supplied part of a ServerInfo.
type Registration struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description" yaml:"description"`
	Endpoint    string            `json:"endpoint" yaml:"endpoint"`
	Transport   string            `json:"transport" yaml:"transport"`
	Tools       []Tool            `json:"tools" yaml:"tools"`
	Resources   []Resource        `json:"resources" yaml:"resources"`
	Metadata    map[string]string `json:"metadata" yaml:"metadata"`
}

// ToolEntry is a tool annotated with the server that owns it.
type ToolEntry struct {
	Server       string `json:"server"`
	ServerStatus Status `json:"server_status"`
	Tool
}

// ResourceEntry is a resource annotated with the server that owns it.
type ResourceEntry struct {
	Server string `json:"server"`
	Resource
}

func (s *ServerInfo) clone() ServerInfo {
	out := *s
	out.Tools = append([]Tool(nil), s.Tools...)
	out.Resources = append([]Resource(nil), s.Resources...)
	out.Metadata = make(map[string]string, len(s.Metadata))
	for k, v := range s.Metadata {
		out.Metadata[k] = v
	}
	return out
}
