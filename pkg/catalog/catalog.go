// Package catalog reads server catalogs from YAML files.
//
// A catalog lists servers to register at startup, on top of the built-in
// defaults:
//
//	servers:
//	  - name: tickets-mcp
//	    version: 1.0.0
//	    description: Ticketing integration
//	    endpoint: http://tickets:8030
//	    transport: http
//	    tools:
//	      - name: create_ticket
//	        description: Create a ticket
//	    metadata:
//	      category: integration
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/converge-ai/mcp-gateway/pkg/registry"
)

type File struct {
	Servers []registry.Registration `yaml:"servers"`
}

// ReadFile loads a catalog from disk. A missing file is not an error: the
// catalog is optional configuration.
func ReadFile(path string) ([]registry.Registration, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(buf)
}

// Parse decodes catalog YAML and rejects entries that would fail
// registration anyway, so a bad catalog is caught at load time.
func Parse(buf []byte) ([]registry.Registration, error) {
	var file File
	if err := yaml.Unmarshal(buf, &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for _, server := range file.Servers {
		if server.Name == "" {
			return nil, fmt.Errorf("catalog: server with no name")
		}
		if server.Endpoint == "" {
			return nil, fmt.Errorf("catalog: server %q has no endpoint", server.Name)
		}
		if _, err := registry.ParseTransport(server.Transport); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	return file.Servers, nil
}
