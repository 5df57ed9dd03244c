package router

import (
	"errors"
	"fmt"
)

var (
	// ErrServerNotFound means the request named a server the registry
	// doesn't know.
	ErrServerNotFound = errors.New("server not found")

	// ErrServerUnavailable means the server is registered but its last
	// known status is not "available".
	ErrServerUnavailable = errors.New("server not available")

	// ErrUnsupportedTransport means the server declares a transport this
	// router can't speak.
	ErrUnsupportedTransport = errors.New("unsupported transport")

	// ErrToolNotFound means no registered server declares the tool.
	ErrToolNotFound = errors.New("tool not found on any registered server")
)

// RemoteToolError carries an application-level error returned by the server
// itself. The call reached the server and came back; nothing is wrong with
// the server's health, so dispatch does not change its status.
type RemoteToolError struct {
	Server  string
	Message string
}

func (e *RemoteToolError) Error() string {
	return fmt.Sprintf("server %s: %s", e.Server, e.Message)
}

// StatusError is a non-2xx HTTP response from a server's MCP endpoint.
type StatusError struct {
	Server     string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server %s: unexpected status %d", e.Server, e.StatusCode)
}
