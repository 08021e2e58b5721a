// Package app wires configuration, logging, telemetry and storage into the
// collection and report pipelines and the document server.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, YAML file and environment
//  2. Initialize logging and OpenTelemetry
//  3. Resolve and create the data directories
//  4. Open the history store
//  5. Build the pipelines, handlers and HTTP server
//
// Bootstrap returns a Runtime shared by every binary. NewApplication builds
// the document server and weekly scheduler on top of it.
//
// # Graceful Shutdown
//
// Application.Run stops when its context is cancelled: the HTTP server
// drains active requests, the scheduler returns, and the history store and
// telemetry providers are closed by Runtime.Close.
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
