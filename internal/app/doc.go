// Package app wires the dashboard together and owns its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (YAML file, then SCHOOLPULSE_* environment overrides)
//	2. Initialize logging and OpenTelemetry
//	3. Build the dataset loader, cache and optional file watcher
//	4. Start the websocket hub and create services
//	5. Set up middleware, API routes and the HTML page
//	6. Configure the HTTP server
//
// # Graceful Shutdown
//
// Run waits for SIGINT or SIGTERM, then drains in-flight requests, stops the
// file watcher, disconnects websocket clients and flushes telemetry.
//
// Initialization errors are returned to the caller; the package never calls
// os.Exit.
package app
