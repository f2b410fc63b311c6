/*
main.go - HTTP server entry point

PURPOSE:
  Starts the Belgian roof insulation calculator API.

STARTUP SEQUENCE:
  1. Load config (defaults, --config YAML, environment, flags)
  2. Build zerolog logger and Prometheus registry
  3. Open the constants source (SQLite when --db / DB_PATH is set)
  4. Configure router and start the HTTP server

FLAGS:
  --addr       Listen address (default :8000, env HTTP_ADDR)
  --config     YAML config file
  --db         SQLite constants store (env DB_PATH)
  --log-level  Log level (env LOG_LEVEL)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections and waits up to
  http.shutdown_timeout (env SHUTDOWN_TIMEOUT, default 30s) for active
  requests.

SEE ALSO:
  - cli/serve.go:  Server wiring
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/warp/insulation-engine/cli"
)

func main() {
	if err := cli.NewServerCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
