/*
main.go - Application entry point

PURPOSE:
  tiersim is the seller tier progression simulator. One binary serves the
  HTTP API and runs simulations from the terminal.

COMMANDS:
  serve      Start the HTTP API over the live tier criteria database
  simulate   Run one simulation and print the month table
  scenarios  Run every canned seller pattern and summarize
  preset     Print the default program as a YAML or JSON document

CONFIGURATION:
  Settings come from, in increasing precedence:
  1. Built-in defaults (port 8080, db loyalty.db, level info)
  2. A YAML settings file (--settings)
  3. A .env file in the working directory, then TIERSIM_* variables
  4. Command-line flags

EXAMPLES:
  # Serve with a file database
  tiersim serve --db ./data/loyalty.db

  # Serve with an in-memory database and console logs
  tiersim serve --db :memory: --dev

  # Simulate the portal default hypothesis
  tiersim simulate --days-per-week 3 --orders-per-day 5 --order-value 15000

  # Simulate a custom program, JSON output
  tiersim simulate --config program.yaml --pattern daily-streak --json

SEE ALSO:
  - api/server.go: Router configuration
  - factory/bundle.go: Program documents
*/
package main

import (
	"context"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
