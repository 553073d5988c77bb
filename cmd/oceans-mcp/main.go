// oceans-mcp is a standalone MCP server for the Ocean Tracers content
// store. It opens the store directly and serves content and submission
// tools over JSON-RPC stdio, so an assistant can edit site copy and
// triage partnership inquiries.
package main

import (
	"flag"
	"log"

	oceans "github.com/calmeoceans/oceans-tracers"
)

func main() {
	dbPath := flag.String("db", "./oceans.db", "path to the store database")
	fallbackPath := flag.String("fallback", "./oceans.fallback.json", "path to the flat fallback store")
	flag.Parse()

	store, err := oceans.Open(oceans.StoreConfig{
		DatabasePath: *dbPath,
		FallbackPath: *fallbackPath,
	})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	srv := newServer(store)
	if err := srv.run(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
