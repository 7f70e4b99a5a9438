// Command docsctl runs ingestion and reconciliation against the configured
// record store and search index without going through the HTTP API.
//
// Usage:
//
//	docsctl import --file posts.csv [--separator ;]
//	docsctl reconcile
//	docsctl version
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if closeApp != nil {
		closeApp()
	}
	if err != nil {
		os.Exit(1)
	}
}
