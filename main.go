package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Create context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logError("Received shutdown signal")
		cancel()
	}()

	// Connection settings may be absent; the process still starts and every
	// backend operation reports the configuration error instead.
	backend := NewSupabaseBackendFromEnv()

	server := NewMCPServer(ctx, backend)
	defer server.Shutdown()

	logError("Supabase MCP Server started")

	if err := server.Run(); err != nil {
		if err == context.Canceled {
			logError("Server shutdown gracefully")
		} else {
			logError("Server error: %v", err)
			os.Exit(1)
		}
	}
}
