// Stub server for load and integration testing: serves the inventory and
// delivery-bridge APIs the engine depends on, entirely in memory.
package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/casavault/reminder-engine/loadtest/internal/stub"
)

func main() {
	port := os.Getenv("STUB_PORT")
	if port == "" {
		port = "8081"
	}

	r := gin.New()
	r.Use(gin.Recovery())

	handler := stub.NewHandler(stub.NewStorage())
	handler.Register(r)

	slog.Info("stub server starting", slog.String("port", port))
	if err := r.Run(":" + port); err != nil {
		slog.Error("stub server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
