package api

import (
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// HealthHandler provides liveness and readiness endpoints.
//
// Responsibilities:
//   - /healthz: basic liveness probe, always 200.
//   - /readyz: readiness probe, depends on the data directory being writable.
type HealthHandler struct {
	dataDir string
}

// NewHealthHandler constructs a HealthHandler over the snapshot data
// directory.
func NewHealthHandler(dataDir string) *HealthHandler {
	return &HealthHandler{dataDir: dataDir}
}

// Register mounts the health and readiness endpoints.
//
// Routes:
//   - GET /healthz: always 200.
//   - GET /readyz: 200 when the data directory accepts writes, 503 otherwise.
func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/readyz", func(c *gin.Context) {
		if err := h.probeWrite(); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
}

// probeWrite verifies the snapshot directory accepts writes, since every
// durable operation of the service ends in a rename there.
func (h *HealthHandler) probeWrite() error {
	f, err := os.CreateTemp(h.dataDir, ".readyz-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(filepath.Clean(name))
}
