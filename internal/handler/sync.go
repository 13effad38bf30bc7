package handler

import (
	"net/http"

	"motorepuestos/internal/dto"
	"motorepuestos/internal/offline"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	coordinator *offline.Coordinator
	monitor     *offline.Monitor
	queue       *offline.Queue
	dlq         *offline.DeadLetter
	capacity    int
}

func NewSyncHandler(coordinator *offline.Coordinator, monitor *offline.Monitor, queue *offline.Queue, dlq *offline.DeadLetter, capacity int) *SyncHandler {
	return &SyncHandler{coordinator: coordinator, monitor: monitor, queue: queue, dlq: dlq, capacity: capacity}
}

// Status reports connectivity and pending-queue depth.
func (h *SyncHandler) Status(c *gin.Context) {
	resp := dto.QueueStatusResponse{
		Online:    h.monitor.IsOnline(),
		QueueSize: h.queue.Size(),
		Capacity:  h.capacity,
	}
	if last := h.coordinator.LastSync(); !last.IsZero() {
		resp.LastSync = &last
	}
	if n, err := h.dlq.Length(c.Request.Context()); err == nil {
		resp.DeadLetters = n
	}
	c.JSON(http.StatusOK, resp)
}

// Force drains the queue now instead of waiting for the reconnect hook.
func (h *SyncHandler) Force(c *gin.Context) {
	replayed, failed := h.coordinator.Sync(c.Request.Context())
	c.JSON(http.StatusOK, dto.SyncResultResponse{
		Attempted: replayed + failed,
		Remaining: h.queue.Size(),
	})
}
