package handler

import (
	"net/http"

	"motorepuestos/internal/apierror"
	"motorepuestos/internal/live"

	"github.com/gin-gonic/gin"
)

type LiveHandler struct{ hub *live.Hub }

func NewLiveHandler(hub *live.Hub) *LiveHandler { return &LiveHandler{hub: hub} }

var liveKeys = map[string]string{
	"sales":     live.CacheSales,
	"inventory": live.CacheInventory,
	"shifts":    live.CacheShifts,
	"expenses":  live.CacheExpenses,
}

// Snapshot serves the hub's cached page for a collection. A cold or
// expired cache is a 204: the client falls back to the regular list
// endpoints.
func (h *LiveHandler) Snapshot(c *gin.Context) {
	key, ok := liveKeys[c.Param("collection")]
	if !ok {
		c.JSON(http.StatusBadRequest, apierror.New("coleccion desconocida"))
		return
	}
	page := h.hub.GetCached(key)
	if page == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, page)
}
