package rest

import (
	"net/http"
	"strconv"

	"github.com/KevinKickass/OpenBusBridge/internal/types"
	"github.com/gin-gonic/gin"
)

type itemEventRequest struct {
	Kind  string `json:"kind" binding:"required"`
	Value string `json:"value" binding:"required"`
}

type readRequest struct {
	Item string `json:"item" binding:"required"`
}

type datapointInfo struct {
	Item     string `json:"item"`
	Address  string `json:"address"`
	Kind     string `json:"kind"`
	DPT      string `json:"dpt"`
	Readable bool   `json:"readable"`
}

func (s *Server) getBridgeStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.lm.GetCurrentStatus())
}

func (s *Server) listDatapoints(c *gin.Context) {
	datapoints := s.lm.Bridge().ReadableDatapoints()

	infos := make([]datapointInfo, 0, len(datapoints))
	for _, dp := range datapoints {
		infos = append(infos, datapointInfo{
			Item:     dp.Item,
			Address:  dp.Address.String(),
			Kind:     string(dp.Kind),
			DPT:      dp.DPT,
			Readable: dp.Readable,
		})
	}

	c.JSON(http.StatusOK, gin.H{"datapoints": infos})
}

// postItemCommand injects a command as if it arrived on the
// application bus.
func (s *Server) postItemCommand(c *gin.Context) {
	s.postItemEvent(c, false)
}

// postItemState injects a state update as if it arrived on the
// application bus.
func (s *Server) postItemState(c *gin.Context) {
	s.postItemEvent(c, true)
}

func (s *Server) postItemEvent(c *gin.Context, isUpdate bool) {
	var req itemEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	value, err := types.ParseValue(types.ValueKind(req.Kind), req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := c.Param("name")
	if isUpdate {
		s.lm.Bridge().OnUpdate(item, value)
	} else {
		s.lm.Bridge().OnCommand(item, value)
	}

	c.JSON(http.StatusAccepted, gin.H{"item": item, "value": value.String()})
}

// readGroupValue performs a one-shot read of an item's readable
// datapoint and decodes the response.
func (s *Server) readGroupValue(c *gin.Context) {
	var req readRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dp *types.Datapoint
	for _, candidate := range s.lm.Bridge().ReadableDatapoints() {
		if candidate.Item == req.Item {
			dp = candidate
			break
		}
	}
	if dp == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no readable datapoint for item"})
		return
	}

	data, err := s.lm.Transport().GroupRead(dp)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	value := s.lm.Bridge().Mappers().ToValue(dp, data)
	if value == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no type mapper for response"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"item":    dp.Item,
		"address": dp.Address.String(),
		"kind":    string(value.Kind()),
		"value":   value.String(),
	})
}

func (s *Server) getJournal(c *gin.Context) {
	journal := s.lm.Journal()
	if journal == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal not enabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	events, err := journal.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}
