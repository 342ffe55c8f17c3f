package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danverh/panopticon/internal/engine"
	"github.com/danverh/panopticon/internal/logging"
	"github.com/danverh/panopticon/internal/pagination"
	"github.com/danverh/panopticon/internal/press"
	"github.com/danverh/panopticon/internal/protest"
	"github.com/danverh/panopticon/internal/realtime"
	"github.com/danverh/panopticon/internal/records"
	"github.com/danverh/panopticon/internal/validation"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Citizens & risk
// -----------------------------------------------------------------------------

func (s *Server) getCitizen(c *gin.Context) {
	citizen, err := s.recordStore.GetCitizen(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "citizen_not_found"})
			return
		}
		s.internalError(c, "get citizen", err)
		return
	}
	c.JSON(http.StatusOK, citizen)
}

func (s *Server) getRiskAssessment(c *gin.Context) {
	assessment, err := s.scorer.Score(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "citizen_not_found"})
			return
		}
		s.internalError(c, "score citizen", err)
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) listAssessments(c *gin.Context) {
	limit := parseLimit(c, 20)
	assessments, err := s.assessments.ListByCitizen(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.internalError(c, "list assessments", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"citizenId":   c.Param("id"),
		"assessments": assessments,
		"count":       len(assessments),
	})
}

// -----------------------------------------------------------------------------
// Decisions
// -----------------------------------------------------------------------------

func (s *Server) executeAction(c *gin.Context) {
	var req engine.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("operatorId", req.OperatorID),
		validation.ValidID("operatorId", req.OperatorID),
		validation.MaxLength("justification", req.Justification, validation.MaxJustificationLength),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: errs.Error(),
		})
		return
	}
	req.Justification = validation.SanitizeString(req.Justification, validation.MaxJustificationLength)

	if targetCount(req.Target) != 1 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "exactly one of target.citizenId, target.neighborhood, target.channelId, target.protestId must be set",
		})
		return
	}

	result, err := s.orch.Execute(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrUnknownAction):
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unknown_action",
				Message: "actionType is not in the action vocabulary",
			})
		case errors.Is(err, records.ErrNotFound),
			errors.Is(err, press.ErrNotFound),
			errors.Is(err, protest.ErrNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "target_not_found"})
		default:
			s.internalError(c, "execute action", err)
		}
		return
	}

	// Detentions change the dossier, so the cached risk score is stale.
	if result.Success && req.Target.CitizenID != "" {
		s.scorer.Invalidate(req.Target.CitizenID)
	}

	s.broadcastResult(req.OperatorID, result)

	c.JSON(http.StatusOK, result)
}

func (s *Server) submitNoAction(c *gin.Context) {
	var req engine.NoActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if errs := validation.Validate(
		validation.Required("operatorId", req.OperatorID),
		validation.Required("citizenId", req.CitizenID),
		validation.ValidID("citizenId", req.CitizenID),
	); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: errs.Error(),
		})
		return
	}

	result, err := s.orch.SubmitNoAction(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, records.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "citizen_not_found"})
			return
		}
		s.internalError(c, "submit no-action", err)
		return
	}

	if result.Termination != nil && result.Termination.Terminate {
		s.realtimeHub.Broadcast(&realtime.Event{
			Type:      realtime.EventTermination,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"operatorId": req.OperatorID,
				"reason":     string(result.Termination.Reason),
				"message":    result.Termination.Message,
			},
		})
	}

	c.JSON(http.StatusOK, result)
}

// -----------------------------------------------------------------------------
// Operator state
// -----------------------------------------------------------------------------

func (s *Server) listOperatorActions(c *gin.Context) {
	limit := parseLimit(c, 50)
	actions, err := s.orch.ActionHistory(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.internalError(c, "list actions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"operatorId": c.Param("id"),
		"actions":    actions,
		"count":      len(actions),
	})
}

func (s *Server) getOperatorMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	operatorID := c.Param("id")

	opinions, err := s.opinions.Current(ctx, operatorID)
	if err != nil {
		s.internalError(c, "load public metrics", err)
		return
	}
	rel, err := s.reluctance.Current(ctx, operatorID)
	if err != nil {
		s.internalError(c, "load reluctance metrics", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operatorId": operatorID,
		"opinion":    opinions,
		"reluctance": rel,
		"week":       s.orch.Week(),
	})
}

func (s *Server) getOperatorExposure(c *gin.Context) {
	event, err := s.orch.Exposure(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.internalError(c, "load exposure", err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// -----------------------------------------------------------------------------
// World state
// -----------------------------------------------------------------------------

func (s *Server) listChannels(c *gin.Context) {
	channels, err := s.pressStore.ListChannels(c.Request.Context())
	if err != nil {
		s.internalError(c, "list channels", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels, "count": len(channels)})
}

func (s *Server) listNews(c *gin.Context) {
	limit := parseLimit(c, 20)
	cur, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
		return
	}

	// Fetch one extra row to learn whether another page exists.
	var articles []*press.Article
	if cur != nil {
		articles, err = s.pressStore.ListArticlesBefore(c.Request.Context(), cur.Before, limit+1)
	} else {
		articles, err = s.pressStore.ListArticles(c.Request.Context(), limit+1)
	}
	if err != nil {
		s.internalError(c, "list articles", err)
		return
	}

	page, next, more := pagination.Page(articles, limit, func(a *press.Article) (time.Time, string) {
		return a.PublishedAt, a.ID
	})
	c.JSON(http.StatusOK, gin.H{
		"articles":   page,
		"count":      len(page),
		"nextCursor": next,
		"hasMore":    more,
	})
}

func (s *Server) listProtests(c *gin.Context) {
	protests, err := s.protestStore.ListOpen(c.Request.Context())
	if err != nil {
		s.internalError(c, "list protests", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"protests": protests, "count": len(protests)})
}

// -----------------------------------------------------------------------------
// Broadcasting
// -----------------------------------------------------------------------------

// broadcastResult pushes everything an action stirred up onto the
// realtime feed.
func (s *Server) broadcastResult(operatorID string, result *engine.ActionResult) {
	for _, a := range result.NewsTriggered {
		s.realtimeHub.BroadcastArticle(articleData(a))
	}
	for _, p := range result.ProtestsTriggered {
		s.realtimeHub.BroadcastProtest(protestData(p))
	}
	for _, te := range result.TierEvents {
		s.realtimeHub.Broadcast(&realtime.Event{
			Type:      realtime.EventTier,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"operatorId":  operatorID,
				"counter":     te.Counter,
				"tier":        te.Tier,
				"threshold":   te.Threshold,
				"description": te.Description,
			},
		})
	}
	if result.ExposureEvent != nil {
		s.realtimeHub.Broadcast(&realtime.Event{
			Type:      realtime.EventExposure,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"operatorId":  operatorID,
				"stage":       result.ExposureEvent.Stage,
				"description": result.ExposureEvent.Description,
			},
		})
	}
	if result.Termination != nil && result.Termination.Terminate {
		s.realtimeHub.Broadcast(&realtime.Event{
			Type:      realtime.EventTermination,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"operatorId": operatorID,
				"reason":     string(result.Termination.Reason),
				"message":    result.Termination.Message,
			},
		})
	}
}

// broadcastTick is wired as the world ticker's OnChange hook.
func (s *Server) broadcastTick(protests []*protest.Protest, article *press.Article) {
	for _, p := range protests {
		s.realtimeHub.BroadcastProtest(protestData(p))
	}
	if article != nil {
		s.realtimeHub.BroadcastArticle(articleData(article))
	}
}

func articleData(a *press.Article) map[string]interface{} {
	return map[string]interface{}{
		"id":             a.ID,
		"channelId":      a.ChannelID,
		"channelName":    a.ChannelName,
		"articleType":    string(a.Type),
		"headline":       a.Headline,
		"summary":        a.Summary,
		"awarenessDelta": a.AwarenessDelta,
		"angerDelta":     a.AngerDelta,
		"publishedAt":    a.PublishedAt,
	}
}

func protestData(p *protest.Protest) map[string]interface{} {
	return map[string]interface{}{
		"id":           p.ID,
		"neighborhood": p.Neighborhood,
		"description":  p.Description,
		"status":       string(p.Status),
		"size":         p.Size,
		"casualties":   p.Casualties,
		"arrests":      p.Arrests,
		"startedAt":    p.StartedAt,
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func (s *Server) internalError(c *gin.Context, op string, err error) {
	logging.L(c.Request.Context()).Error(op+" failed", "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

// targetCount counts the populated fields of a target reference; every
// action aims at exactly one.
func targetCount(t engine.TargetRef) int {
	n := 0
	for _, v := range []string{t.CitizenID, t.Neighborhood, t.ChannelID, t.ProtestID} {
		if v != "" {
			n++
		}
	}
	return n
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > 200 {
		n = 200
	}
	return n
}
