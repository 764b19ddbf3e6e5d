package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mbekov/packquest/internal/domain/entities"
	"github.com/mbekov/packquest/internal/infra/postgres/repository"
	"github.com/mbekov/packquest/internal/service"
)

// userIDHeader is set by the auth proxy in front of this service. The
// engine itself never holds ambient user state; every operation takes the
// user id explicitly.
const userIDHeader = "X-User-ID"

type Handler struct {
	completions CompletionService
	packs       PackService
	views       ViewService
	follows     FollowService
	db          Pinger
	logger      *zap.Logger
}

func NewHandler(
	completions CompletionService,
	packs PackService,
	views ViewService,
	follows FollowService,
	db Pinger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		completions: completions,
		packs:       packs,
		views:       views,
		follows:     follows,
		db:          db,
		logger:      logger,
	}
}

type progressResponse struct {
	UserID                   int64   `json:"user_id"`
	XP                       int64   `json:"xp"`
	Level                    int     `json:"level"`
	Streak                   int     `json:"streak"`
	LastActivityDate         *string `json:"last_activity_date"`
	TotalChallengesCompleted int     `json:"total_challenges_completed"`
}

func newProgressResponse(p *entities.UserProgress) progressResponse {
	resp := progressResponse{
		UserID:                   p.UserID,
		XP:                       p.XP,
		Level:                    p.Level,
		Streak:                   p.Streak,
		TotalChallengesCompleted: p.TotalChallengesCompleted,
	}
	if p.LastActivityDate != nil {
		date := p.LastActivityDate.Format("2006-01-02")
		resp.LastActivityDate = &date
	}
	return resp
}

type packResponse struct {
	UserID      int64      `json:"user_id"`
	PackID      string     `json:"pack_id"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	Reflection  string     `json:"reflection,omitempty"`
	ImageRef    string     `json:"image_ref,omitempty"`
	Visibility  string     `json:"visibility"`
}

func newPackResponse(p *entities.PackProgress) packResponse {
	return packResponse{
		UserID:      p.UserID,
		PackID:      p.PackID,
		IsCompleted: p.IsCompleted,
		CompletedAt: p.CompletedAt,
		Reflection:  p.Reflection,
		ImageRef:    p.ImageRef,
		Visibility:  string(p.Visibility),
	}
}

func (h *Handler) completeChallenge(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		XPAward int64 `json:"xp_award"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.completions.CompleteChallenge(c.Request.Context(), userID, c.Param("id"), req.XPAward, time.Now())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":          newProgressResponse(result.Progress),
		"leveled_up":        result.LeveledUp,
		"streak_broke":      result.StreakBroke,
		"already_completed": result.AlreadyCompleted,
	})
}

func (h *Handler) getProgress(c *gin.Context) {
	userID, ok := h.pathUser(c)
	if !ok {
		return
	}

	progress, err := h.completions.GetProgress(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProgressResponse(progress))
}

func (h *Handler) finalizePack(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		Reflection   string   `json:"reflection"`
		ImageRef     string   `json:"image_ref"`
		Visibility   string   `json:"visibility"`
		ChallengeIDs []string `json:"challenge_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.packs.FinalizePack(
		c.Request.Context(),
		userID,
		c.Param("id"),
		req.Reflection,
		req.ImageRef,
		req.Visibility,
		req.ChallengeIDs,
		time.Now(),
	)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pack":              newPackResponse(result.Pack),
		"already_finalized": result.AlreadyFinalized,
	})
}

func (h *Handler) listPacks(c *gin.Context) {
	ownerID, ok := h.pathUser(c)
	if !ok {
		return
	}
	viewerID, ok := h.requireUser(c)
	if !ok {
		return
	}

	packs, err := h.packs.ListPacksForViewer(c.Request.Context(), ownerID, viewerID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]packResponse, 0, len(packs))
	for _, p := range packs {
		resp = append(resp, newPackResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"packs": resp})
}

func (h *Handler) getPack(c *gin.Context) {
	ownerID, ok := h.pathUser(c)
	if !ok {
		return
	}
	viewerID, ok := h.requireUser(c)
	if !ok {
		return
	}

	pack, err := h.packs.GetPackForViewer(c.Request.Context(), ownerID, viewerID, c.Param("packId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPackResponse(pack))
}

func (h *Handler) registerView(c *gin.Context) {
	viewerID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req struct {
		OwnerID int64 `json:"owner_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.views.RegisterView(c.Request.Context(), c.Param("id"), viewerID, req.OwnerID, time.Now())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"view_count": result.Count, "counted": result.Counted})
}

func (h *Handler) follow(c *gin.Context) {
	followeeID, ok := h.pathUser(c)
	if !ok {
		return
	}
	followerID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.follows.Follow(c.Request.Context(), followerID, followeeID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": true})
}

func (h *Handler) unfollow(c *gin.Context) {
	followeeID, ok := h.pathUser(c)
	if !ok {
		return
	}
	followerID, ok := h.requireUser(c)
	if !ok {
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), followerID, followeeID); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"following": false})
}

func (h *Handler) healthz(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// requireUser reads the authenticated user id injected by the auth proxy.
func (h *Handler) requireUser(c *gin.Context) (int64, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user"})
		return 0, false
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user"})
		return 0, false
	}
	return userID, true
}

// pathUser parses the :id path segment as a user id.
func (h *Handler) pathUser(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return userID, true
}

// writeError maps engine errors onto HTTP statuses. Unknown errors are
// reported as 503 so callers retry; every operation is idempotent, which
// makes the retry safe.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, entities.ErrInvalidXPAward),
		errors.Is(err, entities.ErrInvalidVisibility),
		errors.Is(err, entities.ErrSelfFollow),
		errors.Is(err, service.ErrEmptyPack):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPackIncomplete),
		errors.Is(err, entities.ErrOutOfOrderEvent):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrPackProgressNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "pack not found"})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	}
}
