package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/BloggingApp/writerspace/internal/dto"
	"github.com/BloggingApp/writerspace/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = (livePongWait * 9) / 10
)

func parsePostID(c *gin.Context) (uuid.UUID, bool) {
	postID, err := uuid.Parse(strings.TrimSpace(c.Param("postID")))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidPostID.Error()))
		return uuid.Nil, false
	}
	return postID, true
}

func (h *Handler) postsGetPublished(c *gin.Context) {
	var category *model.PostCategory
	if raw := strings.TrimSpace(c.Query("category")); raw != "" {
		cat := model.PostCategory(strings.ToLower(raw))
		if cat != model.PostCategoryBlog && cat != model.PostCategoryPoetry {
			c.JSON(http.StatusBadRequest, dto.NewBasicResponse(false, errInvalidCategory.Error()))
			return
		}
		category = &cat
	}

	c.JSON(http.StatusOK, dto.PostsResponse{
		Posts: h.services.Post.GetPublishedPosts(category),
		Error: h.services.Post.LoadError(),
	})
}

func (h *Handler) postsGetRecommended(c *gin.Context) {
	c.JSON(http.StatusOK, dto.PostsResponse{
		Posts: h.services.Post.GetRecommendedPosts(),
		Error: h.services.Post.LoadError(),
	})
}

// postsGetByID hides drafts from everyone but admins.
func (h *Handler) postsGetByID(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	post, err := h.services.Post.GetPost(postID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if !post.IsPublished() && !h.getUserFromRequest(c).IsAdmin() {
		c.JSON(http.StatusNotFound, dto.NewBasicResponse(false, "post not found"))
		return
	}

	c.JSON(http.StatusOK, post)
}

// postsLive streams the published posts on every change until the client goes away.
func (h *Handler) postsLive(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Sugar().Infof("failed to upgrade live feed connection: %s", err.Error())
		return
	}
	defer conn.Close()

	updates := make(chan dto.PostsResponse, 1)
	push := func(resp dto.PostsResponse) {
		for {
			select {
			case updates <- resp:
				return
			default:
			}
			// Only the newest snapshot matters; drop the one waiting.
			select {
			case <-updates:
			default:
			}
		}
	}

	unsubscribe := h.services.Post.WatchPublished(func(posts []model.Post, loadError string) {
		push(dto.PostsResponse{Posts: posts, Error: loadError})
	})
	defer unsubscribe()

	push(dto.PostsResponse{
		Posts: h.services.Post.GetPublishedPosts(nil),
		Error: h.services.Post.LoadError(),
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case resp := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) reactionsGet(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}

	recorded, err := h.services.Reaction.Recorded(c.Request.Context(), h.getDeviceID(c), postID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	reaction, err := h.services.Reaction.UserReaction(c.Request.Context(), h.getDeviceID(c), postID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DeviceReactionsResponse{
		Likes:    recorded[model.ReactionLikes],
		Dislikes: recorded[model.ReactionDislikes],
		Shares:   recorded[model.ReactionShares],
		Reaction: reaction,
	})
}

func (h *Handler) reactionsHas(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	reaction := model.ReactionType(strings.TrimSpace(c.Param("type")))

	reacted, err := h.services.Reaction.HasReacted(c.Request.Context(), h.getDeviceID(c), postID, reaction)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReactionResponse{Recorded: reacted, Reaction: reaction})
}

func (h *Handler) reactionsRecord(c *gin.Context) {
	postID, ok := parsePostID(c)
	if !ok {
		return
	}
	reaction := model.ReactionType(strings.TrimSpace(c.Param("type")))

	recorded, err := h.services.Reaction.Record(c.Request.Context(), h.getDeviceID(c), postID, reaction)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ReactionResponse{Recorded: recorded, Reaction: reaction})
}
