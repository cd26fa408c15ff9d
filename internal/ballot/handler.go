package ballot

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	issuer *Issuer
}

func NewHandler(i *Issuer) *Handler {
	return &Handler{issuer: i}
}

// RegisterRoutes 注册 /ballot 路由组
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/ballot")
	{
		g.POST("/:user_id", h.Submit)
		g.GET("/:user_id", h.ListByUser)
	}
}

func parseUserID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		httpx.ValidationError(c, err)
		return 0, false
	}
	return uint(id), true
}

// Submit 为参与者在今天的抽奖中发放一张票
func (h *Handler) Submit(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	b, err := h.issuer.SubmitBallotForToday(c.Request.Context(), userID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListByUser(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}
	ballots, err := h.issuer.ListBallotsByUser(c.Request.Context(), userID)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, ballots)
}
