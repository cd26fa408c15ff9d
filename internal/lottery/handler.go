package lottery

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

// CreateLotteryRequest 定义了创建抽奖时请求体的JSON结构
type CreateLotteryRequest struct {
	Date string `json:"lottery_date" binding:"required,datetime=2006-01-02"`
}

// Handler 把抽奖相关的HTTP请求转交给 Manager
type Handler struct {
	manager *Manager
}

func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterRoutes 注册 /lottery 路由组
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/lottery")
	{
		g.POST("", h.Create)
		g.POST("/close", h.CloseAndDraw)
		g.GET("", h.List)
		g.GET("/open", h.ListOpen)
		g.GET("/active-today", h.ActiveToday)
		g.GET("/by-date/:date", h.GetByDate)
		g.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateLotteryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.ValidationError(c, err)
		return
	}
	l, err := h.manager.CreateLottery(c.Request.Context(), body.Date)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// CloseAndDraw 关闭并开奖；未指定 date 时关闭昨天的抽奖
func (h *Handler) CloseAndDraw(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = h.manager.Calendar().Yesterday()
	}
	w, err := h.manager.CloseAndDraw(c.Request.Context(), date)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) List(c *gin.Context) {
	lotteries, err := h.manager.ListLotteries(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, lotteries)
}

func (h *Handler) ListOpen(c *gin.Context) {
	lotteries, err := h.manager.ListOpenLotteries(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, lotteries)
}

// ActiveToday 返回今天开放的抽奖，不存在时返回 null
func (h *Handler) ActiveToday(c *gin.Context) {
	l, err := h.manager.ActiveLotteryForToday(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httpx.ValidationError(c, err)
		return
	}
	l, err := h.manager.GetLottery(c.Request.Context(), uint(id))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) GetByDate(c *gin.Context) {
	l, err := h.manager.GetLotteryByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}
