package participant

import (
	"net/http"
	"strconv"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/apperr"
	"github.com/SlpAus/daily-lottery-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

// RegisterRequest 定义了注册参与者时请求体的JSON结构
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	BirthDate string `json:"birth_date" binding:"required,datetime=2006-01-02"`
}

type Handler struct {
	registry *Registry
}

func NewHandler(r *Registry) *Handler {
	return &Handler{registry: r}
}

// RegisterRoutes 注册 /participant 路由组
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/participant")
	{
		g.POST("", h.Register)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var body RegisterRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.ValidationError(c, err)
		return
	}
	p, err := h.registry.Register(c.Request.Context(), body.FirstName, body.LastName, body.BirthDate)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c *gin.Context) {
	participants, err := h.registry.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// Get 返回参与者，不存在时返回 null
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		httpx.ValidationError(c, err)
		return
	}
	p, err := h.registry.Get(c.Request.Context(), uint(id))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
