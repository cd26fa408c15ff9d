package winner

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SlpAus/daily-lottery-backend/internal/platform/httpx"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterRoutes 注册 /winner-ballot 路由组
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/winner-ballot")
	{
		g.GET("", h.List)
		g.GET("/by-date", h.GetByDate)
		g.GET("/:lottery_id", h.GetByLottery)
	}
}

func (h *Handler) List(c *gin.Context) {
	winners, err := h.service.List(c.Request.Context())
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, winners)
}

// GetByDate 读取 ?winning_date=YYYY-MM-DD 当天的中奖记录
func (h *Handler) GetByDate(c *gin.Context) {
	date := c.Query("winning_date")
	if date == "" {
		httpx.ValidationError(c, errors.New("缺少参数 winning_date"))
		return
	}
	w, err := h.service.GetByWinningDate(c.Request.Context(), date)
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *Handler) GetByLottery(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("lottery_id"), 10, 64)
	if err != nil {
		httpx.ValidationError(c, err)
		return
	}
	w, err := h.service.GetByLottery(c.Request.Context(), uint(id))
	if err != nil {
		httpx.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
