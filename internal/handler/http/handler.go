package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	_ "github.com/aniladanir/mailing-campaign-service/docs"
	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	"github.com/aniladanir/mailing-campaign-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type MessageLister interface {
	FindByStatuses(ctx context.Context, statuses ...domain.MessageStatus) ([]domain.Message, error)
}

type StatsProvider interface {
	Stats(ctx context.Context, ids []int64) (domain.Report, error)
}

type Handler struct {
	scheduler service.Scheduler
	messages  MessageLister
	stats     StatsProvider
	server    *http.Server
}

type schedulerStatus struct {
	Running bool              `json:"running"`
	Jobs    []service.JobInfo `json:"jobs"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// @title Mailing Campaign API
// @version 1.0
// @description Control and reporting API of the mailing campaign scheduler
// @host localhost:6060
// @BasePath /
func NewHttpHandler(addr string, scheduler service.Scheduler, messages MessageLister, stats StatsProvider) *Handler {
	h := &Handler{
		scheduler: scheduler,
		messages:  messages,
		stats:     stats,
	}

	// create router
	router := gin.New()
	router.Use(gin.Recovery())

	// register routes
	router.GET("/healthz", h.health)
	router.POST("/scheduler/start", h.startScheduler)
	router.POST("/scheduler/stop", h.stopScheduler)
	router.GET("/scheduler/status", h.schedulerStatus)
	router.GET("/messages", h.getMessages)
	router.GET("/stats/mailing_campaigns", h.getCampaignStats)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// create http server
	h.server = &http.Server{
		Addr:    addr,
		Handler: router.Handler(),
	}

	return h
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func (h *Handler) health(c *gin.Context) {
	c.Status(http.StatusOK)
}

// StartScheduler godoc
// @Summary Start the campaign scheduler
// @Description Starts the periodic campaign start, campaign end, message routing and report jobs
// @Tags Control
// @Success 200
// @Router /scheduler/start [post]
func (h *Handler) startScheduler(c *gin.Context) {
	h.scheduler.Start()
	c.Status(http.StatusOK)
}

// StopScheduler godoc
// @Summary Stop the campaign scheduler
// @Description Stops the periodic jobs after in-flight work completes
// @Tags Control
// @Success 200
// @Router /scheduler/stop [post]
func (h *Handler) stopScheduler(c *gin.Context) {
	h.scheduler.Stop()
	c.Status(http.StatusOK)
}

// SchedulerStatus godoc
// @Summary Scheduler state
// @Tags Control
// @Success 200 {object} schedulerStatus
// @Router /scheduler/status [get]
func (h *Handler) schedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, schedulerStatus{Running: h.scheduler.Running(), Jobs: h.scheduler.Jobs()})
}

// GetMessages godoc
// @Summary List messages by status
// @Description Comma separated status filter, defaults to SUCCESS
// @Tags Messages
// @Param status query string false "ENQUEUED,DELAYED,FAILED,EXPIRED,SUCCESS"
// @Success 200 {array} domain.Message
// @Failure 400 {object} errorResponse
// @Router /messages [get]
func (h *Handler) getMessages(c *gin.Context) {
	statuses := []domain.MessageStatus{domain.StatusSuccess}
	if raw := c.Query("status"); raw != "" {
		statuses = statuses[:0]
		for _, s := range strings.Split(raw, ",") {
			status := domain.MessageStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.Valid() {
				c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown status " + s})
				return
			}
			statuses = append(statuses, status)
		}
	}

	msgs, err := h.messages.FindByStatuses(c.Request.Context(), statuses...)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// GetCampaignStats godoc
// @Summary Campaign statistics
// @Description Message counts per status for each campaign
// @Tags Stats
// @Param campaign_ids query string false "comma separated campaign ids"
// @Success 200 {object} domain.Report
// @Failure 400 {object} errorResponse
// @Router /stats/mailing_campaigns [get]
func (h *Handler) getCampaignStats(c *gin.Context) {
	var ids []int64
	if raw := c.Query("campaign_ids"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid campaign id " + s})
				return
			}
			ids = append(ids, id)
		}
	}

	report, err := h.stats.Stats(c.Request.Context(), ids)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.JSON(http.StatusOK, report)
}
