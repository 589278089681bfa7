package api

import (
	"errors"
	"strconv"

	models "StockCast/internal/domain/models"
	"StockCast/internal/usecase"
	xhttp "StockCast/pkg/http"
	xlogger "StockCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes the forecasting pipeline over HTTP.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.PipelineUseCase
	forecast *usecase.ForecastUseCase
}

func NewForecastEchoHandler(logger *xlogger.Logger, pipeline *usecase.PipelineUseCase, forecast *usecase.ForecastUseCase) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, pipeline: pipeline, forecast: forecast}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/generate", h.Generate)
	g.POST("/pipeline/run", h.RunPipeline)
	g.POST("/train", h.Train)
	g.GET("/leaderboard", h.Leaderboard)
	g.GET("/forecast", h.Forecast)
	g.GET("/recommend", h.Recommend)
	g.GET("/recommendations", h.Recommendations)
}

func (h *ForecastEchoHandler) Generate(c echo.Context) error {
	req := &models.GenerateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.pipeline.Generate(c.Request().Context(), *req)
	if err != nil {
		return h.domainError(c, "generate", err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"rows": rows})
}

func (h *ForecastEchoHandler) RunPipeline(c echo.Context) error {
	req := &models.PipelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	lb, err := h.pipeline.Run(c.Request().Context(), *req)
	if err != nil {
		return h.domainError(c, "pipeline", err)
	}
	return xhttp.SuccessResponse(c, lb)
}

func (h *ForecastEchoHandler) Train(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	lb, err := h.pipeline.Train(c.Request().Context(), *req)
	if err != nil {
		return h.domainError(c, "train", err)
	}
	return xhttp.SuccessResponse(c, lb)
}

func (h *ForecastEchoHandler) Leaderboard(c echo.Context) error {
	lb, err := h.pipeline.Leaderboard(c.Request().Context())
	if err != nil {
		return xhttp.NotFoundResponse(c, "no leaderboard available; run training first")
	}
	return xhttp.SuccessResponse(c, lb)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points, err := h.forecast.GetForecast(c.Request().Context(), *req)
	if err != nil {
		return h.domainError(c, "forecast", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, points)
}

func (h *ForecastEchoHandler) Recommend(c echo.Context) error {
	req := &models.RecommendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.forecast.GetRecommendation(c.Request().Context(), *req)
	if err != nil {
		return h.domainError(c, "recommend", err)
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *ForecastEchoHandler) Recommendations(c echo.Context) error {
	lead := xhttp.ParseIntDefault(c.QueryParam("lead_time_days"), 7)
	level := 0.95
	if s := c.QueryParam("service_level"); s != "" {
		if v, ok := parseFloat(s); ok {
			level = v
		}
	}

	recs, err := h.forecast.GetRecommendations(c.Request().Context(), lead, level)
	if err != nil {
		return h.domainError(c, "recommendations", err)
	}
	return xhttp.SuccessResponse(c, recs)
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// domainError maps domain error types to HTTP responses.
func (h *ForecastEchoHandler) domainError(c echo.Context, op string, err error) error {
	var invalid *models.InvalidSpecError
	var insufficient *models.InsufficientDataError
	var noCandidates *models.NoCandidatesCompletedError
	var stale *models.StaleModelError

	switch {
	case errors.As(err, &invalid):
		return xhttp.BadRequestResponse(c, err.Error())
	case errors.As(err, &insufficient):
		return xhttp.NotFoundResponse(c, err.Error())
	case errors.As(err, &noCandidates), errors.As(err, &stale):
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("model_unavailable", "", err.Error(), 409))
	default:
		h.logger.Error(op+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
}
