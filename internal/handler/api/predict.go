package api

import (
	"errors"
	"net/http"
	"time"

	models "CoinCast/internal/domain/models"
	domrepo "CoinCast/internal/domain/repository"
	"CoinCast/internal/service/metrics"
	"CoinCast/internal/usecase"
	xhttp "CoinCast/pkg/http"
	xlogger "CoinCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictHandler serves the forecast API.
type PredictHandler struct {
	logger    *xlogger.Logger
	predictor *usecase.Predictor
	price     *usecase.PriceService
	collector *usecase.LiveCollector
	store     domrepo.DatasetStorage
}

func NewPredictHandler(
	logger *xlogger.Logger,
	predictor *usecase.Predictor,
	price *usecase.PriceService,
	collector *usecase.LiveCollector,
) *PredictHandler {
	metrics.Register()
	return &PredictHandler{logger: logger, predictor: predictor, price: price, collector: collector}
}

func (h *PredictHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Status)
	g := e.Group("/api")
	g.GET("/predict", h.PredictAll)
	g.GET("/predict/:hours", h.PredictOne)
	g.GET("/price", h.Price)
	g.GET("/models", h.Models)
	if h.store != nil {
		g.GET("/dataset", h.Dataset)
	}
}

// SetDatasetStorage enables the dataset query endpoint.
func (h *PredictHandler) SetDatasetStorage(s domrepo.DatasetStorage) { h.store = s }

// Status reports service health and the loaded horizons.
func (h *PredictHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":           "running",
		"available_models": h.predictor.AvailableHorizons(),
		"stream_connected": h.collector != nil && h.collector.IsConnected(),
	})
}

// PredictAll forecasts every loaded horizon over one shared snapshot.
func (h *PredictHandler) PredictAll(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("predict_all").Observe(time.Since(start).Seconds()) }()

	batch, err := h.predictor.PredictAll(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("predict_all").Inc()
		h.logger.Error("predict all failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapPredictError(err))
	}
	return xhttp.SuccessResponse(c, batch)
}

// PredictOne forecasts a single horizon.
func (h *PredictHandler) PredictOne(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("predict_one").Observe(time.Since(start).Seconds()) }()

	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	result, err := h.predictor.PredictOne(c.Request().Context(), req.Hours)
	if err != nil {
		metrics.APIErrors.WithLabelValues("predict_one").Inc()
		h.logger.Error("predict failed",
			xlogger.Int("horizon_hours", req.Hours),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapPredictError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

// Price serves the rolling 24h ticker.
func (h *PredictHandler) Price(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("price").Observe(time.Since(start).Seconds()) }()

	quote, err := h.price.Current(c.Request().Context())
	if err != nil {
		metrics.APIErrors.WithLabelValues("price").Inc()
		h.logger.Error("ticker fetch failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_PRICE_UNAVAILABLE", "", "price source unavailable", http.StatusServiceUnavailable,
		).WithError(err))
	}
	return xhttp.SuccessResponse(c, quote)
}

// Models lists the loaded bundles and their frozen metrics.
func (h *PredictHandler) Models(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"models": h.predictor.Models(),
	})
}

// Dataset serves persisted feature rows from the dataset backend.
func (h *PredictHandler) Dataset(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("dataset").Observe(time.Since(start).Seconds()) }()

	now := time.Now().UTC()
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), now.AddDate(0, 0, -7))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), now)
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 1000)

	rows, err := h.store.Query(c.Request().Context(), from, to, limit)
	if err != nil {
		metrics.APIErrors.WithLabelValues("dataset").Inc()
		h.logger.Error("dataset query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// mapPredictError translates pipeline errors into API errors: missing models
// are 404, missing market data is 503, schema bugs stay 500.
func mapPredictError(err error) error {
	var insufficient *models.InsufficientHistoryError
	switch {
	case models.IsModelUnavailable(err):
		return xhttp.NewAppError("ERR_MODEL_UNAVAILABLE", "hours", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, models.ErrCandleDataUnavailable):
		return xhttp.NewAppError("ERR_DATA_UNAVAILABLE", "", err.Error(), http.StatusServiceUnavailable).WithError(err)
	case errors.As(err, &insufficient):
		return xhttp.NewAppError("ERR_INSUFFICIENT_HISTORY", "", err.Error(), http.StatusServiceUnavailable).WithError(err)
	default:
		return err
	}
}
