package api

import (
	"errors"

	"RegimeScan/internal/domain/models"
	domrepo "RegimeScan/internal/domain/repository"
	"RegimeScan/internal/service/alphavantage"
	"RegimeScan/internal/usecase"
	xhttp "RegimeScan/pkg/http"
	xlogger "RegimeScan/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RegimeEchoHandler exposes breakpoint scans and detection history over HTTP.
type RegimeEchoHandler struct {
	logger  *xlogger.Logger
	scan    *usecase.ScanUseCase
	changes domrepo.ChangeStore
}

func NewRegimeEchoHandler(logger *xlogger.Logger, scan *usecase.ScanUseCase, changes domrepo.ChangeStore) *RegimeEchoHandler {
	return &RegimeEchoHandler{logger: logger, scan: scan, changes: changes}
}

func (h *RegimeEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/scan", h.Scan)
	g.GET("/changes", h.Changes)
	e.GET("/health", h.Health)
}

// Scan runs a breakpoint scan for ?symbol over the optional ?from/?to range.
func (h *RegimeEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.scan.Scan(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, alphavantage.ErrNoData) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no daily series for %s", req.Symbol).WithError(err))
		}
		h.logger.Error("scan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// Changes lists the most recent detections for ?symbol.
func (h *RegimeEchoHandler) Changes(c echo.Context) error {
	req := &models.ChangesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.changes == nil {
		return xhttp.NotFoundResponse(c, "change history not configured")
	}

	rows, err := h.changes.Recent(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("changes query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Health reports liveness and change-store reachability.
func (h *RegimeEchoHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.changes != nil {
		if err := h.changes.Health(c.Request().Context()); err != nil {
			status["clickhouse"] = err.Error()
			return xhttp.SuccessResponse(c, status)
		}
		status["clickhouse"] = "ok"
	}
	return xhttp.SuccessResponse(c, status)
}

var _ xhttp.Handler = (*RegimeEchoHandler)(nil)
