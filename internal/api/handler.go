package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/etfpulse/internal/domain/dto"
	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/service"
	"github.com/guttosm/etfpulse/internal/storage"
	"github.com/guttosm/etfpulse/internal/universe"
)

// RefreshRunner is the orchestrator surface the HTTP layer drives.
type RefreshRunner interface {
	Start(requested []string, progress universe.ProgressFunc) (string, error)
	Cancel()
	State() models.RunView
}

// UniverseReader reads the current snapshot.
type UniverseReader interface {
	Load() models.Snapshot
}

// QuoteProvider resolves live quotes outside the refresh pipeline.
type QuoteProvider interface {
	Quotes(ctx context.Context, tickers []string) map[string]universe.LiveQuote
}

// Handler provides the HTTP handlers for the universe, refresh, portfolio,
// and simulation endpoints.
//
// Responsibilities:
//   - Validate incoming parameters and request bodies
//   - Drive the orchestrator and stores
//   - Translate results into response DTOs with appropriate status codes
type Handler struct {
	refresher RefreshRunner
	snapshots UniverseReader
	quotes    QuoteProvider
	portfolio *storage.PortfolioStore
}

// NewHandler constructs a Handler with all collaborators injected.
func NewHandler(refresher RefreshRunner, snapshots UniverseReader, quotes QuoteProvider, portfolio *storage.PortfolioStore) *Handler {
	return &Handler{
		refresher: refresher,
		snapshots: snapshots,
		quotes:    quotes,
		portfolio: portfolio,
	}
}

// StartRefresh godoc
// @Summary      Start a universe refresh
// @Description  Kicks off a background refresh run for the given tickers, or the full universe when the list is empty
// @Tags         refresh
// @Accept       json
// @Produce      json
// @Param        request  body      dto.RefreshRequest  false  "Optional ticker subset"
// @Success      202      {object}  dto.RefreshAccepted    "Accepted"
// @Failure      409      {object}  dto.ErrorResponse      "Run already in progress"
// @Router       /api/v1/refresh [post]
func (h *Handler) StartRefresh(c *gin.Context) {
	var req dto.RefreshRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
			return
		}
	}

	runID, err := h.refresher.Start(req.Tickers, nil)
	if err != nil {
		if errors.Is(err, universe.ErrRunInFlight) {
			c.JSON(http.StatusConflict, dto.NewErrorResponse("refresh already in progress", nil))
			return
		}
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to start refresh", err))
		return
	}
	c.JSON(http.StatusAccepted, dto.RefreshAccepted{RunID: runID})
}

// RefreshStatus godoc
// @Summary      Current refresh run status
// @Tags         refresh
// @Produce      json
// @Success      200  {object}  dto.RunStatusResponse
// @Router       /api/v1/refresh/status [get]
func (h *Handler) RefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RunStatusResponse{Run: h.refresher.State()})
}

// CancelRefresh godoc
// @Summary      Cancel the in-flight refresh run
// @Description  Cooperative cancellation; already-fetched tickers are discarded and the previous snapshot stays intact
// @Tags         refresh
// @Produce      json
// @Success      202  {object}  dto.RunStatusResponse
// @Router       /api/v1/refresh [delete]
func (h *Handler) CancelRefresh(c *gin.Context) {
	h.refresher.Cancel()
	c.JSON(http.StatusAccepted, dto.RunStatusResponse{Run: h.refresher.State()})
}

// GetUniverse godoc
// @Summary      Full universe snapshot
// @Tags         universe
// @Produce      json
// @Success      200  {object}  models.Snapshot
// @Router       /api/v1/universe [get]
func (h *Handler) GetUniverse(c *gin.Context) {
	c.JSON(http.StatusOK, h.snapshots.Load())
}

// GetQuotes godoc
// @Summary      Live quotes for a ticker list
// @Description  Short-TTL cached quotes for portfolio views; unknown tickers are omitted
// @Tags         quotes
// @Produce      json
// @Param        tickers  query     string  true  "Comma-separated ticker codes"  example(069500,360750)
// @Success      200      {object}  map[string]dto.QuoteResponse
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/quotes [get]
func (h *Handler) GetQuotes(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("tickers"))
	if raw == "" {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("tickers is required", nil))
		return
	}
	tickers := strings.Split(raw, ",")
	for i := range tickers {
		tickers[i] = strings.TrimSpace(tickers[i])
	}

	quotes := h.quotes.Quotes(c.Request.Context(), tickers)
	resp := make(map[string]dto.QuoteResponse, len(quotes))
	for ticker, q := range quotes {
		resp[ticker] = dto.QuoteResponse{
			Name:        q.Name,
			Price:       q.Price,
			ChangeValue: q.ChangeValue,
			ChangeRate:  q.ChangeRate,
			Trend1D:     q.Trend,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetPortfolio godoc
// @Summary      Active portfolio document
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  models.Portfolio
// @Router       /api/v1/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, h.portfolio.Load())
}

// UpsertPosition godoc
// @Summary      Add, update, or remove one position
// @Description  Quantity zero or below removes the symbol from the account
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        request  body      dto.UpsertPositionRequest  true  "Position"
// @Success      200      {object}  models.Portfolio
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/portfolio/positions [post]
func (h *Handler) UpsertPosition(c *gin.Context) {
	var req dto.UpsertPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}

	doc, err := h.portfolio.Upsert(req.Symbol, req.Qty, req.AvgPrice, req.Account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to save portfolio", err))
		return
	}
	c.JSON(http.StatusOK, doc)
}

// ClearPortfolio godoc
// @Summary      Reset the portfolio to a single empty default account
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  models.Portfolio
// @Router       /api/v1/portfolio [delete]
func (h *Handler) ClearPortfolio(c *gin.Context) {
	doc, err := h.portfolio.Clear()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to clear portfolio", err))
		return
	}
	c.JSON(http.StatusOK, doc)
}

// AddAccount godoc
// @Summary      Create an account
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        request  body      dto.AccountRequest  true  "Account name"
// @Success      201      {object}  models.Portfolio
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Failure      409      {object}  dto.ErrorResponse  "Already exists"
// @Router       /api/v1/portfolio/accounts [post]
func (h *Handler) AddAccount(c *gin.Context) {
	var req dto.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}
	if err := h.portfolio.AddAccount(req.Name); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.portfolio.Load())
}

// RenameAccount godoc
// @Summary      Rename an account
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        request  body      dto.AccountRequest  true  "Old and new names"
// @Success      200      {object}  models.Portfolio
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Failure      404      {object}  dto.ErrorResponse  "Not Found"
// @Router       /api/v1/portfolio/accounts [put]
func (h *Handler) RenameAccount(c *gin.Context) {
	var req dto.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}
	if err := h.portfolio.RenameAccount(req.Name, req.NewName); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.portfolio.Load())
}

// DeleteAccount godoc
// @Summary      Delete an account
// @Tags         portfolio
// @Produce      json
// @Param        name  path      string  true  "Account name"
// @Success      200   {object}  models.Portfolio
// @Failure      400   {object}  dto.ErrorResponse  "Last account"
// @Failure      404   {object}  dto.ErrorResponse  "Not Found"
// @Router       /api/v1/portfolio/accounts/{name} [delete]
func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.portfolio.DeleteAccount(c.Param("name")); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.portfolio.Load())
}

func (h *Handler) accountError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrAccountNotFound), errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.NewErrorResponse("account not found", nil))
	case errors.Is(err, storage.ErrAccountExists):
		c.JSON(http.StatusConflict, dto.NewErrorResponse("account already exists", nil))
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrLastAccount):
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse(err.Error(), nil))
	default:
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("portfolio operation failed", err))
	}
}

// ListSavedPortfolios godoc
// @Summary      List saved portfolio names
// @Tags         portfolio
// @Produce      json
// @Success      200  {array}  string
// @Router       /api/v1/portfolio/saved [get]
func (h *Handler) ListSavedPortfolios(c *gin.Context) {
	names, err := h.portfolio.ListNamed()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("failed to list portfolios", err))
		return
	}
	c.JSON(http.StatusOK, names)
}

// SavePortfolioAs godoc
// @Summary      Save the active portfolio under a name
// @Tags         portfolio
// @Produce      json
// @Param        name  path      string  true  "Portfolio name"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse  "Invalid name"
// @Router       /api/v1/portfolio/saved/{name} [post]
func (h *Handler) SavePortfolioAs(c *gin.Context) {
	if err := h.portfolio.SaveAs(c.Param("name")); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "saved"})
}

// LoadSavedPortfolio godoc
// @Summary      Load a saved portfolio into the active slot
// @Tags         portfolio
// @Produce      json
// @Param        name  path      string  true  "Portfolio name"
// @Success      200   {object}  models.Portfolio
// @Failure      404   {object}  dto.ErrorResponse  "Not Found"
// @Router       /api/v1/portfolio/saved/{name} [put]
func (h *Handler) LoadSavedPortfolio(c *gin.Context) {
	if err := h.portfolio.LoadNamed(c.Param("name")); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.portfolio.Load())
}

// DeleteSavedPortfolio godoc
// @Summary      Delete a saved portfolio
// @Tags         portfolio
// @Produce      json
// @Param        name  path      string  true  "Portfolio name"
// @Success      200   {object}  map[string]string
// @Failure      404   {object}  dto.ErrorResponse  "Not Found"
// @Router       /api/v1/portfolio/saved/{name} [delete]
func (h *Handler) DeleteSavedPortfolio(c *gin.Context) {
	if err := h.portfolio.DeleteNamed(c.Param("name")); err != nil {
		h.accountError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// PortfolioStats godoc
// @Summary      Weighted yield and return for a holdings list
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        request  body      []models.Holding  true  "Holdings"
// @Success      200      {object}  service.PortfolioStats
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/portfolio/stats [post]
func (h *Handler) PortfolioStats(c *gin.Context) {
	var holdings []models.Holding
	if err := c.ShouldBindJSON(&holdings); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}
	c.JSON(http.StatusOK, service.ComputeStats(holdings, h.snapshots.Load()))
}

// Simulate godoc
// @Summary      Dividend reinvestment simulation
// @Description  Month-by-month projection with tax treatment per account type and an untaxed comparison account
// @Tags         simulate
// @Accept       json
// @Produce      json
// @Param        request  body      dto.SimulateRequest  true  "Simulation inputs"
// @Success      200      {array}   service.SimulationRow
// @Failure      400      {object}  dto.ErrorResponse  "Bad Request"
// @Router       /api/v1/simulate [post]
func (h *Handler) Simulate(c *gin.Context) {
	var req dto.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponse("invalid request body", err))
		return
	}

	rows := service.Simulate(service.SimulationParams{
		InitialPrincipal: req.InitialPrincipal,
		MonthlyInvest:    req.MonthlyInvest,
		AnnualYield:      req.AnnualYield,
		GrowthRate:       req.GrowthRate,
		AnnualDivGrowth:  req.AnnualDivGrowth,
		TaxRate:          req.TaxRate,
		AccountType:      service.AccountType(req.AccountType),
		ReinvestRatio:    req.ReinvestRatio,
		Years:            req.Years,
		InflationRate:    req.InflationRate,
	})
	c.JSON(http.StatusOK, rows)
}
