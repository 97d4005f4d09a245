package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/etfpulse/internal/domain/dto"
	"github.com/guttosm/etfpulse/internal/domain/models"
	"github.com/guttosm/etfpulse/internal/service"
	"github.com/guttosm/etfpulse/internal/storage"
	"github.com/guttosm/etfpulse/internal/universe"
)

type mockRefresher struct {
	runID     string
	startErr  error
	state     models.RunView
	cancelled bool
}

func (m *mockRefresher) Start(_ []string, _ universe.ProgressFunc) (string, error) {
	return m.runID, m.startErr
}
func (m *mockRefresher) Cancel()               { m.cancelled = true }
func (m *mockRefresher) State() models.RunView { return m.state }

var _ RefreshRunner = (*mockRefresher)(nil)

type mockUniverse struct {
	snap models.Snapshot
}

func (m *mockUniverse) Load() models.Snapshot { return m.snap }

var _ UniverseReader = (*mockUniverse)(nil)

type mockQuotes struct {
	quotes map[string]universe.LiveQuote
	asked  []string
}

func (m *mockQuotes) Quotes(_ context.Context, tickers []string) map[string]universe.LiveQuote {
	m.asked = tickers
	return m.quotes
}

var _ QuoteProvider = (*mockQuotes)(nil)

func setupRouter(t *testing.T, refresher RefreshRunner, snapshots UniverseReader, quotes QuoteProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	portfolio, err := storage.NewPortfolioStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPortfolioStore: %v", err)
	}
	if refresher == nil {
		refresher = &mockRefresher{}
	}
	if snapshots == nil {
		snapshots = &mockUniverse{}
	}
	if quotes == nil {
		quotes = &mockQuotes{}
	}

	h := NewHandler(refresher, snapshots, quotes, portfolio)
	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/refresh", h.StartRefresh)
	v1.GET("/refresh/status", h.RefreshStatus)
	v1.DELETE("/refresh", h.CancelRefresh)
	v1.GET("/universe", h.GetUniverse)
	v1.GET("/quotes", h.GetQuotes)
	v1.GET("/portfolio", h.GetPortfolio)
	v1.DELETE("/portfolio", h.ClearPortfolio)
	v1.POST("/portfolio/positions", h.UpsertPosition)
	v1.POST("/portfolio/accounts", h.AddAccount)
	v1.PUT("/portfolio/accounts", h.RenameAccount)
	v1.DELETE("/portfolio/accounts/:name", h.DeleteAccount)
	v1.GET("/portfolio/saved", h.ListSavedPortfolios)
	v1.POST("/portfolio/saved/:name", h.SavePortfolioAs)
	v1.PUT("/portfolio/saved/:name", h.LoadSavedPortfolio)
	v1.DELETE("/portfolio/saved/:name", h.DeleteSavedPortfolio)
	v1.POST("/portfolio/stats", h.PortfolioStats)
	v1.POST("/simulate", h.Simulate)
	return r
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartRefresh_TableDriven(t *testing.T) {
	cases := []struct {
		name      string
		refresher *mockRefresher
		body      string
		status    int
		assert    func(t *testing.T, body []byte)
	}{
		{
			name:      "accepted without body",
			refresher: &mockRefresher{runID: "run-1"},
			status:    http.StatusAccepted,
			assert: func(t *testing.T, body []byte) {
				var out dto.RefreshAccepted
				if err := json.Unmarshal(body, &out); err != nil {
					t.Fatalf("invalid json: %v", err)
				}
				if out.RunID != "run-1" {
					t.Fatalf("run_id = %q", out.RunID)
				}
			},
		},
		{
			name:      "accepted with ticker subset",
			refresher: &mockRefresher{runID: "run-2"},
			body:      `{"tickers":["069500","360750"]}`,
			status:    http.StatusAccepted,
		},
		{
			name:      "conflict while running",
			refresher: &mockRefresher{startErr: universe.ErrRunInFlight},
			status:    http.StatusConflict,
		},
		{
			name:      "malformed body",
			refresher: &mockRefresher{runID: "run-3"},
			body:      `{"tickers":`,
			status:    http.StatusBadRequest,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(t, tc.refresher, nil, nil)
			w := do(r, http.MethodPost, "/api/v1/refresh", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
			if tc.assert != nil {
				tc.assert(t, w.Body.Bytes())
			}
		})
	}
}

func TestRefreshStatusAndCancel(t *testing.T) {
	refresher := &mockRefresher{state: models.RunView{Status: models.RunRunning, Done: 3, Total: 10}}
	r := setupRouter(t, refresher, nil, nil)

	w := do(r, http.MethodGet, "/api/v1/refresh/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var out dto.RunStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.Run.Status != models.RunRunning || out.Run.Done != 3 {
		t.Fatalf("run = %+v", out.Run)
	}

	w = do(r, http.MethodDelete, "/api/v1/refresh", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("cancel code = %d", w.Code)
	}
	if !refresher.cancelled {
		t.Fatalf("cancel not forwarded")
	}
}

func TestGetUniverse(t *testing.T) {
	snap := models.Snapshot{"069500": {Name: "KODEX 200", Price: 10000}}
	r := setupRouter(t, nil, &mockUniverse{snap: snap}, nil)

	w := do(r, http.MethodGet, "/api/v1/universe", "")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	var out models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out["069500"].Name != "KODEX 200" {
		t.Fatalf("snapshot = %+v", out)
	}
}

func TestGetQuotes(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]universe.LiveQuote{
		"069500": {Name: "KODEX 200", Price: 10050, ChangeValue: 50, ChangeRate: 0.5},
	}}
	r := setupRouter(t, nil, nil, quotes)

	w := do(r, http.MethodGet, "/api/v1/quotes", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing param code = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/quotes?tickers=069500,%20360750", "")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if len(quotes.asked) != 2 || quotes.asked[1] != "360750" {
		t.Fatalf("asked = %v, want trimmed tickers", quotes.asked)
	}
	var out map[string]dto.QuoteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out["069500"].Price != 10050 || out["069500"].ChangeRate != 0.5 {
		t.Fatalf("quote = %+v", out["069500"])
	}
}

func TestPortfolioPositions(t *testing.T) {
	r := setupRouter(t, nil, nil, nil)

	w := do(r, http.MethodPost, "/api/v1/portfolio/positions", `{"qty":10}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing symbol code = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/portfolio/positions", `{"symbol":"069500","qty":10,"avg_price":10000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("upsert code = %d (%s)", w.Code, w.Body.String())
	}
	var doc models.Portfolio
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if doc.Accounts[models.DefaultAccount].Positions["069500"].Qty != 10 {
		t.Fatalf("document = %+v", doc)
	}

	w = do(r, http.MethodDelete, "/api/v1/portfolio", "")
	if w.Code != http.StatusOK {
		t.Fatalf("clear code = %d", w.Code)
	}

	w = do(r, http.MethodGet, "/api/v1/portfolio", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get code = %d", w.Code)
	}
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(doc.Accounts[models.DefaultAccount].Positions) != 0 {
		t.Fatalf("positions should be cleared: %+v", doc)
	}
}

func TestPortfolioAccounts_TableDriven(t *testing.T) {
	r := setupRouter(t, nil, nil, nil)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"create", http.MethodPost, "/api/v1/portfolio/accounts", `{"name":"ISA"}`, http.StatusCreated},
		{"duplicate create", http.MethodPost, "/api/v1/portfolio/accounts", `{"name":"ISA"}`, http.StatusConflict},
		{"missing name", http.MethodPost, "/api/v1/portfolio/accounts", `{}`, http.StatusBadRequest},
		{"rename", http.MethodPut, "/api/v1/portfolio/accounts", `{"name":"ISA","new_name":"연금저축"}`, http.StatusOK},
		{"rename missing", http.MethodPut, "/api/v1/portfolio/accounts", `{"name":"없는계좌","new_name":"x"}`, http.StatusNotFound},
		{"delete", http.MethodDelete, "/api/v1/portfolio/accounts/연금저축", "", http.StatusOK},
		{"delete last", http.MethodDelete, "/api/v1/portfolio/accounts/" + url.PathEscape(models.DefaultAccount), "", http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, tc.method, tc.target, tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d (%s)", tc.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestSavedPortfolios(t *testing.T) {
	r := setupRouter(t, nil, nil, nil)

	if w := do(r, http.MethodPost, "/api/v1/portfolio/positions", `{"symbol":"069500","qty":10}`); w.Code != http.StatusOK {
		t.Fatalf("seed code = %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/v1/portfolio/saved/은퇴플랜", ""); w.Code != http.StatusCreated {
		t.Fatalf("save code = %d", w.Code)
	}

	w := do(r, http.MethodGet, "/api/v1/portfolio/saved", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list code = %d", w.Code)
	}
	var names []string
	if err := json.Unmarshal(w.Body.Bytes(), &names); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(names) != 1 || names[0] != "은퇴플랜" {
		t.Fatalf("names = %v", names)
	}

	if w := do(r, http.MethodDelete, "/api/v1/portfolio", ""); w.Code != http.StatusOK {
		t.Fatalf("clear code = %d", w.Code)
	}
	w = do(r, http.MethodPut, "/api/v1/portfolio/saved/은퇴플랜", "")
	if w.Code != http.StatusOK {
		t.Fatalf("load code = %d", w.Code)
	}
	var doc models.Portfolio
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if _, ok := doc.Accounts[models.DefaultAccount].Positions["069500"]; !ok {
		t.Fatalf("restored document missing position: %+v", doc)
	}

	if w := do(r, http.MethodDelete, "/api/v1/portfolio/saved/은퇴플랜", ""); w.Code != http.StatusOK {
		t.Fatalf("delete code = %d", w.Code)
	}
	if w := do(r, http.MethodPut, "/api/v1/portfolio/saved/은퇴플랜", ""); w.Code != http.StatusNotFound {
		t.Fatalf("load deleted code = %d", w.Code)
	}
}

func TestPortfolioStats(t *testing.T) {
	snap := models.Snapshot{"069500": {Yield: 4.0, TotalReturn1Y: 8.0}}
	r := setupRouter(t, nil, &mockUniverse{snap: snap}, nil)

	w := do(r, http.MethodPost, "/api/v1/portfolio/stats", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid body code = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/portfolio/stats", `[{"ticker":"069500","amount":1000000}]`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d (%s)", w.Code, w.Body.String())
	}
	var out service.PortfolioStats
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if out.WeightedYield != 4.0 || out.AnnualIncome != 40000 {
		t.Fatalf("stats = %+v", out)
	}
}

func TestSimulateEndpoint(t *testing.T) {
	r := setupRouter(t, nil, nil, nil)

	w := do(r, http.MethodPost, "/api/v1/simulate", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid body code = %d", w.Code)
	}

	w = do(r, http.MethodPost, "/api/v1/simulate", `{"initial_principal":1000000,"years":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d (%s)", w.Code, w.Body.String())
	}
	var rows []service.SimulationRow
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 12 || rows[11].AssetPost != 1_000_000 {
		t.Fatalf("rows = %d last = %+v", len(rows), rows[len(rows)-1])
	}
}
