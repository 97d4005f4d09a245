package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKRXClosingPrices_StepsBackOverNonTradingDays(t *testing.T) {
	target := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	tradingDay := "20260828" // target minus the weekend

	var requestedDays []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		day := r.FormValue("trdDd")
		requestedDays = append(requestedDays, day)

		if day != tradingDay {
			fmt.Fprint(w, `{"output":[]}`)
			return
		}
		fmt.Fprint(w, `{"output":[
			{"ISU_SRT_CD":"069500","TDD_CLSPRC":"10,050"},
			{"ISU_SRT_CD":"360750","TDD_CLSPRC":"20500"},
			{"ISU_SRT_CD":"","TDD_CLSPRC":"1"},
			{"ISU_SRT_CD":"999999","TDD_CLSPRC":"0"}
		]}`)
	}))
	defer srv.Close()

	c := NewKRXClient(srv.URL, 5*time.Second)
	table := c.ClosingPrices(context.Background(), target)

	if len(table) != 2 {
		t.Fatalf("table = %v, want 2 rows", table)
	}
	if table["069500"] != 10050 {
		t.Fatalf("comma-formatted close = %d, want 10050", table["069500"])
	}
	if table["360750"] != 20500 {
		t.Fatalf("close = %d, want 20500", table["360750"])
	}
	// 31st, 30th, 29th were empty; the 28th served data.
	if len(requestedDays) != 4 {
		t.Fatalf("requested days = %v", requestedDays)
	}
}

func TestKRXClosingPrices_FailsClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewKRXClient(srv.URL, 5*time.Second)
	table := c.ClosingPrices(context.Background(), time.Now())

	if table == nil {
		t.Fatalf("must return an empty map, not nil")
	}
	if len(table) != 0 {
		t.Fatalf("table = %v, want empty", table)
	}
}

func TestKRXClosingPrices_UnreachableHost(t *testing.T) {
	c := NewKRXClient("http://127.0.0.1:1", 200*time.Millisecond)
	if table := c.ClosingPrices(context.Background(), time.Now()); len(table) != 0 {
		t.Fatalf("table = %v, want empty", table)
	}
}
