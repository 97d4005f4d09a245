package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/text/encoding/korean"
)

func TestPageExtractLabel(t *testing.T) {
	page := NewPage(`
		<table><tr>
			<th>배당수익률</th><td>4.52 %</td>
		</tr><tr>
			<th>최근 분배금</th><td>350 원</td>
		</tr><tr>
			<th>최근 분배금 지급기준일</th><td>2026/07/31</td>
		</tr></table>`)

	cases := []struct {
		name   string
		labels []string
		want   string
	}{
		{"yield", []string{"배당수익률"}, "4.52"},
		{"amount", []string{"최근 분배금"}, "350"},
		{"date beats number", []string{"최근 분배금 지급기준일"}, "2026/07/31"},
		{"first label wins", []string{"없는라벨", "배당수익률"}, "4.52"},
		{"no match", []string{"순자산총액"}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := page.ExtractLabel(tc.labels...); got != tc.want {
				t.Fatalf("ExtractLabel(%v) = %q, want %q", tc.labels, got, tc.want)
			}
		})
	}
}

func TestPageExtractLabel_SpansLines(t *testing.T) {
	page := NewPage("배당수익률\n\t 3.10 %")
	if got := page.ExtractLabel("배당수익률"); got != "3.10" {
		t.Fatalf("got %q, want 3.10", got)
	}
}

func TestPageExtractHistory(t *testing.T) {
	page := NewPage(`
		<table>
			<tr><th>지급기준일</th><th>분배금(원)</th></tr>
			<tr><td>2026/06/30</td><td>120</td></tr>
			<tr><td>2026/03/31</td><td><b>80</b></td></tr>
			<tr><td>잘못된날짜</td><td>50</td></tr>
			<tr><td>2025/12/30</td><td>0</td></tr>
		</table>
		<table>
			<tr><th>무관한표</th></tr>
			<tr><td>값</td></tr>
		</table>`)

	events := page.ExtractHistory()
	if len(events) != 2 {
		t.Fatalf("events = %+v, want 2", events)
	}
	if events[0].Date != "2026-06-30" || events[0].Amount != 120 {
		t.Fatalf("event = %+v", events[0])
	}
	if events[1].Date != "2026-03-31" || events[1].Amount != 80 {
		t.Fatalf("nested markup event = %+v", events[1])
	}
}

func TestPageExtractHistory_NoMatchingTable(t *testing.T) {
	page := NewPage(`<table><tr><th>가격</th></tr><tr><td>100</td></tr></table>`)
	if events := page.ExtractHistory(); len(events) != 0 {
		t.Fatalf("events = %+v, want none", events)
	}
}

func TestFnGuideFetch_DecodesEUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().Bytes([]byte(`<div>배당수익률 4.52</div>`))
	if err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html;charset=euc-kr")
		_, _ = w.Write(encoded)
	}))
	defer srv.Close()

	page := NewFnGuideClient(srv.URL, 5*time.Second).Fetch(context.Background(), "069500")
	if page.Empty() {
		t.Fatalf("page should not be empty")
	}
	if got := page.ExtractLabel("배당수익률"); got != "4.52" {
		t.Fatalf("decoded label = %q, want 4.52", got)
	}
}

func TestFnGuideFetch_EmptyOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if page := NewFnGuideClient(srv.URL, 5*time.Second).Fetch(context.Background(), "069500"); !page.Empty() {
		t.Fatalf("expected empty page on 500")
	}
}

func TestParseDateAny(t *testing.T) {
	for _, s := range []string{"2026/06/30", "2026-06-30", "2026.06.30"} {
		d, ok := parseDateAny(s)
		if !ok || d.Format("2006-01-02") != "2026-06-30" {
			t.Fatalf("parseDateAny(%q) = %v/%v", s, d, ok)
		}
	}
	if _, ok := parseDateAny("30/06/2026"); ok {
		t.Fatalf("unexpected layout should fail")
	}
	if _, ok := parseDateAny(""); ok {
		t.Fatalf("empty should fail")
	}
}
