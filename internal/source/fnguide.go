package source

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"github.com/guttosm/etfpulse/internal/logger"
)

// FnGuideClient fetches the secondary informational provider's ETF snapshot
// page. The page is not a structured API; values are pulled out of the raw
// markup by label proximity, which is fragile to layout changes by design of
// the upstream. Page keeps that heuristic behind a narrow surface so it can
// be swapped for a structured parser without touching callers.
type FnGuideClient struct {
	base  string
	httpc *http.Client
}

// NewFnGuideClient builds a client against the given base URL.
func NewFnGuideClient(base string, timeout time.Duration) *FnGuideClient {
	return &FnGuideClient{
		base:  strings.TrimRight(base, "/"),
		httpc: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads the detail page for a ticker. Best effort: an empty Page
// on any failure. The page is served as EUC-KR more often than not, so a
// non-UTF-8 body goes through the Korean decoder.
func (c *FnGuideClient) Fetch(ctx context.Context, ticker string) Page {
	url := fmt.Sprintf(
		"%s/svo2/asp/etf_snapshot.asp?pGB=1&gicode=A%s&cID=&MenuYn=Y&ReportGB=&NewMenuID=106&stkGb=770",
		c.base, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}
	}
	req.Header.Set("User-Agent", desktopUA)

	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.L().Debug().Str("ticker", ticker).Err(err).Msg("fnguide fetch failed")
		return Page{}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Page{}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}
	}
	if !utf8.Valid(raw) {
		if decoded, err := korean.EUCKR.NewDecoder().Bytes(raw); err == nil {
			raw = decoded
		}
	}
	return NewPage(string(raw))
}

// Page is a fetched detail page prepared for label-based extraction.
type Page struct {
	html string
	flat string // whitespace-flattened copy used for proximity matching
}

// NewPage wraps raw markup.
func NewPage(markup string) Page {
	flat := strings.NewReplacer("\n", " ", "\t", " ").Replace(markup)
	return Page{html: markup, flat: flat}
}

// Empty reports whether the fetch produced nothing.
func (p Page) Empty() bool { return p.html == "" }

// HTML exposes the raw markup for callers that need their own extraction.
func (p Page) HTML() string { return p.html }

// valueAfterLabel matches the nearest date or number following a label.
const valueAfterLabel = `.*?(\d{4}[/.\-]\d{2}[/.\-]\d{2}|[0-9]+(?:\.[0-9]+)?)`

// ExtractLabel scans for each label in turn and captures the nearest
// following numeric-or-date token. Tolerant of minor layout variance; an
// empty string when no label matches.
func (p Page) ExtractLabel(labels ...string) string {
	for _, label := range labels {
		re, err := regexp.Compile(regexp.QuoteMeta(label) + valueAfterLabel)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(p.flat); m != nil {
			return m[1]
		}
	}
	return ""
}

var (
	tablePattern = regexp.MustCompile(`(?is)<table[^>]*>.*?</table>`)
	rowPattern   = regexp.MustCompile(`(?is)<tr[^>]*>.*?</tr>`)
	cellPattern  = regexp.MustCompile(`(?is)<t[hd][^>]*>(.*?)</t[hd]>`)
	tagPattern   = regexp.MustCompile(`<[^>]+>`)

	historyDateKeys   = []string{"지급기준일", "분배기준일", "기준일", "지급일", "일자", "날짜"}
	historyAmountKeys = []string{"분배금", "현금분배", "현금 분배", "분배금(원)", "현금분배(원)", "금액"}
)

// ExtractHistory pulls (date, amount) rows out of any HTML table whose
// header names a distribution date column and an amount column. This is the
// last-resort history source when the feed and the manual overrides are both
// empty. Output is raw: deduplication and ordering are the caller's job.
func (p Page) ExtractHistory() []DividendEvent {
	var rows []DividendEvent

	for _, table := range tablePattern.FindAllString(p.html, -1) {
		trs := rowPattern.FindAllString(table, -1)
		if len(trs) < 2 {
			continue
		}

		header := cellTexts(trs[0])
		dateCol := findColumn(header, historyDateKeys)
		amountCol := findColumn(header, historyAmountKeys)
		if dateCol < 0 || amountCol < 0 {
			continue
		}

		for _, tr := range trs[1:] {
			cells := cellTexts(tr)
			if len(cells) <= dateCol || len(cells) <= amountCol {
				continue
			}
			d, ok := parseDateAny(cells[dateCol])
			amount := parseInt(cells[amountCol])
			if !ok || amount <= 0 {
				continue
			}
			rows = append(rows, DividendEvent{Date: d.Format("2006-01-02"), Amount: amount})
		}
	}
	return rows
}

func cellTexts(tr string) []string {
	matches := cellPattern.FindAllStringSubmatch(tr, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		text := tagPattern.ReplaceAllString(m[1], "")
		out = append(out, strings.TrimSpace(html.UnescapeString(text)))
	}
	return out
}

func findColumn(header []string, keys []string) int {
	for i, cell := range header {
		squashed := strings.ReplaceAll(cell, " ", "")
		for _, key := range keys {
			if strings.Contains(squashed, strings.ReplaceAll(key, " ", "")) {
				return i
			}
		}
	}
	return -1
}
