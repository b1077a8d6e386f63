package acquire

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
	"github.com/haolin/tianji/backend/pkg/config"
	"github.com/haolin/tianji/backend/pkg/httputil"
	"github.com/haolin/tianji/backend/pkg/logger"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	cfg := config.EastmoneyConfig{
		KlineBaseURL:  serverURL,
		SearchBaseURL: serverURL,
		F10BaseURL:    serverURL,
		MaxAgeDays:    1,
	}
	dataDir := t.TempDir()
	httpClient := httputil.New(logger.NewNop()).DisableRetry()
	return NewClient(cfg, dataDir, httpClient, logger.NewNop())
}

// newFixtureServer serves canned responses for every endpoint the client
// touches. Datacenter reports are dispatched on the reportName parameter.
func newFixtureServer(t *testing.T, requests *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			*requests = append(*requests, r.URL.Path+"?"+r.URL.RawQuery)
		}
		switch r.URL.Path {
		case "/api/qt/stock/kline/get":
			fmt.Fprint(w, `{"data":{"code":"600415","klines":[
				"2025-03-18,10.00,10.20,10.30,9.90,120000,1224000.00,4.00",
				"2025-03-19,10.20,10.50,10.60,10.10,150000,1575000.00,4.90"
			]}}`)
		case "/search/web":
			fmt.Fprint(w, `{"result":{"webInfos":[
				{"title":"小商品城早盘走强","content":"义乌小商品城股价上涨","date":"2025-03-18 09:45:00","mediaName":"东方财富网","url":"https://example.com/a"},
				{"title":"年报点评","content":"营收稳步增长","date":"2025-03-19 08:00:00","mediaName":"证券时报","url":"https://example.com/b"}
			]}}`)
		case "/f10/zyjs/1.600415":
			fmt.Fprint(w, `<html><body><table class="zyjs">
				<tr><td>主营业务</td><td>市场开发经营及配套服务</td></tr>
				<tr><td>经营范围</td><td>市场开发经营,国内贸易</td></tr>
			</table></body></html>`)
		case "/api/data/v1/get":
			switch r.URL.Query().Get("reportName") {
			case "RPT_F10_FN_MAINOP":
				fmt.Fprint(w, `{"result":{"data":[
					{"SECURITY_CODE":"600415","REPORT_DATE":"2024-12-31 00:00:00","MAINOP_TYPE":"1","ITEM_NAME":"市场经营","MAIN_BUSINESS_INCOME":8000000000,"MBI_RATIO":0.72,"MAIN_BUSINESS_PROFIT":3000000000,"MBR_RATIO":0.81}
				]}}`)
			case "RPT_ECONOMY_CPI":
				fmt.Fprint(w, `{"result":{"data":[
					{"REPORT_DATE":"2025-02-01 00:00:00","NATIONAL_SAME":100.8,"NATIONAL_BASE":0.7,"NATIONAL_SEQUENTIAL":-0.2}
				]}}`)
			default:
				fmt.Fprint(w, `{"result":{"data":[
					{"SECURITY_CODE":"600415","REPORT_DATE":"2024-12-31 00:00:00","EPSJB":0.70,"EX_DIVIDEND_DATE":"2024-07-01 00:00:00","TRADE_DATE":"2025-02-20 00:00:00"}
				]}}`)
			}
		default:
			http.NotFound(w, r)
		}
	}))
}

func testWindow(t *testing.T) contracts.TimeWindow {
	t.Helper()
	w, err := contracts.NewTimeWindow(
		time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 19, 0, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatalf("NewTimeWindow() failed: %v", err)
	}
	return w
}

func TestFetchDailyBars(t *testing.T) {
	var requests []string
	server := newFixtureServer(t, &requests)
	defer server.Close()
	c := newTestClient(t, server.URL)

	if err := c.FetchDailyBars(context.Background(), "600415", testWindow(t)); err != nil {
		t.Fatalf("FetchDailyBars() failed: %v", err)
	}

	tbl, err := dataset.ReadCSV(filepath.Join(c.dataDir, "600415", dailyBarsFile))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("Expected 2 bars, got %d", len(tbl.Rows))
	}
	if got := tbl.Cell(1, tbl.ColumnIndex("收盘")); got != "10.50" {
		t.Errorf("Close = %q, want 10.50", got)
	}
	if got := tbl.Cell(0, tbl.ColumnIndex("日期")); got != "2025-03-18" {
		t.Errorf("Date = %q, want 2025-03-18", got)
	}

	if len(requests) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(requests))
	}
	for _, want := range []string{"secid=1.600415", "beg=20241020", "end=20250319", "klt=101"} {
		if !strings.Contains(requests[0], want) {
			t.Errorf("Request %q missing %q", requests[0], want)
		}
	}
}

func TestFetchNewsSortsNewestFirst(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	c := newTestClient(t, server.URL)

	if err := c.FetchNews(context.Background(), "600415"); err != nil {
		t.Fatalf("FetchNews() failed: %v", err)
	}

	tbl, err := dataset.ReadCSV(filepath.Join(c.dataDir, "600415", newsFile))
	if err != nil {
		t.Fatalf("ReadCSV() failed: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(tbl.Rows))
	}
	// Fixture returns the older article first; the file must be newest first.
	if got := tbl.Cell(0, tbl.ColumnIndex("发布时间")); got != "2025-03-19 08:00:00" {
		t.Errorf("First article time = %q, want 2025-03-19 08:00:00", got)
	}
	if got := tbl.Cell(0, tbl.ColumnIndex("新闻标题")); got != "年报点评" {
		t.Errorf("First article title = %q, want 年报点评", got)
	}
}

func TestFetchFundamentals(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	c := newTestClient(t, server.URL)

	if err := c.FetchFundamentals(context.Background(), "600415"); err != nil {
		t.Fatalf("FetchFundamentals() failed: %v", err)
	}
	dir := filepath.Join(c.dataDir, "600415", fundamentalsDir)

	profile, err := dataset.ReadCSV(filepath.Join(dir, profileFile))
	if err != nil {
		t.Fatalf("ReadCSV(profile) failed: %v", err)
	}
	if got := profile.Cell(0, profile.ColumnIndex("主营业务")); got != "市场开发经营及配套服务" {
		t.Errorf("主营业务 = %q", got)
	}
	// 产品类型 was absent from the page and must not appear as a column.
	if idx := profile.ColumnIndex("产品类型"); idx != -1 {
		t.Errorf("Expected no 产品类型 column, found at %d", idx)
	}

	mainBiz, err := dataset.ReadCSV(filepath.Join(dir, mainBusinessFile))
	if err != nil {
		t.Fatalf("ReadCSV(main business) failed: %v", err)
	}
	if got := mainBiz.Cell(0, mainBiz.ColumnIndex("报告日期")); got != "2024-12-31" {
		t.Errorf("报告日期 = %q, want timestamp trimmed to date", got)
	}
	if got := mainBiz.Cell(0, mainBiz.ColumnIndex("主营收入")); got != "8000000000" {
		t.Errorf("主营收入 = %q, want 8000000000", got)
	}

	if _, err := dataset.ReadCSV(filepath.Join(dir, keyMetricsFile)); err != nil {
		t.Errorf("Key metrics file missing: %v", err)
	}
	if _, err := dataset.ReadCSV(filepath.Join(dir, dividendsFile)); err != nil {
		t.Errorf("Dividends file missing: %v", err)
	}
}

func TestFetchFundamentalsHonorsFreshness(t *testing.T) {
	var requests []string
	server := newFixtureServer(t, &requests)
	defer server.Close()
	c := newTestClient(t, server.URL)

	ctx := context.Background()
	if err := c.FetchFundamentals(ctx, "600415"); err != nil {
		t.Fatalf("First FetchFundamentals() failed: %v", err)
	}
	firstCount := len(requests)

	if err := c.FetchFundamentals(ctx, "600415"); err != nil {
		t.Fatalf("Second FetchFundamentals() failed: %v", err)
	}
	if len(requests) != firstCount {
		t.Errorf("Fresh files refetched: %d requests after second run, want %d", len(requests), firstCount)
	}
}

func TestFetchMacro(t *testing.T) {
	server := newFixtureServer(t, nil)
	defer server.Close()
	c := newTestClient(t, server.URL)

	if err := c.FetchMacro(context.Background()); err != nil {
		t.Fatalf("FetchMacro() failed: %v", err)
	}
	dir := filepath.Join(c.dataDir, filepath.FromSlash(macroDir))

	cpi, err := dataset.ReadCSV(filepath.Join(dir, "中国CPI数据.csv"))
	if err != nil {
		t.Fatalf("ReadCSV(CPI) failed: %v", err)
	}
	if got := cpi.Cell(0, cpi.ColumnIndex("全国当月")); got != "100.8" {
		t.Errorf("CPI 全国当月 = %q, want 100.8", got)
	}
	if got := cpi.Cell(0, cpi.ColumnIndex("全国环比增长")); got != "-0.2" {
		t.Errorf("CPI 全国环比增长 = %q, want -0.2", got)
	}
	for _, spec := range macroReports {
		if _, err := os.Stat(filepath.Join(dir, spec.file)); err != nil {
			t.Errorf("Macro file %s missing: %v", spec.file, err)
		}
	}
}

func TestEnsureWindowCollectsFailures(t *testing.T) {
	// Server only answers klines; everything else 404s. EnsureWindow must
	// still attempt every dataset and report the failures.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/qt/stock/kline/get" {
			fmt.Fprint(w, `{"data":{"klines":["2025-03-19,10.20,10.50,10.60,10.10,150000,1575000.00,4.90"]}}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()
	c := newTestClient(t, server.URL)

	err := c.EnsureWindow(context.Background(), "600415", testWindow(t))
	if err == nil {
		t.Fatal("Expected error from failed datasets, got nil")
	}
	// The dataset that succeeded still landed on disk.
	if _, statErr := os.Stat(filepath.Join(c.dataDir, "600415", dailyBarsFile)); statErr != nil {
		t.Errorf("Daily bars missing after partial failure: %v", statErr)
	}
}
