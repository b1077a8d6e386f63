package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/haolin/tianji/backend/internal/dataset"
)

const (
	fundamentalsDir  = "股票基本面数据"
	profileFile      = "主营介绍.csv"
	mainBusinessFile = "主营构成.csv"
	keyMetricsFile   = "基本面数据关键指标.csv"
	dividendsFile    = "分红送配.csv"
)

// profileFields lists the 主营介绍 sections in page order. The scrape keeps
// whatever subset the page actually carries.
var profileFields = []string{"主营业务", "产品类型", "产品名称", "经营范围"}

// reportSpec maps one datacenter report onto one local CSV.
type reportSpec struct {
	file       string
	reportName string
	sortBy     string
	columns    []reportColumn
}

type reportColumn struct {
	header string
	field  string
}

var fundamentalReports = []reportSpec{
	{
		file:       mainBusinessFile,
		reportName: "RPT_F10_FN_MAINOP",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"股票代码", "SECURITY_CODE"},
			{"报告日期", "REPORT_DATE"},
			{"分类类型", "MAINOP_TYPE"},
			{"主营构成", "ITEM_NAME"},
			{"主营收入", "MAIN_BUSINESS_INCOME"},
			{"收入比例", "MBI_RATIO"},
			{"主营利润", "MAIN_BUSINESS_PROFIT"},
			{"利润比例", "MBR_RATIO"},
		},
	},
	{
		file:       keyMetricsFile,
		reportName: "RPT_F10_FINANCE_MAINFINADATA",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"股票代码", "SECURITY_CODE"},
			{"报告期", "REPORT_DATE"},
			{"每股收益", "EPSJB"},
			{"每股净资产", "BPS"},
			{"净资产收益率", "ROEJQ"},
			{"营业总收入", "TOTALOPERATEREVE"},
			{"归母净利润", "PARENTNETPROFIT"},
			{"销售毛利率", "XSMLL"},
			{"资产负债率", "ZCFZL"},
		},
	},
	{
		file:       dividendsFile,
		reportName: "RPT_SHAREBONUS_DET",
		sortBy:     "EX_DIVIDEND_DATE",
		columns: []reportColumn{
			{"股票代码", "SECURITY_CODE"},
			{"除权除息日", "EX_DIVIDEND_DATE"},
			{"分红方案", "IMPL_PLAN_PROFILE"},
			{"股权登记日", "EQUITY_RECORD_DATE"},
		},
	},
}

// FetchFundamentals refreshes the 股票基本面数据 directory: the scraped
// company profile plus every configured datacenter report. Files younger
// than the freshness window are left alone.
func (c *Client) FetchFundamentals(ctx context.Context, stockCode string) error {
	dir := filepath.Join(c.dataDir, stockCode, fundamentalsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := c.fetchProfile(ctx, stockCode, dir); err != nil {
		return fmt.Errorf("fetching %s: %w", profileFile, err)
	}
	for _, spec := range fundamentalReports {
		filter := fmt.Sprintf(`(SECURITY_CODE="%s")`, stockCode)
		if err := c.fetchReport(ctx, spec, filter, dir); err != nil {
			return fmt.Errorf("fetching %s: %w", spec.file, err)
		}
	}
	c.logger.WithField("stock_code", stockCode).Info("✅ fundamentals refreshed")
	return nil
}

// fetchProfile scrapes the F10 main-business page. The page is a plain
// two-column table: section title on the left, prose on the right.
func (c *Client) fetchProfile(ctx context.Context, stockCode, dir string) error {
	path := filepath.Join(dir, profileFile)
	if c.fresh(path) {
		return nil
	}
	if err := c.f10Limiter.Wait(ctx); err != nil {
		return err
	}

	reqURL := fmt.Sprintf("%s/f10/zyjs/%s", c.cfg.F10BaseURL, secID(stockCode))
	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return fmt.Errorf("parsing profile page: %w", err)
	}

	sections := make(map[string]string)
	doc.Find("table.zyjs tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		title := strings.TrimSpace(cells.First().Text())
		value := strings.TrimSpace(cells.Last().Text())
		if title != "" && value != "" {
			sections[title] = value
		}
	})
	if len(sections) == 0 {
		return fmt.Errorf("profile page had no sections")
	}

	tbl := &dataset.Table{Columns: []string{"股票代码"}}
	row := []string{stockCode}
	for _, field := range profileFields {
		if value, ok := sections[field]; ok {
			tbl.Columns = append(tbl.Columns, field)
			row = append(row, value)
		}
	}
	tbl.Rows = append(tbl.Rows, row)
	return dataset.WriteCSV(path, tbl)
}

type reportResponse struct {
	Result struct {
		Data []map[string]json.RawMessage `json:"data"`
	} `json:"result"`
}

// fetchReport pulls one datacenter report into dir/spec.file, honoring the
// freshness window.
func (c *Client) fetchReport(ctx context.Context, spec reportSpec, filter, dir string) error {
	path := filepath.Join(dir, spec.file)
	if c.fresh(path) {
		return nil
	}
	if err := c.f10Limiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("reportName", spec.reportName)
	if filter != "" {
		params.Set("filter", filter)
	}
	params.Set("sortColumns", spec.sortBy)
	params.Set("sortTypes", "1")
	params.Set("pageSize", "500")
	reqURL := fmt.Sprintf("%s/api/data/v1/get?%s", c.cfg.F10BaseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var parsed reportResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing report response: %w", err)
	}
	if len(parsed.Result.Data) == 0 {
		return fmt.Errorf("report %s returned no rows", spec.reportName)
	}

	tbl := &dataset.Table{}
	for _, col := range spec.columns {
		tbl.Columns = append(tbl.Columns, col.header)
	}
	for _, record := range parsed.Result.Data {
		row := make([]string, 0, len(spec.columns))
		for _, col := range spec.columns {
			row = append(row, renderValue(record[col.field]))
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return dataset.WriteCSV(path, tbl)
}

// renderValue turns a raw datacenter cell into CSV text. Numbers keep their
// shortest exact form, timestamps are trimmed to the date part.
func renderValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if len(s) == len("2006-01-02 15:04:05") && s[10] == ' ' && strings.HasSuffix(s, "00:00:00") {
			return s[:10]
		}
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return string(raw)
}
