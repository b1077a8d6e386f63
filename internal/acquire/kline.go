package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
)

const dailyBarsFile = "股票日线数据.csv"

// fields2 selects the kline columns in this exact order.
var klineColumns = []string{"日期", "开盘", "收盘", "最高", "最低", "成交量", "成交额", "振幅"}

type klineResponse struct {
	Data struct {
		Code   string   `json:"code"`
		Klines []string `json:"klines"`
	} `json:"data"`
}

// FetchDailyBars downloads forward-adjusted daily klines covering the window
// and rewrites 股票日线数据.csv. Bars are never cached: the latest close is
// exactly what a prediction is about.
func (c *Client) FetchDailyBars(ctx context.Context, stockCode string, window contracts.TimeWindow) error {
	if err := c.klineLimiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("secid", secID(stockCode))
	params.Set("klt", "101") // daily
	params.Set("fqt", "1")   // 前复权
	params.Set("beg", window.Start.Format("20060102"))
	params.Set("end", window.End.Format("20060102"))
	params.Set("fields1", "f1,f2,f3")
	params.Set("fields2", "f51,f52,f53,f54,f55,f56,f57,f58")
	reqURL := fmt.Sprintf("%s/api/qt/stock/kline/get?%s", c.cfg.KlineBaseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("fetching klines: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading kline response: %w", err)
	}

	var parsed klineResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing kline response: %w", err)
	}
	if len(parsed.Data.Klines) == 0 {
		return fmt.Errorf("no klines returned for %s", stockCode)
	}

	tbl := &dataset.Table{Columns: klineColumns}
	for _, line := range parsed.Data.Klines {
		cells := strings.Split(line, ",")
		if len(cells) != len(klineColumns) {
			return fmt.Errorf("unexpected kline shape: %q", line)
		}
		tbl.Rows = append(tbl.Rows, cells)
	}

	path := filepath.Join(c.dataDir, stockCode, dailyBarsFile)
	if err := dataset.WriteCSV(path, tbl); err != nil {
		return err
	}
	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"bars":       len(tbl.Rows),
	}).Info("✅ daily bars refreshed")
	return nil
}
