package acquire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"sort"

	"github.com/haolin/tianji/backend/internal/dataset"
)

const (
	newsFile     = "股票新闻数据.csv"
	newsPageSize = 100
)

var newsColumns = []string{"新闻标题", "新闻内容", "发布时间", "文章来源", "新闻链接"}

type newsResponse struct {
	Result struct {
		WebInfos []struct {
			Title       string `json:"title"`
			Content     string `json:"content"`
			PublishTime string `json:"date"`
			Source      string `json:"mediaName"`
			URL         string `json:"url"`
		} `json:"webInfos"`
	} `json:"result"`
}

// FetchNews pulls the latest articles mentioning the stock and rewrites
// 股票新闻数据.csv, newest first. News is never cached either: a stale
// headline set defeats the point of the news stage.
func (c *Client) FetchNews(ctx context.Context, stockCode string) error {
	if err := c.searchLimiter.Wait(ctx); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("keyword", stockCode)
	params.Set("pageSize", fmt.Sprintf("%d", newsPageSize))
	params.Set("pageIndex", "1")
	reqURL := fmt.Sprintf("%s/search/web?%s", c.cfg.SearchBaseURL, params.Encode())

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return fmt.Errorf("fetching news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading news response: %w", err)
	}

	var parsed newsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing news response: %w", err)
	}
	if len(parsed.Result.WebInfos) == 0 {
		return fmt.Errorf("no news returned for %s", stockCode)
	}

	tbl := &dataset.Table{Columns: newsColumns}
	for _, item := range parsed.Result.WebInfos {
		tbl.Rows = append(tbl.Rows, []string{
			item.Title, item.Content, item.PublishTime, item.Source, item.URL,
		})
	}
	sort.SliceStable(tbl.Rows, func(i, j int) bool {
		return tbl.Rows[i][2] > tbl.Rows[j][2]
	})

	path := filepath.Join(c.dataDir, stockCode, newsFile)
	if err := dataset.WriteCSV(path, tbl); err != nil {
		return err
	}
	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"articles":   len(tbl.Rows),
	}).Info("✅ news refreshed")
	return nil
}
