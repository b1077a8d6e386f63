package report

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
)

const (
	newsFile      = "股票新闻数据.csv"
	stockInfoFile = "主营介绍.csv"

	// News published after the market opens on the target day is not
	// knowable at prediction time.
	newsCutoffHour   = 9
	newsCutoffMinute = 30
)

// NewsSource builds the news report: every article published before the
// target day's market open, plus the company profile for context.
type NewsSource struct {
	DataDir   string
	StockCode string
}

func (s *NewsSource) Stage() contracts.StageID { return contracts.StageNews }

func (s *NewsSource) Build(target time.Time) (Payload, error) {
	newsPath := filepath.Join(s.DataDir, s.StockCode, newsFile)
	tbl, err := dataset.ReadCSV(newsPath)
	if os.IsNotExist(err) {
		return Payload{}, nil
	}
	if err != nil {
		return Payload{}, err
	}

	timeCol := tbl.ColumnIndex("发布时间")
	cutoff := dayStart(target).Add(newsCutoffHour*time.Hour + newsCutoffMinute*time.Minute)

	kept := &dataset.Table{Name: tbl.Name, Columns: tbl.Columns}
	for i := range tbl.Rows {
		if timeCol >= 0 {
			published, ok := dataset.ParseFlexibleDate(tbl.Cell(i, timeCol), "发布时间")
			if !ok || published.After(cutoff) {
				continue
			}
		}
		kept.Rows = append(kept.Rows, tbl.Rows[i])
	}
	if kept.Empty() {
		return Payload{}, nil
	}

	var b strings.Builder
	b.WriteString("新闻内容：\n")
	b.WriteString(kept.Format())

	// Company profile is static context; missing is fine
	if info, err := dataset.ReadCSV(filepath.Join(s.DataDir, s.StockCode, fundamentalsDir, stockInfoFile)); err == nil && !info.Empty() {
		b.WriteString("\n相关股票信息：\n")
		b.WriteString(info.Format())
	}

	return Payload{Text: b.String(), HasData: true}, nil
}
