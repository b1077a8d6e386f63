package report

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
)

const (
	fundamentalsDir  = "股票基本面数据"
	mainBusinessFile = "主营构成.csv"
	keyMetricsFile   = "基本面数据关键指标.csv"
)

// FundamentalSource builds the fundamentals report from the per-stock
// fundamentals directory. Most datasets are embedded wholesale; the two
// temporally sensitive ones get special handling: 主营构成 is pinned to the
// most recent completed quarter before the target date, and the key metrics
// table contributes its latest reporting period on or before it.
type FundamentalSource struct {
	DataDir   string
	StockCode string
}

func (s *FundamentalSource) Stage() contracts.StageID { return contracts.StageFundamental }

func (s *FundamentalSource) Build(target time.Time) (Payload, error) {
	dir := filepath.Join(s.DataDir, s.StockCode, fundamentalsDir)
	files := dataset.ListCSVFiles(dir)
	if len(files) == 0 {
		return Payload{}, nil
	}

	var b strings.Builder
	wrote := false
	for _, path := range files {
		name := filepath.Base(path)
		if name == keyMetricsFile || name == mainBusinessFile {
			continue
		}
		tbl, err := dataset.ReadCSV(path)
		if err != nil {
			continue // a single unreadable file must not sink the report
		}
		b.WriteString(name)
		b.WriteString(":\n")
		b.WriteString(tbl.Format())
		b.WriteString("\n")
		wrote = true
	}

	if section := s.mainBusiness(dir, target); section != "" {
		b.WriteString("主营构成:\n")
		b.WriteString(section)
		b.WriteString("\n")
		wrote = true
	}
	if section := s.keyMetrics(dir, target); section != "" {
		b.WriteString("基本面数据关键指标:\n")
		b.WriteString(section)
		b.WriteString("\n")
		wrote = true
	}

	if !wrote {
		return Payload{}, nil
	}
	return Payload{Text: b.String(), HasData: true}, nil
}

// mainBusiness keeps only the rows of the most recent completed quarter
// before target, matched against the 报告日期 column.
func (s *FundamentalSource) mainBusiness(dir string, target time.Time) string {
	tbl, err := dataset.ReadCSV(filepath.Join(dir, mainBusinessFile))
	if err != nil || tbl.Empty() {
		return ""
	}

	col := tbl.ColumnIndex("报告日期")
	if col < 0 {
		return tbl.Format()
	}

	quarter := dataset.MostRecentQuarterEnd(target).Format("2006-01-02")
	kept := &dataset.Table{Name: tbl.Name, Columns: tbl.Columns}
	for i := range tbl.Rows {
		if tbl.Cell(i, col) == quarter {
			kept.Rows = append(kept.Rows, tbl.Rows[i])
		}
	}
	if kept.Empty() {
		return ""
	}
	return kept.Format()
}

// keyMetrics renders the last reporting period (报告期) on or before target
func (s *FundamentalSource) keyMetrics(dir string, target time.Time) string {
	tbl, err := dataset.ReadCSV(filepath.Join(dir, keyMetricsFile))
	if err != nil || tbl.Empty() {
		return ""
	}

	col := tbl.ColumnIndex("报告期")
	if col < 0 {
		return tbl.FormatRow(len(tbl.Rows) - 1)
	}

	row := -1
	for i := range tbl.Rows {
		d, ok := dataset.ParseFlexibleDate(tbl.Cell(i, col), "报告期")
		if !ok || d.After(target) {
			continue
		}
		row = i // rows are chronological, keep the last qualifying one
	}
	if row < 0 {
		return ""
	}
	return tbl.FormatRow(row)
}
