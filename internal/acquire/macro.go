package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

const macroDir = "宏观数据/中国宏观数据"

// Macro series are national statistics, shared by every stock. Adding a new
// series is one entry here.
var macroReports = []reportSpec{
	{
		file:       "中国CPI数据.csv",
		reportName: "RPT_ECONOMY_CPI",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"日期", "REPORT_DATE"},
			{"全国当月", "NATIONAL_SAME"},
			{"全国同比增长", "NATIONAL_BASE"},
			{"全国环比增长", "NATIONAL_SEQUENTIAL"},
		},
	},
	{
		file:       "中国GDP数据.csv",
		reportName: "RPT_ECONOMY_GDP",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"季度", "REPORT_DATE"},
			{"国内生产总值", "DOMESTICL_PRODUCT_BASE"},
			{"GDP同比增长", "SUM_SAME"},
		},
	},
	{
		file:       "中国PMI数据.csv",
		reportName: "RPT_ECONOMY_PMI",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"月份", "REPORT_DATE"},
			{"制造业PMI", "MAKE_INDEX"},
			{"非制造业PMI", "NMAKE_INDEX"},
		},
	},
	{
		file:       "中国货币供应量数据.csv",
		reportName: "RPT_ECONOMY_CURRENCY_SUPPLY",
		sortBy:     "REPORT_DATE",
		columns: []reportColumn{
			{"月份", "REPORT_DATE"},
			{"M2数量", "BASIC_CURRENCY"},
			{"M2同比增长", "BASIC_CURRENCY_SAME"},
			{"M1数量", "CURRENCY"},
			{"M1同比增长", "CURRENCY_SAME"},
		},
	},
	{
		file:       "中国LPR利率数据.csv",
		reportName: "RPT_IMP_INTRATERATE",
		sortBy:     "TRADE_DATE",
		columns: []reportColumn{
			{"日期", "TRADE_DATE"},
			{"LPR_1Y", "LPR1Y"},
			{"LPR_5Y", "LPR5Y"},
		},
	},
}

// FetchMacro refreshes every macro series under 宏观数据/中国宏观数据.
// Macro series move monthly at most, so the freshness window keeps this
// cheap on repeated predictions.
func (c *Client) FetchMacro(ctx context.Context) error {
	dir := filepath.Join(c.dataDir, filepath.FromSlash(macroDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, spec := range macroReports {
		if err := c.fetchReport(ctx, spec, "", dir); err != nil {
			return fmt.Errorf("fetching %s: %w", spec.file, err)
		}
	}
	c.logger.Info("✅ macro data refreshed")
	return nil
}
