package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/haolin/tianji/backend/internal/contracts"
)

func snapshotWindow(t *testing.T) contracts.TimeWindow {
	t.Helper()
	start, _ := contracts.ParseCompactDate("20250301")
	end, _ := contracts.ParseCompactDate("20250331")
	w, err := contracts.NewTimeWindow(start, end)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestMaterializeWindow(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "600415", "股票日线数据.csv"),
		"日期,收盘\n2025-02-28,10.1\n2025-03-05,10.2\n2025-04-01,10.3\n")
	writeFile(t, filepath.Join(src, "600415", "股票基本面数据", "主营介绍.csv"),
		"股票代码,主营业务\n600415,市场经营\n")
	writeFile(t, filepath.Join(src, "600415", "股票新闻数据.csv"),
		"新闻标题,发布时间\n旧闻,2024-01-01 09:00:00\n")

	if err := MaterializeWindow(src, dst, snapshotWindow(t)); err != nil {
		t.Fatal(err)
	}

	// Dated file: filtered, BOM preserved
	data, err := os.ReadFile(filepath.Join(dst, "600415", "股票日线数据.csv"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "\uFEFF") {
		t.Error("snapshot file missing BOM")
	}
	if !strings.Contains(content, "2025-03-05") {
		t.Errorf("in-window row missing:\n%s", content)
	}
	if strings.Contains(content, "2025-02-28") || strings.Contains(content, "2025-04-01") {
		t.Errorf("out-of-window rows leaked:\n%s", content)
	}

	// Undated file: copied verbatim
	if _, err := os.Stat(filepath.Join(dst, "600415", "股票基本面数据", "主营介绍.csv")); err != nil {
		t.Errorf("undated file not copied: %v", err)
	}

	// Fully-filtered file: absent, not empty
	if _, err := os.Stat(filepath.Join(dst, "600415", "股票新闻数据.csv")); !os.IsNotExist(err) {
		t.Error("file with no in-window rows should not exist in the snapshot")
	}
}

func TestMaterializeWindowRoundTrips(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	writeFile(t, filepath.Join(src, "a.csv"), "\uFEFF日期,值\n2025-03-10,x\n")
	if err := MaterializeWindow(src, dst, snapshotWindow(t)); err != nil {
		t.Fatal(err)
	}

	tbl, err := ReadCSV(filepath.Join(dst, "a.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Columns[0] != "日期" || tbl.Cell(0, 1) != "x" {
		t.Errorf("round trip mangled table: %+v", tbl)
	}
}
