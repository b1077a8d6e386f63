package report

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/haolin/tianji/backend/internal/contracts"
	"github.com/haolin/tianji/backend/internal/dataset"
)

// Macro datasets live outside the per-stock directories
const macroDataDir = "宏观数据/中国宏观数据"

// MacroSource builds the macro report: the latest row on or before the
// target date from every macro dataset, one section per file. Clamping to
// the target date keeps backtests from reading indicators published after
// the day being predicted.
type MacroSource struct {
	DataDir string
}

func (s *MacroSource) Stage() contracts.StageID { return contracts.StageMacro }

func (s *MacroSource) Build(target time.Time) (Payload, error) {
	files := dataset.ListCSVFiles(filepath.Join(s.DataDir, filepath.FromSlash(macroDataDir)))
	if len(files) == 0 {
		return Payload{}, nil
	}

	var b strings.Builder
	wrote := false
	for _, path := range files {
		tbl, err := dataset.ReadCSV(path)
		if err != nil || tbl.Empty() {
			continue
		}
		row := dataset.LatestRowBefore(tbl, target)
		if row < 0 {
			continue
		}
		b.WriteString(tbl.Name)
		b.WriteString(":\n")
		b.WriteString(tbl.FormatRow(row))
		b.WriteString("\n")
		wrote = true
	}

	if !wrote {
		return Payload{}, nil
	}
	return Payload{Text: b.String(), HasData: true}, nil
}
