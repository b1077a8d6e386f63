package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/haolin/tianji/backend/internal/contracts"
)

// MaterializeWindow copies every CSV under srcDir into dstDir, keeping the
// directory layout but only the rows whose temporal key falls inside w.
// Files without a date column are copied whole; files left empty by the
// filter are not written at all, so downstream readers see "no data" for
// them. The snapshot gives every report source a consistent, leak-free view
// of one backtest window.
func MaterializeWindow(srcDir, dstDir string, w contracts.TimeWindow) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	for _, srcPath := range ListCSVFiles(srcDir) {
		rel, err := filepath.Rel(srcDir, srcPath)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dstDir, rel)
		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			return err
		}

		tbl, err := ReadCSV(srcPath)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", rel, err)
		}

		if len(DateColumns(tbl)) == 0 {
			if err := copyFile(srcPath, dstPath); err != nil {
				return fmt.Errorf("snapshot %s: %w", rel, err)
			}
			continue
		}

		filtered := FilterByWindow(tbl, w)
		if filtered.Empty() {
			continue
		}
		if err := WriteCSV(dstPath, filtered); err != nil {
			return fmt.Errorf("snapshot %s: %w", rel, err)
		}
	}
	return nil
}

// WriteCSV writes the table with a UTF-8 BOM, the encoding the acquisition
// layer and the original datasets use.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("\uFEFF"); err != nil {
		return err
	}

	wr := csv.NewWriter(f)
	if err := wr.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := wr.Write(row); err != nil {
			return err
		}
	}
	wr.Flush()
	if err := wr.Error(); err != nil {
		return err
	}
	return f.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
