package publish

import (
	"context"
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadfinder/internal/pipeline"
)

// WriteCSV writes the table with its header row.
func WriteCSV(w io.Writer, t *pipeline.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return eris.Wrap(err, "publish: write csv header")
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "publish: write csv rows")
	}
	return nil
}

// CSV writes the table to a local CSV file, replacing any previous file.
type CSV struct {
	Path string
}

// Publish implements Publisher.
func (c *CSV) Publish(ctx context.Context, t *pipeline.Table) (pipeline.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: csv")
	}
	err := writeAtomic(c.Path, func(f *os.File) error {
		return WriteCSV(f, t)
	})
	if err != nil {
		return pipeline.Outcome{}, err
	}

	zap.L().Info("publish: csv written", zap.String("path", c.Path), zap.Int("rows", t.Len()))
	return pipeline.Outcome{Target: TargetCSV, Destination: c.Path, Rows: t.Len()}, nil
}

// XLSX writes the table to a local workbook with a bold header row.
type XLSX struct {
	Path      string
	SheetName string
}

// Publish implements Publisher.
func (x *XLSX) Publish(ctx context.Context, t *pipeline.Table) (pipeline.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: xlsx")
	}

	name := x.SheetName
	if name == "" {
		name = "Leads"
	}
	wb, err := BuildWorkbook(name, t)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	err = writeAtomic(x.Path, func(f *os.File) error {
		if err := wb.Write(f); err != nil {
			return eris.Wrap(err, "publish: write xlsx")
		}
		return nil
	})
	if err != nil {
		return pipeline.Outcome{}, err
	}

	zap.L().Info("publish: xlsx written", zap.String("path", x.Path), zap.Int("rows", t.Len()))
	return pipeline.Outcome{Target: TargetXLSX, Destination: x.Path, Rows: t.Len()}, nil
}

// BuildWorkbook renders the table into a single-sheet workbook.
func BuildWorkbook(sheetName string, t *pipeline.Table) (*xlsx.File, error) {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet(sheetName)
	if err != nil {
		return nil, eris.Wrap(err, "publish: add sheet")
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for _, col := range t.Columns {
		cell := header.AddCell()
		cell.SetString(col)
		cell.SetStyle(bold)
	}
	for _, r := range t.Rows {
		row := sheet.AddRow()
		for _, v := range r {
			row.AddCell().SetString(v)
		}
	}
	return wb, nil
}
