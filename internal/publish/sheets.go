package publish

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sells-group/leadfinder/internal/pipeline"
	"github.com/sells-group/leadfinder/internal/resilience"
)

// SheetInfo identifies a worksheet inside a spreadsheet.
type SheetInfo struct {
	ID    int64
	Title string
}

// SheetsAPI is the subset of the Sheets API the publisher uses.
type SheetsAPI interface {
	FirstSheet(ctx context.Context, spreadsheetID string) (SheetInfo, error)
	Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
	Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, reqs []*sheets.Request) error
}

// Sheets publishes to the first worksheet of a Google spreadsheet. An empty
// worksheet receives the header, formatting and rows; otherwise the rows are
// appended below the existing content. Reads and overwrites are retried,
// appends are attempted once.
type Sheets struct {
	api           SheetsAPI
	spreadsheetID string
	retry         resilience.RetryConfig
}

// NewSheets creates a Sheets publisher over api.
func NewSheets(api SheetsAPI, spreadsheetID string, retry resilience.RetryConfig) *Sheets {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("sheets", "publish")
	}
	return &Sheets{api: api, spreadsheetID: spreadsheetID, retry: retry}
}

// Publish implements Publisher.
func (s *Sheets) Publish(ctx context.Context, t *pipeline.Table) (pipeline.Outcome, error) {
	if s.spreadsheetID == "" {
		return pipeline.Outcome{}, eris.New("publish: sheets: spreadsheet id is not configured")
	}

	sheet, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (SheetInfo, error) {
		return s.api.FirstSheet(ctx, s.spreadsheetID)
	})
	if err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: sheets: open first sheet")
	}
	title := quoteSheet(sheet.Title)

	current, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([][]any, error) {
		return s.api.Values(ctx, s.spreadsheetID, title)
	})
	if err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: sheets: read current values")
	}

	out := pipeline.Outcome{
		Target:      TargetSheets,
		Destination: "https://docs.google.com/spreadsheets/d/" + s.spreadsheetID,
		Rows:        t.Len(),
	}
	rows := toValues(t.Rows)

	if len(current) > 0 {
		if len(rows) > 0 {
			// Append is not idempotent: a retry after a lost response would
			// write the rows twice.
			if err := s.api.Append(ctx, s.spreadsheetID, title+"!A1", rows); err != nil {
				return pipeline.Outcome{}, eris.Wrap(err, "publish: sheets: append rows")
			}
		}
		zap.L().Info("publish: appended rows to existing sheet", zap.Int("rows", out.Rows))
		return out, nil
	}

	values := append([][]any{toValue(t.Columns)}, rows...)
	err = resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.api.Update(ctx, s.spreadsheetID, title+"!A1", values)
	})
	if err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: sheets: write table")
	}

	reqs := formatRequests(sheet.ID, len(t.Columns), len(values))
	err = resilience.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.api.BatchUpdate(ctx, s.spreadsheetID, reqs)
	})
	if err != nil {
		return pipeline.Outcome{}, eris.Wrap(err, "publish: sheets: format header")
	}

	zap.L().Info("publish: initialized sheet", zap.Int("rows", out.Rows))
	return out, nil
}

// formatRequests bolds and greys the header, freezes it and puts a basic
// filter over the written range.
func formatRequests(sheetID int64, cols, rows int) []*sheets.Request {
	header := &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    0,
		EndRowIndex:      1,
		StartColumnIndex: 0,
		EndColumnIndex:   int64(cols),
	}
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: header,
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{Red: 0.9, Green: 0.9, Blue: 0.9},
						TextFormat:      &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
		{
			SetBasicFilter: &sheets.SetBasicFilterRequest{
				Filter: &sheets.BasicFilter{
					Range: &sheets.GridRange{
						SheetId:          sheetID,
						StartRowIndex:    0,
						EndRowIndex:      int64(rows),
						StartColumnIndex: 0,
						EndColumnIndex:   int64(cols),
					},
				},
			},
		},
	}
}

func toValue(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func toValues(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = toValue(r)
	}
	return out
}

// quoteSheet quotes a worksheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// sheetsService implements SheetsAPI with the Sheets v4 client.
type sheetsService struct {
	svc *sheets.Service
}

// NewSheetsService authenticates with a service account credentials file.
func NewSheetsService(ctx context.Context, credentialsFile string) (SheetsAPI, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, eris.Wrap(err, "publish: sheets: create service")
	}
	return &sheetsService{svc: svc}, nil
}

func (s *sheetsService) FirstSheet(ctx context.Context, spreadsheetID string) (SheetInfo, error) {
	resp, err := s.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return SheetInfo{}, err
	}
	if len(resp.Sheets) == 0 || resp.Sheets[0].Properties == nil {
		return SheetInfo{}, eris.Errorf("spreadsheet %s has no worksheets", spreadsheetID)
	}
	p := resp.Sheets[0].Properties
	return SheetInfo{ID: p.SheetId, Title: p.Title}, nil
}

func (s *sheetsService) Values(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsService) Update(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *sheetsService) Append(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &sheets.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (s *sheetsService) BatchUpdate(ctx context.Context, spreadsheetID string, reqs []*sheets.Request) error {
	_, err := s.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).
		Do()
	return err
}
