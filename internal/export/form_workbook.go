// Package export renders completed temperature-control forms as xlsx
// workbooks for the download endpoint.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nvarela/coldtrack/internal/model"
)

var recordHeader = []string{
	"Car",
	"Product Code",
	"Product Name",
	"Temperature (°C)",
	"Defrost Start",
	"Consumption Start",
	"Consumption End",
	"Observations",
	"Alert",
}

var alertHeader = []string{
	"Severity",
	"Message",
	"Temperature (°C)",
	"Expected Min",
	"Expected Max",
	"Acknowledged",
}

const sheetName = "Temperature Control"

// FormWorkbook renders a form with its records and alerts into a
// single-sheet workbook and returns the serialized file.
func FormWorkbook(form *model.Form) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create title style: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	alertRowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFE0E0"}, Pattern: 1},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create alert style: %w", err)
	}

	widths := []float64{8, 18, 30, 16, 14, 16, 16, 40, 10}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("column name: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	// Title block.
	if err := f.MergeCell(sheetName, "A1", "I1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("merge title: %w", err)
	}
	setCell(f, 1, 1, "Temperature Control Form "+form.FormNumber)
	_ = f.SetCellStyle(sheetName, "A1", "I1", titleStyle)

	row := 3
	row = metaRow(f, row, "Destination", form.Destination)
	row = metaRow(f, row, "Defrost Date", form.DefrostDate.Format("2006-01-02"))
	row = metaRow(f, row, "Production Date", form.ProductionDate.Format("2006-01-02"))
	row = metaRow(f, row, "Status", form.Status)
	row = metaRow(f, row, "Created By", form.CreatedByUserName)
	row = metaRow(f, row, "Created At", form.CreatedAt.Format("2006-01-02 15:04"))
	if form.ReviewedByUserName != nil {
		row = metaRow(f, row, "Reviewed By", *form.ReviewedByUserName)
		if form.ReviewedAt != nil {
			row = metaRow(f, row, "Reviewed At", form.ReviewedAt.Format("2006-01-02 15:04"))
		}
		if form.ReviewNotes != nil && *form.ReviewNotes != "" {
			row = metaRow(f, row, "Review Notes", *form.ReviewNotes)
		}
	}
	row++

	// Records table, in display order with out-of-range rows highlighted.
	for col, h := range recordHeader {
		setCell(f, col+1, row, h)
	}
	if err := styleRow(f, row, len(recordHeader), headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	row++

	records := append([]model.Record(nil), form.Records...)
	sort.SliceStable(records, func(i, j int) bool { return records[i].RecordOrder < records[j].RecordOrder })
	for _, rec := range records {
		setCell(f, 1, row, rec.CarNumber)
		setCell(f, 2, row, rec.ProductCode)
		setCell(f, 3, row, rec.ProductName)
		setCell(f, 4, row, rec.ProductTemperature)
		setCell(f, 5, row, deref(rec.DefrostStartTime))
		setCell(f, 6, row, deref(rec.ConsumptionStartTime))
		setCell(f, 7, row, deref(rec.ConsumptionEndTime))
		setCell(f, 8, row, deref(rec.Observations))
		if rec.HasAlert {
			setCell(f, 9, row, "Yes")
			if err := styleRow(f, row, len(recordHeader), alertRowStyle); err != nil {
				f.Close()
				return nil, err
			}
		} else {
			setCell(f, 9, row, "No")
		}
		row++
	}
	row++

	// Alerts table, most severe first.
	if len(form.Alerts) > 0 {
		setCell(f, 1, row, "Alerts")
		_ = f.SetCellStyle(sheetName, cellName(1, row), cellName(1, row), titleStyle)
		row++
		for col, h := range alertHeader {
			setCell(f, col+1, row, h)
		}
		if err := styleRow(f, row, len(alertHeader), headerStyle); err != nil {
			f.Close()
			return nil, err
		}
		row++

		alerts := append([]model.Alert(nil), form.Alerts...)
		sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Severity > alerts[j].Severity })
		for _, a := range alerts {
			setCell(f, 1, row, a.Severity.String())
			setCell(f, 2, row, a.Message)
			setCell(f, 3, row, a.Temperature)
			setCell(f, 4, row, a.ExpectedMinTemperature)
			setCell(f, 5, row, a.ExpectedMaxTemperature)
			if a.IsAcknowledged {
				setCell(f, 6, row, "Yes")
			} else {
				setCell(f, 6, row, "No")
			}
			row++
		}
		row++
	}

	if form.Observations != nil && *form.Observations != "" {
		setCell(f, 1, row, "Observations")
		_ = f.SetCellStyle(sheetName, cellName(1, row), cellName(1, row), titleStyle)
		row++
		setCell(f, 1, row, *form.Observations)
		row++
	}

	setCell(f, 1, row+1, "Generated "+time.Now().UTC().Format("2006-01-02 15:04")+" UTC")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for a form's workbook.
func Filename(form *model.Form) string {
	return form.FormNumber + ".xlsx"
}

func metaRow(f *excelize.File, row int, label, value string) int {
	setCell(f, 1, row, label)
	setCell(f, 2, row, value)
	return row + 1
}

func styleRow(f *excelize.File, row, cols int, style int) error {
	if err := f.SetCellStyle(sheetName, cellName(1, row), cellName(cols, row), style); err != nil {
		return fmt.Errorf("set row style: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, value interface{}) {
	_ = f.SetCellValue(sheetName, cellName(col, row), value)
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
