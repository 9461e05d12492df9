// Package export 提供排班与覆盖率报表的 Excel 导出
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/paiban/staffplan/pkg/errors"
	"github.com/paiban/staffplan/pkg/model"
	"github.com/paiban/staffplan/pkg/stats"
)

// 工作表名称
const (
	SheetSchedule  = "排班表"
	SheetCoverage  = "覆盖率"
	SheetConflicts = "冲突"
)

var weekdayNames = [7]string{"周日", "周一", "周二", "周三", "周四", "周五", "周六"}

// Input 导出内容，Coverage 与 Conflicts 为空时不生成对应工作表
type Input struct {
	Title     string
	DateRange model.DateRange
	Employees []*model.Employee
	Entries   []*model.ScheduleEntry
	Coverage  *stats.CoverageReport
	Conflicts []model.Conflict
}

// Workbook 生成 xlsx，返回内容与建议文件名
func Workbook(in Input) (*bytes.Buffer, string, error) {
	if err := in.DateRange.Validate(); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeInvalidDateRange, "导出日期范围无效")
	}
	title := in.Title
	if title == "" {
		title = "排班"
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CodeExportFailed, "创建样式失败")
	}

	if err := writeSchedule(f, title, header, in); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeExportFailed, "写入排班表失败")
	}
	if in.Coverage != nil {
		if err := writeCoverage(f, header, in.Coverage); err != nil {
			return nil, "", errors.Wrap(err, errors.CodeExportFailed, "写入覆盖率失败")
		}
	}
	if len(in.Conflicts) > 0 {
		if err := writeConflicts(f, header, in.Conflicts); err != nil {
			return nil, "", errors.Wrap(err, errors.CodeExportFailed, "写入冲突失败")
		}
	}

	idx, _ := f.GetSheetIndex(SheetSchedule)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, "", errors.Wrap(err, errors.CodeExportFailed, "生成 Excel 文件失败")
	}
	filename := fmt.Sprintf("%s_%s_%s.xlsx", title, in.DateRange.StartDate, in.DateRange.EndDate)
	return buf, filename, nil
}

// writeSchedule 员工为行、日期为列，单元格为当日班次
func writeSchedule(f *excelize.File, title string, header int, in Input) error {
	sheet := SheetSchedule
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	days := in.DateRange.Days()
	last := colName(len(days) + 1) // 员工 + 日期 + 总工时

	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s %s ~ %s", title, in.DateRange.StartDate, in.DateRange.EndDate))
	if err := f.MergeCell(sheet, "A1", cell(last, 1)); err != nil {
		return err
	}
	f.SetCellStyle(sheet, "A1", "A1", header)

	f.SetCellValue(sheet, "A2", "员工")
	f.SetColWidth(sheet, "A", "A", 14)
	for i, d := range days {
		f.SetCellValue(sheet, cell(colName(i+1), 2), dayLabel(d))
	}
	f.SetCellValue(sheet, cell(last, 2), "总工时")
	f.SetColWidth(sheet, "B", last, 16)
	f.SetCellStyle(sheet, "A2", cell(last, 2), header)

	cells, hours, order := indexEntries(in.Employees, in.Entries)
	names := make(map[uuid.UUID]string, len(in.Employees))
	for _, e := range in.Employees {
		names[e.ID] = e.Name
	}

	row := 3
	for _, id := range order {
		name := names[id]
		if name == "" {
			name = id.String()
		}
		f.SetCellValue(sheet, cell("A", row), name)
		for i, d := range days {
			text := "-"
			if shifts := cells[id][d]; len(shifts) > 0 {
				text = strings.Join(shifts, "\n")
			}
			f.SetCellValue(sheet, cell(colName(i+1), row), text)
		}
		f.SetCellValue(sheet, cell(last, row), stats.Round(hours[id], stats.HourPlaces))
		row++
	}
	return nil
}

// indexEntries 按员工、日期汇总班次文本与工时，员工顺序为名单顺序，名单外的员工追加在后
func indexEntries(employees []*model.Employee, entries []*model.ScheduleEntry) (map[uuid.UUID]map[string][]string, map[uuid.UUID]float64, []uuid.UUID) {
	cells := make(map[uuid.UUID]map[string][]string)
	hours := make(map[uuid.UUID]float64)
	var order []uuid.UUID
	add := func(id uuid.UUID) {
		if _, ok := cells[id]; !ok {
			cells[id] = make(map[string][]string)
			order = append(order, id)
		}
	}
	for _, e := range employees {
		add(e.ID)
	}
	for _, e := range entries {
		if !e.IsActive() {
			continue
		}
		add(e.EmployeeID)
		cells[e.EmployeeID][e.Date] = append(cells[e.EmployeeID][e.Date], e.Interval().String())
		hours[e.EmployeeID] += e.WorkingHours()
	}
	return cells, hours, order
}

func writeCoverage(f *excelize.File, header int, r *stats.CoverageReport) error {
	sheet := SheetCoverage
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	cols := []string{"日期", "营业", "状态", "平均覆盖率", "缺口人次", "冗余人次", "在岗人时", "效率"}
	for i, c := range cols {
		f.SetCellValue(sheet, cell(colName(i), 1), c)
	}
	f.SetCellStyle(sheet, "A1", cell(colName(len(cols)-1), 1), header)
	f.SetColWidth(sheet, "A", colName(len(cols)-1), 12)

	row := 2
	for _, d := range r.Days {
		open := "休息"
		if d.IsOpen {
			open = "营业"
		}
		values := []interface{}{d.Date, open, string(d.Status), d.AverageCoverage, d.TotalShortfall, d.TotalOverstaffing, d.StaffHours, d.Efficiency}
		if err := f.SetSheetRow(sheet, cell("A", row), &values); err != nil {
			return err
		}
		row++
	}

	o := r.Overall
	row++
	f.SetCellValue(sheet, cell("A", row), "合计")
	summary := []interface{}{fmt.Sprintf("%d/%d", o.OpenDays, o.OpenDays+o.ClosedDays), fmt.Sprintf("缺人 %d 天", o.CriticalDays), o.AverageCoverage, o.TotalShortfall, o.TotalOverstaffing, "", o.Efficiency}
	if err := f.SetSheetRow(sheet, cell("B", row), &summary); err != nil {
		return err
	}

	for _, rec := range r.Recommendations {
		row++
		f.SetCellValue(sheet, cell("A", row), rec)
	}
	return nil
}

func writeConflicts(f *excelize.File, header int, conflicts []model.Conflict) error {
	sheet := SheetConflicts
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	cols := []string{"日期", "类型", "严重程度", "时段", "说明"}
	for i, c := range cols {
		f.SetCellValue(sheet, cell(colName(i), 1), c)
	}
	f.SetCellStyle(sheet, "A1", "E1", header)
	f.SetColWidth(sheet, "A", "D", 14)
	f.SetColWidth(sheet, "E", "E", 60)

	for i, c := range conflicts {
		shift := ""
		if c.Shift != nil {
			shift = c.Shift.String()
		}
		values := []interface{}{c.Date, string(c.Type), string(c.Severity), shift, c.Message}
		if err := f.SetSheetRow(sheet, cell("A", i+2), &values); err != nil {
			return err
		}
	}
	return nil
}

func dayLabel(date string) string {
	w, err := model.WeekdayOf(date)
	if err != nil {
		return date
	}
	return date + " " + weekdayNames[w]
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
