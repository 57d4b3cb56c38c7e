package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"questionnaire_backend/internal/model"
	"questionnaire_backend/internal/util"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// exportTable 每个提交一行，题目按页与题目顺序排列成列
type exportTable struct {
	Title  string
	Header []string
	Rows   [][]string
}

var fixedExportColumns = []string{"Submission ID", "Submitted At", "Status", "Total Score", "Respondent"}

func buildExportTable(s *model.FormStructure, subs []model.Submission, loc *time.Location) *exportTable {
	questions := s.OrderedQuestions()
	table := &exportTable{
		Title:  s.Form.Title,
		Header: make([]string, 0, len(fixedExportColumns)+len(questions)),
		Rows:   make([][]string, 0, len(subs)),
	}
	table.Header = append(table.Header, fixedExportColumns...)
	for _, q := range questions {
		table.Header = append(table.Header, q.Title)
	}

	for i := range subs {
		sub := &subs[i]
		byQuestion := make(map[uint]*model.Answer, len(sub.Answers))
		for j := range sub.Answers {
			byQuestion[sub.Answers[j].QuestionID] = &sub.Answers[j]
		}

		row := make([]string, 0, len(table.Header))
		row = append(row,
			strconv.FormatUint(uint64(sub.ID), 10),
			sub.CreatedAt.In(loc).Format(util.TimeFormat),
			sub.Status,
			sub.TotalScore.String(),
			sub.RespondentRef,
		)
		for _, q := range questions {
			row = append(row, displayValue(q, byQuestion[q.ID]))
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func displayValue(q *model.Question, a *model.Answer) string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		switch {
		case v.MatrixRowID != nil && v.MatrixColumnID != nil:
			row, col := q.FindRow(*v.MatrixRowID), q.FindColumn(*v.MatrixColumnID)
			if row != nil && col != nil {
				parts = append(parts, row.Label+": "+col.Label)
			}
		case v.OptionID != nil:
			if opt := q.FindOption(*v.OptionID); opt != nil {
				parts = append(parts, opt.Label)
			}
		case v.NumericValue.Valid:
			parts = append(parts, v.NumericValue.Decimal.String())
		case v.DateValue != nil:
			parts = append(parts, v.DateValue.Format(util.DateFormat))
		default:
			parts = append(parts, v.TextValue)
		}
	}
	return strings.Join(parts, "; ")
}

type renderedExport struct {
	Data        []byte
	ContentType string
	Ext         string
}

func renderExport(format string, table *exportTable) (*renderedExport, error) {
	switch format {
	case util.ExportCSV:
		data, err := renderCSV(table)
		return &renderedExport{Data: data, ContentType: "text/csv; charset=utf-8", Ext: "csv"}, err
	case util.ExportXLSX:
		data, err := renderXLSX(table)
		return &renderedExport{Data: data, ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Ext: "xlsx"}, err
	case util.ExportPDF:
		data, err := renderPDF(table)
		return &renderedExport{Data: data, ContentType: "application/pdf", Ext: "pdf"}, err
	}
	return nil, util.NewValidationError("format", "unsupported export format %q", format)
}

func renderCSV(table *exportTable) ([]byte, error) {
	var buf bytes.Buffer
	// BOM 让 Excel 正确识别 UTF-8
	buf.WriteString("\ufeff")
	w := csv.NewWriter(&buf)
	if err := w.Write(table.Header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const xlsxSheet = "Submissions"

func renderXLSX(table *exportTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	for i, r := range table.Rows {
		row := make([]interface{}, len(r))
		for j, v := range r {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(table.Header))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(xlsxSheet, "A", lastCol, 20); err != nil {
		return nil, err
	}
	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	pdfLineHeight = 6.0
	pdfFontSize   = 8.0
)

// renderPDF 横向 A4 表格，列宽平均分配，超出的文本截断
func renderPDF(table *exportTable) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	colW := (pageW - left - right) / float64(len(table.Header))

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		pdf.SetFillColor(230, 230, 230)
		for _, h := range table.Header {
			pdf.CellFormat(colW, pdfLineHeight, fitText(pdf, tr(h), colW), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			drawHeader()
		}
	}, false)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(table.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("%d submissions", len(table.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	drawHeader()

	for _, row := range table.Rows {
		for _, v := range row {
			pdf.CellFormat(colW, pdfLineHeight, fitText(pdf, tr(v), colW), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
