package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/sekolahku/poin-api/internal/models"
)

type SheetSpec struct {
	Title  string
	Header []string
	Rows   [][]string
}

type ReportWorkbook struct {
	File *excelize.File
}

func NewReportWorkbook(sheets []SheetSpec) (*ReportWorkbook, error) {
	f := excelize.NewFile()
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	for i, s := range sheets {
		name := s.Title
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("new sheet: %w", err)
			}
		}
		for col, h := range s.Header {
			cell := fmt.Sprintf("%s1", colName(col+1))
			if err := f.SetCellStr(name, cell, h); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
		end := colName(len(s.Header)) + "1"
		_ = f.SetCellStyle(name, "A1", end, bold)
		_ = f.AutoFilter(name, "A1:"+end, nil)

		for r, row := range s.Rows {
			for c, val := range row {
				cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
				if err := f.SetCellStr(name, cell, val); err != nil {
					return nil, fmt.Errorf("set cell %s: %w", cell, err)
				}
			}
		}
		// width heuristic: header length vs first rows
		for c := 1; c <= len(s.Header); c++ {
			maxim := len(s.Header[c-1])
			for r := 0; r < minim(50, len(s.Rows)); r++ {
				if l := len(s.Rows[r][c-1]); l > maxim {
					maxim = l
				}
			}
			w := float64(maxim) * 0.9
			if w < 12 {
				w = 12
			}
			if w > 40 {
				w = 40
			}
			_ = f.SetColWidth(name, colName(c), colName(c), w)
		}
	}
	return &ReportWorkbook{File: f}, nil
}

func (w *ReportWorkbook) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := w.File.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RankingSheet renders the ledger standings.
func RankingSheet(students []models.Student) SheetSpec {
	rows := make([][]string, 0, len(students))
	for i, s := range students {
		rows = append(rows, []string{
			strconv.Itoa(i + 1), s.Name, s.NIS, s.ClassName, strconv.Itoa(s.TotalPoints),
		})
	}
	return SheetSpec{
		Title:  "Peringkat",
		Header: []string{"No", "Nama", "NIS", "Kelas", "Total Poin"},
		Rows:   rows,
	}
}

// ClassReportSheet renders the per-class aggregation.
func ClassReportSheet(reports []models.ClassReport) SheetSpec {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			r.ClassName,
			strconv.Itoa(r.StudentCount),
			strconv.Itoa(r.ViolationCount),
			strconv.Itoa(r.AchievementCount),
			strconv.Itoa(r.TotalPoints),
		})
	}
	return SheetSpec{
		Title:  "Rekap Kelas",
		Header: []string{"Kelas", "Jumlah Siswa", "Pelanggaran", "Prestasi", "Total Poin"},
		Rows:   rows,
	}
}

func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+n%26)) + s
		n /= 26
	}
	return s
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
