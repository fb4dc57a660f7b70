package service

import (
	"bytes"
	"fmt"
	"placement_test_backend/internal/model"
	"placement_test_backend/internal/repository"
	"time"

	"github.com/xuri/excelize/v2"
)

// ResultService 管理端查询与导出
type ResultService struct {
	results    *repository.ResultRepository
	deliveries *repository.DeliveryRepository
}

func NewResultService(results *repository.ResultRepository, deliveries *repository.DeliveryRepository) *ResultService {
	return &ResultService{results: results, deliveries: deliveries}
}

func (s *ResultService) ListResults(quizID *int64, integration string, page, limit int) ([]model.PlacementTestResult, int64, error) {
	return s.results.List(quizID, integration, page, limit)
}

func (s *ResultService) GetByDocname(docname string) (*model.PlacementTestResult, error) {
	return s.results.FindByDocname(docname)
}

func (s *ResultService) ListDeliveries(outcome string, page, limit int) ([]model.WebhookDelivery, int64, error) {
	return s.deliveries.List(outcome, page, limit)
}

// ExportResultsExcel 导出全部（上限一万条）测验结果为 xlsx
func (s *ResultService) ExportResultsExcel(quizID *int64, integration string) ([]byte, error) {
	items, _, err := s.results.List(quizID, integration, 1, 10000)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	headers := []string{"docname", "result_id", "quiz_id", "quiz_title", "score_percentage",
		"final_score", "score_by", "score_type", "points", "duration_seconds",
		"start_time", "end_time", "submitted_at", "student_name", "student_id",
		"tester_name", "user_email", "user_phone", "user_ip", "integration_source"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, it := range items {
		row := i + 2
		values := []any{
			it.Docname,
			it.ResultID,
			int64Cell(it.QuizID),
			it.QuizTitle,
			floatCell(it.ScorePercentage),
			floatCell(it.FinalScore),
			floatCell(it.ScoreBy),
			strCell(it.ScoreType),
			floatCell(it.Points),
			int64Cell(it.DurationSeconds),
			timeCell(it.StartTime),
			timeCell(it.EndTime),
			timeCell(it.SubmittedAt),
			strCell(it.StudentName),
			strCell(it.StudentID),
			strCell(it.TesterName),
			strCell(it.UserEmail),
			strCell(it.UserPhone),
			strCell(it.UserIP),
			strCell(it.IntegrationSource),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "T", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func strCell(p *string) any {
	if p == nil {
		return ""
	}
	return *p
}

func int64Cell(p *int64) any {
	if p == nil {
		return ""
	}
	return *p
}

func floatCell(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func timeCell(p *time.Time) any {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02 15:04:05")
}
