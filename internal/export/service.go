package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"credit-backend/constants"
	"credit-backend/internal/entity"
	"credit-backend/internal/repository"
)

// Service is a tiny façade over the application store that produces XLSX
// bytes for admin exports.
type Service struct {
	apps   repository.ApplicationRepository
	logger *slog.Logger
}

func NewService(apps repository.ApplicationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{apps: apps, logger: logger}
}

// ExportApplicationsXLSX returns an XLSX workbook (as bytes) for the given
// review status. A nil status exports every application.
func (s *Service) ExportApplicationsXLSX(ctx context.Context, status *constants.ReviewStatus) ([]byte, error) {
	start := time.Now()

	var (
		apps []*entity.Application
		err  error
	)
	if status == nil {
		apps, err = s.apps.ListAll(ctx)
	} else {
		apps, err = s.apps.ListByStatus(ctx, *status)
	}
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Applications"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Application ID",
		"User ID",
		"Submitted At",
		"Documents",
		"Valid Documents",
		"Proposed Score",
		"Proposed Limit",
		"Decision",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, a := range apps {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, a.ID.String())
		write(2, a.UserID)
		write(3, a.SubmittedAt.UTC().Format("2006-01-02 15:04:05"))
		write(4, len(a.Documents))
		write(5, a.ValidCount())
		write(6, a.ProposedScore)
		write(7, a.ProposedLimit)
		write(8, decisionLabel(a.IsApproved))

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 38) // id
	_ = f.SetColWidth(sheet, "B", "B", 22) // user
	_ = f.SetColWidth(sheet, "C", "C", 20) // submitted
	_ = f.SetColWidth(sheet, "D", "E", 16) // counts
	_ = f.SetColWidth(sheet, "F", "G", 14) // score/limit
	_ = f.SetColWidth(sheet, "H", "H", 12) // decision

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(apps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func decisionLabel(approved *bool) string {
	switch {
	case approved == nil:
		return "pending"
	case *approved:
		return "approved"
	default:
		return "rejected"
	}
}
