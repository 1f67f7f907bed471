package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

var timetableHeaders = []string{"Day", "Period", "Start", "End", "Class", "Subject", "Teacher", "Room"}

type scheduleReader interface {
	Get(ctx context.Context, id string, actor models.Actor) (*models.Schedule, error)
	Sessions(ctx context.Context, id string, actor models.Actor) ([]models.ScheduleSessionDetail, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ScheduleExportService renders stored schedules as CSV or PDF timetables.
type ScheduleExportService struct {
	schedules scheduleReader
	csv       datasetRenderer
	pdf       datasetRenderer
	logger    *zap.Logger
}

// NewScheduleExportService constructs the export service. Nil renderers fall back to pkg/export.
func NewScheduleExportService(schedules scheduleReader, csv, pdf datasetRenderer, logger *zap.Logger) *ScheduleExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ScheduleExportService{schedules: schedules, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the schedule in the requested format (csv by default).
func (s *ScheduleExportService) Export(ctx context.Context, id, format string, actor models.Actor) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	var (
		renderer    datasetRenderer
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	schedule, err := s.schedules.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	sessions, err := s.schedules.Sessions(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(TimetableDataset(*schedule, sessions))
	if err != nil {
		s.logger.Error("failed to render timetable", zap.String("schedule_id", id), zap.String("format", format), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("schedule-%s.%s", schedule.ID, format),
		ContentType: contentType,
		Payload:     payload,
	}, nil
}

// TimetableDataset lays sessions out by day, period and class.
func TimetableDataset(schedule models.Schedule, sessions []models.ScheduleSessionDetail) export.Dataset {
	ordered := make([]models.ScheduleSessionDetail, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.PeriodNumber != b.PeriodNumber {
			return a.PeriodNumber < b.PeriodNumber
		}
		return a.ClassName < b.ClassName
	})

	rows := make([]map[string]string, 0, len(ordered))
	for _, session := range ordered {
		room := ""
		if session.RoomName != nil {
			room = *session.RoomName
		}
		rows = append(rows, map[string]string{
			"Day":     timetable.DayName(session.DayOfWeek),
			"Period":  strconv.Itoa(session.PeriodNumber),
			"Start":   session.StartTime,
			"End":     session.EndTime,
			"Class":   nameOr(session.ClassName, session.ClassID),
			"Subject": nameOr(session.SubjectName, session.SubjectID),
			"Teacher": nameOr(session.TeacherName, session.TeacherID),
			"Room":    room,
		})
	}
	return export.Dataset{
		Title: schedule.Name,
		Subtitle: []string{
			fmt.Sprintf("Status: %s, sessions: %d, critical conflicts: %d", schedule.Status, schedule.SessionsCount, schedule.CriticalConflicts),
			fmt.Sprintf("Generated %s", schedule.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
		Headers: timetableHeaders,
		Rows:    rows,
	}
}

func nameOr(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
