package handlers

import (
	"net/http"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/logger"
	"time"

	"go.uber.org/zap"
)

type ReportHandler struct {
	ReportService ReportService
}

func NewReportHandler(reportService ReportService) ReportHandler {
	return ReportHandler{
		ReportService: reportService,
	}
}

func (h *ReportHandler) Completion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	report, err := h.ReportService.GetTaskCompletionReport(r.Context())
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Отчёт о выполнении",
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) UpcomingDeadlines(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	tasks, err := h.ReportService.GetUpcomingDeadlines(r.Context())
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Ближайшие дедлайны",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *ReportHandler) Progress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	progress, err := h.ReportService.GetProgressReport(r.Context())
	if err != nil {
		handleBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: Прогресс по неделям",
		zap.Int("weeks", len(progress)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	writeJSON(w, http.StatusOK, progress)
}
