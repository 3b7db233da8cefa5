package api

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/insightdelivered/statement-insights/internal/analyzer"
	"github.com/insightdelivered/statement-insights/internal/insights"
	"github.com/insightdelivered/statement-insights/internal/logger"
	"github.com/insightdelivered/statement-insights/internal/models"
	"github.com/insightdelivered/statement-insights/internal/session"
	"github.com/insightdelivered/statement-insights/internal/worker"
	"github.com/insightdelivered/statement-insights/internal/writer"
)

//go:embed static/upload.html
var uploadPage []byte

// Analyzer is implemented by *analyzer.Analyzer.
type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.Input) (*analyzer.Report, error)
}

// UploadResponse is the JSON body of a successful POST /upload. The summary
// keys sit at the top level next to the session handle.
type UploadResponse struct {
	SessionID    string               `json:"session_id"`
	Format       analyzer.Format      `json:"format"`
	Source       analyzer.Source      `json:"source"`
	Transactions []models.Transaction `json:"transactions"`
	Skipped      int                  `json:"skipped"`
	insights.Summary
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Handler holds the HTTP handlers for the API.
type Handler struct {
	analyzer  Analyzer
	sessions  *session.Store
	pool      *worker.Pool
	maxUpload int64
	version   string
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/", h.handleIndex)
	app.Get("/upload-form", h.handleUploadForm)
	app.Post("/upload", h.handleUpload)
	app.Get("/download-report", h.handleDownloadReport)
	app.Get("/api/health", h.handleHealth)
}

func (h *Handler) handleIndex(c *fiber.Ctx) error {
	return c.Redirect("/upload-form")
}

func (h *Handler) handleUploadForm(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(uploadPage)
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": h.version,
	})
}

func (h *Handler) handleUpload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "NO_FILE", "No file uploaded. Use form field 'file'.")
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File is larger than the %d byte limit.", h.maxUpload))
	}

	format, err := analyzer.ParseFormat(c.FormValue("format"))
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", err.Error())
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("opening upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	in := analyzer.Input{
		Data:     data,
		Filename: header.Filename,
		Format:   format,
		Password: c.FormValue("password"),
	}

	ctx := c.UserContext()
	report, err := worker.Do(ctx, h.pool, func(ctx context.Context) (*analyzer.Report, error) {
		return h.analyzer.Analyze(ctx, in)
	})
	if err != nil {
		return h.analysisError(c, err)
	}

	id := h.sessions.Save(report.Transactions)
	log := logger.FromContext(ctx)
	log.Info().
		Str("session", id).
		Str("file", in.Filename).
		Int("transactions", len(report.Transactions)).
		Msg("statement analyzed")

	return c.JSON(UploadResponse{
		SessionID:    id,
		Format:       report.Format,
		Source:       report.Source,
		Transactions: report.Transactions,
		Skipped:      len(report.SkippedRows) + len(report.SkippedLines),
		Summary:      report.Summary,
	})
}

func (h *Handler) analysisError(c *fiber.Ctx, err error) error {
	var ae *analyzer.Error
	if errors.As(err, &ae) {
		status := fiber.StatusUnprocessableEntity
		switch ae.Code {
		case analyzer.CodeUnsupportedFormat:
			status = fiber.StatusUnsupportedMediaType
		case analyzer.CodeCancelled:
			status = fiber.StatusGatewayTimeout
		}
		return writeError(c, status, string(ae.Code), ae.Message)
	}

	// The pool gave up before a worker was free.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		code := analyzer.CodeCancelled
		return writeError(c, fiber.StatusGatewayTimeout, string(code), code.Message())
	}
	return err
}

func (h *Handler) handleDownloadReport(c *fiber.Ctx) error {
	typ := models.TxnType(strings.ToLower(c.Query("type", string(models.Debit))))
	if !typ.Valid() {
		return writeError(c, fiber.StatusBadRequest, "INVALID_TYPE", "Report type must be debit or credit.")
	}

	txns, err := h.sessions.Get(c.Query("session"))
	if err != nil {
		return writeError(c, fiber.StatusNotFound, "NO_DATA", "No analyzed statement for this session. Upload a statement first.")
	}

	var buf bytes.Buffer
	w := &writer.CSVWriter{}
	if err := w.WriteCategoryReport(&buf, txns, typ); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	c.Attachment(fmt.Sprintf("%s_report.csv", typ))
	return c.Send(buf.Bytes())
}

func writeError(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: code, Message: msg})
}

// errorHandler renders errors that escaped a handler, including recovered
// panics and fiber's own routing errors.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return writeError(c, fe.Code, "REQUEST_FAILED", fe.Message)
	}
	log := logger.FromContext(c.UserContext())
	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error.")
}
