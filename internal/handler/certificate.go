package handler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vacunorg/vaccination-records/internal/certificate"
	"github.com/vacunorg/vaccination-records/internal/config"
	"github.com/vacunorg/vaccination-records/internal/model"
	"github.com/vacunorg/vaccination-records/internal/queue"
	queue_publisher "github.com/vacunorg/vaccination-records/internal/service"
	"github.com/vacunorg/vaccination-records/internal/store"
)

// CertificateHandler renders vaccination certificates on demand. The PDF is
// built from a snapshot of the record; the handler records a denormalized
// issuance entry and publishes an event, but neither side effect may fail
// the download.
type CertificateHandler struct {
	Cfg   config.Config
	Store *store.Store
	Gen   *certificate.Generator
	Log   *slog.Logger
}

func NewCertificateHandler(cfg config.Config, s *store.Store, g *certificate.Generator, log *slog.Logger) *CertificateHandler {
	return &CertificateHandler{Cfg: cfg, Store: s, Gen: g, Log: log}
}

// ForUser serves GET /v1/users/:id/certificate.
func (h *CertificateHandler) ForUser(c echo.Context) error {
	id := c.Param("id")
	if !canManage(c, id) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rec, err := h.Store.GetUser(ctx, id)
	if err != nil {
		return storeError(c, err)
	}
	return h.issue(c, rec)
}

// ForDependent serves GET /v1/dependents/:dependentId/certificate for the
// authenticated main account.
func (h *CertificateHandler) ForDependent(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	dep, err := h.Store.GetDependent(ctx, authUserID(c), c.Param("dependentId"))
	if err != nil {
		return storeError(c, err)
	}
	return h.issue(c, dep)
}

func (h *CertificateHandler) issue(c echo.Context, rec model.UserRecord) error {
	if len(rec.Vaccines) == 0 {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "no vaccines recorded"})
	}

	locale := c.QueryParam("locale")
	if locale == "" {
		locale = "es"
	}
	now := time.Now().UTC()
	certID := fmt.Sprintf("%s-%d", rec.ID, now.UnixMilli())
	verifyURL := h.Cfg.VerifyBaseURL + "/" + certID

	in := certificate.Input{
		PatientName:     rec.FullName(),
		DocumentID:      rec.DocumentID,
		BirthDate:       rec.BirthDate,
		Country:         rec.Country,
		Vaccines:        rec.Vaccines,
		IssueDate:       now,
		VerificationURL: verifyURL,
		Locale:          locale,
	}

	var buf bytes.Buffer
	stats, err := h.Gen.Render(in, &buf)
	if err != nil {
		h.Log.Error("certificate render failed", "user_id", rec.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "certificate generation failed"})
	}
	h.Log.Info("certificate issued",
		"user_id", rec.ID, "pages", stats.Pages, "rows", stats.VaccineRows, "qr", stats.QRIncluded)

	// Convenience record and event; failures are logged, never surfaced.
	ctx, cancel := reqCtx(c)
	defer cancel()
	entry := model.CertificateEntry{
		ID:          certID,
		UserID:      rec.ID,
		PatientName: rec.FullName(),
		DocumentID:  rec.DocumentID,
		VaccineName: fmt.Sprintf("%d vaccine(s)", len(rec.Vaccines)),
		Dose:        "Combined",
		IssueDate:   now.Format(time.RFC3339),
		Downloaded:  true,
	}
	if err := h.Store.RecordCertificate(ctx, entry); err != nil {
		h.Log.Warn("issuance entry not recorded", "user_id", rec.ID, "error", err)
	}

	event := queue.CertificateIssuedEvent{
		CertificateID:   certID,
		UserID:          rec.ID,
		PatientName:     rec.FullName(),
		DocumentID:      rec.DocumentID,
		VaccineCount:    stats.VaccineRows,
		PageCount:       stats.Pages,
		VerificationURL: verifyURL,
		IssuedAt:        now.Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		_ = queue_publisher.PublishCertificateIssued(pubCtx, event)
	}()

	filename := certificate.Filename(locale, rec.FullName())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}
