package worker

// recibo_worker.go
// Processes receipt jobs from QueueRecibos: renders the PDF receipt of a
// completed operation and optionally chains an email job with the attachment.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"interunido/internal/infra"
	"interunido/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReciboWorker renders operation receipts asynchronously.
type ReciboWorker struct {
	repo           repository.OperacionRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
}

func NewReciboWorker(repo repository.OperacionRepository, dispatcher *Dispatcher, pdfStoragePath string) *ReciboWorker {
	return &ReciboWorker{repo: repo, dispatcher: dispatcher, pdfStoragePath: pdfStoragePath}
}

// Process handles a single receipt job:
//  1. Parse ReciboJobPayload from the job envelope
//  2. Fetch the Operacion (with legs) from DB
//  3. Generate the PDF receipt (retried, disk can be transiently full)
//  4. Optionally enqueue an email job with the attachment
func (w *ReciboWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReciboJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("recibo_worker: invalid payload")
		return
	}

	opID, err := uuid.Parse(payload.OperacionID)
	if err != nil {
		log.Error().Str("operacion_id", payload.OperacionID).Msg("recibo_worker: invalid operacion_id")
		return
	}

	op, err := w.repo.FindByID(ctx, opID)
	if err != nil {
		log.Error().Err(err).Str("operacion_id", payload.OperacionID).Msg("recibo_worker: operacion not found")
		return
	}

	var pdfPath string
	genErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReciboPDF(op, w.pdfStoragePath)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("operacion_id", payload.OperacionID).
				Msg("recibo_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})
	if genErr != nil {
		log.Error().Err(genErr).Str("operacion_id", payload.OperacionID).Msg("recibo_worker: PDF generation failed after all retries")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("operacion_id", payload.OperacionID).Msg("recibo_worker: PDF generated")

	if payload.NotificarEmail == "" {
		return
	}
	emailJob := EmailJobPayload{
		ToEmail: payload.NotificarEmail,
		Subject: fmt.Sprintf("InterUnido — Recibo de operación %s", op.Cliente),
		Body:    fmt.Sprintf("Adjunto encontrará el recibo de su operación.\nMonto: %s %s", op.Monto.StringFixed(2), op.Divisa),
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", payload.NotificarEmail).Msg("recibo_worker: failed to enqueue email")
		return
	}
	log.Info().Str("email", payload.NotificarEmail).Msg("recibo_worker: email job enqueued")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
