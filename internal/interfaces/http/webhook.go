package http

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"finlink/internal/webhook"
)

const (
	maxWebhookBody        = 1 << 20 // 1 MiB
	webhookProcessTimeout = 5 * time.Minute
)

// WebhookHandler receives aggregator callbacks. Every POST is
// answered 200, whether or not the signature checks out: a rejection
// is indistinguishable from a stale or forged delivery, and a
// differentiated status would hand an attacker a signature oracle.
// Failed verification is logged and dropped without dispatching.
type WebhookHandler struct {
	verifier *webhook.Verifier
	ingestor *webhook.Ingestor
}

func NewWebhookHandler(verifier *webhook.Verifier, ingestor *webhook.Ingestor) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, ingestor: ingestor}
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		log.Printf("Webhook dropped: body read failed from %s: %v", r.RemoteAddr, err)
		w.WriteHeader(http.StatusOK)
		return
	}

	signature := r.Header.Get(webhook.SignatureHeader)
	if !h.verifier.Verify(body, signature) {
		log.Printf("Webhook dropped: bad signature from %s", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		return
	}

	ev := webhook.Decode(body)

	// Acknowledge before processing so a slow sync never makes the
	// provider retry a webhook we already have.
	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), webhookProcessTimeout)
		defer cancel()
		h.ingestor.Process(ctx, ev)
	}()
}
