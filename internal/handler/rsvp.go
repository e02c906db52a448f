package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"wedding-invitation/internal/models"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/validation"
	"wedding-invitation/internal/whatsapp"
)

// Messenger sends a text reply to a phone number.
type Messenger interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// Submitter records RSVPs.
type Submitter interface {
	Submit(ctx context.Context, gate rsvp.Gate, sub rsvp.Submission) (models.RSVP, error)
}

const channelWhatsApp = "whatsapp"

var (
	acceptWords  = []string{"ya", "yes", "hadir", "datang", "insyaallah", "accept", "attending", "✅"}
	declineWords = []string{"tidak", "tdk", "no", "nope", "gak", "nggak", "berhalangan", "decline", "❌"}
)

// Reply texts.
const (
	msgClosed       = "Mohon maaf, konfirmasi kehadiran sudah ditutup karena acara telah berlangsung."
	msgNameRequired = "Mohon sertakan nama Anda, contoh: HADIR 2 Ahmad"
	msgDeclined     = "Terima kasih telah memberikan kabar. Semoga kita dapat bertemu di lain kesempatan. 💕"
	msgInvalid      = "Mohon maaf, balasan Anda belum dapat kami catat. Contoh: HADIR 2 Ahmad"
)

var msgPartySize = fmt.Sprintf("Mohon maaf, jumlah tamu maksimal %d orang. Contoh: HADIR 2 Ahmad", rsvp.MaxPartySize)

// RSVPHandler turns chat replies into RSVPs.
type RSVPHandler struct {
	messenger Messenger
	rsvps     Submitter
	gate      rsvp.Gate
	log       zerolog.Logger
}

// NewRSVPHandler creates a new RSVP handler. gate is consulted on every reply,
// normally the countdown engine of the active invitation.
func NewRSVPHandler(messenger Messenger, rsvps Submitter, gate rsvp.Gate, log zerolog.Logger) *RSVPHandler {
	return &RSVPHandler{
		messenger: messenger,
		rsvps:     rsvps,
		gate:      gate,
		log:       log,
	}
}

// HandleReply processes one incoming message. Messages that are not an
// attendance answer are ignored.
func (h *RSVPHandler) HandleReply(ctx context.Context, reply whatsapp.Reply) error {
	sub, ok := parseReply(reply.Text)
	if !ok {
		return nil
	}
	if sub.Name == "" {
		sub.Name = strings.TrimSpace(reply.PushName)
	}
	sub.Channel = channelWhatsApp

	record, err := h.rsvps.Submit(ctx, h.gate, sub)
	var verr *validation.Error
	switch {
	case errors.Is(err, rsvp.ErrClosed):
		return h.respond(ctx, reply.Phone, msgClosed)
	case errors.Is(err, rsvp.ErrNameRequired):
		return h.respond(ctx, reply.Phone, msgNameRequired)
	case errors.As(err, &verr):
		h.log.Info().Str("phone", reply.Phone).Err(err).Msg("Rejected RSVP reply")
		if _, ok := verr.Fields["partySize"]; ok {
			return h.respond(ctx, reply.Phone, msgPartySize)
		}
		return h.respond(ctx, reply.Phone, msgInvalid)
	case err != nil:
		return fmt.Errorf("failed to record rsvp: %w", err)
	}

	h.log.Info().Str("phone", reply.Phone).Str("status", string(record.Status)).Msg("RSVP received via WhatsApp")

	if record.Status == models.RSVPNotAttending {
		return h.respond(ctx, reply.Phone, msgDeclined)
	}
	return h.respond(ctx, reply.Phone, fmt.Sprintf(
		"🎉 Terima kasih, %s! Kehadiran Anda (%d orang) telah tercatat.", record.Name, record.PartySize,
	))
}

func (h *RSVPHandler) respond(ctx context.Context, phone, text string) error {
	if err := h.messenger.SendMessage(ctx, phone, text); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// parseReply reads "HADIR 2 Ahmad", "ya", "tidak" and the like. Decline
// words are checked first so "tidak hadir" is a decline.
func parseReply(text string) (rsvp.Submission, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == '.' || r == '!' || r == ':'
	})
	if len(words) == 0 {
		return rsvp.Submission{}, false
	}

	var sub rsvp.Submission
	switch {
	case containsAny(words, declineWords...):
		sub.Status = models.RSVPNotAttending
	case containsAny(words, acceptWords...):
		sub.Status = models.RSVPAttending
	default:
		return rsvp.Submission{}, false
	}

	// Keep the original casing for the name.
	original := strings.Fields(text)
	var name []string
	for _, w := range original {
		lw := strings.ToLower(strings.Trim(w, ",.!:"))
		if n, err := strconv.Atoi(lw); err == nil {
			if sub.PartySize == 0 {
				sub.PartySize = n
			}
			continue
		}
		if isKeyword(lw) || lw == "" {
			continue
		}
		name = append(name, strings.Trim(w, ",.!:"))
	}
	sub.Name = strings.Join(name, " ")

	return sub, true
}

func isKeyword(w string) bool {
	return containsAny([]string{w}, acceptWords...) || containsAny([]string{w}, declineWords...)
}

// containsAny checks if any word equals one of the keywords
func containsAny(words []string, keywords ...string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
