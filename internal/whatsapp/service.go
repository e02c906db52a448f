package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"wedding-invitation/internal/models"
)

// ErrNotOnWhatsApp is returned when the recipient has no WhatsApp account.
var ErrNotOnWhatsApp = errors.New("number is not registered on WhatsApp")

// Reply is an incoming text message reduced to what the RSVP flow needs.
type Reply struct {
	Phone    string
	PushName string
	Text     string
}

// MessageHandler is called for each incoming text message.
type MessageHandler func(ctx context.Context, reply Reply) error

type Config struct {
	DataDir     string
	CountryCode string
	// Terminal receives the pairing QR code.
	Terminal io.Writer
}

type Service struct {
	client         *whatsmeow.Client
	cfg            *Config
	log            zerolog.Logger
	messageHandler MessageHandler
}

// NewService opens the session store and prepares a client.
func NewService(ctx context.Context, cfg *Config, log zerolog.Logger) (*Service, error) {
	container, err := sqlstore.New(ctx, "sqlite3", fmt.Sprintf("file:%s/whatsmeow.db?_foreign_keys=on", cfg.DataDir), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)

	service := &Service{
		client: client,
		cfg:    cfg,
		log:    log,
	}

	client.AddEventHandler(func(evt interface{}) {
		service.eventHandler(evt)
	})

	return service, nil
}

// NormalizePhoneNumber strips formatting and converts a national number
// with a leading 0 to international form, e.g. 0812... -> 62812...
func NormalizePhoneNumber(phoneNumber, countryCode string) string {
	replacer := strings.NewReplacer("+", "", " ", "", "-", "", "(", "", ")", "")
	phoneNumber = replacer.Replace(phoneNumber)

	if countryCode == "" {
		return phoneNumber
	}

	if strings.HasPrefix(phoneNumber, "0") && len(phoneNumber) >= 9 {
		phoneNumber = countryCode + phoneNumber[1:]
	}

	// Country code followed by the national trunk 0.
	if strings.HasPrefix(phoneNumber, countryCode+"0") {
		phoneNumber = countryCode + phoneNumber[len(countryCode)+1:]
	}

	return phoneNumber
}

// Connect connects to WhatsApp, pairing with a QR code on first run.
func (s *Service) Connect(ctx context.Context) error {
	if s.client.Store.ID != nil {
		if err := s.client.Connect(); err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		return nil
	}

	qrChan, _ := s.client.GetQRChannel(ctx)
	if err := s.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	for evt := range qrChan {
		if evt.Event != "code" {
			s.log.Info().Str("event", evt.Event).Msg("Login event")
			continue
		}
		s.printQR(evt.Code)
	}
	return nil
}

func (s *Service) printQR(code string) {
	if s.cfg.Terminal == nil {
		s.log.Info().Str("code", code).Msg("Scan this code with WhatsApp to link the portal")
		return
	}

	q, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		fmt.Fprintf(s.cfg.Terminal, "QR Code: %s\n", code)
		return
	}
	fmt.Fprintln(s.cfg.Terminal, "\n"+q.ToSmallString(false))
	fmt.Fprintln(s.cfg.Terminal, "📱 Scan the QR code above: WhatsApp > Settings > Linked Devices > Link a Device")
}

// Disconnect disconnects from WhatsApp
func (s *Service) Disconnect() {
	s.client.Disconnect()
}

// ShareInvitation sends the invitation link to one guest.
func (s *Service) ShareInvitation(ctx context.Context, phoneNumber, guestName string, cfg models.InvitationConfig, link string) error {
	return s.SendMessage(ctx, phoneNumber, InvitationMessage(guestName, cfg, link))
}

// InvitationMessage renders the text sent with a share link.
func InvitationMessage(guestName string, cfg models.InvitationConfig, link string) string {
	var b strings.Builder

	b.WriteString("🎉 *Undangan*\n\n")
	if name := strings.TrimSpace(guestName); name != "" {
		fmt.Fprintf(&b, "Kepada Yth. %s,\n\n", name)
	}
	if title := cfg.Title(); title != "" {
		fmt.Fprintf(&b, "*%s*\n", title)
	}
	if cfg.EventDateDisplay != "" {
		fmt.Fprintf(&b, "📅 %s\n", cfg.EventDateDisplay)
	}
	if cfg.EventTime != "" {
		fmt.Fprintf(&b, "🕖 %s\n", cfg.EventTime)
	}
	if cfg.VenueName != "" {
		fmt.Fprintf(&b, "📍 %s\n", cfg.VenueName)
	}
	fmt.Fprintf(&b, "\nBuka undangan: %s\n\n", link)
	b.WriteString("Balas *HADIR [jumlah]* atau *TIDAK* untuk konfirmasi kehadiran.")

	return b.String()
}

// SendMessage sends a plain text message after checking the number is on WhatsApp.
func (s *Service) SendMessage(ctx context.Context, phoneNumber, message string) error {
	jid, err := s.resolveJID(ctx, phoneNumber)
	if err != nil {
		return err
	}

	s.log.Debug().Str("jid", jid.String()).Msg("Attempting to send message")

	sent, err := s.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &message,
	})
	if err != nil {
		return fmt.Errorf("failed to send message to %s: %w", jid.String(), err)
	}

	s.log.Info().Str("id", sent.ID).Str("jid", jid.String()).Msg("Message sent")
	return nil
}

func (s *Service) resolveJID(ctx context.Context, phoneNumber string) (types.JID, error) {
	phoneNumber = NormalizePhoneNumber(phoneNumber, s.cfg.CountryCode)

	resp, err := s.client.IsOnWhatsApp(ctx, []string{phoneNumber})
	if err != nil {
		return types.JID{}, fmt.Errorf("failed to verify number on WhatsApp: %w", err)
	}
	if len(resp) == 0 || !resp[0].IsIn {
		return types.JID{}, fmt.Errorf("%w: %s", ErrNotOnWhatsApp, phoneNumber)
	}
	return resp[0].JID, nil
}

// eventHandler handles incoming WhatsApp events
func (s *Service) eventHandler(evt interface{}) {
	switch evt := evt.(type) {
	case *events.Message:
		s.handleMessage(evt)
	case *events.Connected:
		s.log.Info().Msg("Connected to WhatsApp")
	case *events.Disconnected:
		s.log.Info().Msg("Disconnected from WhatsApp")
	case *events.LoggedOut:
		s.log.Info().Msg("Logged out from WhatsApp")
	}
}

// handleMessage processes incoming messages
func (s *Service) handleMessage(msg *events.Message) {
	if msg.Info.IsFromMe || msg.Message == nil {
		return
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return
	}

	reply := Reply{
		Phone:    msg.Info.Sender.User,
		PushName: msg.Info.PushName,
		Text:     text,
	}

	if s.messageHandler == nil {
		s.log.Info().Str("sender", reply.Phone).Msg("Received message")
		return
	}
	if err := s.messageHandler(context.Background(), reply); err != nil {
		s.log.Error().Err(err).Str("sender", reply.Phone).Msg("Error handling message")
	}
}

// SetMessageHandler sets a custom handler for incoming messages
func (s *Service) SetMessageHandler(handler MessageHandler) {
	s.messageHandler = handler
}
