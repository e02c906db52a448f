package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
)

type sharer interface {
	ShareInvitation(ctx context.Context, phoneNumber, guestName string, cfg models.InvitationConfig, link string) error
}

// console is the admin menu on stdin.
type console struct {
	workspace *portal.Workspace
	engine    *countdown.Engine
	rsvps     *rsvp.Service
	session   *portal.Session
	sharer    sharer // nil when WhatsApp is disabled

	in  io.Reader
	out io.Writer
}

func (c *console) run(ctx context.Context, stop func()) {
	scanner := bufio.NewScanner(c.in)
	c.session.Load(c.workspace.Config())
	c.session.SwitchView(ctx, models.ViewAdmin)

	for ctx.Err() == nil {
		// The workspace may have been edited over HTTP since the last round.
		c.session.SetConfig(c.workspace.Config())
		st := c.session.State()

		c.printf("\n%s\n", greetingLine(st))
		if title := st.Config.Title(); title != "" {
			c.printf("📌 %s\n", title)
		}
		c.printf("\nCommands:\n")
		c.printf("  1. Publish invitation & show link\n")
		c.printf("  2. Share invitation via WhatsApp\n")
		c.printf("  3. View RSVPs\n")
		c.printf("  4. RSVP summary\n")
		c.printf("  5. Clear RSVPs\n")
		c.printf("  6. Show countdown\n")
		c.printf("  7. Exit\n")
		c.printf("\nEnter command (1-7): ")

		if !scanner.Scan() {
			break
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			c.publish(ctx)
		case "2":
			c.share(ctx, scanner)
		case "3":
			c.viewRSVPs(ctx)
		case "4":
			c.summary(ctx)
		case "5":
			c.clearRSVPs(ctx, scanner)
		case "6":
			c.showCountdown()
		case "7":
			c.printf("Exiting...\n")
			stop()
			return
		default:
			c.printf("Invalid command. Please try again.\n")
		}
	}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func greetingLine(st portal.SessionState) string {
	if st.LoadingGreeting {
		return "⏳ Menyiapkan sapaan..."
	}
	return st.Greeting
}

func (c *console) publish(ctx context.Context) {
	entry, err := c.workspace.Publish(ctx)
	if err != nil {
		c.printf("❌ Error publishing invitation: %v\n", err)
		return
	}
	c.printf("✅ Published %s\n%s\n", entry.Config.ID, entry.Link)
}

func (c *console) share(ctx context.Context, scanner *bufio.Scanner) {
	if c.sharer == nil {
		c.printf("WhatsApp is not enabled. Set WHATSAPP_ENABLED=true to share.\n")
		return
	}

	c.printf("Enter guest name: ")
	if !scanner.Scan() {
		return
	}
	name := strings.TrimSpace(scanner.Text())

	c.printf("Enter phone number (e.g., 08123456789): ")
	if !scanner.Scan() {
		return
	}
	phoneNumber := strings.TrimSpace(scanner.Text())

	link, err := c.workspace.ShareLink()
	if err != nil {
		c.printf("❌ Error building link: %v\n", err)
		return
	}

	c.printf("\nSending invitation to %s (%s)...\n", name, phoneNumber)
	if err := c.sharer.ShareInvitation(ctx, phoneNumber, name, c.workspace.Config(), link); err != nil {
		c.printf("❌ Gagal membagikan: %v\nLink: %s\n", err, link)
		return
	}
	c.printf("✅ Invitation sent successfully!\n")
}

func (c *console) viewRSVPs(ctx context.Context) {
	list, err := c.rsvps.List(ctx)
	if err != nil {
		c.printf("❌ Error loading RSVPs: %v\n", err)
		return
	}
	if len(list) == 0 {
		c.printf("\nNo RSVPs yet.\n")
		return
	}

	c.printf("\n📋 RSVPs (%d total):\n", len(list))
	c.printf("%s\n", strings.Repeat("-", 60))
	for _, r := range list {
		c.printf("Name: %s\n", r.Name)
		c.printf("Status: %s\n", r.Status)
		if r.Status == models.RSVPAttending {
			c.printf("Party size: %d\n", r.PartySize)
		}
		if r.Channel != "" {
			c.printf("Channel: %s\n", r.Channel)
		}
		c.printf("Submitted: %s\n", r.SubmittedAt.Format("2006-01-02 15:04:05"))
		c.printf("%s\n", strings.Repeat("-", 60))
	}
}

func (c *console) summary(ctx context.Context) {
	sum, err := c.rsvps.Summary(ctx)
	if err != nil {
		c.printf("❌ Error loading RSVPs: %v\n", err)
		return
	}
	c.printf("\nResponses: %d\nAttending: %d (%d guests)\nNot attending: %d\n",
		sum.Responses, sum.Attending, sum.Guests, sum.NotAttending)
}

func (c *console) clearRSVPs(ctx context.Context, scanner *bufio.Scanner) {
	c.printf("Delete every RSVP? (y/N): ")
	if !scanner.Scan() {
		return
	}
	if !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
		c.printf("Cancelled.\n")
		return
	}
	if err := c.rsvps.Clear(ctx); err != nil {
		c.printf("❌ Error clearing RSVPs: %v\n", err)
		return
	}
	c.printf("✅ RSVPs cleared.\n")
}

func (c *console) showCountdown() {
	st := c.engine.State()
	switch {
	case st.Idle:
		c.printf("No valid event date set.\n")
	case st.Expired:
		c.printf("The event has passed. RSVP is closed.\n")
	default:
		c.printf("%s hari %s:%s:%s\n", st.Days, st.Hours, st.Minutes, st.Seconds)
	}
}
