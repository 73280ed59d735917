package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/walkin/intake/internal/intake"
	"github.com/walkin/intake/internal/models"
)

var ErrNoRecipient = errors.New("donor has no email address")

// SendGridMailer emails the donor a receipt once a walk-in donation is
// recorded, including the temporary login when one was created.
type SendGridMailer struct {
	APIKey     string
	FromEmail  string
	FromName   string
	HTTPClient *http.Client
	Endpoint   string
}

func NewSendGridMailer(apiKey string, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		APIKey:    strings.TrimSpace(apiKey),
		FromEmail: strings.TrimSpace(fromEmail),
		FromName:  "Donation Intake Desk",
		Endpoint:  "https://api.sendgrid.com/v3/mail/send",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendGridEmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To         []sendGridEmailAddress `json:"to"`
	Subject    string                 `json:"subject"`
	CustomArgs map[string]string      `json:"custom_args,omitempty"`
}

type sendGridMailSendRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridEmailAddress      `json:"from"`
	Content          []sendGridContent         `json:"content"`
}

// receiptText is the plain-text body of a donation receipt.
func receiptText(donor models.Donor, receipt *models.CreateDonationResponse, totals intake.Totals) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s,\n\n", strings.TrimSpace(donor.Name))
	sb.WriteString("Thank you for your donation. We recorded it at the intake desk.\n\n")
	fmt.Fprintf(&sb, "Reference: %s\n", receipt.DonationID)
	fmt.Fprintf(&sb, "Item lines: %d\n", totals.ItemCount)
	fmt.Fprintf(&sb, "Estimated items: %d\n", totals.TotalQuantity)
	fmt.Fprintf(&sb, "Declared value: $%.2f\n", totals.TotalValue)

	if c := receipt.Credentials; c != nil {
		sb.WriteString("\nAn account was created so you can follow your donations:\n")
		fmt.Fprintf(&sb, "Login: %s\nTemporary password: %s\n", c.Email, c.TempPassword)
		sb.WriteString("You will be asked to change the password when you first sign in.\n")
	}
	return sb.String()
}

func (m *SendGridMailer) SendReceipt(ctx context.Context, donor models.Donor, receipt *models.CreateDonationResponse, totals intake.Totals) error {
	if m == nil {
		return fmt.Errorf("sendgrid mailer not configured")
	}
	if m.APIKey == "" {
		return fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if m.FromEmail == "" {
		return fmt.Errorf("missing RECEIPT_FROM_EMAIL")
	}
	if receipt == nil {
		return fmt.Errorf("missing donation receipt")
	}
	to := strings.TrimSpace(donor.Email)
	if to == "" {
		return ErrNoRecipient
	}

	reqBody := sendGridMailSendRequest{
		Personalizations: []sendGridPersonalization{
			{
				To:      []sendGridEmailAddress{{Email: to, Name: strings.TrimSpace(donor.Name)}},
				Subject: fmt.Sprintf("Donation receipt #%s", receipt.DonationID),
				CustomArgs: map[string]string{
					"donation_id": receipt.DonationID,
				},
			},
		},
		From: sendGridEmailAddress{
			Email: m.FromEmail,
			Name:  m.FromName,
		},
		Content: []sendGridContent{
			{Type: "text/plain", Value: receiptText(donor, receipt, totals)},
		},
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid returns 202 Accepted on success.
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("sendgrid mail send http %d", resp.StatusCode)
	}
	return nil
}
