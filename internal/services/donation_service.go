package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/walkin/intake/internal/models"
)

var ErrDonationRejected = errors.New("donation rejected by service")

// HTTPDonationClient posts finished donations to the donation service.
type HTTPDonationClient struct {
	Endpoint   string
	APIKey     string
	HTTPClient *http.Client
}

func NewHTTPDonationClient(endpoint, apiKey string) *HTTPDonationClient {
	return &HTTPDonationClient{
		Endpoint: strings.TrimSpace(endpoint),
		APIKey:   strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type donationEnvelope struct {
	Success bool                          `json:"success"`
	Data    models.CreateDonationResponse `json:"data"`
	Error   string                        `json:"error"`
}

func (c *HTTPDonationClient) CreateDonation(ctx context.Context, req *models.CreateDonationRequest) (*models.CreateDonationResponse, error) {
	if c == nil || c.Endpoint == "" {
		return nil, fmt.Errorf("missing DONATION_URL")
	}

	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out donationEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if decodeErr == nil && out.Error != "" {
			return nil, fmt.Errorf("%w: http %d: %s", ErrDonationRejected, resp.StatusCode, out.Error)
		}
		return nil, fmt.Errorf("%w: http %d", ErrDonationRejected, resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode donation response: %w", decodeErr)
	}
	if !out.Success || out.Data.DonationID == "" {
		return nil, fmt.Errorf("%w: %s", ErrDonationRejected, out.Error)
	}
	return &out.Data, nil
}

const tempPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

// generateTempPassword avoids look-alike characters since staff often read
// the password out to the donor.
func generateTempPassword(length int) (string, error) {
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(tempPasswordAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// walkInEmail is the login given to donors who did not leave an email.
func walkInEmail(domain string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "walkin-" + id[:10] + "@" + domain
}
