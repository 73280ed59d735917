package intake

import (
	"fmt"
	"math"
	"strings"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

// BuildSubmissionPayload assembles the request for the donation service
// without changing the draft.
func (d *Draft) BuildSubmissionPayload() (*models.CreateDonationRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step == StepClosed {
		return nil, ErrDraftClosed
	}
	return d.buildPayloadLocked()
}

func (d *Draft) buildPayloadLocked() (*models.CreateDonationRequest, error) {
	fields := d.donor.Validate()
	if len(d.items) == 0 {
		fields["items"] = "Add at least one item"
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}

	donor := d.donor
	donor.Name = strings.TrimSpace(donor.Name)
	donor.Address = strings.TrimSpace(donor.Address)
	donor.Phone = strings.TrimSpace(donor.Phone)
	donor.Email = strings.TrimSpace(donor.Email)

	req := &models.CreateDonationRequest{
		Donor:          donor,
		DonationMethod: d.method,
		Items:          make([]models.DonationItemPayload, 0, len(d.items)),
		Notes:          d.notes,
	}
	if strings.TrimSpace(req.Notes) == "" {
		req.Notes = fmt.Sprintf("Walk-in %s donation", strings.ToLower(string(d.method)))
	}

	for _, it := range d.items {
		p := models.DonationItemPayload{
			ItemTypeID:      it.ItemTypeID,
			Quantity:        it.Quantity,
			DeclaredValue:   estimation.RoundCents(sanitizeValue(it.Value)),
			Condition:       it.Condition,
			Description:     ItemDescription(*it),
			AssortedGroupID: it.AssortedGroupID,
		}
		if it.IsEstimated {
			p.QuantityPerContainer = it.QuantityPerContainer
			p.ContainerType = it.ContainerType
			p.ContainerCount = it.ContainerCount
		}
		req.Items = append(req.Items, p)
	}
	return req, nil
}

// ItemDescription is the description sent for an item: the text staff typed,
// or for estimated items a summary of the containers.
func ItemDescription(item models.DonationItemDraft) string {
	if text := strings.TrimSpace(item.Description); text != "" {
		return text
	}
	if !item.IsEstimated {
		return ""
	}
	return fmt.Sprintf("%d %s(s) × %d each", item.ContainerCount, item.ContainerType, item.QuantityPerContainer)
}

// Totals summarises the draft for the review step.
type Totals struct {
	ItemCount     int     `json:"item_count"`
	TotalQuantity int     `json:"total_quantity"`
	TotalValue    float64 `json:"total_value"`
}

func (d *Draft) Totals() Totals {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.totalsLocked()
}

func (d *Draft) totalsLocked() Totals {
	t := Totals{ItemCount: len(d.items)}
	for _, it := range d.items {
		t.TotalQuantity = addQuantity(t.TotalQuantity, it.Quantity)
		t.TotalValue += sanitizeValue(it.Value)
	}
	t.TotalValue = estimation.RoundCents(t.TotalValue)
	return t
}

// addQuantity saturates instead of wrapping.
func addQuantity(total, q int) int {
	if q > 0 && total > math.MaxInt-q {
		return math.MaxInt
	}
	return total + q
}

// Snapshot is a consistent copy of the whole draft.
type Snapshot struct {
	Step       Step                           `json:"step"`
	Method     models.DonationMethod          `json:"donation_method"`
	Donor      models.Donor                   `json:"donor"`
	Notes      string                         `json:"notes,omitempty"`
	Items      []models.DonationItemDraft     `json:"items"`
	Groups     []AssortedGroup                `json:"assorted_groups"`
	Totals     Totals                         `json:"totals"`
	Submitting bool                           `json:"submitting"`
	Receipt    *models.CreateDonationResponse `json:"receipt,omitempty"`
}

func (d *Draft) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	return Snapshot{
		Step:       d.step,
		Method:     d.method,
		Donor:      d.donor,
		Notes:      d.notes,
		Items:      d.itemsCopy(),
		Groups:     d.groupsCopy(),
		Totals:     d.totalsLocked(),
		Submitting: d.submitting,
		Receipt:    d.receipt,
	}
}
