package intake

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

// DefaultContainerType is used for bulk items until staff pick a container.
const DefaultContainerType = "Medium Box"

// DonationCreator is the external service that records a finished donation.
type DonationCreator interface {
	CreateDonation(ctx context.Context, req *models.CreateDonationRequest) (*models.CreateDonationResponse, error)
}

type assortedGroup struct {
	ID             string
	ContainerType  string
	ContainerCount int
	Category       string
}

// Draft is one walk-in donation being recorded. A draft belongs to a single
// intake session. Every mutation finishes its recomputation before the next
// one is accepted.
type Draft struct {
	mu sync.Mutex

	estimator *estimation.Estimator
	creator   DonationCreator
	newID     func() string

	step       Step
	donor      models.Donor
	method     models.DonationMethod
	notes      string
	items      []*models.DonationItemDraft
	groups     map[string]*assortedGroup
	groupOrder []string
	submitting bool
	receipt    *models.CreateDonationResponse
	submitted  *Submission
}

// Submission is the donor and totals a successful Submit sent, taken under
// the same lock as the payload.
type Submission struct {
	Donor  models.Donor
	Totals Totals
}

func NewDraft(estimator *estimation.Estimator, creator DonationCreator) *Draft {
	if estimator == nil {
		estimator = estimation.NewEstimator(nil)
	}
	return &Draft{
		estimator: estimator,
		creator:   creator,
		newID:     uuid.NewString,
		step:      StepDonorInfo,
		method:    models.MethodIndividual,
		groups:    make(map[string]*assortedGroup),
	}
}

func (d *Draft) Step() Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

func (d *Draft) Method() models.DonationMethod {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.method
}

func (d *Draft) Donor() models.Donor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.donor
}

// Receipt is the donation service's answer after a successful submit.
func (d *Draft) Receipt() *models.CreateDonationResponse {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receipt
}

// Submitted reports what the last successful Submit sent.
func (d *Draft) Submitted() (Submission, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.submitted == nil {
		return Submission{}, false
	}
	return *d.submitted, true
}

func (d *Draft) Submitting() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.submitting
}

func (d *Draft) checkEditable() error {
	if d.submitting || d.step == StepSubmitting {
		return ErrSubmitInProgress
	}
	if !d.step.Editable() {
		return ErrDraftClosed
	}
	return nil
}

func (d *Draft) UpdateDonor(donor models.Donor) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}
	d.donor = donor
	return nil
}

// SetMethod switches between Individual and Bulk. Items already on the
// draft keep the shape they were added with.
func (d *Draft) SetMethod(method models.DonationMethod) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}
	if !method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, method)
	}
	d.method = method
	return nil
}

func (d *Draft) SetNotes(notes string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}
	d.notes = notes
	return nil
}

// AdvanceStep moves DonorInfo to Items and Items to Review once the current
// step's data is complete. Review moves on only through Submit.
func (d *Draft) AdvanceStep() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}

	switch d.step {
	case StepDonorInfo:
		if err := newValidationError(d.donor.Validate()); err != nil {
			return err
		}
		d.step = StepItems
	case StepItems:
		if len(d.items) == 0 {
			return newValidationError(map[string]string{"items": "Add at least one item"})
		}
		d.step = StepReview
	default:
		return fmt.Errorf("%w: cannot advance from %s", ErrInvalidTransition, d.step)
	}
	return nil
}

// RetreatStep moves one step back in the flow.
func (d *Draft) RetreatStep() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}

	switch d.step {
	case StepItems:
		d.step = StepDonorInfo
	case StepReview:
		d.step = StepItems
	default:
		return fmt.Errorf("%w: cannot retreat from %s", ErrInvalidTransition, d.step)
	}
	return nil
}

// GoToStep follows an edit link back to an earlier step. Forward moves must
// go through AdvanceStep so their guards run.
func (d *Draft) GoToStep(target Step) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkEditable(); err != nil {
		return err
	}
	if target == d.step {
		return nil
	}
	if target > d.step || !target.Editable() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, d.step, target)
	}
	d.step = target
	return nil
}

// Cancel discards the draft. It is refused while a submission is in flight.
func (d *Draft) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.submitting {
		return ErrSubmitInProgress
	}
	d.discard()
	d.receipt = nil
	d.submitted = nil
	d.step = StepClosed
	return nil
}

func (d *Draft) discard() {
	d.donor = models.Donor{}
	d.notes = ""
	d.items = nil
	d.groups = make(map[string]*assortedGroup)
	d.groupOrder = nil
}

// Submit sends the assembled payload to the donation service. Only one
// submission runs at a time. On failure the draft returns to Review as it
// was; on success it closes and keeps the service's receipt.
func (d *Draft) Submit(ctx context.Context) (*models.CreateDonationResponse, error) {
	d.mu.Lock()
	if d.submitting {
		d.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	if d.step == StepClosed {
		d.mu.Unlock()
		return nil, ErrDraftClosed
	}
	if d.step != StepReview {
		step := d.step
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: submit from %s", ErrInvalidTransition, step)
	}
	if d.creator == nil {
		d.mu.Unlock()
		return nil, ErrNoDonationService
	}
	payload, err := d.buildPayloadLocked()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	sent := Submission{Donor: payload.Donor, Totals: d.totalsLocked()}
	d.submitting = true
	d.step = StepSubmitting
	creator := d.creator
	d.mu.Unlock()

	resp, err := creator.CreateDonation(ctx, payload)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.submitting = false

	if err == nil && resp == nil {
		err = fmt.Errorf("empty response from donation service")
	}
	if err != nil {
		d.step = StepReview
		log.Printf("[intake] submission failed donor=%q items=%d err=%v", d.donor.Name, len(d.items), err)
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	log.Printf("[intake] donation created id=%s items=%d", resp.DonationID, len(payload.Items))
	d.discard()
	d.receipt = resp
	d.submitted = &sent
	d.step = StepClosed
	return resp, nil
}
