package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/models"
)

var (
	tshirts = models.ItemType{ID: "tshirts", Name: "T-shirts", Category: "Clothing", DefaultValue: 100}
	pants   = models.ItemType{ID: "pants", Name: "Pants", Category: "Clothing", DefaultValue: 8}
	socks   = models.ItemType{ID: "socks", Name: "Socks", Category: "Clothing", AvgRetailPrice: 1.5}
	rice    = models.ItemType{
		ID:                "rice",
		Name:              "Rice",
		Category:          "Food",
		DefaultValue:      10,
		FixedCondition:    models.ConditionNew,
		HasFixedCondition: true,
	}
	validDonor = models.Donor{Name: "Ana Cruz", Address: "12 Mabini St", Phone: "0917 555 0101"}
)

type fakeCreator struct {
	mu    sync.Mutex
	calls []*models.CreateDonationRequest
	resp  *models.CreateDonationResponse
	err   error
	block chan struct{}
}

func (f *fakeCreator) CreateDonation(ctx context.Context, req *models.CreateDonationRequest) (*models.CreateDonationResponse, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return f.resp, f.err
}

func (f *fakeCreator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestDraft(creator DonationCreator) *Draft {
	d := NewDraft(estimation.NewEstimator(estimation.DefaultCatalog()), creator)
	n := 0
	d.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return d
}

func toReview(t *testing.T, d *Draft, items ...models.ItemType) {
	t.Helper()
	require.NoError(t, d.UpdateDonor(validDonor))
	require.NoError(t, d.AdvanceStep())
	for _, it := range items {
		_, err := d.AddItem(it)
		require.NoError(t, err)
	}
	require.NoError(t, d.AdvanceStep())
	require.Equal(t, StepReview, d.Step())
}

func TestNewDraftStartsAtDonorInfo(t *testing.T) {
	d := newTestDraft(nil)

	assert.Equal(t, StepDonorInfo, d.Step())
	assert.Equal(t, models.MethodIndividual, d.Method())
	assert.Empty(t, d.Items())
}

func TestAdvanceFromDonorInfoRequiresDonorFields(t *testing.T) {
	tests := []struct {
		name  string
		donor models.Donor
		field string
	}{
		{"all blank", models.Donor{}, "name"},
		{"name whitespace", models.Donor{Name: "   ", Address: "a", Phone: "1"}, "name"},
		{"address blank", models.Donor{Name: "n", Phone: "1"}, "address"},
		{"phone tab only", models.Donor{Name: "n", Address: "a", Phone: "\t"}, "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDraft(nil)
			require.NoError(t, d.UpdateDonor(tt.donor))

			err := d.AdvanceStep()

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.Equal(t, StepDonorInfo, d.Step())
		})
	}
}

func TestAdvanceFromItemsRequiresAnItem(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.UpdateDonor(validDonor))
	require.NoError(t, d.AdvanceStep())

	err := d.AdvanceStep()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "items")
	assert.Equal(t, StepItems, d.Step())

	_, err = d.AddItem(tshirts)
	require.NoError(t, err)
	require.NoError(t, d.AdvanceStep())
	assert.Equal(t, StepReview, d.Step())

	assert.ErrorIs(t, d.AdvanceStep(), ErrInvalidTransition)
}

func TestAdvanceCountsAssortedItems(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.UpdateDonor(validDonor))
	require.NoError(t, d.AdvanceStep())

	b := d.NewAssortedBuilder("Medium Box", 1, "Clothing")
	require.NoError(t, b.Add(tshirts))
	_, err := b.Commit(d)
	require.NoError(t, err)

	require.NoError(t, d.AdvanceStep())
	assert.Equal(t, StepReview, d.Step())
}

func TestRetreatAndEditLinks(t *testing.T) {
	d := newTestDraft(nil)
	assert.ErrorIs(t, d.RetreatStep(), ErrInvalidTransition)

	toReview(t, d, tshirts)

	require.NoError(t, d.GoToStep(StepDonorInfo))
	assert.Equal(t, StepDonorInfo, d.Step())
	assert.ErrorIs(t, d.GoToStep(StepReview), ErrInvalidTransition)

	require.NoError(t, d.AdvanceStep())
	require.NoError(t, d.AdvanceStep())
	require.NoError(t, d.GoToStep(StepItems))
	assert.Equal(t, StepItems, d.Step())

	require.NoError(t, d.AdvanceStep())
	require.NoError(t, d.RetreatStep())
	assert.Equal(t, StepItems, d.Step())
	require.NoError(t, d.RetreatStep())
	assert.Equal(t, StepDonorInfo, d.Step())

	assert.ErrorIs(t, d.GoToStep(StepClosed), ErrInvalidTransition)
	assert.ErrorIs(t, d.GoToStep(StepSubmitting), ErrInvalidTransition)
}

func TestAddItemIndividual(t *testing.T) {
	d := newTestDraft(nil)

	item, err := d.AddItem(tshirts)
	require.NoError(t, err)

	assert.Equal(t, "id-1", item.ID)
	assert.Equal(t, 1, item.Quantity)
	assert.False(t, item.IsEstimated)
	assert.Empty(t, item.ContainerType)
	assert.Zero(t, item.ContainerCount)
	assert.Zero(t, item.QuantityPerContainer)
	assert.Equal(t, models.ConditionGood, item.Condition)
	assert.Equal(t, 100.0, item.BaseValue)
	assert.Equal(t, 80.0, item.Value)
}

func TestAddItemRejectsIncompleteItemType(t *testing.T) {
	d := newTestDraft(nil)

	_, err := d.AddItem(models.ItemType{ID: "x"})
	assert.ErrorIs(t, err, ErrInvalidItemType)
	assert.Empty(t, d.Items())
}

func TestAddItemBulkEstimates(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.SetMethod(models.MethodBulk))

	item, err := d.AddItem(tshirts)
	require.NoError(t, err)

	assert.True(t, item.IsEstimated)
	assert.Equal(t, DefaultContainerType, item.ContainerType)
	assert.Equal(t, 1, item.ContainerCount)
	assert.Equal(t, 40, item.QuantityPerContainer)
	assert.Equal(t, 40, item.Quantity)
}

func TestAddItemUsesRetailPriceWhenNoDefaultValue(t *testing.T) {
	d := newTestDraft(nil)

	item, err := d.AddItem(socks)
	require.NoError(t, err)
	assert.Equal(t, 1.5, item.BaseValue)
	assert.Equal(t, 1.2, item.Value)
}

func TestSetMethodOnlyAffectsLaterItems(t *testing.T) {
	d := newTestDraft(nil)

	first, err := d.AddItem(tshirts)
	require.NoError(t, err)
	require.NoError(t, d.SetMethod(models.MethodBulk))
	second, err := d.AddItem(pants)
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetMethod("Pallet"), ErrInvalidMethod)

	items := d.Items()
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID)
	assert.False(t, items[0].IsEstimated)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, second.ID, items[1].ID)
	assert.True(t, items[1].IsEstimated)
	assert.Equal(t, 24, items[1].Quantity)
}

func TestEstimatedQuantityFollowsFactors(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.SetMethod(models.MethodBulk))
	item, err := d.AddItem(tshirts)
	require.NoError(t, err)

	steps := []struct {
		field    ItemField
		value    string
		count    int
		perBox   int
		quantity int
	}{
		{FieldContainerCount, "3", 3, 40, 120},
		{FieldQuantityPerContainer, "10", 3, 10, 30},
		{FieldContainerCount, "abc", 1, 10, 10},
		{FieldQuantityPerContainer, "", 1, 1, 1},
		{FieldContainerCount, "4.0", 4, 1, 4},
		{FieldQuantityPerContainer, "-2", 4, 1, 4},
		{FieldContainerType, "Large Sack", 4, 100, 400},
		{FieldContainerCount, "0", 1, 100, 100},
	}

	for _, s := range steps {
		got, err := d.UpdateItem(item.ID, s.field, s.value)
		require.NoError(t, err, "%s=%q", s.field, s.value)
		assert.Equal(t, s.count, got.ContainerCount, "%s=%q", s.field, s.value)
		assert.Equal(t, s.perBox, got.QuantityPerContainer, "%s=%q", s.field, s.value)
		assert.Equal(t, s.quantity, got.Quantity, "%s=%q", s.field, s.value)
		assert.Equal(t, got.QuantityPerContainer*got.ContainerCount, got.Quantity)
	}
}

func TestQuantityEdits(t *testing.T) {
	d := newTestDraft(nil)
	individual, err := d.AddItem(pants)
	require.NoError(t, err)
	require.NoError(t, d.SetMethod(models.MethodBulk))
	bulk, err := d.AddItem(tshirts)
	require.NoError(t, err)

	got, err := d.UpdateItem(individual.ID, FieldQuantity, "7")
	require.NoError(t, err)
	assert.Equal(t, 7, got.Quantity)

	got, err = d.UpdateItem(individual.ID, FieldQuantity, "seven")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Quantity)

	_, err = d.UpdateItem(individual.ID, FieldContainerCount, "3")
	assert.ErrorIs(t, err, ErrNotEstimated)

	_, err = d.UpdateItem(bulk.ID, FieldQuantity, "5")
	assert.ErrorIs(t, err, ErrDerivedQuantity)
	after, err := d.Item(bulk.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, after.Quantity)
}

func TestHugeFactorsNeverGoNegative(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.UpdateDonor(validDonor))
	require.NoError(t, d.SetMethod(models.MethodBulk))

	for i := 0; i < 3; i++ {
		item, err := d.AddItem(tshirts)
		require.NoError(t, err)

		_, err = d.UpdateItem(item.ID, FieldQuantityPerContainer, "9223372036854775807")
		require.NoError(t, err)
		got, err := d.UpdateItem(item.ID, FieldContainerCount, "9223372036854775807")
		require.NoError(t, err)

		assert.Equal(t, MaxCount, got.QuantityPerContainer)
		assert.Equal(t, MaxCount, got.ContainerCount)
		assert.Equal(t, MaxCount*MaxCount, got.Quantity)
	}

	totals := d.Totals()
	assert.Equal(t, 3, totals.ItemCount)
	assert.Equal(t, math.MaxInt, totals.TotalQuantity)

	payload, err := d.BuildSubmissionPayload()
	require.NoError(t, err)
	for _, p := range payload.Items {
		assert.Equal(t, MaxCount*MaxCount, p.Quantity)
	}
}

func TestUpdateItemUnknownFieldAndItem(t *testing.T) {
	d := newTestDraft(nil)
	item, err := d.AddItem(pants)
	require.NoError(t, err)

	_, err = d.UpdateItem(item.ID, "colour", "red")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = d.UpdateItem("missing", FieldQuantity, "2")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = d.UpdateItem(item.ID, FieldCondition, "  ")
	assert.ErrorIs(t, err, ErrInvalidValue)

	got, err := d.UpdateItem(item.ID, FieldDescription, "navy work trousers")
	require.NoError(t, err)
	assert.Equal(t, "navy work trousers", got.Description)

	got, err = d.UpdateItem(item.ID, FieldCategory, " Workwear ")
	require.NoError(t, err)
	assert.Equal(t, "Workwear", got.Category)
}

func TestConditionAndValueOverride(t *testing.T) {
	d := newTestDraft(nil)
	item, err := d.AddItem(tshirts)
	require.NoError(t, err)
	require.Equal(t, 80.0, item.Value)

	got, err := d.UpdateItem(item.ID, FieldCondition, "Fair")
	require.NoError(t, err)
	assert.Equal(t, 60.0, got.Value)
	assert.False(t, got.ValueOverridden)

	got, err = d.UpdateItem(item.ID, FieldValue, "55.555")
	require.NoError(t, err)
	assert.Equal(t, 55.56, got.Value)
	assert.True(t, got.ValueOverridden)

	// same condition again is not a change
	got, err = d.UpdateItem(item.ID, FieldCondition, "Fair")
	require.NoError(t, err)
	assert.Equal(t, 55.56, got.Value)
	assert.True(t, got.ValueOverridden)

	got, err = d.UpdateItem(item.ID, FieldCondition, "Poor")
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.Value)
	assert.False(t, got.ValueOverridden)

	got, err = d.UpdateItem(item.ID, FieldValue, "not a number")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Value)

	got, err = d.ResetItemValue(item.ID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, got.Value)
	assert.False(t, got.ValueOverridden)

	_, err = d.ResetItemValue("missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestFixedConditionCannotChange(t *testing.T) {
	d := newTestDraft(nil)
	item, err := d.AddItem(rice)
	require.NoError(t, err)
	require.Equal(t, models.ConditionNew, item.Condition)
	require.Equal(t, 10.0, item.Value)

	for _, cond := range []string{"Good", "Fair", "Poor", "Excellent", "new"} {
		_, err := d.UpdateItem(item.ID, FieldCondition, cond)
		assert.ErrorIs(t, err, ErrFixedCondition, cond)
	}

	got, err := d.UpdateItem(item.ID, FieldCondition, "New")
	require.NoError(t, err)
	assert.Equal(t, models.ConditionNew, got.Condition)
	assert.Equal(t, 10.0, got.Value)

	got, err = d.Item(item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ConditionNew, got.Condition)
	assert.Equal(t, 10.0, got.Value)
}

func TestRemoveRegularItem(t *testing.T) {
	d := newTestDraft(nil)
	a, _ := d.AddItem(tshirts)
	b, _ := d.AddItem(pants)

	require.NoError(t, d.RemoveItem(a.ID))
	assert.ErrorIs(t, d.RemoveItem(a.ID), ErrItemNotFound)

	items := d.Items()
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func TestCancelDiscardsEverything(t *testing.T) {
	d := newTestDraft(nil)
	require.NoError(t, d.UpdateDonor(validDonor))
	_, err := d.AddItem(tshirts)
	require.NoError(t, err)

	require.NoError(t, d.Cancel())

	assert.Equal(t, StepClosed, d.Step())
	assert.Empty(t, d.Items())
	assert.Equal(t, models.Donor{}, d.Donor())

	_, err = d.AddItem(pants)
	assert.ErrorIs(t, err, ErrDraftClosed)
	assert.ErrorIs(t, d.AdvanceStep(), ErrDraftClosed)
	assert.ErrorIs(t, d.UpdateDonor(validDonor), ErrDraftClosed)
	_, err = d.BuildSubmissionPayload()
	assert.ErrorIs(t, err, ErrDraftClosed)
}

func TestSubmitSuccessClosesDraft(t *testing.T) {
	creator := &fakeCreator{resp: &models.CreateDonationResponse{
		DonationID:  "don-1",
		Credentials: &models.TempCredentials{Email: "walkin@example.org", TempPassword: "pw"},
	}}
	d := newTestDraft(creator)
	toReview(t, d, tshirts)

	receipt, err := d.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "don-1", receipt.DonationID)
	assert.Equal(t, receipt, d.Receipt())
	assert.Equal(t, StepClosed, d.Step())
	assert.Empty(t, d.Items())
	assert.False(t, d.Submitting())
	require.Equal(t, 1, creator.callCount())
	assert.Equal(t, "Ana Cruz", creator.calls[0].Donor.Name)

	_, err = d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrDraftClosed)
}

func TestSubmittedMatchesSentPayload(t *testing.T) {
	creator := &fakeCreator{err: errors.New("timeout")}
	d := newTestDraft(creator)
	toReview(t, d, tshirts, pants)

	_, err := d.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmissionFailed)
	_, ok := d.Submitted()
	assert.False(t, ok)

	// staff fix the draft before retrying
	require.NoError(t, d.GoToStep(StepItems))
	items := d.Items()
	require.NoError(t, d.RemoveItem(items[1].ID))
	donor := validDonor
	donor.Email = "  ana@example.org "
	require.NoError(t, d.UpdateDonor(donor))
	require.NoError(t, d.AdvanceStep())

	creator.mu.Lock()
	creator.err = nil
	creator.resp = &models.CreateDonationResponse{DonationID: "don-3"}
	creator.mu.Unlock()

	_, err = d.Submit(context.Background())
	require.NoError(t, err)

	sent, ok := d.Submitted()
	require.True(t, ok)
	require.Equal(t, 2, creator.callCount())
	payload := creator.calls[1]
	assert.Equal(t, payload.Donor, sent.Donor)
	assert.Equal(t, "ana@example.org", sent.Donor.Email)
	assert.Equal(t, 1, sent.Totals.ItemCount)
	assert.Equal(t, payload.Items[0].Quantity, sent.Totals.TotalQuantity)
	assert.Equal(t, payload.Items[0].DeclaredValue, sent.Totals.TotalValue)
	assert.Empty(t, d.Items())
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	creator := &fakeCreator{err: errors.New("connection reset")}
	d := newTestDraft(creator)
	toReview(t, d, tshirts, pants)
	before := d.Snapshot()

	_, err := d.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Contains(t, err.Error(), "connection reset")

	after := d.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, StepReview, d.Step())
	assert.False(t, d.Submitting())

	// retry succeeds once the service recovers
	creator.mu.Lock()
	creator.err = nil
	creator.resp = &models.CreateDonationResponse{DonationID: "don-2"}
	creator.mu.Unlock()

	receipt, err := d.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "don-2", receipt.DonationID)
}

func TestSubmitTreatsEmptyResponseAsFailure(t *testing.T) {
	d := newTestDraft(&fakeCreator{})
	toReview(t, d, tshirts)

	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.Equal(t, StepReview, d.Step())
}

func TestSubmitGuards(t *testing.T) {
	d := newTestDraft(nil)
	toReview(t, d, tshirts)
	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoDonationService)

	d = newTestDraft(&fakeCreator{resp: &models.CreateDonationResponse{DonationID: "x"}})
	_, err = d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitIsMutuallyExclusive(t *testing.T) {
	creator := &fakeCreator{
		resp:  &models.CreateDonationResponse{DonationID: "don-1"},
		block: make(chan struct{}),
	}
	d := newTestDraft(creator)
	toReview(t, d, tshirts)

	done := make(chan error, 1)
	go func() {
		_, err := d.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, d.Submitting, time.Second, 5*time.Millisecond)
	assert.Equal(t, StepSubmitting, d.Step())

	_, err := d.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	_, err = d.AddItem(pants)
	assert.ErrorIs(t, err, ErrSubmitInProgress)
	assert.ErrorIs(t, d.Cancel(), ErrSubmitInProgress)
	assert.ErrorIs(t, d.GoToStep(StepItems), ErrSubmitInProgress)

	close(creator.block)
	require.NoError(t, <-done)
	assert.Equal(t, StepClosed, d.Step())
	assert.Equal(t, 1, creator.callCount())
}

func TestSnapshotJSON(t *testing.T) {
	d := newTestDraft(nil)
	toReview(t, d, tshirts)

	b, err := json.Marshal(d.Snapshot())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Review", decoded["step"])
	assert.Equal(t, "Individual", decoded["donation_method"])
	assert.Len(t, decoded["items"], 1)
}

func TestParseStep(t *testing.T) {
	for _, s := range []Step{StepDonorInfo, StepItems, StepReview, StepSubmitting, StepClosed} {
		parsed, err := ParseStep(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseStep("Payment")
	assert.Error(t, err)
	assert.Equal(t, "Step(42)", Step(42).String())
}
