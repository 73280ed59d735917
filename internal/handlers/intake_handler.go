package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/walkin/intake/internal/intake"
	"github.com/walkin/intake/internal/models"
	"github.com/walkin/intake/internal/services"
)

// ReceiptSender delivers a receipt to the donor after a successful submit.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, donor models.Donor, receipt *models.CreateDonationResponse, totals intake.Totals) error
}

type IntakeHandler struct {
	sessions      *services.SessionService
	catalog       *services.CatalogService
	submitTimeout time.Duration
	receipts      ReceiptSender
}

func NewIntakeHandler(sessions *services.SessionService, catalog *services.CatalogService, submitTimeout time.Duration) *IntakeHandler {
	if submitTimeout <= 0 {
		submitTimeout = 20 * time.Second
	}
	return &IntakeHandler{
		sessions:      sessions,
		catalog:       catalog,
		submitTimeout: submitTimeout,
	}
}

// WithReceipts turns on receipt emails for donors who left an address.
func (h *IntakeHandler) WithReceipts(sender ReceiptSender) *IntakeHandler {
	h.receipts = sender
	return h
}

// Routes mounts the intake API under the caller's prefix.
func (h *IntakeHandler) Routes(r chi.Router) {
	r.Post("/", h.StartIntake)
	r.Route("/{sessionId}", func(r chi.Router) {
		r.Get("/", h.GetIntake)
		r.Delete("/", h.CancelIntake)

		r.Put("/donor", h.UpdateDonor)
		r.Put("/method", h.SetMethod)
		r.Put("/notes", h.SetNotes)

		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemId}", h.UpdateItem)
		r.Delete("/items/{itemId}", h.RemoveItem)
		r.Post("/items/{itemId}/reset-value", h.ResetItemValue)
		r.Post("/assorted", h.AddAssortedGroup)

		r.Post("/advance", h.AdvanceStep)
		r.Post("/retreat", h.RetreatStep)
		r.Post("/step", h.GoToStep)

		r.Get("/payload", h.GetPayload)
		r.Post("/submit", h.Submit)
	})
}

type startIntakeResponse struct {
	SessionID string          `json:"session_id"`
	Draft     intake.Snapshot `json:"draft"`
}

func (h *IntakeHandler) StartIntake(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Start()
	log.Printf("[StartIntake] session=%s", session.ID)
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(startIntakeResponse{
		SessionID: session.ID,
		Draft:     session.Draft.Snapshot(),
	}))
}

func (h *IntakeHandler) draft(w http.ResponseWriter, r *http.Request, op string) (*intake.Draft, bool) {
	session, err := h.sessions.Get(chi.URLParam(r, "sessionId"))
	if err != nil {
		writeDraftError(w, op, err)
		return nil, false
	}
	return session.Draft, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return false
	}
	return true
}

func (h *IntakeHandler) GetIntake(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "GetIntake")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

func (h *IntakeHandler) CancelIntake(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	d, ok := h.draft(w, r, "CancelIntake")
	if !ok {
		return
	}
	if err := d.Cancel(); err != nil {
		writeDraftError(w, "CancelIntake", err)
		return
	}
	h.sessions.End(sessionID)
	log.Printf("[CancelIntake] session=%s", sessionID)
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(map[string]string{"message": "Intake cancelled"}))
}

func (h *IntakeHandler) UpdateDonor(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "UpdateDonor")
	if !ok {
		return
	}
	var req models.Donor
	if !decodeBody(w, r, &req) {
		return
	}
	if err := d.UpdateDonor(req); err != nil {
		writeDraftError(w, "UpdateDonor", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

type setMethodRequest struct {
	DonationMethod models.DonationMethod `json:"donation_method"`
}

func (h *IntakeHandler) SetMethod(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "SetMethod")
	if !ok {
		return
	}
	var req setMethodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := d.SetMethod(req.DonationMethod); err != nil {
		writeDraftError(w, "SetMethod", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

type setNotesRequest struct {
	Notes string `json:"notes"`
}

func (h *IntakeHandler) SetNotes(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "SetNotes")
	if !ok {
		return
	}
	var req setNotesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := d.SetNotes(req.Notes); err != nil {
		writeDraftError(w, "SetNotes", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

type addItemRequest struct {
	ItemTypeID string `json:"item_type_id"`
}

func (h *IntakeHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "AddItem")
	if !ok {
		return
	}
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	itemType, found := h.catalog.ItemType(r.Context(), req.ItemTypeID)
	if !found {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
			"item_type_id": "Unknown item type",
		}))
		return
	}

	item, err := d.AddItem(itemType)
	if err != nil {
		writeDraftError(w, "AddItem", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(item))
}

type updateItemRequest struct {
	Field intake.ItemField `json:"field"`
	Value fieldValue       `json:"value"`
}

// fieldValue takes whatever a form sends for an item field: a string, a
// number, a boolean or null. The draft coerces the text itself.
type fieldValue string

func (v *fieldValue) UnmarshalJSON(b []byte) error {
	var raw interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = ""
	case string:
		*v = fieldValue(t)
	case float64, bool:
		*v = fieldValue(strings.TrimSpace(string(b)))
	default:
		return fmt.Errorf("item field value must be a string or a number")
	}
	return nil
}

func (h *IntakeHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "UpdateItem")
	if !ok {
		return
	}
	var req updateItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := d.UpdateItem(chi.URLParam(r, "itemId"), req.Field, string(req.Value)); err != nil {
		writeDraftError(w, "UpdateItem", err)
		return
	}
	// Group edits touch other items, so return the whole draft.
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

func (h *IntakeHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "RemoveItem")
	if !ok {
		return
	}
	if err := d.RemoveItem(chi.URLParam(r, "itemId")); err != nil {
		writeDraftError(w, "RemoveItem", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

func (h *IntakeHandler) ResetItemValue(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "ResetItemValue")
	if !ok {
		return
	}
	item, err := d.ResetItemValue(chi.URLParam(r, "itemId"))
	if err != nil {
		writeDraftError(w, "ResetItemValue", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(item))
}

type addAssortedRequest struct {
	ContainerType  string   `json:"container_type"`
	ContainerCount int      `json:"container_count"`
	Category       string   `json:"category"`
	ItemTypeIDs    []string `json:"item_type_ids"`
}

func (h *IntakeHandler) AddAssortedGroup(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "AddAssortedGroup")
	if !ok {
		return
	}
	var req addAssortedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	builder := d.NewAssortedBuilder(req.ContainerType, req.ContainerCount, req.Category)
	for _, id := range req.ItemTypeIDs {
		itemType, found := h.catalog.ItemType(r.Context(), id)
		if !found {
			writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(map[string]string{
				"item_type_ids": "Unknown item type " + id,
			}))
			return
		}
		if err := builder.Add(itemType); err != nil {
			writeDraftError(w, "AddAssortedGroup", err)
			return
		}
	}

	items, err := builder.Commit(d)
	if err != nil {
		writeDraftError(w, "AddAssortedGroup", err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(items))
}

func (h *IntakeHandler) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "AdvanceStep")
	if !ok {
		return
	}
	if err := d.AdvanceStep(); err != nil {
		writeDraftError(w, "AdvanceStep", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

func (h *IntakeHandler) RetreatStep(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "RetreatStep")
	if !ok {
		return
	}
	if err := d.RetreatStep(); err != nil {
		writeDraftError(w, "RetreatStep", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

type goToStepRequest struct {
	Step intake.Step `json:"step"`
}

func (h *IntakeHandler) GoToStep(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "GoToStep")
	if !ok {
		return
	}
	var req goToStepRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := d.GoToStep(req.Step); err != nil {
		writeDraftError(w, "GoToStep", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(d.Snapshot()))
}

func (h *IntakeHandler) GetPayload(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r, "GetPayload")
	if !ok {
		return
	}
	payload, err := d.BuildSubmissionPayload()
	if err != nil {
		writeDraftError(w, "GetPayload", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(payload))
}

func (h *IntakeHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	d, ok := h.draft(w, r, "SubmitDonation")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.submitTimeout)
	defer cancel()

	receipt, err := d.Submit(ctx)
	if err != nil {
		writeDraftError(w, "SubmitDonation", err)
		return
	}

	h.sessions.End(sessionID)
	log.Printf("[SubmitDonation] session=%s donation=%s", sessionID, receipt.DonationID)
	if sent, ok := d.Submitted(); ok {
		h.sendReceipt(sent.Donor, receipt, sent.Totals)
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(receipt))
}

func (h *IntakeHandler) sendReceipt(donor models.Donor, receipt *models.CreateDonationResponse, totals intake.Totals) {
	if h.receipts == nil || strings.TrimSpace(donor.Email) == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.receipts.SendReceipt(ctx, donor, receipt, totals); err != nil {
			log.Printf("[SubmitDonation] receipt email failed donation=%s: %v", receipt.DonationID, err)
		}
	}()
}
