package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fildor/atelier-api/services"
	"github.com/gin-gonic/gin"
)

// SelectClientRequest represents the body of the client step
type SelectClientRequest struct {
	ClientID string `json:"client_id" binding:"required"`
}

// SelectModelRequest represents the body of the model step
type SelectModelRequest struct {
	ModelID string `json:"model_id" binding:"required"`
}

// DraftController serves the step-by-step order wizard
type DraftController struct {
	wizard *services.WizardService
}

// NewDraftController creates the wizard controller
func NewDraftController(wizard *services.WizardService) *DraftController {
	return &DraftController{wizard: wizard}
}

// StartDraft handles POST /api/v1/order-drafts
func (dc *DraftController) StartDraft(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	respondSuccess(c, http.StatusCreated, dc.wizard.Start(actor))
}

// GetDraft handles GET /api/v1/order-drafts/:id
func (dc *DraftController) GetDraft(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	draft, err := dc.wizard.Get(actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get draft")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// SearchClients handles GET /api/v1/clients?q= - the client step picker
func (dc *DraftController) SearchClients(c *gin.Context) {
	clients, err := dc.wizard.SearchClients(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err, "Failed to search clients")
		return
	}

	respondSuccess(c, http.StatusOK, clients)
}

// SearchModels handles GET /api/v1/models?q= - the model step picker
func (dc *DraftController) SearchModels(c *gin.Context) {
	items, err := dc.wizard.SearchModels(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err, "Failed to search models")
		return
	}

	respondSuccess(c, http.StatusOK, items)
}

// SelectClient handles PUT /api/v1/order-drafts/:id/client
func (dc *DraftController) SelectClient(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req SelectClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Select a client to continue")
		return
	}

	draft, err := dc.wizard.SelectClient(c.Request.Context(), actor, c.Param("id"), req.ClientID)
	if err != nil {
		respondError(c, err, "Failed to select client")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// SelectModel handles PUT /api/v1/order-drafts/:id/model
func (dc *DraftController) SelectModel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req SelectModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Select a model to continue")
		return
	}

	draft, err := dc.wizard.SelectModel(c.Request.Context(), actor, c.Param("id"), req.ModelID)
	if err != nil {
		respondError(c, err, "Failed to select model")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// SetFabric handles PUT /api/v1/order-drafts/:id/fabric (multipart/form-data).
// Fields: fabric_photo, client_reference_photo, fabric_meters,
// supplies_from_stock (repeated) and sketch_requested.
func (dc *DraftController) SetFabric(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	fabric, err := formImage(c, "fabric_photo")
	if err != nil {
		respondError(c, err, "Failed to read fabric photo")
		return
	}
	reference, err := formImage(c, "client_reference_photo")
	if err != nil {
		respondError(c, err, "Failed to read client reference photo")
		return
	}

	sketch := false
	if raw := c.PostForm("sketch_requested"); raw != "" {
		sketch, err = strconv.ParseBool(raw)
		if err != nil {
			respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "sketch_requested must be true or false")
			return
		}
	}

	draft, err := dc.wizard.SetFabric(actor, c.Param("id"), services.FabricInput{
		FabricPhoto:          fabric,
		ClientReferencePhoto: reference,
		FabricMeters:         c.PostForm("fabric_meters"),
		SuppliesFromStock:    c.PostFormArray("supplies_from_stock"),
		SketchRequested:      sketch,
	})
	if err != nil {
		respondError(c, err, "Failed to save fabric details")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// formImage reads an optional image field; a missing field is not an error
func formImage(c *gin.Context, field string) (*services.ImageUpload, error) {
	fileHeader, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return services.NewImageUpload(fileHeader)
}

// SetPayment handles PUT /api/v1/order-drafts/:id/payment
func (dc *DraftController) SetPayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req services.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	draft, err := dc.wizard.SetPayment(actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err, "Failed to save payment details")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// Back handles POST /api/v1/order-drafts/:id/back
func (dc *DraftController) Back(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	draft, err := dc.wizard.Back(actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to go back")
		return
	}

	respondSuccess(c, http.StatusOK, draft)
}

// Submit handles POST /api/v1/order-drafts/:id/submit - creates the order
func (dc *DraftController) Submit(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	order, err := dc.wizard.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to create order")
		return
	}

	respondSuccess(c, http.StatusCreated, order)
}

// Cancel handles DELETE /api/v1/order-drafts/:id
func (dc *DraftController) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := dc.wizard.Cancel(actor, id); err != nil {
		respondError(c, err, "Failed to cancel draft")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "cancelled": true})
}
