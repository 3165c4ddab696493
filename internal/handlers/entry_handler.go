package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/models"
	"tally/internal/pagination"
	"tally/internal/services"
)

// EntryHandler handles entry creation and the occurrence-aware mutations.
type EntryHandler struct {
	entryService services.EntryServicer
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryService services.EntryServicer) *EntryHandler {
	return &EntryHandler{entryService: entryService}
}

// RecurrenceRequest is the optional recurrence preset of a new entry.
type RecurrenceRequest struct {
	Frequency models.Frequency `json:"frequency" binding:"required,frequency"`
	Interval  int              `json:"interval" binding:"min=0"`
	Every     int              `json:"every" binding:"min=0"`
}

// CreateEntryRequest represents the request payload for creating an entry.
type CreateEntryRequest struct {
	Name         string             `json:"name" binding:"required,min=1,max=100"`
	Type         models.EntryType   `json:"type" binding:"required,entry_type"`
	Amount       string             `json:"amount" binding:"required,amount"`
	CurrencyCode string             `json:"currency_code" binding:"required,iso4217"`
	Date         time.Time          `json:"date"`
	Fulfilled    bool               `json:"fulfilled"`
	GroupID      *string            `json:"group_id"`
	TagID        *string            `json:"tag_id"`
	Recurrence   *RecurrenceRequest `json:"recurrence"`
}

// OccurrenceRefRequest addresses one ledger row: entry_id alone for a
// one-off, config_id plus index for a series occurrence.
type OccurrenceRefRequest struct {
	EntryID  string `json:"entry_id"`
	ConfigID string `json:"config_id"`
	Index    int    `json:"index" binding:"min=0"`
}

func (r OccurrenceRefRequest) toRef() (services.OccurrenceRef, error) {
	if r.ConfigID != "" {
		if r.Index < 1 {
			return services.OccurrenceRef{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "index is required for series occurrences")
		}
		return services.OccurrenceRef{ConfigID: r.ConfigID, Index: r.Index}, nil
	}
	if r.EntryID == "" {
		return services.OccurrenceRef{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "entry_id or config_id is required")
	}
	return services.OccurrenceRef{EntryID: r.EntryID}, nil
}

// ToggleRequest flips the fulfilled flag of one ledger row.
type ToggleRequest struct {
	OccurrenceRefRequest
}

// DeleteEntryRequest removes one ledger row, optionally with everything
// after it.
type DeleteEntryRequest struct {
	OccurrenceRefRequest
	WithSubsequents bool `json:"with_subsequents"`
}

// EditEntryRequest patches one ledger row. Omitted fields stay untouched;
// an empty group_id/tag_id clears the assignment.
type EditEntryRequest struct {
	OccurrenceRefRequest
	Name               *string    `json:"name"`
	Amount             *string    `json:"amount" binding:"omitempty,amount"`
	Date               *time.Time `json:"date"`
	GroupID            *string    `json:"group_id"`
	TagID              *string    `json:"tag_id"`
	ApplyToSubsequents bool       `json:"apply_to_subsequents"`
}

// CreateEntry handles POST /entries.
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	input := services.CreateEntryInput{
		Name:         req.Name,
		Type:         req.Type,
		Amount:       req.Amount,
		CurrencyCode: req.CurrencyCode,
		Date:         req.Date,
		Fulfilled:    req.Fulfilled,
		GroupID:      req.GroupID,
		TagID:        req.TagID,
	}
	if req.Recurrence != nil {
		input.Recurrence = &services.RecurrenceInput{
			Frequency: req.Recurrence.Frequency,
			Interval:  req.Recurrence.Interval,
			Every:     req.Recurrence.Every,
		}
	}

	entry, err := h.entryService.CreateEntry(input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// ListEntries handles GET /entries (one-off entries only).
func (h *EntryHandler) ListEntries(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	entries, err := h.entryService.ListOneOffEntries(page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// GetEntry handles GET /entries/:id.
func (h *EntryHandler) GetEntry(c *gin.Context) {
	entry, err := h.entryService.GetEntryByID(c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// ToggleFulfilled handles POST /entries/toggle.
func (h *EntryHandler) ToggleFulfilled(c *gin.Context) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	ref, err := req.toRef()
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.entryService.ToggleFulfilled(ref)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// DeleteEntry handles POST /entries/delete.
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	var req DeleteEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	ref, err := req.toRef()
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.entryService.DeleteEntry(ref, req.WithSubsequents); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// EditEntry handles POST /entries/edit.
func (h *EntryHandler) EditEntry(c *gin.Context) {
	var req EditEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	ref, err := req.toRef()
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.entryService.EditEntry(ref, services.EntryValues{
		Name:    req.Name,
		Amount:  req.Amount,
		Date:    req.Date,
		GroupID: req.GroupID,
		TagID:   req.TagID,
	}, req.ApplyToSubsequents)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
