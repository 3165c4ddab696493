package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tally/internal/services"
)

// LedgerHandler serves the derived read side: the populated ledger and the
// per-month summaries.
type LedgerHandler struct {
	ledgerService services.LedgerServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService services.LedgerServicer) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// GetLedger handles GET /ledger: the full expanded, date-sorted ledger.
func (h *LedgerHandler) GetLedger(c *gin.Context) {
	entries, err := h.ledgerService.Populated()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// GetSummaries handles GET /ledger/summaries. Repeated "group" and "tag"
// query parameters filter the aggregation; the sentinels "no-group" and
// "no-tag" match unassigned entries.
func (h *LedgerHandler) GetSummaries(c *gin.Context) {
	groupFilters := c.QueryArray("group")
	tagFilters := c.QueryArray("tag")

	summaries, err := h.ledgerService.MonthSummaries(c.Request.Context(), groupFilters, tagFilters)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}
