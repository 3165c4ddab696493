package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "tally/internal/errors"
	"tally/internal/services"
)

// RatesHandler exposes the exchange rate table used for cross-currency
// consolidation.
type RatesHandler struct {
	rateSource   services.RateSource
	mainCurrency string
}

// NewRatesHandler creates a new RatesHandler.
func NewRatesHandler(rateSource services.RateSource, mainCurrency string) *RatesHandler {
	return &RatesHandler{rateSource: rateSource, mainCurrency: mainCurrency}
}

// GetRates handles GET /rates. The base defaults to the configured main
// currency and can be overridden with ?base=EUR.
func (h *RatesHandler) GetRates(c *gin.Context) {
	base := strings.ToUpper(c.DefaultQuery("base", h.mainCurrency))

	rates, err := h.rateSource.GetRates(c.Request.Context(), base)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrRatesUnavailable, err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"base": base, "rates": rates})
}
