package ledger

import (
	"context"
	"net/http"

	"github.com/chris/trade-sphere/pkg/api"
	"github.com/chris/trade-sphere/pkg/escrow"
	"github.com/chris/trade-sphere/pkg/handlers/response"
	"github.com/chris/trade-sphere/pkg/mapping"
	"github.com/chris/trade-sphere/pkg/models"
)

// Auditor reads the ledger and audits custody.
type Auditor interface {
	ListLedgerEntries(ctx context.Context, limit int32) ([]models.LedgerEntry, error)
	Custody(ctx context.Context) ([]escrow.CustodyReport, error)
}

// LedgerHandler holds the dependencies for ledger-related handlers.
type LedgerHandler struct {
	Auditor Auditor
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(auditor Auditor) *LedgerHandler {
	return &LedgerHandler{Auditor: auditor}
}

// ListLedgerEntries handles GET /ledger.
func (h *LedgerHandler) ListLedgerEntries(w http.ResponseWriter, r *http.Request, params api.ListLedgerEntriesParams) {
	limit := int32(20)
	if params.Limit != nil {
		limit = *params.Limit
	}

	domainEntries, err := h.Auditor.ListLedgerEntries(r.Context(), limit)
	if err != nil {
		response.Error(w, err)
		return
	}

	apiEntries := make([]*api.LedgerEntry, len(domainEntries))
	for i := range domainEntries {
		apiEntries[i] = mapping.ToApiLedgerEntry(&domainEntries[i])
	}
	response.JSON(w, http.StatusOK, apiEntries)
}

// GetCustody handles GET /custody.
func (h *LedgerHandler) GetCustody(w http.ResponseWriter, r *http.Request) {
	reports, err := h.Auditor.Custody(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	apiReports := make([]*api.CustodyReport, len(reports))
	for i := range reports {
		apiReports[i] = mapping.ToApiCustodyReport(&reports[i])
	}
	response.JSON(w, http.StatusOK, apiReports)
}
