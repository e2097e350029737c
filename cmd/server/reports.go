package main

import (
	"net/http"
	"time"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *server) handleWastageReport(w http.ResponseWriter, r *http.Request) {
	rows, err := s.reports.WastageByKarat(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *server) handleWastageExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.reports.ExportWastageXLSX(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filename := "wastage-" + s.now().In(s.loc).Format(dateLayout) + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// handleSalesReport defaults to the current month. to is inclusive.
func (s *server) handleSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc).AddDate(0, 0, 1)

	if d, err := parseOptionalDate(q.Get("from"), "from", s.loc); err != nil {
		writeBadRequest(w, err)
		return
	} else if d != nil {
		from = *d
	}
	if d, err := parseOptionalDate(q.Get("to"), "to", s.loc); err != nil {
		writeBadRequest(w, err)
		return
	} else if d != nil {
		to = d.AddDate(0, 0, 1)
	}

	summary, err := s.reports.SalesSummary(r.Context(), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *server) handleDeliveriesReport(w http.ResponseWriter, r *http.Request) {
	pending, err := s.reports.PendingDeliveries(r.Context(), s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}
