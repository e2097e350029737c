package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/workshop"
)

func (s *server) handleWorksheetsList(w http.ResponseWriter, r *http.Request) {
	f := store.WorksheetFilter{Completed: r.URL.Query().Get("completed") == "1"}
	worksheets, err := s.store.ListWorksheets(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worksheets)
}

func (s *server) handleWorksheetDetail(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorksheet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *server) handleWorksheetUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	u, err := parseWorkshopUpdateForm(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	ws, err := s.workshop.ApplyUpdate(r.Context(), chi.URLParam(r, "id"), u)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *server) handleWorksheetsRecalculate(w http.ResponseWriter, r *http.Request) {
	n, err := s.workshop.RecalculateAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recalculated": n})
}

func (s *server) handleWorksheetText(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.GetWorksheet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(formatWorksheetText(ws)))
}

// parseWorkshopUpdateForm only checks that figures are numbers; range checks
// belong to the wastage calculation so they surface as 422s.
func parseWorkshopUpdateForm(r *http.Request) (workshop.Update, error) {
	var (
		u   workshop.Update
		err error
	)
	if u.GoldGiven, err = parseFloat(r.FormValue("gold_given"), "gold_given"); err != nil {
		return u, err
	}
	if u.GoldGivenPurity, err = parseFloat(r.FormValue("gold_given_purity"), "gold_given_purity"); err != nil {
		return u, err
	}
	if u.FinalWeight, err = parseFloat(r.FormValue("final_weight"), "final_weight"); err != nil {
		return u, err
	}
	if raw := strings.TrimSpace(r.FormValue("gold_balance")); raw != "" {
		v, err := parseFloat(raw, "gold_balance")
		if err != nil {
			return u, err
		}
		u.GoldBalance = &v
	}
	if raw := strings.TrimSpace(r.FormValue("gold_balance_purity")); raw != "" {
		v, err := parseFloat(raw, "gold_balance_purity")
		if err != nil {
			return u, err
		}
		u.GoldBalancePurity = &v
	}
	return u, nil
}

func formatWorksheetText(ws store.Worksheet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Worksheet %s\n", ws.ID)
	fmt.Fprintf(&b, "Date: %s\n", ws.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Goldsmith: %s\n", ws.GoldsmithName)
	b.WriteString("\nJob:\n")
	fmt.Fprintf(&b, "- Description: %s\n", ws.JewelryDescription)
	fmt.Fprintf(&b, "- Size: %s\n", ws.Size)
	fmt.Fprintf(&b, "- Metal: %s %s\n", ws.Karatage.Label(), ws.MetalType)
	fmt.Fprintf(&b, "- Target weight: %.3f g\n", ws.TargetMetalWeight)
	fmt.Fprintf(&b, "- Theoretical wastage: %.4f g\n", ws.TheoreticalWastage)
	if ws.SpecialRemarks != "" {
		fmt.Fprintf(&b, "- Remarks: %s\n", ws.SpecialRemarks)
	}

	if len(ws.Stones) > 0 {
		b.WriteString("\nStones:\n")
		for _, st := range ws.Stones {
			fmt.Fprintf(&b, "- %s (%s): %.3f g\n", st.StoneType, st.Size, st.Weight)
		}
		fmt.Fprintf(&b, "- Total: %.3f g\n", ws.StoneWeight())
	}

	if ws.Result == nil {
		b.WriteString("\nWorkshop figures: pending\n")
		return b.String()
	}

	b.WriteString("\nWorkshop figures:\n")
	fmt.Fprintf(&b, "- Gold given: %.3f g @ %.2f%%\n", ws.GoldGiven, ws.GoldGivenPurity)
	if ws.FinalWeight != nil {
		fmt.Fprintf(&b, "- Final weight: %.3f g\n", *ws.FinalWeight)
	}
	if ws.FinalMetalWeight != nil {
		fmt.Fprintf(&b, "- Final metal weight: %.3f g\n", *ws.FinalMetalWeight)
	}
	if ws.GoldBalance != nil {
		if ws.GoldBalancePurity != nil {
			fmt.Fprintf(&b, "- Gold balance: %.3f g @ %.2f%%\n", *ws.GoldBalance, *ws.GoldBalancePurity)
		} else {
			fmt.Fprintf(&b, "- Gold balance: %.3f g\n", *ws.GoldBalance)
		}
	}

	b.WriteString("\nWastage:\n")
	fmt.Fprintf(&b, "- Purity corrected balance: %.4f g\n", ws.Result.PurityCorrectedBalance)
	fmt.Fprintf(&b, "- Allowed: %.4f g\n", ws.Result.AllowedWastage)
	fmt.Fprintf(&b, "- Actual: %.4f g\n", ws.Result.ActualWastage)
	fmt.Fprintf(&b, "- Difference: %.4f g\n", ws.Result.Difference)
	fmt.Fprintf(&b, "Status: %s\n", ws.Result.Status.Label())
	return b.String()
}
