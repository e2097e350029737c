package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Simplici0/jewelbook/internal/store"
)

func (s *server) handleReceiptsList(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.store.ListReceipts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (s *server) handleReceiptsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	customerID := strings.TrimSpace(r.FormValue("customer_id"))
	if customerID == "" {
		writeBadRequest(w, errors.New("customer_id is required"))
		return
	}
	rt, err := store.ParseReceiptType(r.FormValue("receipt_type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var valuation float64
	if raw := strings.TrimSpace(r.FormValue("valuation_charge")); raw != "" {
		if valuation, err = parseNonNegativeFloat(raw, "valuation_charge"); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	items, err := parseReceiptItems(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	receipt, err := s.store.CreateReceipt(r.Context(), customerID, rt, valuation, items)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func parseReceiptItems(r *http.Request) ([]store.ReceiptItem, error) {
	descriptions := formValues(r, "item_description")
	if len(descriptions) == 0 {
		return nil, errors.New("at least one item is required")
	}
	weights := formValues(r, "item_weight")
	broken := formValues(r, "item_broken")
	remarks := formValues(r, "item_remark")
	prices := formValues(r, "item_price")

	items := make([]store.ReceiptItem, 0, len(descriptions))
	for i, desc := range descriptions {
		if desc == "" {
			return nil, fmt.Errorf("item_description[%d] is required", i)
		}
		it := store.ReceiptItem{
			Description: desc,
			IsBroken:    valueAt(broken, i) == "1",
			Remark:      valueAt(remarks, i),
		}
		var err error
		if it.Weight, err = parseNonNegativeFloat(valueAt(weights, i), fmt.Sprintf("item_weight[%d]", i)); err != nil {
			return nil, err
		}
		if raw := valueAt(prices, i); raw != "" {
			if it.Price, err = parseNonNegativeFloat(raw, fmt.Sprintf("item_price[%d]", i)); err != nil {
				return nil, err
			}
		}
		items = append(items, it)
	}
	return items, nil
}
