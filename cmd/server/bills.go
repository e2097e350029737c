package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

func (s *server) handleBillsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		f   store.BillFilter
		err error
	)
	if f.From, err = parseOptionalDate(q.Get("from"), "from", s.loc); err != nil {
		writeBadRequest(w, err)
		return
	}
	if f.To, err = parseOptionalDate(q.Get("to"), "to", s.loc); err != nil {
		writeBadRequest(w, err)
		return
	}
	if f.To != nil {
		// to is inclusive for callers
		end := f.To.AddDate(0, 0, 1)
		f.To = &end
	}
	if raw := q.Get("type"); raw != "" {
		if f.BillType, err = billing.ParseBillType(raw); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	bills, err := s.store.ListBills(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *server) handleBillsCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, err := s.parseBillForm(r)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}

	bill, err := s.store.CreateBill(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("bill created",
		zap.String("bill_id", bill.ID), zap.String("bill_type", string(bill.BillType)), zap.Float64("payment_amount", bill.PaymentAmount))
	writeJSON(w, http.StatusCreated, bill)
}

func (s *server) handleBillDetail(w http.ResponseWriter, r *http.Request) {
	bill, err := s.store.GetBill(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *server) handleBillFinalize(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	finalWeight, err := parsePositiveFloat(r.FormValue("final_weight"), "final_weight")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	finalPrice, err := parseNonNegativeFloat(r.FormValue("final_price"), "final_price")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	bill, err := s.store.FinalizeCustomOrder(r.Context(), chi.URLParam(r, "id"), finalWeight, finalPrice)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *server) handleBillWorksheet(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	goldsmith := strings.TrimSpace(r.FormValue("goldsmith_name"))
	if goldsmith == "" {
		writeBadRequest(w, errors.New("goldsmith_name is required"))
		return
	}

	ws, err := s.workshop.CreateFromBill(r.Context(), chi.URLParam(r, "id"), goldsmith)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

func (s *server) parseBillForm(r *http.Request) (store.NewBill, error) {
	in := store.NewBill{
		CustomerID:     strings.TrimSpace(r.FormValue("customer_id")),
		Address:        strings.TrimSpace(r.FormValue("address")),
		SpecialRemarks: strings.TrimSpace(r.FormValue("special_remarks")),
	}
	if in.CustomerID == "" {
		return in, errors.New("customer_id is required")
	}

	var err error
	if in.BillType, err = billing.ParseBillType(r.FormValue("bill_type")); err != nil {
		return in, err
	}
	if in.PaymentType, err = billing.ParsePaymentType(r.FormValue("payment_type")); err != nil {
		return in, err
	}
	if raw := r.FormValue("old_gold_value"); strings.TrimSpace(raw) != "" {
		if in.OldGoldValue, err = parseNonNegativeFloat(raw, "old_gold_value"); err != nil {
			return in, err
		}
	}
	if in.TargetWeight, err = parseOptionalFloat(r.FormValue("target_weight"), "target_weight"); err != nil {
		return in, err
	}
	if in.TargetPrice, err = parseOptionalFloat(r.FormValue("target_price"), "target_price"); err != nil {
		return in, err
	}
	if in.DeliveryDate, err = parseOptionalDate(r.FormValue("delivery_date"), "delivery_date", s.loc); err != nil {
		return in, err
	}
	if in.BillType.IsCustom() && in.TargetWeight == nil {
		return in, errors.New("target_weight is required for custom orders")
	}

	if in.Items, err = parseBillItems(r); err != nil {
		return in, err
	}
	return in, nil
}

// parseBillItems reads parallel item_* columns, one entry per item, and
// stone_* columns whose stone_item value is the 0-based item index.
func parseBillItems(r *http.Request) ([]store.BillItem, error) {
	descriptions := formValues(r, "item_description")
	if len(descriptions) == 0 {
		return nil, errors.New("at least one item is required")
	}
	metals := formValues(r, "item_metal_type")
	karats := formValues(r, "item_karatage")
	weights := formValues(r, "item_weight")
	sizes := formValues(r, "item_size")
	sizeValues := formValues(r, "item_size_value")
	prices := formValues(r, "item_price")
	totals := formValues(r, "item_total_value")
	inventoryIDs := formValues(r, "item_inventory_id")

	items := make([]store.BillItem, 0, len(descriptions))
	for i, desc := range descriptions {
		field := func(name string) string { return fmt.Sprintf("%s[%d]", name, i) }
		if desc == "" {
			return nil, fmt.Errorf("%s is required", field("item_description"))
		}

		it := store.BillItem{
			Description: desc,
			MetalType:   valueAt(metals, i),
			Size:        valueAt(sizes, i),
			SizeValue:   valueAt(sizeValues, i),
			Stones:      []store.Stone{},
		}
		var err error
		if it.Karatage, err = wastage.ParseKaratCode(valueAt(karats, i)); err != nil {
			return nil, err
		}
		if it.Weight, err = parseNonNegativeFloat(valueAt(weights, i), field("item_weight")); err != nil {
			return nil, err
		}
		if it.Price, err = parseNonNegativeFloat(valueAt(prices, i), field("item_price")); err != nil {
			return nil, err
		}
		it.TotalValue = it.Price
		if raw := valueAt(totals, i); raw != "" {
			if it.TotalValue, err = parseNonNegativeFloat(raw, field("item_total_value")); err != nil {
				return nil, err
			}
		}
		if id := valueAt(inventoryIDs, i); id != "" {
			it.InventoryItemID = &id
		}
		items = append(items, it)
	}

	stoneItems := formValues(r, "stone_item")
	stoneTypes := formValues(r, "stone_type")
	treatments := formValues(r, "stone_treatment")
	counts := formValues(r, "stone_count")
	carats := formValues(r, "stone_carats")
	grams := formValues(r, "stone_grams")
	for i, raw := range stoneItems {
		field := func(name string) string { return fmt.Sprintf("%s[%d]", name, i) }
		idx, err := strconv.Atoi(raw)
		if err != nil || idx < 0 || idx >= len(items) {
			return nil, fmt.Errorf("%s must reference an item", field("stone_item"))
		}

		st := store.Stone{StoneType: valueAt(stoneTypes, i), Treatment: valueAt(treatments, i), NumberOfStones: 1}
		if st.StoneType == "" {
			return nil, fmt.Errorf("%s is required", field("stone_type"))
		}
		if c := valueAt(counts, i); c != "" {
			if st.NumberOfStones, err = parseNonNegativeInt(c, field("stone_count")); err != nil {
				return nil, err
			}
		}
		if st.WeightCarats, err = parseNonNegativeFloat(valueAt(carats, i), field("stone_carats")); err != nil {
			return nil, err
		}
		if st.WeightGrams, err = parseNonNegativeFloat(valueAt(grams, i), field("stone_grams")); err != nil {
			return nil, err
		}
		items[idx].Stones = append(items[idx].Stones, st)
	}
	return items, nil
}
