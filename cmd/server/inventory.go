package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

func (s *server) handleInventoryList(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListInventory(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *server) handleInventoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	item, err := parseInventoryForm(r)
	if err != nil {
		s.writeFormError(w, r, err)
		return
	}

	created, err := s.store.CreateInventoryItem(r.Context(), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func parseInventoryForm(r *http.Request) (store.InventoryItem, error) {
	item := store.InventoryItem{
		ItemName:    strings.TrimSpace(r.FormValue("item_name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		MetalType:   strings.TrimSpace(r.FormValue("metal_type")),
		Size:        strings.TrimSpace(r.FormValue("size")),
		SizeValue:   strings.TrimSpace(r.FormValue("size_value")),
	}
	if item.ItemName == "" {
		return item, errors.New("item_name is required")
	}
	if item.MetalType == "" {
		return item, errors.New("metal_type is required")
	}

	var err error
	if item.Karatage, err = wastage.ParseKaratCode(r.FormValue("karatage")); err != nil {
		return item, err
	}
	if item.Weight, err = parsePositiveFloat(r.FormValue("weight"), "weight"); err != nil {
		return item, err
	}
	if item.Price, err = parseNonNegativeFloat(r.FormValue("price"), "price"); err != nil {
		return item, err
	}
	if item.Quantity, err = parseNonNegativeInt(r.FormValue("quantity"), "quantity"); err != nil {
		return item, err
	}
	return item, nil
}
