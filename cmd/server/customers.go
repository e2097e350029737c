package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/jewelbook/internal/store"
)

func (s *server) handleCustomersList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	customers, err := s.store.ListCustomers(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (s *server) handleCustomersCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, err := parseCustomerForm(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := s.store.CreateCustomer(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *server) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCustomerUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	in, err := parseCustomerForm(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	c, err := s.store.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *server) handleCustomerDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseCustomerForm(r *http.Request) (store.CustomerInput, error) {
	in := store.CustomerInput{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Phone:   strings.TrimSpace(r.FormValue("phone")),
		Address: strings.TrimSpace(r.FormValue("address")),
	}
	if in.Name == "" {
		return in, errors.New("name is required")
	}
	return in, nil
}
