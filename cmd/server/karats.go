package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/pricing"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

type karatView struct {
	Code  wastage.KaratCode `json:"code"`
	Label string            `json:"label"`
	wastage.KaratSpec
}

func (s *server) handleKaratsList(w http.ResponseWriter, r *http.Request) {
	codes := wastage.KaratCodes()
	karats := make([]karatView, 0, len(codes))
	for _, code := range codes {
		spec, err := wastage.LookupKaratSpec(code)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		karats = append(karats, karatView{Code: code, Label: code.Label(), KaratSpec: spec})
	}
	writeJSON(w, http.StatusOK, karats)
}

func (s *server) handleKaratEstimate(w http.ResponseWriter, r *http.Request) {
	code := wastage.KaratCode(chi.URLParam(r, "code"))

	target, err := parseFloat(r.URL.Query().Get("target"), "target")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	theoretical, err := wastage.EstimateTheoretical(code, target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"karatage":            code,
		"target_weight":       target,
		"theoretical_wastage": theoretical,
	})
}

func (s *server) handleKaratQuote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := pricing.QuoteInput{Karatage: wastage.KaratCode(chi.URLParam(r, "code"))}

	var err error
	if in.TargetWeight, err = parseFloat(q.Get("target"), "target"); err != nil {
		writeBadRequest(w, err)
		return
	}
	if in.MetalRatePerGram, err = parseFloat(q.Get("rate"), "rate"); err != nil {
		writeBadRequest(w, err)
		return
	}
	optional := []struct {
		key  string
		dest *float64
	}{
		{"making", &in.MakingChargePerGram},
		{"stones", &in.StoneValue},
		{"margin", &in.MarginPercent},
	}
	for _, o := range optional {
		if raw := q.Get(o.key); raw != "" {
			if *o.dest, err = parseFloat(raw, o.key); err != nil {
				writeBadRequest(w, err)
				return
			}
		}
	}
	if in.PaymentType, err = billing.ParsePaymentType(q.Get("payment_type")); err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := pricing.Quote(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
