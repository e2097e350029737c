package pricing

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/jewelbook/internal/billing"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

// QuoteInput represents the inputs used to price a custom order before it is made.
type QuoteInput struct {
	Karatage     wastage.KaratCode
	TargetWeight float64
	// MetalRatePerGram is the day's rate for metal of Karatage.
	MetalRatePerGram    float64
	MakingChargePerGram float64
	StoneValue          float64
	MarginPercent       float64
	PaymentType         billing.PaymentType
}

// Breakdown contains all intermediate and line-item values of the quote.
type Breakdown struct {
	// MetalWeight is the target weight plus the karat's expected wastage.
	MetalWeight  float64 `json:"metal_weight"`
	MetalCost    float64 `json:"metal_cost"`
	MakingCharge float64 `json:"making_charge"`
	StoneValue   float64 `json:"stone_value"`
	Subtotal     float64 `json:"subtotal"`
	Margin       float64 `json:"margin"`
	CardCharge   float64 `json:"card_charge"`
}

// Totals contains roll-up values from the quote.
type Totals struct {
	Total float64 `json:"total"`
}

// Result groups the full quote output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Quote prices a custom order. Metal is charged on the target weight plus the
// theoretical wastage for the karat; making charges apply to the target weight.
func Quote(in QuoteInput) (Result, error) {
	spec, err := wastage.LookupKaratSpec(in.Karatage)
	if err != nil {
		return Result{}, err
	}
	if math.IsNaN(in.TargetWeight) || math.IsInf(in.TargetWeight, 0) || in.TargetWeight < 0 {
		return Result{}, fmt.Errorf("%w: target weight must be greater than or equal to 0", wastage.ErrInvalidWeight)
	}
	for _, a := range []struct {
		name  string
		value float64
	}{
		{"metal rate", in.MetalRatePerGram},
		{"making charge", in.MakingChargePerGram},
		{"stone value", in.StoneValue},
		{"margin percent", in.MarginPercent},
	} {
		if math.IsNaN(a.value) || math.IsInf(a.value, 0) || a.value < 0 {
			return Result{}, fmt.Errorf("%w: %s must be a number greater than or equal to 0", billing.ErrInvalidAmount, a.name)
		}
	}

	target := decimal.NewFromFloat(in.TargetWeight)
	metalWeight := target.Mul(decimal.NewFromInt(1).Add(decimal.NewFromFloat(spec.WastageCoefficient)))
	metalCost := metalWeight.Mul(decimal.NewFromFloat(in.MetalRatePerGram))
	making := target.Mul(decimal.NewFromFloat(in.MakingChargePerGram))
	stones := decimal.NewFromFloat(in.StoneValue)

	subtotal := metalCost.Add(making).Add(stones)
	margin := subtotal.Mul(decimal.NewFromFloat(in.MarginPercent)).Div(decimal.NewFromInt(100))
	beforeCharge := subtotal.Add(margin).Round(2)

	pt := in.PaymentType
	if pt == "" {
		pt = billing.PaymentCash
	}
	total, err := billing.PaymentAmount(beforeCharge.InexactFloat64(), pt)
	if err != nil {
		return Result{}, err
	}
	charge := decimal.NewFromFloat(total).Sub(beforeCharge)

	return Result{
		Breakdown: Breakdown{
			MetalWeight:  metalWeight.Round(wastage.Precision).InexactFloat64(),
			MetalCost:    metalCost.Round(2).InexactFloat64(),
			MakingCharge: making.Round(2).InexactFloat64(),
			StoneValue:   stones.Round(2).InexactFloat64(),
			Subtotal:     subtotal.Round(2).InexactFloat64(),
			Margin:       margin.Round(2).InexactFloat64(),
			CardCharge:   charge.Round(2).InexactFloat64(),
		},
		Totals: Totals{Total: total},
	}, nil
}
