package wastage

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Precision is the number of decimal places every Result figure is rounded to.
const Precision = 4

var (
	ErrInvalidKaratage = errors.New("invalid karatage")
	ErrInvalidPurity   = errors.New("invalid purity")
	ErrInvalidWeight   = errors.New("invalid weight")
)

// Status classifies actual wastage against the allowed budget.
type Status string

const (
	StatusExcess Status = "Excess"
	StatusLow    Status = "Low"
	StatusIdeal  Status = "Ideal"
)

// Label returns the display name of the status.
func (s Status) Label() string {
	switch s {
	case StatusExcess:
		return "Excess Wastage"
	case StatusLow:
		return "Low Wastage"
	case StatusIdeal:
		return "Ideal Wastage"
	default:
		return string(s)
	}
}

// Job is the state of a workshop job needed to reconcile its wastage.
// Weights are grams; purities are percentages between 0 and 100.
type Job struct {
	Karatage KaratCode
	// TargetWeight is the quoted finished-metal weight set at intake.
	TargetWeight float64
	// FinalMetalWeight excludes stones; the caller subtracts them.
	FinalMetalWeight float64
	GoldGiven        float64
	GoldGivenPurity  float64
	// GoldBalance is metal returned unused. Nil means nothing was returned.
	GoldBalance *float64
	// GoldBalancePurity is required whenever GoldBalance is positive.
	GoldBalancePurity *float64
}

// Result is a snapshot derived from a Job. Figures are rounded to Precision
// places; Status was decided on the unrounded difference.
type Result struct {
	TheoreticalWastage     float64 `json:"theoretical_wastage"`
	AllowedWastage         float64 `json:"allowed_wastage"`
	PurityCorrectedBalance float64 `json:"purity_corrected_balance"`
	ActualWastage          float64 `json:"actual_wastage"`
	Difference             float64 `json:"difference"`
	Status                 Status  `json:"status"`
}

// Calculate reconciles the metal issued for job against the finished piece and
// the returned balance. Inputs are validated before any arithmetic runs.
func Calculate(job Job) (Result, error) {
	spec, err := LookupKaratSpec(job.Karatage)
	if err != nil {
		return Result{}, err
	}
	if err := job.validate(); err != nil {
		return Result{}, err
	}

	theoretical := job.TargetWeight * spec.WastageCoefficient
	allowed := job.FinalMetalWeight * spec.WastageCoefficient
	corrected := CorrectBalance(job.GoldBalance, job.GoldBalancePurity, job.GoldGivenPurity)
	actual := job.GoldGiven - job.FinalMetalWeight - corrected
	difference := actual - allowed

	return Result{
		TheoreticalWastage:     Round(theoretical),
		AllowedWastage:         Round(allowed),
		PurityCorrectedBalance: Round(corrected),
		ActualWastage:          Round(actual),
		Difference:             Round(difference),
		Status:                 classify(difference),
	}, nil
}

// EstimateTheoretical returns the expected wastage against a quoted target
// weight. It is what order intake can show before any workshop figures exist.
func EstimateTheoretical(code KaratCode, targetWeight float64) (float64, error) {
	spec, err := LookupKaratSpec(code)
	if err != nil {
		return 0, err
	}
	if err := checkWeight("target weight", targetWeight); err != nil {
		return 0, err
	}
	return Round(targetWeight * spec.WastageCoefficient), nil
}

// CorrectBalance normalizes a returned balance to the purity of the issued
// metal. Only lower-purity balances are scaled down; absent balances count as 0.
// givenPurity must be positive whenever a correction applies.
func CorrectBalance(balance, balancePurity *float64, givenPurity float64) float64 {
	if balance == nil {
		return 0
	}
	if balancePurity != nil && *balancePurity < givenPurity {
		return *balance * *balancePurity / givenPurity
	}
	return *balance
}

// Round rounds v half away from zero to Precision decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(Precision).InexactFloat64()
}

func classify(difference float64) Status {
	switch {
	case difference > 0:
		return StatusExcess
	case difference < 0:
		return StatusLow
	default:
		return StatusIdeal
	}
}

func (j Job) validate() error {
	weights := []struct {
		name  string
		value float64
	}{
		{"target weight", j.TargetWeight},
		{"final metal weight", j.FinalMetalWeight},
		{"gold given", j.GoldGiven},
	}
	for _, w := range weights {
		if err := checkWeight(w.name, w.value); err != nil {
			return err
		}
	}
	if err := checkPurity("gold given purity", j.GoldGivenPurity); err != nil {
		return err
	}

	if j.GoldBalancePurity != nil {
		if err := checkPurity("gold balance purity", *j.GoldBalancePurity); err != nil {
			return err
		}
	}
	if j.GoldBalance == nil {
		return nil
	}
	if err := checkWeight("gold balance", *j.GoldBalance); err != nil {
		return err
	}
	if *j.GoldBalance == 0 {
		return nil
	}
	if j.GoldBalancePurity == nil {
		return fmt.Errorf("%w: gold balance purity is required when a balance is returned", ErrInvalidPurity)
	}
	if j.GoldGivenPurity == 0 {
		return fmt.Errorf("%w: gold given purity must be greater than 0 to reconcile a balance", ErrInvalidPurity)
	}
	return nil
}

func checkWeight(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidWeight, name)
	}
	if v < 0 {
		return fmt.Errorf("%w: %s must be greater than or equal to 0", ErrInvalidWeight, name)
	}
	return nil
}

func checkPurity(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		return fmt.Errorf("%w: %s must be between 0 and 100", ErrInvalidPurity, name)
	}
	return nil
}
