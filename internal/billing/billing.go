package billing

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrInvalidBillType    = errors.New("invalid bill type")
	ErrInvalidAmount      = errors.New("invalid amount")
)

// Card payments at or above CardChargeThreshold carry a CardChargePercent bank charge.
const (
	CardChargeThreshold = 20000
	CardChargePercent   = 3
)

type PaymentType string

const (
	PaymentCash PaymentType = "Cash"
	PaymentCard PaymentType = "Card"
	PaymentKoko PaymentType = "Koko"
)

// ParsePaymentType validates a form value; an empty value means cash.
func ParsePaymentType(raw string) (PaymentType, error) {
	switch pt := PaymentType(strings.TrimSpace(raw)); pt {
	case "":
		return PaymentCash, nil
	case PaymentCash, PaymentCard, PaymentKoko:
		return pt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentType, raw)
	}
}

type BillType string

const (
	BillReadyMade     BillType = "ReadyMade"
	BillCustomInitial BillType = "CustomInitial"
	BillCustomFinal   BillType = "CustomFinal"
)

// ParseBillType validates a form value; an empty value means a ready-made sale.
func ParseBillType(raw string) (BillType, error) {
	switch bt := BillType(strings.TrimSpace(raw)); bt {
	case "":
		return BillReadyMade, nil
	case BillReadyMade, BillCustomInitial, BillCustomFinal:
		return bt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBillType, raw)
	}
}

// IsCustom reports whether the bill belongs to a workshop order.
func (b BillType) IsCustom() bool {
	return b == BillCustomInitial || b == BillCustomFinal
}

// Summary is the money side of a bill, rounded to 2 places.
type Summary struct {
	Subtotal      float64 `json:"subtotal"`
	CardCharge    float64 `json:"card_charge"`
	PaymentAmount float64 `json:"payment_amount"`
	OldGoldValue  float64 `json:"old_gold_value"`
	Balance       float64 `json:"balance"`
}

// Summarize totals the line values of a bill, applies the card charge and
// offsets any old gold traded in.
func Summarize(lineValues []float64, paymentType PaymentType, oldGoldValue float64) (Summary, error) {
	if err := checkAmount("old gold value", oldGoldValue); err != nil {
		return Summary{}, err
	}

	subtotal := decimal.Zero
	for i, v := range lineValues {
		if err := checkAmount(fmt.Sprintf("line %d", i+1), v); err != nil {
			return Summary{}, err
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(v))
	}

	charge, err := cardCharge(subtotal, paymentType)
	if err != nil {
		return Summary{}, err
	}

	payment := subtotal.Add(charge)
	oldGold := decimal.NewFromFloat(oldGoldValue)

	return Summary{
		Subtotal:      subtotal.Round(2).InexactFloat64(),
		CardCharge:    charge.Round(2).InexactFloat64(),
		PaymentAmount: payment.Round(2).InexactFloat64(),
		OldGoldValue:  oldGold.Round(2).InexactFloat64(),
		Balance:       payment.Sub(oldGold).Round(2).InexactFloat64(),
	}, nil
}

// PaymentAmount returns what the customer pays for total under paymentType.
func PaymentAmount(total float64, paymentType PaymentType) (float64, error) {
	if err := checkAmount("total", total); err != nil {
		return 0, err
	}
	t := decimal.NewFromFloat(total)
	charge, err := cardCharge(t, paymentType)
	if err != nil {
		return 0, err
	}
	return t.Add(charge).Round(2).InexactFloat64(), nil
}

func cardCharge(total decimal.Decimal, paymentType PaymentType) (decimal.Decimal, error) {
	switch paymentType {
	case PaymentCash, PaymentKoko:
		return decimal.Zero, nil
	case PaymentCard:
		if total.LessThan(decimal.NewFromInt(CardChargeThreshold)) {
			return decimal.Zero, nil
		}
		return total.Mul(decimal.NewFromInt(CardChargePercent)).Div(decimal.NewFromInt(100)), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPaymentType, string(paymentType))
	}
}

// Stone is the weight of a set of stones mounted on one bill item.
type Stone struct {
	WeightCarats float64
	WeightGrams  float64
}

// StoneTotals sums stone weights in carats and grams.
func StoneTotals(stones []Stone) (carats, grams float64) {
	c, g := decimal.Zero, decimal.Zero
	for _, s := range stones {
		c = c.Add(decimal.NewFromFloat(s.WeightCarats))
		g = g.Add(decimal.NewFromFloat(s.WeightGrams))
	}
	return c.InexactFloat64(), g.InexactFloat64()
}

type Delivery string

const (
	DeliveryOnTrack Delivery = "ontrack"
	DeliveryWarning Delivery = "warning"
	DeliveryOverdue Delivery = "overdue"
)

// DeliveryWarningDays is how close a delivery date has to be to raise a warning.
const DeliveryWarningDays = 3

// DaysUntil returns whole days until delivery, rounded up.
func DaysUntil(delivery, now time.Time) int {
	return int(math.Ceil(delivery.Sub(now).Hours() / 24))
}

// DeliveryStatus classifies a custom order's delivery date relative to now.
func DeliveryStatus(delivery, now time.Time) Delivery {
	days := DaysUntil(delivery, now)
	switch {
	case days < 0:
		return DeliveryOverdue
	case days <= DeliveryWarningDays:
		return DeliveryWarning
	default:
		return DeliveryOnTrack
	}
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a number greater than or equal to 0", ErrInvalidAmount, name)
	}
	return nil
}
