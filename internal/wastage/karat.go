package wastage

import (
	"fmt"
	"strings"
)

// KaratCode identifies the purity/alloy of the metal a piece is made from.
type KaratCode string

const (
	K22       KaratCode = "K22"
	K21       KaratCode = "K21"
	K18       KaratCode = "K18"
	K16       KaratCode = "K16"
	K14       KaratCode = "K14"
	K9        KaratCode = "K9"
	Silver925 KaratCode = "Silver925"
)

// KaratSpec holds the reference coefficients for one karat code.
type KaratSpec struct {
	// KaratCoefficient is the fineness fraction of pure metal. Informational only.
	KaratCoefficient float64 `json:"karat_coefficient"`
	// WastageCoefficient is the expected fractional metal loss per gram processed.
	WastageCoefficient float64 `json:"wastage_coefficient"`
}

type karatEntry struct {
	code  KaratCode
	label string
	spec  KaratSpec
}

// karatTable is read-only after package initialization.
var karatTable = []karatEntry{
	{K22, "22K", KaratSpec{KaratCoefficient: 0.916, WastageCoefficient: 0.05625}},
	{K21, "21K", KaratSpec{KaratCoefficient: 0.875, WastageCoefficient: 0.06}},
	{K18, "18K", KaratSpec{KaratCoefficient: 0.75, WastageCoefficient: 0.10}},
	{K16, "16K", KaratSpec{KaratCoefficient: 0.666, WastageCoefficient: 0.12}},
	{K14, "14K", KaratSpec{KaratCoefficient: 0.583, WastageCoefficient: 0.13}},
	{K9, "9K", KaratSpec{KaratCoefficient: 0.375, WastageCoefficient: 0.15}},
	{Silver925, "925 Silver", KaratSpec{KaratCoefficient: 0.925, WastageCoefficient: 0.10}},
}

var karatIndex = func() map[KaratCode]int {
	idx := make(map[KaratCode]int, len(karatTable))
	for i, e := range karatTable {
		idx[e.code] = i
	}
	return idx
}()

// LookupKaratSpec returns the reference coefficients for code.
// Unknown codes fail with ErrInvalidKaratage; there is no fallback karat.
func LookupKaratSpec(code KaratCode) (KaratSpec, error) {
	i, ok := karatIndex[code]
	if !ok {
		return KaratSpec{}, fmt.Errorf("%w: %q", ErrInvalidKaratage, string(code))
	}
	return karatTable[i].spec, nil
}

// ParseKaratCode validates a raw karat string coming from an intake form.
func ParseKaratCode(raw string) (KaratCode, error) {
	code := KaratCode(strings.TrimSpace(raw))
	if _, err := LookupKaratSpec(code); err != nil {
		return "", err
	}
	return code, nil
}

// KaratCodes lists every supported code in table order.
func KaratCodes() []KaratCode {
	codes := make([]KaratCode, 0, len(karatTable))
	for _, e := range karatTable {
		codes = append(codes, e.code)
	}
	return codes
}

// Label returns the display name of the code, or the raw code when unknown.
func (c KaratCode) Label() string {
	if i, ok := karatIndex[c]; ok {
		return karatTable[i].label
	}
	return string(c)
}
