package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/jewelbook/internal/store"
	"github.com/Simplici0/jewelbook/internal/wastage"
)

func formRequest(t *testing.T, form url.Values) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, req.ParseForm())
	return req
}

func TestParseOptionalFloat(t *testing.T) {
	v, err := parseOptionalFloat("  ", "gold_balance")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = parseOptionalFloat("0.5", "gold_balance")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0.5, *v)

	_, err = parseOptionalFloat("-1", "gold_balance")
	assert.EqualError(t, err, "gold_balance must be greater than or equal to 0")
}

func TestParseOptionalDate(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	d, err := parseOptionalDate("2026-03-12", "delivery_date", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, loc), *d)

	_, err = parseOptionalDate("12/03/2026", "delivery_date", loc)
	assert.Error(t, err)
}

func TestParseBillItems_AttachesStonesByIndex(t *testing.T) {
	req := formRequest(t, url.Values{
		"item_description": {"Ring", "Pendant"},
		"item_karatage":    {"K22", "K18"},
		"item_weight":      {"4", "2.3"},
		"item_price":       {"40000", "8500"},
		"item_total_value": {"", "9000"},
		"stone_item":       {"1", "1"},
		"stone_type":       {"Ruby", "Pearl"},
		"stone_carats":     {"0.5", "1"},
		"stone_grams":      {"0.1", "0.2"},
	})

	items, err := parseBillItems(req)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, wastage.K22, items[0].Karatage)
	assert.Equal(t, 40000.0, items[0].TotalValue)
	assert.Empty(t, items[0].Stones)

	assert.Equal(t, 9000.0, items[1].TotalValue)
	assert.Equal(t, []store.Stone{
		{StoneType: "Ruby", NumberOfStones: 1, WeightCarats: 0.5, WeightGrams: 0.1},
		{StoneType: "Pearl", NumberOfStones: 1, WeightCarats: 1, WeightGrams: 0.2},
	}, items[1].Stones)
}

func TestParseBillItems_Errors(t *testing.T) {
	tests := []struct {
		form url.Values
		want string
	}{
		{url.Values{}, "at least one item is required"},
		{url.Values{"item_description": {"Ring"}, "item_karatage": {"K22"}, "item_weight": {"x"}, "item_price": {"1"}}, "item_weight[0] must be numeric"},
		{url.Values{"item_description": {"Ring"}, "item_karatage": {"K22"}, "item_weight": {"1"}, "item_price": {"1"}, "stone_item": {"0"}, "stone_carats": {"1"}, "stone_grams": {"1"}}, "stone_type[0] is required"},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := parseBillItems(formRequest(t, tt.form))
			assert.EqualError(t, err, tt.want)
		})
	}
}
