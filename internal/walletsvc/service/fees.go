package service

import (
	"github.com/shopspring/decimal"

	"github.com/zemenbingo/bingo-services/internal/walletsvc/models"
)

var hundred = decimal.NewFromInt(100)

// Fee computes fixed + amount * percentage / 100. Deposits and withdrawals
// use the same formula with their own structures.
func Fee(amount decimal.Decimal, fs models.FeeStructure) decimal.Decimal {
	return fs.Fixed.Add(amount.Mul(fs.Percentage).Div(hundred))
}

// Total is the fee-inclusive gross amount.
func Total(amount decimal.Decimal, fs models.FeeStructure) decimal.Decimal {
	return amount.Add(Fee(amount, fs))
}
