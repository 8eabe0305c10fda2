package models

import "github.com/shopspring/decimal"

// FeeStructure is a fixed charge plus a percentage of the amount.
type FeeStructure struct {
	Fixed      decimal.Decimal `json:"fixed"`
	Percentage decimal.Decimal `json:"percentage"`
}

type MethodFees struct {
	Deposit    FeeStructure `json:"deposit"`
	Withdrawal FeeStructure `json:"withdrawal"`
}

type MethodLimits struct {
	MinDeposit    decimal.Decimal `json:"min_deposit"`
	MaxDeposit    decimal.Decimal `json:"max_deposit"`
	MinWithdrawal decimal.Decimal `json:"min_withdrawal"`
	MaxWithdrawal decimal.Decimal `json:"max_withdrawal"`
	DailyLimit    decimal.Decimal `json:"daily_limit"`
}

// PaymentMethod is configuration, not runtime state.
type PaymentMethod struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Fees   MethodFees   `json:"fees"`
	Limits MethodLimits `json:"limits"`
}

func fee(fixed, pct float64) FeeStructure {
	return FeeStructure{
		Fixed:      decimal.NewFromFloat(fixed),
		Percentage: decimal.NewFromFloat(pct),
	}
}

// PaymentMethods is the supported provider catalog.
func PaymentMethods() map[string]PaymentMethod {
	return map[string]PaymentMethod{
		"telebirr": {
			ID:   "telebirr",
			Name: "Telebirr",
			Fees: MethodFees{Deposit: fee(0, 1.5), Withdrawal: fee(5, 2)},
			Limits: MethodLimits{
				MinDeposit:    decimal.NewFromInt(10),
				MaxDeposit:    decimal.NewFromInt(50000),
				MinWithdrawal: decimal.NewFromInt(50),
				MaxWithdrawal: decimal.NewFromInt(25000),
				DailyLimit:    decimal.NewFromInt(100000),
			},
		},
		"cbe_birr": {
			ID:   "cbe_birr",
			Name: "CBE Birr",
			Fees: MethodFees{Deposit: fee(0, 1), Withdrawal: fee(10, 1.5)},
			Limits: MethodLimits{
				MinDeposit:    decimal.NewFromInt(25),
				MaxDeposit:    decimal.NewFromInt(100000),
				MinWithdrawal: decimal.NewFromInt(100),
				MaxWithdrawal: decimal.NewFromInt(50000),
				DailyLimit:    decimal.NewFromInt(200000),
			},
		},
		"bank_transfer": {
			ID:   "bank_transfer",
			Name: "Bank Transfer",
			Fees: MethodFees{Deposit: fee(15, 0), Withdrawal: fee(25, 0)},
			Limits: MethodLimits{
				MinDeposit:    decimal.NewFromInt(100),
				MaxDeposit:    decimal.NewFromInt(500000),
				MinWithdrawal: decimal.NewFromInt(500),
				MaxWithdrawal: decimal.NewFromInt(200000),
				DailyLimit:    decimal.NewFromInt(1000000),
			},
		},
	}
}
