// README: Money helpers shared across modules; amounts are shopspring decimals.
package types

import "github.com/shopspring/decimal"

// Paisa converts a rupee amount to integer paisa, the unit the wallet
// gateways quote in.
func Paisa(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// SameAmount reports whether two amounts are numerically equal, ignoring
// representation (10 vs 10.00).
func SameAmount(a, b decimal.Decimal) bool {
	return a.Cmp(b) == 0
}
