package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// weiExp is the exponent between wei and the native unit.
const weiExp = 18

// NativeFromWei converts a wei amount into an exact native-unit decimal.
func NativeFromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -weiExp)
}

// WeiFromNative converts a native-unit decimal into wei, truncating any
// precision below one wei.
func WeiFromNative(amount decimal.Decimal) *big.Int {
	return amount.Shift(weiExp).BigInt()
}
