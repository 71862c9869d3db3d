package matrix

import (
	"math"
	"math/big"
	"strconv"
)

// roundHalfUp rounds v to scale decimals, ties away from zero. The input is
// taken at its shortest decimal representation so 2.675 rounds to 2.68.
func roundHalfUp(v float64, scale int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'f', -1, 64))
	if !ok {
		return v
	}
	neg := r.Sign() < 0
	r.Abs(r)

	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(scale)), nil)
	num := new(big.Int).Mul(r.Num(), pow)
	num.Mul(num, big.NewInt(2))
	num.Add(num, r.Denom())
	den := new(big.Int).Mul(r.Denom(), big.NewInt(2))
	q := new(big.Int).Quo(num, den)

	out, _ := new(big.Rat).SetFrac(q, pow).Float64()
	if neg && out != 0 {
		out = -out
	}
	return out
}
