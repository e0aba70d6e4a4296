package ousd

import "math/big"

// ResolutionIncrease is the ratio between high and low resolution credit
// values.
const ResolutionIncrease = 1_000_000_000

var (
	one                = big.NewInt(1)
	scale              = big.NewInt(1_000_000_000_000_000_000)
	resolutionIncrease = big.NewInt(ResolutionIncrease)
	highresRate        = new(big.Int).Mul(scale, resolutionIncrease)
	maxSupply          = new(big.Int).Sub(new(big.Int).Lsh(one, 128), one)
)

// Scale returns the fixed-point unit of balances and exchange rates (1e18).
func Scale() *big.Int {
	return new(big.Int).Set(scale)
}

// DefaultCreditsPerToken returns the high resolution initial exchange rate
// (1e27).
func DefaultCreditsPerToken() *big.Int {
	return new(big.Int).Set(highresRate)
}

// MaxSupply returns the exclusive upper bound of the total supply.
func MaxSupply() *big.Int {
	return new(big.Int).Set(maxSupply)
}

// toCredits converts a balance into credits at rate, rounding up.
func toCredits(balance, rate *big.Int) *big.Int {
	n := new(big.Int).Mul(balance, rate)
	n.Add(n, scale)
	n.Sub(n, one)
	return n.Quo(n, scale)
}

// toBalance converts credits into a balance at rate, rounding down.
func toBalance(credits, rate *big.Int) *big.Int {
	n := new(big.Int).Mul(credits, scale)
	return n.Quo(n, rate)
}

func neg(v *big.Int) *big.Int {
	return new(big.Int).Neg(v)
}

func add(a, b *big.Int) *big.Int {
	return new(big.Int).Add(a, b)
}

func sub(a, b *big.Int) *big.Int {
	return new(big.Int).Sub(a, b)
}
