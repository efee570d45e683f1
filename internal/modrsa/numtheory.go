package modrsa

import (
	"fmt"
	"math/big"
)

var (
	one = big.NewInt(1)
	two = big.NewInt(2)
)

// IsPrime は試し割りで n が素数かどうかを判定する。
// 2未満は素数ではない。2 から floor(√n) までの全整数で割り切れないことを確認する。
func IsPrime(n *big.Int) bool {
	if n == nil || n.Cmp(two) < 0 {
		return false
	}

	limit := new(big.Int).Sqrt(n)
	rem := new(big.Int)
	for i := big.NewInt(2); i.Cmp(limit) <= 0; i.Add(i, one) {
		if rem.Mod(n, i).Sign() == 0 {
			return false
		}
	}
	return true
}

// GCD はユークリッドの互除法で最大公約数を求める。GCD(a, 0) = a。
// 引数は非負であることを前提とする。
func GCD(a, b *big.Int) *big.Int {
	x := new(big.Int).Set(a)
	y := new(big.Int).Set(b)
	for y.Sign() != 0 {
		x, y = y, x.Mod(x, y)
	}
	return x
}

// EGCD は拡張ユークリッドの互除法で a*x + b*y = g = gcd(a, b) となる (g, x, y) を求める。
//
// 再帰版（egcd(a, 0) = (a, 1, 0)、内側の結果 (g, x1, y1) から x = y1, y = x1 - y1*⌊a/b⌋）と
// 同じ係数を、呼び出しスタックを伸ばさずに反復で計算する。
func EGCD(a, b *big.Int) (g, x, y *big.Int) {
	oldR, r := new(big.Int).Set(a), new(big.Int).Set(b)
	oldS, s := big.NewInt(1), big.NewInt(0)
	oldT, t := big.NewInt(0), big.NewInt(1)

	quo := new(big.Int)
	tmp := new(big.Int)
	for r.Sign() != 0 {
		quo.Div(oldR, r)

		// (oldR, r) = (r, oldR - quo*r)
		tmp.Mul(quo, r)
		oldR, r = r, oldR.Sub(oldR, tmp)

		tmp.Mul(quo, s)
		oldS, s = s, oldS.Sub(oldS, tmp)

		tmp.Mul(quo, t)
		oldT, t = t, oldT.Sub(oldT, tmp)
	}
	return oldR, oldS, oldT
}

// MultiplicativeInverse は modulus を法とする b の逆元を [0, modulus) の範囲で返す。
// EGCD(modulus, b) の b 側の係数を正規化して求める。
func MultiplicativeInverse(modulus, b *big.Int) (*big.Int, error) {
	if modulus == nil || b == nil || modulus.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive", ErrInvalidInput)
	}

	g, _, y := EGCD(modulus, b)
	if g.Cmp(one) != 0 {
		return nil, fmt.Errorf("%w: gcd(%s, %s) = %s, no inverse exists", ErrArithmeticDegeneracy, modulus, b, g)
	}

	// big.Int.Mod はユークリッド剰余なので負の係数も [0, modulus) に収まる
	return y.Mod(y, modulus), nil
}

// BinaryPower は base^exponent mod modulus を二分累乗法で計算する。
// exponent が 0 の場合は 1 を返す。
//
// 上位ビットから順に「二乗し、ビットが立っていれば base を掛けて剰余を取る」処理で、
// exponent//2 に対する再帰を展開した形になっている。
func BinaryPower(base, exponent, modulus *big.Int) (*big.Int, error) {
	if base == nil || exponent == nil || modulus == nil {
		return nil, fmt.Errorf("%w: nil operand", ErrInvalidInput)
	}
	if exponent.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative exponent %s", ErrInvalidInput, exponent)
	}
	if modulus.Sign() <= 0 {
		return nil, fmt.Errorf("%w: modulus must be positive, got %s", ErrInvalidInput, modulus)
	}
	if exponent.Sign() == 0 {
		return big.NewInt(1), nil
	}

	result := big.NewInt(1)
	for i := exponent.BitLen() - 1; i >= 0; i-- {
		result.Mul(result, result)
		if exponent.Bit(i) == 1 {
			result.Mul(result, base)
		}
		result.Mod(result, modulus)
	}
	return result, nil
}
