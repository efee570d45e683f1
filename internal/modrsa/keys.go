package modrsa

import (
	"fmt"
	"math/big"
)

// PublicKey は公開鍵 (e, n) を表す。
type PublicKey struct {
	E *big.Int
	N *big.Int
}

// PrivateKey は秘密鍵 (d, n) を表す。
type PrivateKey struct {
	D *big.Int
	N *big.Int
}

// KeySet は素数の組から導出したすべての値を保持する。
// 生成後は変更しない。
type KeySet struct {
	P       *big.Int
	Q       *big.Int
	N       *big.Int
	Phi     *big.Int
	Public  PublicKey
	Private PrivateKey
}

// ValidatePrimePair は p, q が互いに異なる素数であることを確認する。
func ValidatePrimePair(p, q *big.Int) error {
	if p == nil || q == nil {
		return fmt.Errorf("%w: p and q are required", ErrInvalidInput)
	}
	if !IsPrime(p) {
		return fmt.Errorf("%w: p = %s is not prime", ErrInvalidInput, p)
	}
	if !IsPrime(q) {
		return fmt.Errorf("%w: q = %s is not prime", ErrInvalidInput, q)
	}
	if p.Cmp(q) == 0 {
		return fmt.Errorf("%w: p and q must be distinct", ErrInvalidInput)
	}
	return nil
}

// DeriveKeySet は素数 p, q から n, φ(n), e, d を導出する。
//
// e は gcd(φ, e) = 1 を満たす [2, φ) の最小値、d は φ を法とする e の逆元。
// 乱数は使わないため、同じ (p, q) からは常に同じ鍵が得られる。
func DeriveKeySet(p, q *big.Int, opts ...Option) (*KeySet, error) {
	if err := ValidatePrimePair(p, q); err != nil {
		return nil, err
	}
	return deriveKeySet(p, q, opts)
}

// RestoreKeySet は作成時に検証済みの素数の組から鍵セットを組み立て直す。
//
// 素数判定は行わない。呼び出し側は得られた (e, n) を保存済みの公開鍵と照合すること。
func RestoreKeySet(p, q *big.Int, opts ...Option) (*KeySet, error) {
	if p == nil || q == nil {
		return nil, fmt.Errorf("%w: p and q are required", ErrInvalidInput)
	}
	if p.Cmp(one) <= 0 || q.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: p and q must be greater than 1", ErrInvalidInput)
	}
	if p.Cmp(q) == 0 {
		return nil, fmt.Errorf("%w: p and q must be distinct", ErrInvalidInput)
	}
	return deriveKeySet(p, q, opts)
}

func deriveKeySet(p, q *big.Int, opts []Option) (*KeySet, error) {
	o := buildOptions(opts)

	n := new(big.Int).Mul(p, q)
	o.emit(StageModulus, n)

	phi := new(big.Int).Mul(
		new(big.Int).Sub(p, one),
		new(big.Int).Sub(q, one),
	)
	o.emit(StageTotient, phi)
	if phi.Cmp(one) <= 0 {
		return nil, fmt.Errorf("%w: phi(n) = %s", ErrArithmeticDegeneracy, phi)
	}

	e, err := smallestCoprime(phi)
	if err != nil {
		return nil, err
	}
	o.emit(StagePublicExponent, e)

	d, err := MultiplicativeInverse(phi, e)
	if err != nil {
		return nil, fmt.Errorf("computing private exponent: %w", err)
	}
	o.emit(StagePrivateExponent, d)

	return &KeySet{
		P:       new(big.Int).Set(p),
		Q:       new(big.Int).Set(q),
		N:       n,
		Phi:     phi,
		Public:  PublicKey{E: e, N: n},
		Private: PrivateKey{D: d, N: n},
	}, nil
}

// smallestCoprime は gcd(phi, e) = 1 となる [2, phi) の最小の e を線形探索する。
func smallestCoprime(phi *big.Int) (*big.Int, error) {
	for e := big.NewInt(2); e.Cmp(phi) < 0; e.Add(e, one) {
		if GCD(phi, e).Cmp(one) == 0 {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: no public exponent in [2, %s)", ErrArithmeticDegeneracy, phi)
}
