package modrsa

import (
	"fmt"
	"math/big"
)

// Encrypt は平文の整数 m を公開鍵で暗号化する（C = m^e mod n）。
// 0 <= m < n でなければ正しく復号できないため ErrRangeViolation を返す。
func Encrypt(m *big.Int, pub PublicKey) (*big.Int, error) {
	if err := checkResidue(m, pub.N); err != nil {
		return nil, err
	}
	return modExp(m, pub.E, pub.N)
}

// Decrypt は暗号文の整数 c を秘密鍵で復号する（M = c^d mod n）。
func Decrypt(c *big.Int, priv PrivateKey) (*big.Int, error) {
	if err := checkResidue(c, priv.N); err != nil {
		return nil, err
	}
	return modExp(c, priv.D, priv.N)
}

func modExp(x, exponent, n *big.Int) (*big.Int, error) {
	r, err := BinaryPower(x, exponent, n)
	if err != nil {
		return nil, err
	}
	return r.Mod(r, n), nil
}

func checkResidue(x, n *big.Int) error {
	if x == nil || n == nil {
		return fmt.Errorf("%w: nil operand", ErrInvalidInput)
	}
	if n.Sign() <= 0 {
		return fmt.Errorf("%w: modulus must be positive, got %s", ErrInvalidInput, n)
	}
	if x.Sign() < 0 || x.Cmp(n) >= 0 {
		return fmt.Errorf("%w: %s is not in [0, %s)", ErrRangeViolation, x, n)
	}
	return nil
}
