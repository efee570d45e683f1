package modrsa

import (
	"fmt"
	"math/big"
)

// Bits は変換パラメータ ceil(max(p, q) / min(p, q)) を返す。
// 送信側と受信側が同じ (p, q) から同じ値を計算するため、送信はしない。
func Bits(p, q *big.Int) *big.Int {
	hi, lo := p, q
	if hi.Cmp(lo) < 0 {
		hi, lo = lo, hi
	}
	// ceil(hi/lo) = (hi + lo - 1) / lo
	num := new(big.Int).Add(hi, lo)
	num.Sub(num, one)
	return num.Quo(num, lo)
}

// Offset は摂動に加える |p - q| を返す。
func Offset(p, q *big.Int) *big.Int {
	d := new(big.Int).Sub(p, q)
	return d.Abs(d)
}

// ShiftRight は送信前の変換を行う。
// 各要素を x*bits + |p-q| に置き換えてから、列を bits mod len だけ左に回転する。
// 引数の列は変更せず、新しい列を返す。
func ShiftRight(cipher []*big.Int, p, q *big.Int) ([]*big.Int, error) {
	if err := checkTransformInput(cipher, p, q); err != nil {
		return nil, err
	}
	bits, offset := Bits(p, q), Offset(p, q)

	perturbed := make([]*big.Int, len(cipher))
	for i, c := range cipher {
		v := new(big.Int).Mul(c, bits)
		perturbed[i] = v.Add(v, offset)
	}

	length := big.NewInt(int64(len(cipher)))
	shiftPoint := new(big.Int).Mod(bits, length)
	return rotateLeft(perturbed, int(shiftPoint.Int64())), nil
}

// ShiftLeft は ShiftRight の逆変換を行う。
// 列を (len - bits) mod len だけ左に回転してから、各要素を (x - |p-q|) / bits に戻す。
//
// 除算は切り捨て（0 方向）。ShiftRight の出力は必ず割り切れるので正確に元へ戻る。
func ShiftLeft(cipher []*big.Int, p, q *big.Int) ([]*big.Int, error) {
	if err := checkTransformInput(cipher, p, q); err != nil {
		return nil, err
	}
	bits, offset := Bits(p, q), Offset(p, q)

	length := big.NewInt(int64(len(cipher)))
	shiftPoint := new(big.Int).Sub(length, bits)
	shiftPoint.Mod(shiftPoint, length)
	rotated := rotateLeft(cipher, int(shiftPoint.Int64()))

	regained := make([]*big.Int, len(rotated))
	for i, c := range rotated {
		v := new(big.Int).Sub(c, offset)
		regained[i] = v.Quo(v, bits)
	}
	return regained, nil
}

// rotateLeft は s[k:] + s[:k] を新しいスライスとして返す。要素はコピーしない。
func rotateLeft(s []*big.Int, k int) []*big.Int {
	out := make([]*big.Int, 0, len(s))
	out = append(out, s[k:]...)
	return append(out, s[:k]...)
}

func checkTransformInput(cipher []*big.Int, p, q *big.Int) error {
	if len(cipher) == 0 {
		return fmt.Errorf("%w: cipher sequence is empty", ErrInvalidInput)
	}
	if p == nil || q == nil || p.Sign() <= 0 || q.Sign() <= 0 {
		return fmt.Errorf("%w: p and q must be positive", ErrInvalidInput)
	}
	for i, c := range cipher {
		if c == nil {
			return fmt.Errorf("%w: nil element at index %d", ErrInvalidInput, i)
		}
	}
	return nil
}
