package modrsa

import (
	"fmt"
	"math/big"
)

// EncryptString は平文を送信用の暗号文列に変換する。
// 文字列 → 整数列 → 要素ごとの RSA 暗号化 → ShiftRight の順に処理する。
func EncryptString(plainText string, pub PublicKey, p, q *big.Int, opts ...Option) ([]*big.Int, error) {
	if plainText == "" {
		return nil, fmt.Errorf("%w: plaintext is empty", ErrInvalidInput)
	}
	o := buildOptions(opts)

	nums, err := StringToNumbers(plainText)
	if err != nil {
		return nil, err
	}
	plain := make([]*big.Int, len(nums))
	for i, v := range nums {
		plain[i] = big.NewInt(int64(v))
	}
	o.emit(StagePlainNumbers, plain...)

	cipher := make([]*big.Int, len(plain))
	for i, m := range plain {
		c, err := Encrypt(m, pub)
		if err != nil {
			return nil, fmt.Errorf("encrypting character %d: %w", i, err)
		}
		cipher[i] = c
	}
	o.emit(StageRSACipher, cipher...)

	modified, err := ShiftRight(cipher, p, q)
	if err != nil {
		return nil, err
	}
	o.emit(StageModifiedCipher, modified...)
	return modified, nil
}

// DecryptString は送信用の暗号文列から平文を復元する。
// ShiftLeft → 要素ごとの RSA 復号 → 文字列化の順に処理する。
func DecryptString(cipherText []*big.Int, priv PrivateKey, p, q *big.Int, opts ...Option) (string, error) {
	o := buildOptions(opts)
	o.emit(StageCipherReceived, cipherText...)

	regained, err := ShiftLeft(cipherText, p, q)
	if err != nil {
		return "", err
	}
	o.emit(StageCipherRegained, regained...)

	decrypted := make([]*big.Int, len(regained))
	nums := make([]int, len(regained))
	for i, c := range regained {
		m, err := Decrypt(c, priv)
		if err != nil {
			return "", fmt.Errorf("decrypting element %d: %w", i, err)
		}
		if !m.IsInt64() || m.Int64() >= alphabetSize {
			return "", fmt.Errorf("%w: decrypted value %s at index %d is not a character code", ErrRangeViolation, m, i)
		}
		decrypted[i] = m
		nums[i] = int(m.Int64())
	}
	o.emit(StageDecryptedNumbers, decrypted...)

	return NumbersToString(nums)
}

// EncryptString は鍵セットの公開鍵と素数で平文を暗号化する。
func (ks *KeySet) EncryptString(plainText string, opts ...Option) ([]*big.Int, error) {
	return EncryptString(plainText, ks.Public, ks.P, ks.Q, opts...)
}

// DecryptString は鍵セットの秘密鍵と素数で暗号文列を復号する。
func (ks *KeySet) DecryptString(cipherText []*big.Int, opts ...Option) (string, error) {
	return DecryptString(cipherText, ks.Private, ks.P, ks.Q, opts...)
}
