// Package modrsa は「modified RSA」暗号の計算エンジンを提供する。
//
// 2つの素数 p, q から鍵を導出し、文字列を整数列に変換してべき乗剰余で暗号化したあと、
// 暗号文列全体に摂動と回転（ShiftRight）を適用して送信用の列を得る。
// 復号はその逆順（ShiftLeft → べき乗剰余 → 文字列化）で行う。
//
// 教育用の方式であり、パディングや乱数化を持たないため暗号学的な安全性はない。
// 整数はすべて *big.Int で扱い、途中で桁あふれすることはない。
//
//	ks, err := modrsa.DeriveKeySet(big.NewInt(11), big.NewInt(13))
//	if err != nil {
//	    return err
//	}
//	cipher, err := ks.EncryptString("Hello")
//	// cipher = [266 266 108 222 166]
//	plain, err := ks.DecryptString(cipher)
package modrsa
