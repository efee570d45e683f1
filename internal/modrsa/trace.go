package modrsa

import "math/big"

// Stage は計算途中の値を識別する名前。
type Stage string

const (
	StageModulus          Stage = "n"
	StageTotient          Stage = "phi"
	StagePublicExponent   Stage = "e"
	StagePrivateExponent  Stage = "d"
	StagePlainNumbers     Stage = "plain_numbers"
	StageRSACipher        Stage = "rsa_cipher"
	StageModifiedCipher   Stage = "modified_cipher"
	StageCipherReceived   Stage = "cipher_received"
	StageCipherRegained   Stage = "cipher_regained"
	StageDecryptedNumbers Stage = "decrypted_numbers"
)

// TraceFunc は計算途中の値を受け取るコールバック。
// values はコピーなので、受け取った側で保持・変更してよい。
type TraceFunc func(stage Stage, values []*big.Int)

// Option はエンジンの挙動を調整する。
type Option func(*options)

type options struct {
	trace TraceFunc
}

// WithTrace は途中経過（n, φ, e, d, 各段階の整数列）を fn に通知する。
func WithTrace(fn TraceFunc) Option {
	return func(o *options) {
		o.trace = fn
	}
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) emit(stage Stage, values ...*big.Int) {
	if o.trace == nil {
		return
	}
	o.trace(stage, cloneInts(values))
}

func cloneInts(values []*big.Int) []*big.Int {
	out := make([]*big.Int, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = new(big.Int).Set(v)
		}
	}
	return out
}
