package modrsa

import "errors"

var (
	// ErrInvalidInput は入力値が前提条件を満たさない場合のエラー。
	// 素数でない・等しい素数の組、空の平文や暗号文列、英字以外の文字などが該当する。
	ErrInvalidInput = errors.New("invalid input")

	// ErrArithmeticDegeneracy は鍵導出が数学的に成立しない場合のエラー。
	// φ(n) <= 1 や、公開指数 e の探索範囲が尽きた場合に返る。
	ErrArithmeticDegeneracy = errors.New("arithmetic degeneracy")

	// ErrRangeViolation は値が法 n や符号表の範囲外にある場合のエラー。
	ErrRangeViolation = errors.New("range violation")
)
