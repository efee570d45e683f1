package modrsa

import (
	"fmt"
	"strings"
)

const (
	// lowerBase は小文字 'a'..'z' の先頭の値。
	lowerBase = 0
	// upperBase は大文字 'A'..'Z' の先頭の値。
	upperBase = 26
	// alphabetSize は符号表の大きさ（0..51）。
	alphabetSize = 52
)

// StringToNumbers は英字列を [0, 51] の整数列に変換する。
// 小文字は 0..25、大文字は 26..51 になる。英字以外の文字はエラーとする。
func StringToNumbers(s string) ([]int, error) {
	nums := make([]int, 0, len(s))
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			nums = append(nums, int(r-'A')+upperBase)
		case r >= 'a' && r <= 'z':
			nums = append(nums, int(r-'a')+lowerBase)
		default:
			return nil, fmt.Errorf("%w: non-alphabetic character %q at byte %d", ErrInvalidInput, r, i)
		}
	}
	return nums, nil
}

// NumbersToString は StringToNumbers の逆変換。
// 25 より大きい値は大文字、それ以外は小文字になる。
func NumbersToString(nums []int) (string, error) {
	var b strings.Builder
	b.Grow(len(nums))
	for i, v := range nums {
		if v < 0 || v >= alphabetSize {
			return "", fmt.Errorf("%w: value %d at index %d is outside [0, %d]", ErrRangeViolation, v, i, alphabetSize-1)
		}
		if v >= upperBase {
			b.WriteByte(byte(v - upperBase + 'A'))
		} else {
			b.WriteByte(byte(v - lowerBase + 'a'))
		}
	}
	return b.String(), nil
}
