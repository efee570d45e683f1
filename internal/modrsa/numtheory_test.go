package modrsa

import (
	"errors"
	"math/big"
	"testing"
)

func TestIsPrime(t *testing.T) {
	tests := []struct {
		n    int64
		want bool
	}{
		{-7, false},
		{0, false},
		{1, false},
		{2, true},
		{3, true},
		{4, false},
		{9, false},
		{25, false},
		{29, true},
		{49, false},
		{97, true},
		{7919, true},
		{7921, false}, // 89^2
	}

	for _, tt := range tests {
		if got := IsPrime(big.NewInt(tt.n)); got != tt.want {
			t.Errorf("IsPrime(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}

	if IsPrime(nil) {
		t.Error("IsPrime(nil) = true, want false")
	}
}

func TestIsPrime_MatchesProbablyPrime(t *testing.T) {
	for n := int64(0); n < 2000; n++ {
		v := big.NewInt(n)
		if got, want := IsPrime(v), v.ProbablyPrime(20); got != want {
			t.Fatalf("IsPrime(%d) = %v, ProbablyPrime = %v", n, got, want)
		}
	}
}

func TestGCD(t *testing.T) {
	tests := []struct {
		a, b, want int64
	}{
		{20, 3, 1},
		{20, 4, 4},
		{120, 7, 1},
		{48, 18, 6},
		{7, 0, 7},
		{0, 7, 7},
	}

	for _, tt := range tests {
		got := GCD(big.NewInt(tt.a), big.NewInt(tt.b))
		if got.Int64() != tt.want {
			t.Errorf("GCD(%d, %d) = %s, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestGCD_DoesNotMutateArguments(t *testing.T) {
	a, b := big.NewInt(48), big.NewInt(18)
	GCD(a, b)
	if a.Int64() != 48 || b.Int64() != 18 {
		t.Errorf("arguments mutated: a=%s, b=%s", a, b)
	}
}

func TestEGCD(t *testing.T) {
	// 再帰版の参照実装と同じ係数になること
	tests := []struct {
		a, b    int64
		g, x, y int64
	}{
		{20, 3, 1, -1, 7},
		{120, 7, 1, 1, -17},
		{7, 0, 7, 1, 0},
		{3, 20, 1, 7, -1},
		{240, 46, 2, -9, 47},
	}

	for _, tt := range tests {
		g, x, y := EGCD(big.NewInt(tt.a), big.NewInt(tt.b))
		if g.Int64() != tt.g || x.Int64() != tt.x || y.Int64() != tt.y {
			t.Errorf("EGCD(%d, %d) = (%s, %s, %s), want (%d, %d, %d)",
				tt.a, tt.b, g, x, y, tt.g, tt.x, tt.y)
		}
	}
}

func TestEGCD_BezoutIdentity(t *testing.T) {
	for a := int64(1); a < 60; a++ {
		for b := int64(0); b < 60; b++ {
			g, x, y := EGCD(big.NewInt(a), big.NewInt(b))

			lhs := new(big.Int).Mul(big.NewInt(a), x)
			lhs.Add(lhs, new(big.Int).Mul(big.NewInt(b), y))
			if lhs.Cmp(g) != 0 {
				t.Fatalf("EGCD(%d, %d): %d*%s + %d*%s != %s", a, b, a, x, b, y, g)
			}
			if g.Cmp(GCD(big.NewInt(a), big.NewInt(b))) != 0 {
				t.Fatalf("EGCD(%d, %d) g = %s, GCD disagrees", a, b, g)
			}
		}
	}
}

func TestMultiplicativeInverse(t *testing.T) {
	tests := []struct {
		modulus, b, want int64
	}{
		{20, 3, 7},
		{120, 7, 103},
		{56, 3, 19},
		{72, 5, 29},
		{1, 1, 0},
	}

	for _, tt := range tests {
		got, err := MultiplicativeInverse(big.NewInt(tt.modulus), big.NewInt(tt.b))
		if err != nil {
			t.Fatalf("MultiplicativeInverse(%d, %d) error: %v", tt.modulus, tt.b, err)
		}
		if got.Int64() != tt.want {
			t.Errorf("MultiplicativeInverse(%d, %d) = %s, want %d", tt.modulus, tt.b, got, tt.want)
		}
	}
}

func TestMultiplicativeInverse_Errors(t *testing.T) {
	_, err := MultiplicativeInverse(big.NewInt(20), big.NewInt(4))
	if !errors.Is(err, ErrArithmeticDegeneracy) {
		t.Errorf("want ErrArithmeticDegeneracy for non-coprime input, got %v", err)
	}

	_, err = MultiplicativeInverse(big.NewInt(0), big.NewInt(3))
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("want ErrInvalidInput for zero modulus, got %v", err)
	}
}

func TestBinaryPower_BruteForce(t *testing.T) {
	for n := int64(1); n <= 40; n++ {
		for a := int64(0); a <= 20; a++ {
			for b := int64(0); b <= 12; b++ {
				got, err := BinaryPower(big.NewInt(a), big.NewInt(b), big.NewInt(n))
				if err != nil {
					t.Fatalf("BinaryPower(%d, %d, %d) error: %v", a, b, n, err)
				}

				want := new(big.Int).Exp(big.NewInt(a), big.NewInt(b), nil)
				want.Mod(want, big.NewInt(n))
				if b == 0 {
					// 指数 0 は法に関係なく 1
					want = big.NewInt(1)
				}
				if got.Cmp(want) != 0 {
					t.Fatalf("BinaryPower(%d, %d, %d) = %s, want %s", a, b, n, got, want)
				}
			}
		}
	}
}

func TestBinaryPower_LargeOperands(t *testing.T) {
	base, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	exp, _ := new(big.Int).SetString("98765432109876543210", 10)
	mod, _ := new(big.Int).SetString("1000000000000000000000000000057", 10)

	got, err := BinaryPower(base, exp, mod)
	if err != nil {
		t.Fatalf("BinaryPower error: %v", err)
	}
	want := new(big.Int).Exp(base, exp, mod)
	if got.Cmp(want) != 0 {
		t.Errorf("BinaryPower = %s, want %s", got, want)
	}
}

func TestBinaryPower_InvalidInput(t *testing.T) {
	tests := []struct {
		name           string
		base, exp, mod *big.Int
	}{
		{"negative exponent", big.NewInt(2), big.NewInt(-1), big.NewInt(7)},
		{"zero modulus", big.NewInt(2), big.NewInt(3), big.NewInt(0)},
		{"negative modulus", big.NewInt(2), big.NewInt(3), big.NewInt(-5)},
		{"nil base", nil, big.NewInt(3), big.NewInt(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BinaryPower(tt.base, tt.exp, tt.mod)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("want ErrInvalidInput, got %v", err)
			}
		})
	}
}
