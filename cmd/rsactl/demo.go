package main

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/spf13/cobra"

	"modified-rsa-service/internal/modrsa"
)

// stageLabels はトレース段階の表示名。
var stageLabels = map[modrsa.Stage]string{
	modrsa.StageModulus:          "n",
	modrsa.StageTotient:          "phi(n)",
	modrsa.StagePublicExponent:   "e",
	modrsa.StagePrivateExponent:  "d",
	modrsa.StagePlainNumbers:     "Plain text in numbers",
	modrsa.StageRSACipher:        "RSA cipher",
	modrsa.StageModifiedCipher:   "Modified RSA cipher",
	modrsa.StageCipherReceived:   "Cipher received",
	modrsa.StageCipherRegained:   "RSA cipher regained",
	modrsa.StageDecryptedNumbers: "Decrypted numbers",
}

// demoCmd はサーバーを使わずに送信側と受信側の流れを再現するコマンド。
func demoCmd() *cobra.Command {
	var p, q, text string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through modified RSA encryption and decryption offline",
		Long: "Prompts for two distinct primes and a letters-only message, then shows\n" +
			"the derived key values, the sender side and the receiver side.\n" +
			"Use --p, --q and --text to skip the prompts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.InOrStdin(), cmd.OutOrStdout(), p, q, text)
		},
	}
	cmd.Flags().StringVar(&p, "p", "", "Prime p")
	cmd.Flags().StringVar(&q, "q", "", "Prime q, different from p")
	cmd.Flags().StringVar(&text, "text", "", "Plaintext, ASCII letters only")
	return cmd
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (pr *prompter) ask(msg string) (string, error) {
	fmt.Fprint(pr.out, msg)
	if !pr.in.Scan() {
		if err := pr.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(pr.in.Text()), nil
}

// askPrime は素数が入力されるまで繰り返し尋ねる。exclude と同じ値は受け付けない。
func (pr *prompter) askPrime(name, preset string, exclude *big.Int) (*big.Int, error) {
	msg := fmt.Sprintf("Enter a prime number for %s: ", name)
	answer := preset
	for {
		if answer == "" {
			var err error
			if answer, err = pr.ask(msg); err != nil {
				return nil, err
			}
		}

		n, ok := new(big.Int).SetString(answer, 10)
		switch {
		case !ok || !modrsa.IsPrime(n):
			msg = fmt.Sprintf("Please enter a prime number for %s: ", name)
		case exclude != nil && n.Cmp(exclude) == 0:
			msg = fmt.Sprintf("Please enter a number for %s which is different from p: ", name)
		default:
			return n, nil
		}
		answer = ""
	}
}

func runDemo(in io.Reader, out io.Writer, pStr, qStr, text string) error {
	pr := &prompter{in: bufio.NewScanner(in), out: out}

	fmt.Fprintln(out, "-------------------------")
	fmt.Fprintln(out, "Modified RSA algorithm :")
	fmt.Fprintln(out, "-------------------------")

	p, err := pr.askPrime("p", pStr, nil)
	if err != nil {
		return err
	}
	q, err := pr.askPrime("q", qStr, p)
	if err != nil {
		return err
	}
	if text == "" {
		if text, err = pr.ask("Please enter plain text\n(string of characters): "); err != nil {
			return err
		}
	}

	printSection(out, "Values of RSA variables :")
	fmt.Fprintf(out, "p => %s\n", p)
	fmt.Fprintf(out, "q => %s\n", q)
	fmt.Fprintf(out, "Plain text => %s\n", text)

	trace := modrsa.WithTrace(func(stage modrsa.Stage, values []*big.Int) {
		switch stage {
		case modrsa.StageModulus, modrsa.StageTotient, modrsa.StagePublicExponent, modrsa.StagePrivateExponent:
			fmt.Fprintf(out, "%s => %s\n", stageLabels[stage], values[0])
		default:
			fmt.Fprintf(out, "%s => %s\n", stageLabels[stage], formatInts(values))
		}
	})

	ks, err := modrsa.DeriveKeySet(p, q, trace)
	if err != nil {
		return fmt.Errorf("deriving keys: %w", err)
	}
	fmt.Fprintf(out, "Public Key => (%s, %s)\n", ks.Public.E, ks.Public.N)
	fmt.Fprintf(out, "Private Key => (%s, %s)\n", ks.Private.D, ks.Private.N)

	printSection(out, "     Sender side")
	fmt.Fprintln(out, "Encrypting...")
	cipher, err := ks.EncryptString(text, trace)
	if err != nil {
		return fmt.Errorf("encrypting: %w", err)
	}
	fmt.Fprintln(out, "Sending cipher...")

	printSection(out, "     Receiver side")
	fmt.Fprintln(out, "Decrypting...")
	plain, err := ks.DecryptString(cipher, trace)
	if err != nil {
		return fmt.Errorf("decrypting: %w", err)
	}
	fmt.Fprintf(out, "Decrypted text => %s\n", plain)
	return nil
}

func printSection(out io.Writer, title string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "--------------------------")
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, "--------------------------")
}

func formatInts(values []*big.Int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
