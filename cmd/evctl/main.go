package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Adithya6721/lexplain-veritas-sync/pkg/evidence"
)

const usage = "usage: evctl verify --evidence <path> [--signature <b64>] [--public-key <b64>] [--prior <path>]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "verify":
		runVerify(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}

// runVerify checks an evidence payload entirely offline and prints the full
// report as json. Exit codes: 0 verified, 1 invalid, 2 usage error.
func runVerify(args []string) {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	evidencePath := fs.String("evidence", "", "path to signed evidence json")
	signature := fs.String("signature", "", "detached signature, base64 (defaults to the embedded security.signature)")
	publicKey := fs.String("public-key", "", "uncompressed P-256 public key, base64 (defaults to the embedded security.public_key)")
	priorPath := fs.String("prior", "", "path to the prior record's evidence json, for chain checking")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	if strings.TrimSpace(*evidencePath) == "" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	evidenceBytes, err := os.ReadFile(*evidencePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read evidence failed: "+err.Error())
		os.Exit(2)
	}
	var prior []byte
	if *priorPath != "" {
		prior, err = os.ReadFile(*priorPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read prior failed: "+err.Error())
			os.Exit(2)
		}
	}

	report := evidence.Verify(evidence.VerifyInput{
		EvidenceJSON: evidenceBytes,
		Signature:    *signature,
		PublicKeyB64: *publicKey,
		Prior:        prior,
	})

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "encode report failed: "+err.Error())
		os.Exit(2)
	}
	fmt.Println(string(out))

	if report.OverallStatus != evidence.StatusVerified {
		os.Exit(1)
	}
}
