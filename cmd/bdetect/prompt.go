package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"bdetect/internal/reconcile"
)

// promptProvider answers reconciliation questions over the terminal.
type promptProvider struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptProvider(in io.Reader, out io.Writer) *promptProvider {
	return &promptProvider{in: bufio.NewReader(in), out: out}
}

// chooseProvider picks terminal prompts when stdin is a TTY and the user did
// not pass --yes, and the non-interactive defaults otherwise.
func chooseProvider(assumeYes bool) reconcile.Provider {
	if assumeYes || !stdinIsTerminal() {
		return reconcile.DefaultProvider{}
	}
	return newPromptProvider(os.Stdin, os.Stdout)
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *promptProvider) ConfirmRerunAll(_ context.Context, counts reconcile.Counts) (bool, error) {
	p.printCounts(counts)
	fmt.Fprintf(p.out, "All %d references are already processed. Run everything again? [y/N] ", counts.Total)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}

func (p *promptProvider) ChooseBatchPolicy(_ context.Context, counts reconcile.Counts) (reconcile.BatchPolicy, error) {
	p.printCounts(counts)
	fmt.Fprintln(p.out, "Some references are already processed. Choose how to continue:")
	fmt.Fprintln(p.out, "  1) Skip processed references, handle only new ones (default)")
	fmt.Fprintln(p.out, "  2) Process everything again")
	fmt.Fprintln(p.out, "  3) Redownload missing files only")
	fmt.Fprintln(p.out, "  4) Exit")
	fmt.Fprint(p.out, "> ")

	answer, err := p.readLine()
	if err != nil {
		return reconcile.PolicyNone, err
	}
	switch answer {
	case "", "1":
		return reconcile.PolicySkipLogged, nil
	case "2":
		return reconcile.PolicyProcessAll, nil
	case "3":
		return reconcile.PolicyRedownloadMissing, nil
	case "4", "q", "quit", "exit":
		return reconcile.PolicyExit, nil
	default:
		fmt.Fprintf(p.out, "Unrecognized choice %q, skipping processed references.\n", answer)
		return reconcile.PolicySkipLogged, nil
	}
}

func (p *promptProvider) ConfirmReuseExisting(_ context.Context, identifier, title string) (reconcile.ReuseChoice, error) {
	fmt.Fprintf(p.out, "A file for %q (%s) already exists. [U]se it, use for [a]ll, or [r]edownload? ", title, identifier)
	answer, err := p.readLine()
	if err != nil {
		return reconcile.ReuseOnce, err
	}
	switch answer {
	case "a", "all":
		return reconcile.ReuseAll, nil
	case "r", "redownload":
		return reconcile.Redownload, nil
	default:
		return reconcile.ReuseOnce, nil
	}
}

func (p *promptProvider) ConfirmReinfer(_ context.Context, identifier, title string) (reconcile.RerunChoice, error) {
	fmt.Fprintf(p.out, "%q (%s) is already in the ledger. Run inference again? [y/N/s(kip all)] ", title, identifier)
	answer, err := p.readLine()
	if err != nil {
		return reconcile.RerunNo, err
	}
	switch answer {
	case "y", "yes":
		return reconcile.RerunYes, nil
	case "s", "skip all":
		return reconcile.RerunSkipAll, nil
	default:
		return reconcile.RerunNo, nil
	}
}

func (p *promptProvider) printCounts(counts reconcile.Counts) {
	rows := [][]string{
		{"References", strconv.Itoa(counts.Total)},
		{"Already processed", strconv.Itoa(counts.Logged)},
		{"Files on disk", strconv.Itoa(counts.Cached)},
		{"Processed, file missing", strconv.Itoa(counts.LoggedMissing)},
		{"File on disk, unprocessed", strconv.Itoa(counts.CachedUnlogged)},
		{"To process", strconv.Itoa(counts.ToProcess)},
	}
	fmt.Fprintln(p.out, renderCounts("Batch", rows))
}

func (p *promptProvider) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}
