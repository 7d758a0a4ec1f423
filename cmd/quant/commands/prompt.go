package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/hqm/backend/internal/brain"
	"github.com/wonny/hqm/backend/internal/contracts"
)

const maxCapitalAttempts = 3

// capitalPrompter asks for the portfolio size once per strategy pass
type capitalPrompter struct {
	in       *bufio.Scanner
	out      io.Writer
	attempts int
}

func newCapitalPrompter(in io.Reader, out io.Writer) *capitalPrompter {
	return &capitalPrompter{
		in:       bufio.NewScanner(in),
		out:      out,
		attempts: maxCapitalAttempts,
	}
}

// Capital implements brain.CapitalFunc
func (p *capitalPrompter) Capital(ctx context.Context, strategy contracts.Strategy) (float64, error) {
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		fmt.Fprintf(p.out, "Enter the value of your portfolio for the %s strategy: ", strategy)
		if !p.in.Scan() {
			if err := p.in.Err(); err != nil {
				return 0, fmt.Errorf("read capital: %w", err)
			}
			return 0, fmt.Errorf("%w: no capital entered", contracts.ErrInvalidArgument)
		}

		capital, err := parseCapital(p.in.Text())
		if err == nil {
			return capital, nil
		}
		fmt.Fprintf(p.out, "That's not a valid amount (%v). Please try again.\n", err)
	}

	return 0, fmt.Errorf("%w: no valid capital after %d attempts", contracts.ErrInvalidArgument, p.attempts)
}

// parseCapital accepts "10000", "10,000" or "$10000.50"
func parseCapital(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty input")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("capital must be positive")
	}
	return v, nil
}

// capitalFunc resolves the --capital flag: a fixed amount, or the prompt when unset
func capitalFunc(flagValue string, in io.Reader, out io.Writer) (brain.CapitalFunc, error) {
	if flagValue == "" {
		return newCapitalPrompter(in, out).Capital, nil
	}
	v, err := parseCapital(flagValue)
	if err != nil {
		return nil, fmt.Errorf("%w: --capital: %v", contracts.ErrInvalidArgument, err)
	}
	return brain.FixedCapital(v), nil
}
