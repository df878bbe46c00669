package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	billingmodels "civic/internal/billing/models"
)

type lateFeeQuote struct {
	Amount  int64     `json:"amount"`
	DueDate time.Time `json:"due_date"`
	AsOf    time.Time `json:"as_of"`
	Periods int64     `json:"late_periods"`
	LateFee int64     `json:"late_fee"`
	Total   int64     `json:"total"`
	Rate    float64   `json:"rate"`
	Cap     float64   `json:"cap"`
}

func lateFeeCmd(e *env) *cobra.Command {
	var (
		amount int64
		due    string
		at     string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "late-fee",
		Short: "Quote the late fee for an amount at a given time",
		Long: "Applies the configured late-fee policy (late_fee_rate per started 30-day period, " +
			"capped at late_fee_cap of the amount). Amounts are in minor currency units.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if amount <= 0 {
				return errors.New("--amount must be positive")
			}
			dueDate, err := parseWhen(due)
			if err != nil {
				return fmt.Errorf("--due: %w", err)
			}
			asOf := timeNow()
			if at != "" {
				if asOf, err = parseWhen(at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			policy := billingmodels.LateFeePolicy{Rate: e.cfg.Billing.LateFeeRate, Cap: e.cfg.Billing.LateFeeCap}
			fee := policy.Fee(amount, dueDate, asOf)
			q := lateFeeQuote{
				Amount:  amount,
				DueDate: dueDate,
				AsOf:    asOf,
				Periods: billingmodels.Periods(dueDate, asOf),
				LateFee: fee,
				Total:   amount + fee,
				Rate:    policy.Rate,
				Cap:     policy.Cap,
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(q)
			}
			fmt.Fprintf(out, "amount %d, %d late period(s), late fee %d, total %d\n",
				q.Amount, q.Periods, q.LateFee, q.Total)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&amount, "amount", 0, "bill amount in minor units")
	f.StringVar(&due, "due", "", "due date (2006-01-02 or RFC 3339)")
	f.StringVar(&at, "at", "", "quote time (default now)")
	f.BoolVar(&asJSON, "json", false, "print the quote as JSON")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
