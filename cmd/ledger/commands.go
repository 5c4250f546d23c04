package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/urfave/cli/v2"

	"github.com/HorusGoul/trizum-sub001/internal/calculator"
	"github.com/HorusGoul/trizum-sub001/internal/models"
	"github.com/HorusGoul/trizum-sub001/internal/service"
)

// partyExport is the document read by the balances command.
type partyExport struct {
	Participants map[string]models.Participant `json:"participants"`
	Expenses     []models.Expense              `json:"expenses"`
}

// SharesCommand returns the shares command
func SharesCommand() *cli.Command {
	return &cli.Command{
		Name:      "shares",
		Usage:     "Show how a single expense is allocated",
		ArgsUsage: "EXPENSE_JSON",
		Action:    runShares,
	}
}

// BalancesCommand returns the balances command
func BalancesCommand() *cli.Command {
	return &cli.Command{
		Name:  "balances",
		Usage: "Show balances and settlement transfers of a party",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "Query a running ledger server instead of reading a file",
			},
			&cli.StringFlag{
				Name:  "party",
				Usage: "Party ID to query (with --server)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 10 * time.Second,
				Usage: "Request timeout (with --server)",
			},
		},
		ArgsUsage: "[PARTY_JSON]",
		Action:    runBalances,
	}
}

func runShares(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing required argument: expense file")
	}

	var expense models.Expense
	if err := readJSON(c.Args().Get(0), &expense); err != nil {
		return err
	}

	inputs, err := calculator.ExportIntoInput(expense)
	if err != nil {
		return fmt.Errorf("failed to allocate expense: %w", err)
	}
	shares, err := calculator.GetExpenseUnitShares(expense)
	if err != nil {
		return fmt.Errorf("failed to allocate expense: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintln(w, "Shares:")
	for _, id := range models.SortedKeys(shares) {
		fmt.Fprintf(w, "  %-16s %12s\n", id, calculator.FormatUnits(shares[id]))
	}
	for _, input := range inputs {
		fmt.Fprintf(w, "Paid by %s (%s):\n", input.PaidBy, calculator.FormatUnits(input.Expense))
		for _, id := range models.SortedKeys(input.PaidFor) {
			fmt.Fprintf(w, "  %-16s %12s\n", id, calculator.FormatUnits(input.PaidFor[id]))
		}
	}
	return nil
}

func runBalances(c *cli.Context) error {
	var (
		balances     models.BalancesByParticipant
		transactions []models.Transaction
	)

	if server := c.String("server"); server != "" {
		partyID := c.String("party")
		if partyID == "" {
			return fmt.Errorf("--party is required with --server")
		}

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()

		client := service.NewLedgerClient(http.DefaultClient, server)
		resp, err := client.GetBalances(ctx, connect.NewRequest(&service.GetBalancesRequest{PartyID: partyID}))
		if err != nil {
			return fmt.Errorf("failed to fetch balances: %w", err)
		}
		balances, transactions = resp.Msg.Balances, resp.Msg.Transactions
	} else {
		if c.NArg() < 1 {
			return fmt.Errorf("missing required argument: party file")
		}

		var export partyExport
		if err := readJSON(c.Args().Get(0), &export); err != nil {
			return err
		}

		var err error
		balances, err = calculator.CalculateBalancesByParticipant(export.Expenses, export.Participants)
		if err != nil {
			return err
		}
		transactions = calculator.SimplifyBalanceTransactions(balances)
	}

	printBalances(c.App.Writer, balances, transactions)
	return nil
}

func printBalances(w io.Writer, balances models.BalancesByParticipant, transactions []models.Transaction) {
	fmt.Fprintln(w, "Balances:")
	for _, id := range models.SortedKeys(balances) {
		entry := balances[id]
		fmt.Fprintf(w, "  %-16s %12s  owes %12s  owed %12s\n",
			id,
			calculator.FormatUnits(entry.Stats.Balance),
			calculator.FormatUnits(entry.Stats.UserOwes),
			calculator.FormatUnits(entry.Stats.OwedToUser),
		)
	}

	if len(transactions) == 0 {
		fmt.Fprintln(w, "All settled up.")
		return
	}
	fmt.Fprintln(w, "Transfers:")
	for _, t := range transactions {
		fmt.Fprintf(w, "  %s -> %s: %s\n", t.From, t.To, calculator.FormatUnits(t.Amount))
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
