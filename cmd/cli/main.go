package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/paisbank/internal/domain"
	"github.com/iho/paisbank/internal/infrastructure/auth"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// options are the persistent flags shared by every command.
type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "paisbank-cli",
		Short:         "PaisBank CLI tool",
		Long:          `A command line interface for interacting with the PaisBank ledger API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the PaisBank API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PAISBANK_TOKEN"), "Bearer token (defaults to $PAISBANK_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(newTokenCmd(), newCardsCmd(opts), newTransactionsCmd(opts))

	return rootCmd
}

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Token operations",
	}

	var (
		user   string
		email  string
		secret string
		ttl    time.Duration
	)

	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret or JWT_SECRET is required")
			}
			token, err := auth.NewJWTManager(secret, ttl).Generate(&domain.Principal{ID: user, Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	mintCmd.Flags().StringVar(&user, "user", "", "Principal ID (token subject)")
	mintCmd.Flags().StringVar(&email, "email", "", "Principal email")
	mintCmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "Signing secret (defaults to $JWT_SECRET)")
	mintCmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = mintCmd.MarkFlagRequired("user")

	tokenCmd.AddCommand(mintCmd)

	return tokenCmd
}

type card struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Issuer   string          `json:"issuer"`
	Currency string          `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
	Version  int64           `json:"version"`
}

type reconciliation struct {
	Card              int64           `json:"card"`
	RecordedBalance   decimal.Decimal `json:"recorded_balance"`
	CalculatedBalance decimal.Decimal `json:"calculated_balance"`
	Difference        decimal.Decimal `json:"difference"`
	IsReconciled      bool            `json:"is_reconciled"`
	Repaired          bool            `json:"repaired"`
}

type transaction struct {
	ID     int64           `json:"id"`
	Card   int64           `json:"card"`
	Title  string          `json:"title"`
	Amount decimal.Decimal `json:"amount"`
	Type   string          `json:"type"`
	Date   time.Time       `json:"date"`
}

func newCardsCmd(opts *options) *cobra.Command {
	cardsCmd := &cobra.Command{
		Use:   "cards",
		Short: "Card operations",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List your cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cards []card
			if err := opts.get(cmd.Context(), "/api/v1/cards", nil, &cards); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tISSUER\tBALANCE\tVERSION")
			for _, c := range cards {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s %s\t%d\n", c.ID, truncate(c.Name, 24), c.Issuer, c.Balance.StringFixed(2), c.Currency, c.Version)
			}
			return w.Flush()
		},
	}

	var repair bool
	reconcileCmd := &cobra.Command{
		Use:   "reconcile <card-id>",
		Short: "Compare a card balance with the sum of its transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}

			path := "/api/v1/cards/" + strconv.FormatInt(id, 10) + "/reconciliation"
			method := http.MethodGet
			if repair {
				method = http.MethodPost
			}

			var r reconciliation
			if err := opts.call(cmd.Context(), method, path, nil, &r); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if r.IsReconciled {
				fmt.Fprintf(out, "Card %d is consistent: balance %s\n", r.Card, r.RecordedBalance)
				return nil
			}

			fmt.Fprintf(out, "Card %d DRIFTED: recorded %s, transactions sum to %s (difference %s)\n",
				r.Card, r.RecordedBalance, r.CalculatedBalance, r.Difference)
			if r.Repaired {
				fmt.Fprintln(out, "Balance repaired.")
				return nil
			}
			return fmt.Errorf("card %d is not reconciled", r.Card)
		},
	}
	reconcileCmd.Flags().BoolVar(&repair, "repair", false, "Reset a drifted balance to the sum of transactions")

	cardsCmd.AddCommand(listCmd, reconcileCmd)

	return cardsCmd
}

func newTransactionsCmd(opts *options) *cobra.Command {
	transactionsCmd := &cobra.Command{
		Use:   "transactions",
		Short: "Transaction operations",
	}

	var (
		search string
		sortBy string
		cardID string
		types  []string
		limit  int
		offset int
	)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search your transactions",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if search != "" {
				q.Set("searchValue", search)
			}
			if sortBy != "" {
				q.Set("sortBy", sortBy)
			}
			if cardID != "" {
				q.Set("cardId", cardID)
			}
			for _, t := range types {
				q.Add("type", t)
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				q.Set("offset", strconv.Itoa(offset))
			}

			var page struct {
				Data  []transaction `json:"data"`
				Count int           `json:"count"`
			}
			if err := opts.get(cmd.Context(), "/api/v1/transactions/search", q, &page); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCARD\tDATE\tTYPE\tAMOUNT\tTITLE")
			for _, t := range page.Data {
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", t.ID, t.Card, t.Date.Format("2006-01-02"), t.Type, t.Amount.StringFixed(2), truncate(t.Title, 32))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d matches\n", len(page.Data), page.Count)
			return nil
		},
	}
	searchCmd.Flags().StringVar(&search, "search", "", "Case-insensitive title substring")
	searchCmd.Flags().StringVar(&sortBy, "sort", "date", "Sort key (id, date, amount, title, type, card, created_at)")
	searchCmd.Flags().StringVar(&cardID, "card", "", "Only transactions of this card")
	searchCmd.Flags().StringSliceVar(&types, "type", nil, "Transaction types to include")
	searchCmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	searchCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	transactionsCmd.AddCommand(searchCmd)

	return transactionsCmd
}

// apiError is the failure envelope returned by the API.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
}

// get issues a GET and decodes the envelope's data into v.
func (o *options) get(ctx context.Context, path string, query url.Values, v any) error {
	return o.call(ctx, http.MethodGet, path, query, v)
}

// call issues a bodiless request and decodes the envelope's data into v.
func (o *options) call(ctx context.Context, method, path string, query url.Values, v any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	u := o.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if !envelope.Success {
		return &apiError{Status: resp.StatusCode, Message: envelope.Message}
	}

	return json.Unmarshal(envelope.Data, v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
