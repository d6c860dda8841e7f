package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bithub/internal/bithubctl/client"
	"bithub/internal/ingress"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	apiHost    string
	outputJSON bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "bithubctl",
	Short: "Inspect a running bithub server",
	Long: `A CLI for reading the payout status a bithub server exposes.

The API root is taken from --api, then BITHUB_API, then http://localhost:8080.`,
	SilenceUsage: true,
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the server answers",
	Args:  cobra.NoArgs,
	RunE:  runPing,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the running server version",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

var payoutCmd = &cobra.Command{
	Use:   "payout",
	Short: "Show the current per-commit payout",
	Args:  cobra.NoArgs,
	RunE:  runPayout,
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List recent commit payouts",
	Args:  cobra.NoArgs,
	RunE:  runTransactions,
}

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "List participating repositories",
	Args:  cobra.NoArgs,
	RunE:  runRepos,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a WEBHOOK_PASSWORD_HASH value for the server",
	Args:  cobra.ExactArgs(1),
	RunE:  runHashPassword,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiHost, "api", "", "bithub API root")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(payoutCmd)
	rootCmd.AddCommand(transactionsCmd)
	rootCmd.AddCommand(reposCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient() *client.Client {
	return client.New(apiHost, timeout)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runPing(cmd *cobra.Command, args []string) error {
	if err := newClient().Ping(context.Background()); err != nil {
		return fmt.Errorf("bithub is not responding: %w", err)
	}
	fmt.Println("PONG")
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	version, err := newClient().Version(context.Background())
	if err != nil {
		fmt.Println("No version detected")
		return nil
	}
	fmt.Println(version)
	return nil
}

func runPayout(cmd *cobra.Command, args []string) error {
	view, err := newClient().Payment(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get payout: %w", err)
	}

	if outputJSON {
		return printJSON(view)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Payout (USD)", "$" + view.Payment})
	table.Append([]string{"Refreshed", view.RefreshedAt.Format(time.RFC3339)})
	table.Render()
	return nil
}

func runTransactions(cmd *cobra.Command, args []string) error {
	txs, err := newClient().Transactions(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get transactions: %w", err)
	}

	if outputJSON {
		return printJSON(txs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Author", "USD", "BTC", "Commit", "When"})
	for _, tx := range txs {
		table.Append([]string{tx.Destination, tx.Amount, tx.AmountInBTC, tx.CommitSha, tx.Timestamp})
	}
	table.Render()
	return nil
}

func runRepos(cmd *cobra.Command, args []string) error {
	repos, err := newClient().Repositories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get repositories: %w", err)
	}

	if outputJSON {
		return printJSON(repos)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Repository", "Owner", "Description"})
	for _, repo := range repos {
		table.Append([]string{repo.Name, repo.Owner, repo.Description})
	}
	table.Render()
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	hash, err := ingress.HashPassword(args[0], bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	fmt.Println(string(hash))
	return nil
}
