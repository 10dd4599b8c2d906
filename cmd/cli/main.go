package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ledgercore-cli",
		Short: "LedgerCore CLI tool",
		Long:  `A command line interface for interacting with the LedgerCore API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the LedgerCore API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(accountCmd(), transferCmd(), depositCmd(), transactionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	var name, accountType, currency string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/accounts", map[string]any{
				"name":     name,
				"type":     accountType,
				"currency": currency,
			})
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Account name")
	createCmd.Flags().StringVar(&accountType, "type", "ASSET", "Account type (ASSET, LIABILITY, EQUITY, REVENUE, EXPENSE)")
	createCmd.Flags().StringVar(&currency, "currency", "USD", "Account currency")

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get an account by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts")
		},
	}

	txCmd := &cobra.Command{
		Use:   "transactions <id>",
		Short: "List transactions touching an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/accounts/" + args[0] + "/transactions")
		},
	}

	cmd.AddCommand(createCmd, getCmd, listCmd, txCmd)
	return cmd
}

func transferCmd() *cobra.Command {
	var source, destination, amount, currency, description, feeAccount string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer funds between two accounts",
		Run: func(cmd *cobra.Command, args []string) {
			payload := map[string]any{
				"source_account_id":      source,
				"destination_account_id": destination,
				"amount":                 amount,
				"currency":               currency,
				"description":            description,
			}
			if feeAccount != "" {
				payload["fee_account_id"] = feeAccount
			}
			postJSON("/api/v1/transfers", payload)
		},
	}
	cmd.Flags().StringVar(&source, "from", "", "Source account ID")
	cmd.Flags().StringVar(&destination, "to", "", "Destination account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Transfer amount")
	cmd.Flags().StringVar(&currency, "currency", "USD", "Transfer currency")
	cmd.Flags().StringVar(&description, "description", "", "Transfer description")
	cmd.Flags().StringVar(&feeAccount, "fee-account", "", "Fee collection account ID (optional)")
	return cmd
}

func depositCmd() *cobra.Command {
	var account, amount, currency, description string
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Fund an account",
		Run: func(cmd *cobra.Command, args []string) {
			postJSON("/api/v1/deposits", map[string]any{
				"account_id":  account,
				"amount":      amount,
				"currency":    currency,
				"description": description,
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "Target account ID")
	cmd.Flags().StringVar(&amount, "amount", "", "Deposit amount")
	cmd.Flags().StringVar(&currency, "currency", "USD", "Deposit currency")
	cmd.Flags().StringVar(&description, "description", "", "Deposit description")
	return cmd
}

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transaction",
		Short: "Transaction operations",
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Get a transaction by ID",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			getJSON("/api/v1/transactions/" + args[0])
		},
	}

	var file string
	postCmd := &cobra.Command{
		Use:   "post",
		Short: "Post a balanced transaction from a JSON file",
		Run: func(cmd *cobra.Command, args []string) {
			payload, err := os.ReadFile(file)
			if err != nil {
				fmt.Printf("Error reading file: %v\n", err)
				os.Exit(1)
			}
			var body map[string]any
			if err := json.Unmarshal(payload, &body); err != nil {
				fmt.Printf("Invalid JSON payload: %v\n", err)
				os.Exit(1)
			}
			postJSON("/api/v1/transactions", body)
		},
	}
	postCmd.Flags().StringVar(&file, "file", "", "Path to the transaction JSON file")

	cmd.AddCommand(getCmd, postCmd)
	return cmd
}

func getJSON(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func postJSON(path string, payload map[string]any) {
	body, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("Error encoding payload: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	printResponse(resp)
}

func printResponse(resp *http.Response) {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var result any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("%s\n", string(body))
		return
	}

	printJSON(result)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format response: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
