// Command pdpctl is the offline companion to pdpserver: an `eval`
// subcommand that runs a single authorize request against a policy
// document with no network or database dependency, and a `migrate`
// subcommand that applies the store package's schema.
package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/dotrongnhan/xacml-pdp/config"
	"github.com/dotrongnhan/xacml-pdp/loader"
	"github.com/dotrongnhan/xacml-pdp/pdp"
	"github.com/dotrongnhan/xacml-pdp/predicate/cel"
	"github.com/dotrongnhan/xacml-pdp/store"
)

func main() {
	root := &cobra.Command{
		Use:   "pdpctl",
		Short: "Inspect and administer the ABAC policy decision point",
	}
	root.AddCommand(newEvalCommand())
	root.AddCommand(newMigrateCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newEvalCommand() *cobra.Command {
	var policyPath, requestPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a request document against a policy document and print the decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(policyPath, requestPath)
		},
	}
	cmd.Flags().StringVar(&policyPath, "policy", "", "path to a policy/policySet JSON document")
	cmd.Flags().StringVar(&requestPath, "request", "", "path to an authorize request JSON document")
	cmd.MarkFlagRequired("request")

	return cmd
}

func runEval(policyPath, requestPath string) error {
	requestJSON, err := os.ReadFile(requestPath)
	if err != nil {
		return fmt.Errorf("pdpctl: reading request document: %w", err)
	}

	req, err := loader.DecodeRequest(requestJSON)
	if err != nil {
		return fmt.Errorf("pdpctl: decoding request document: %w", err)
	}

	if policyPath != "" {
		policyJSON, err := os.ReadFile(policyPath)
		if err != nil {
			return fmt.Errorf("pdpctl: reading policy document: %w", err)
		}
		rootPolicy, err := loader.LoadRoot(policyJSON)
		if err != nil {
			return fmt.Errorf("pdpctl: decoding policy document: %w", err)
		}
		req.RootPolicy = rootPolicy
	}

	predicateEngine, err := cel.New()
	if err != nil {
		return fmt.Errorf("pdpctl: building predicate engine: %w", err)
	}

	// Reduce with config.Defaults()'s strategy so a one-shot offline
	// evaluation behaves the same way pdpserver does out of the box,
	// without requiring a config file.
	engine := pdp.New(predicateEngine, config.Defaults().Strategy)
	decision, err := engine.Authorize(req)
	if err != nil {
		return fmt.Errorf("pdpctl: %w", err)
	}

	encoded, err := sonic.MarshalIndent(decision, "", "  ")
	if err != nil {
		return fmt.Errorf("pdpctl: rendering decision: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

func newMigrateCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the policy and audit store schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")

	return cmd
}

func runMigrate(configPath string) error {
	service, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("pdpctl: loading configuration: %w", err)
	}

	db, err := store.Open(store.Config{
		Host: service.Database.Host, Port: service.Database.Port, User: service.Database.User,
		Password: service.Database.Password, DatabaseName: service.Database.DatabaseName,
		SSLMode: service.Database.SSLMode, TimeZone: "UTC",
	})
	if err != nil {
		return fmt.Errorf("pdpctl: connecting to database: %w", err)
	}

	if err := store.New(db).Migrate(); err != nil {
		return fmt.Errorf("pdpctl: migrating schema: %w", err)
	}

	fmt.Println("migration complete")
	return nil
}
