package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cinewave/cinewave-api/cmd/cinewave-token/ui"
	"github.com/cinewave/cinewave-api/internal/auth"
	"github.com/cinewave/cinewave-api/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cinewave-token",
		Short: "Issue, inspect and check access tokens for the cinewave API",
		Long:  "Operator tool that uses the API's own signing key and public route table from the environment (.env is honoured).",
		// Usage is noise on a failed verify.
		SilenceUsage: true,
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign a token for a subject",
		RunE:  runIssue,
	}
	issueCmd.Flags().String("subject", "", "Token subject (user id); prompts when omitted")

	verifyCmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a token and print its subject",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}

	classifyCmd := &cobra.Command{
		Use:   "classify <METHOD> <path>",
		Short: "Show whether a request line needs a token",
		Args:  cobra.ExactArgs(2),
		RunE:  runClassify,
	}

	rootCmd.AddCommand(issueCmd, verifyCmd, classifyCmd)
	return rootCmd
}

func loadCodec() (*auth.TokenCodec, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return auth.NewTokenCodec(cfg.Auth.SigningKey, auth.WithTTL(cfg.Auth.AccessTokenTTL))
}

func runIssue(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")

	// Interactive mode
	if strings.TrimSpace(subject) == "" {
		var err error
		subject, err = ui.PromptSubject()
		if err != nil {
			return fmt.Errorf("prompt cancelled: %w", err)
		}
	}

	codec, err := loadCodec()
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	token, err := codec.Issue(strings.TrimSpace(subject))
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	ui.PrintToken(cmd.OutOrStdout(), subject, token)
	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	codec, err := loadCodec()
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	principal, err := codec.Verify(args[0])
	if err != nil {
		ui.PrintError(verifyFailure(err))
		return err
	}

	ui.PrintVerified(cmd.OutOrStdout(), principal.Subject)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	routes, err := auth.NewRouteClassifier(cfg.Auth.PublicRoutes)
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}

	method := strings.ToUpper(args[0])
	ui.PrintClassification(cmd.OutOrStdout(), method, args[1], routes.Classify(args[1], method))
	return nil
}

// verifyFailure names the rejection a client sending this token would get.
func verifyFailure(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid signature: " + err.Error()
	case errors.Is(err, auth.ErrExpired):
		return "expired: " + err.Error()
	case errors.Is(err, auth.ErrMalformed):
		return "malformed: " + err.Error()
	default:
		return err.Error()
	}
}
