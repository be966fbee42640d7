package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kireiworks/cleaning-backend/pkg/apiclient"
	"github.com/kireiworks/cleaning-backend/pkg/logger"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	apiURL   string
	token    string
	loginID  string
	password string
	verbose  bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:          "uploader",
		Short:        "清掃写真のアップロード・削除",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			logger.Initialize(logger.Config{Level: level, Format: "console", Output: cmd.ErrOrStderr(), EnableColor: true})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api", envOr("NEXT_PUBLIC_API_URL", "http://localhost:8080"), "API base URL")
	flags.StringVar(&opts.token, "token", os.Getenv("KIREI_TOKEN"), "bearer token (skips login)")
	flags.StringVar(&opts.loginID, "login", os.Getenv("KIREI_LOGIN_ID"), "company or user ID")
	flags.StringVar(&opts.password, "password", os.Getenv("KIREI_PASSWORD"), "password")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newUploadCommand(opts), newDeleteCommand(opts))
	return root
}

// withSession opens a session for fn. A session created by login is logged out afterwards.
func withSession(ctx context.Context, opts *globalOptions, fn func(*apiclient.Session) error) error {
	if opts.token != "" {
		return fn(apiclient.NewSession(opts.apiURL, opts.token))
	}
	if opts.loginID == "" || opts.password == "" {
		return fmt.Errorf("--token か --login/--password を指定してください")
	}

	s := apiclient.NewSession(opts.apiURL, "")
	account, err := s.Login(ctx, opts.loginID, opts.password)
	if err != nil {
		return fmt.Errorf("ログインに失敗しました: %w", err)
	}
	logger.Debug("Logged in", map[string]interface{}{
		"login_id":     account.LoginID,
		"account_type": account.AccountType,
	})

	defer func() {
		if err := s.Logout(context.Background()); err != nil {
			logger.Warn("Logout failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()
	return fn(s)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
