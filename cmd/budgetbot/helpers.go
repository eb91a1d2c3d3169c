package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/budgetminibot/appcore/internal/api"
	"github.com/budgetminibot/appcore/internal/deeplink"
	"github.com/budgetminibot/appcore/internal/session"
	"github.com/budgetminibot/appcore/internal/storage/sqlite"
)

// launchFlags are the flags shared by every command that runs the
// bootstrap. Each default comes from the environment, so the CLI can be
// driven entirely by env vars inside the Mini App's dev harness.
type launchFlags struct {
	baseURL    string
	dbPath     string
	initData   string
	startParam string
	groupID    int64
}

func (f *launchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.baseURL, "api", getEnv("API_BASE_URL", "http://localhost:8080"), "backend base URL")
	cmd.Flags().StringVar(&f.dbPath, "db", getEnv("TOKEN_DB_PATH", "./data/budgetbot.db"), "path to the local token database")
	cmd.Flags().StringVar(&f.initData, "init-data", os.Getenv("INIT_DATA"), "Telegram init data payload")
	cmd.Flags().StringVar(&f.startParam, "start-param", os.Getenv("START_PARAM"), "Telegram start parameter (deep link)")
	cmd.Flags().Int64Var(&f.groupID, "group", 0, "target group ID (overrides the start parameter)")
}

// launch resolves the deep-link intent: an explicit --group wins over
// whatever the start parameter encodes.
func (f *launchFlags) launch() session.Launch {
	intent := deeplink.Parse(f.startParam)
	groupID := intent.GroupID
	if f.groupID != 0 {
		groupID = f.groupID
	}
	return session.Launch{InitData: f.initData, GroupID: groupID}
}

// newBootstrap wires the API client, the SQLite token store, and the
// bootstrap together. The returned closer releases the token store.
func (f *launchFlags) newBootstrap() (*session.Bootstrap, *api.Client, func(), error) {
	client, err := api.New(f.baseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid API base URL: %w", err)
	}
	tokens, err := sqlite.New(f.dbPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open token store: %w", err)
	}
	b := session.New(client, tokens)
	b.Subscribe(func(st session.State) {
		slog.Debug("session transition", "phase", st.Phase.String())
	})
	return b, client, func() { tokens.Close() }, nil
}
