package interp

import (
	"fmt"
	"log/slog"

	"github.com/Paranoid-AF/webterm"
	"github.com/Paranoid-AF/webterm/describe"
	"github.com/Paranoid-AF/webterm/remote"
	"github.com/Paranoid-AF/webterm/store"
)

// OptionsFromConfig builds interpreter options from cfg: a remote client for
// the configured service, the persisted state file and a description cache
// shared by every interpreter created from the result.
func OptionsFromConfig(cfg *webterm.Config) (Options, error) {
	for _, w := range webterm.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	statePath := webterm.ResolveStatePath(cfg)
	st, err := store.OpenFile(statePath)
	if err != nil {
		return Options{}, fmt.Errorf("open state: %w", err)
	}

	baseURL := webterm.ResolveBaseURL(cfg)
	slog.Debug("interpreter config", "base_url", baseURL, "state", statePath)

	return Options{
		Remote:         remote.NewClient(baseURL, webterm.ResolveTimeout(cfg)),
		Store:          st,
		Descriptions:   describe.NewCache(),
		Suggestions:    webterm.SuggestionsEnabled(cfg),
		MaxSuggestions: cfg.Completion.MaxSuggestions,
	}, nil
}
