package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/r3d91ll/fuzzylink/pkg/config"
	"github.com/r3d91ll/fuzzylink/pkg/embedding"
)

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Check embedding provider availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, skipped := a.providerRegistry()
			printProviders(cmd.OutOrStdout(), a.cfg.Embedding.Provider, registry.Status(cmd.Context()), registry.List(), skipped)
			return nil
		},
	}
}

// providerRegistry builds every provider kind from the embedding section.
// Providers that cannot be built (an OpenAI provider without a key) are
// returned in skipped with the reason.
func (a *app) providerRegistry() (*embedding.Registry, map[string]error) {
	registry := embedding.NewRegistry()
	skipped := make(map[string]error)

	for _, kind := range []string{config.ProviderHTTP, config.ProviderOpenAI} {
		ec := a.cfg.Embedding
		ec.Provider = kind
		ec.CacheSize = 0
		p, err := embedding.NewFromConfig(ec, a.logger)
		if err != nil {
			skipped[kind] = err
			continue
		}
		if err := registry.Register(kind, p); err != nil {
			skipped[kind] = err
		}
	}
	return registry, skipped
}

func printProviders(w io.Writer, active string, status map[string]embedding.Status, names []string, skipped map[string]error) {
	fmt.Fprintln(w, "Embedding providers:")
	for _, name := range names {
		s := status[name]
		avail := "✗"
		if s.Available {
			avail = "✓"
		}
		marker := " "
		if name == active {
			marker = "*"
		}
		dim := "dimension unknown"
		if s.Dimension > 0 {
			dim = fmt.Sprintf("%d dims", s.Dimension)
		}
		fmt.Fprintf(w, " %s %s %-8s (%s)\n", marker, avail, name, dim)
	}
	for _, kind := range []string{config.ProviderHTTP, config.ProviderOpenAI} {
		if err, ok := skipped[kind]; ok {
			fmt.Fprintf(w, "   - %-8s (not configured: %v)\n", kind, err)
		}
	}
	if active == "" || active == config.ProviderNone {
		fmt.Fprintln(w, "\nNo provider selected; set embedding.provider to use --embed.")
	}
}
