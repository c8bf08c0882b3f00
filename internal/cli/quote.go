package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mediastore/storefront/internal/domain"
	"github.com/mediastore/storefront/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type QuoteOptions struct {
	*RootOptions
	Shipping string
}

type quoteOutput struct {
	Cart           domain.Cart   `json:"cart"`
	ShippingMethod string        `json:"shippingMethod"`
	Totals         domain.Totals `json:"totals"`
}

func NewQuoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QuoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the persisted cart with its totals",
		Long: `Load the persisted cart from the configured snapshot store and print it
with its totals as JSON.

Example:
  storefront quote --config storefront.yaml --shipping express`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuote(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Shipping, "shipping", "", "shipping method id (defaults to the configured default)")

	return cmd
}

func runQuote(cmd *cobra.Command, opts *QuoteOptions) error {
	cfg, log, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	st, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close snapshot store", zap.Error(err))
		}
	}()

	engine, err := service.NewCartEngine(st, cfg.Store.Key, cfg.Policy(), log)
	if err != nil {
		return err
	}
	if err := engine.Restore(ctx); err != nil {
		return err
	}

	snap := engine.CurrentSnapshot()
	methodID := opts.Shipping
	if methodID == "" {
		methodID = snap.ShippingMethod
	}
	totals, err := engine.Policy().Quote(snap.Cart.Lines, methodID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(quoteOutput{Cart: snap.Cart, ShippingMethod: methodID, Totals: totals}); err != nil {
		return fmt.Errorf("write quote: %w", err)
	}
	return nil
}
