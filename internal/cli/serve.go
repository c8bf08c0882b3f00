package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mediastore/storefront/internal/apiclient"
	"github.com/mediastore/storefront/internal/checkout"
	"github.com/mediastore/storefront/internal/config"
	"github.com/mediastore/storefront/internal/events"
	h "github.com/mediastore/storefront/internal/http"
	"github.com/mediastore/storefront/internal/notify"
	"github.com/mediastore/storefront/internal/orders"
	"github.com/mediastore/storefront/internal/service"
	"github.com/mediastore/storefront/internal/session"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the cart and checkout HTTP API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			zap.ReplaceGlobals(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	st, closeStore, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("failed to close snapshot store", zap.Error(err))
		}
	}()

	sess := session.New(cfg.API.AccessToken, cfg.API.RefreshToken)
	var engineOpts []service.Option
	if user, err := sess.CurrentUser(); err == nil {
		engineOpts = append(engineOpts, service.WithUserID(user.ID))
		if !sess.Valid(time.Now()) {
			log.Warn("access token expired, backend calls will be rejected", zap.String("user_id", user.ID))
		}
	}

	engine, err := service.NewCartEngine(st, cfg.Store.Key, cfg.Policy(), log, engineOpts...)
	if err != nil {
		return err
	}
	if err := engine.Restore(ctx); err != nil {
		return err
	}

	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout, apiclient.WithTokenSource(sess))
	orderClient := orders.NewClient(api)
	catalog := orders.NewCatalog(api)

	if cfg.API.SyncCart {
		syncer := orders.NewCartSyncer(api, log, cfg.API.Timeout)
		detach := syncer.Attach(engine)
		defer syncer.Wait()
		defer detach()
	}

	source := uuid.NewString()
	flowOpts := []checkout.FlowOption{
		checkout.WithNotifier(notify.NewLogNotifier(log)),
		checkout.WithLogger(log),
	}
	if cfg.Kafka.Enabled {
		publisher := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, source, log)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn("failed to close kafka writer", zap.Error(err))
			}
		}()
		flowOpts = append(flowOpts, checkout.WithPublisher(publisher))

		// one group per cart key so every session sees every confirmation
		groupID := fmt.Sprintf("%s-%s", cfg.Kafka.GroupID, cfg.Store.Key)
		poller := events.NewPoller(engine, cfg.Kafka.Brokers, cfg.Kafka.Topic, groupID, source, log)
		go poller.Run(ctx)
		defer poller.Close()
	}

	flow := checkout.NewFlow(checkout.NewAssembler(cfg.Policy()), engine, orderClient, flowOpts...)

	router := h.NewRouter(h.RouterConfig{
		Engine:             engine,
		Catalog:            catalog,
		Products:           catalog,
		Orders:             orderClient,
		Session:            sess,
		Flow:               flow,
		Prefiller:          sess,
		Logger:             log,
		RequestTimeout:     cfg.HTTP.RequestTimeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}
