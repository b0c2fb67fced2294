package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AntonStoeckl/synthetic-persons-go/example/shell/config"
	"github.com/AntonStoeckl/synthetic-persons-go/persons"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/oteladapters"
	"github.com/AntonStoeckl/synthetic-persons-go/persons/sink"
)

const (
	serviceName    = "synthetic-persons-generate"
	serviceVersion = "dev"
)

func newRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:           "generate",
		Short:         "Generate synthetic person records and deliver them to a file, database or NATS subject",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), o, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	o.register(cmd)

	return cmd
}

func execute(ctx context.Context, o *options, stdout, stderr io.Writer) error {
	level, err := o.level()
	if err != nil {
		return err
	}

	if err = o.validateDriver(); err != nil {
		return err
	}

	target, err := sink.ParseTarget(o.target)
	if err != nil {
		return err
	}

	// fail on invalid flags before connecting anywhere
	if _, err = o.generationConfig(0); err != nil {
		return err
	}

	handler := slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})
	obs := observers{
		logger:           slog.New(handler),
		contextualLogger: oteladapters.NewSlogBridgeLoggerWithHandler(handler),
	}

	var providers *config.ObservabilityProviders
	if o.observability {
		providers, err = config.NewObservabilityProviders(ctx, serviceName, serviceVersion)
		if err != nil {
			return fmt.Errorf("observability providers: %w", err)
		}
		defer func() { _ = providers.Shutdown(context.WithoutCancel(ctx)) }()

		obs.metricsCollector = oteladapters.NewMetricsCollector(otel.Meter(serviceName))
		obs.tracingCollector = oteladapters.NewTracingCollector(otel.Tracer(serviceName))
	}

	conn, err := connect(ctx, o, target, obs)
	if err != nil {
		return err
	}
	defer conn.close()

	r := &runner{options: o, target: target, conn: conn, obs: obs, providers: providers, out: stdout}

	if o.schedule != "" {
		return r.schedule(ctx)
	}

	if _, err = r.run(ctx, 0); err != nil && !persons.IsKind(err, persons.KindCancelled) {
		return err
	}

	return nil
}
