package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/spf13/cobra"

	"ecs-service-connect/internal/logging"
	"ecs-service-connect/internal/serviceconnect"
)

type clientFactory func(ctx context.Context, region string) (ecs.DescribeServicesAPIClient, error)

func defaultClient(ctx context.Context, region string) (ecs.DescribeServicesAPIClient, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return ecs.NewFromConfig(cfg), nil
}

type rootOptions struct {
	cluster       string
	service       string
	discoveryName string
	region        string
	logLevel      string
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "servicearn",
		Short: "Resolve the Cloud Map service ARN behind an ECS Service Connect service",
		Long: `servicearn runs the same lookup as the service connect custom resource:
it describes the ECS service, takes its first deployment and prints the
discovery ARN registered under the requested discovery name.

An empty line means the deployment has Service Connect resources but none
with that name.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.New(cmd.ErrOrStderr(), opts.logLevel)

			client, err := newClient(cmd.Context(), opts.region)
			if err != nil {
				return err
			}

			logger.Debug("resolving",
				slog.String("cluster", opts.cluster),
				slog.String("service", opts.service),
				slog.String("discoveryName", opts.discoveryName),
			)
			arn, err := serviceconnect.NewResolver(client).Resolve(cmd.Context(), opts.cluster, opts.service, opts.discoveryName)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), arn)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.cluster, "cluster", "", "ECS cluster name or ARN")
	flags.StringVar(&opts.service, "service", "", "ECS service name or ARN")
	flags.StringVar(&opts.discoveryName, "discovery-name", "default", "Service Connect discovery name")
	flags.StringVar(&opts.region, "region", "", "AWS region (defaults to the SDK's resolution chain)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	_ = cmd.MarkFlagRequired("cluster")
	_ = cmd.MarkFlagRequired("service")

	return cmd
}
