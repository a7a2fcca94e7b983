package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		cfg, err := loadStackConfig(ctx)
		if err != nil {
			return err
		}

		network, err := NewNetwork(ctx)
		if err != nil {
			return err
		}

		build, err := NewEcrDockerBuild(ctx)
		if err != nil {
			return err
		}

		if cfg.FrontDoor == FrontDoorAlb {
			err = deployBehindAlb(ctx, cfg, network, build)
		} else {
			err = deployBehindApiGateway(ctx, cfg, network, build)
		}
		if err != nil {
			return err
		}

		ctx.Export("clusterName", network.cluster.Name)
		ctx.Export("repositoryUrl", build.repo.RepositoryUrl)
		return nil
	})
}

func deployBehindAlb(ctx *pulumi.Context, cfg *StackConfig, network *Network, build *EcrImage) error {
	alb, err := NewAlb(ctx, AlbArgs{
		network: network,
		config:  cfg,
	})
	if err != nil {
		return err
	}

	service, err := NewEcsService(ctx, EcsServiceArgs{
		image:   build.image,
		network: network,
		config:  cfg,
		alb:     alb,
	})
	if err != nil {
		return err
	}

	ctx.Export("serviceName", service.service.Name)
	return nil
}

func deployBehindApiGateway(ctx *pulumi.Context, cfg *StackConfig, network *Network, build *EcrImage) error {
	api, err := NewApi(ctx, ApiArgs{
		network: network,
	})
	if err != nil {
		return err
	}

	service, err := NewEcsService(ctx, EcsServiceArgs{
		image:   build.image,
		network: network,
		config:  cfg,
		api:     api,
	})
	if err != nil {
		return err
	}

	handler, err := NewServiceConnectHandler(ctx, ServiceConnectHandlerArgs{
		service: service,
		config:  cfg,
	})
	if err != nil {
		return err
	}

	lookup, err := NewServiceConnectLookup(ctx, ServiceConnectLookupArgs{
		network: network,
		service: service,
		handler: handler,
		config:  cfg,
	})
	if err != nil {
		return err
	}

	if err := api.registerCloudmapService(ctx, lookup.serviceArn); err != nil {
		return err
	}

	ctx.Export("serviceName", service.service.Name)
	ctx.Export("serviceArn", lookup.serviceArn)
	return nil
}
