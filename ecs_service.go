package main

import (
	"fmt"
	"strconv"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecs"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const containerName = "backend"

type EcsServiceArgs struct {
	image   *docker.Image
	network *Network
	config  *StackConfig
	// Exactly one front door is set.
	api *Api
	alb *Alb
}

type EcsService struct {
	service *ecs.Service
	port    int
	sg      *ec2.SecurityGroup
}

func containerDefinitions(args EcsServiceArgs, logGroup *cloudwatch.LogGroup, region string) pulumi.StringOutput {
	cfg := args.config
	return pulumi.JSONMarshal([]interface{}{
		map[string]interface{}{
			"name":      containerName,
			"image":     args.image.RepoDigest,
			"essential": true,
			"portMappings": []map[string]interface{}{
				{
					"name":          cfg.DiscoveryName,
					"containerPort": cfg.ContainerPort,
					"protocol":      "tcp",
					"appProtocol":   "http",
				},
			},
			"environment": []map[string]interface{}{
				{"name": "PORT", "value": strconv.Itoa(cfg.ContainerPort)},
				{"name": "LOG_LEVEL", "value": cfg.LogLevel},
			},
			"healthCheck": map[string]interface{}{
				"command":     []string{"CMD", "/backend", "healthcheck"},
				"interval":    60,
				"retries":     3,
				"startPeriod": 60,
				"timeout":     5,
			},
			"logConfiguration": map[string]interface{}{
				"logDriver": "awslogs",
				"options": map[string]interface{}{
					"awslogs-group":         logGroup.Name,
					"awslogs-region":        region,
					"awslogs-stream-prefix": containerName,
					"mode":                  "non-blocking",
					"max-buffer-size":       "25m",
				},
			},
		},
	})
}

func capacityProviderStrategies(strategies []CapacityProviderStrategy) ecs.ServiceCapacityProviderStrategyArray {
	out := ecs.ServiceCapacityProviderStrategyArray{}
	for _, s := range strategies {
		out = append(out, ecs.ServiceCapacityProviderStrategyArgs{
			CapacityProvider: pulumi.String(s.CapacityProvider),
			Base:             pulumi.IntPtr(s.Base),
			Weight:           pulumi.IntPtr(s.Weight),
		})
	}
	return out
}

func ecsTasksAssumeRolePolicy(ctx *pulumi.Context) (*iam.GetPolicyDocumentResult, error) {
	return iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Actions: []string{"sts:AssumeRole"},
				Principals: []iam.GetPolicyDocumentStatementPrincipal{
					{Type: "Service", Identifiers: []string{"ecs-tasks.amazonaws.com"}},
				},
			},
		},
	})
}

func NewEcsService(ctx *pulumi.Context, args EcsServiceArgs) (*EcsService, error) {
	cfg := args.config
	ecsService := &EcsService{
		port: cfg.ContainerPort,
	}
	region, err := aws.GetRegion(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Error looking up region: %w", err)
	}
	logGroup, err := cloudwatch.NewLogGroup(ctx, "backend-log-group", &cloudwatch.LogGroupArgs{
		RetentionInDays: pulumi.IntPtr(cfg.LogRetentionDays),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating log group: %w", err)
	}

	assumeRolePolicy, err := ecsTasksAssumeRolePolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("Error creating assume role policy: %w", err)
	}
	executionRole, err := iam.NewRole(ctx, "execution-role", &iam.RoleArgs{
		AssumeRolePolicy:  pulumi.String(assumeRolePolicy.Json),
		ManagedPolicyArns: pulumi.ToStringArray([]string{string(iam.ManagedPolicyAmazonECSTaskExecutionRolePolicy)}),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating execution role: %w", err)
	}
	taskRole, err := iam.NewRole(ctx, "task-role", &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(assumeRolePolicy.Json),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating task role: %w", err)
	}
	taskdef, err := ecs.NewTaskDefinition(ctx, "taskdef", &ecs.TaskDefinitionArgs{
		ContainerDefinitions:    containerDefinitions(args, logGroup, region.Name),
		Family:                  pulumi.String("backend"),
		Cpu:                     pulumi.String("256"),
		ExecutionRoleArn:        executionRole.Arn,
		Memory:                  pulumi.String("512"),
		TaskRoleArn:             taskRole.Arn,
		RequiresCompatibilities: pulumi.ToStringArray([]string{"FARGATE"}),
		NetworkMode:             pulumi.String("awsvpc"),
		RuntimePlatform: ecs.TaskDefinitionRuntimePlatformArgs{
			CpuArchitecture:       pulumi.String("ARM64"),
			OperatingSystemFamily: pulumi.String("LINUX"),
		},
	}, pulumi.DependsOn([]pulumi.Resource{args.image}))
	if err != nil {
		return nil, fmt.Errorf("Error creating taskdef: %w", err)
	}

	var peer *ec2.SecurityGroup
	if args.api != nil {
		peer = args.api.sg
	} else {
		peer = args.alb.sg
	}
	sg, err := ec2.NewSecurityGroup(ctx, "service-sg", &ec2.SecurityGroupArgs{
		Egress:              egressAll(),
		VpcId:               args.network.vpc.VpcId,
		Ingress:             ingress(cfg.ContainerPort, peer),
		RevokeRulesOnDelete: pulumi.BoolPtr(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating security group: %w", err)
	}
	ecsService.sg = sg

	serviceArgs := &ecs.ServiceArgs{
		Cluster:                         args.network.cluster.Arn,
		DesiredCount:                    pulumi.IntPtr(cfg.DesiredCount),
		DeploymentMaximumPercent:        pulumi.IntPtr(200),
		DeploymentMinimumHealthyPercent: pulumi.IntPtr(100),
		DeploymentCircuitBreaker: ecs.ServiceDeploymentCircuitBreakerArgs{
			Enable:   pulumi.Bool(true),
			Rollback: pulumi.Bool(true),
		},
		CapacityProviderStrategies: capacityProviderStrategies(cfg.CapacityProviders),
		WaitForSteadyState:         pulumi.BoolPtr(true),
		NetworkConfiguration: ecs.ServiceNetworkConfigurationArgs{
			AssignPublicIp: pulumi.BoolPtr(false),
			SecurityGroups: pulumi.StringArray{ecsService.sg.ID()},
			Subnets:        args.network.vpc.PrivateSubnetIds,
		},
		TaskDefinition: taskdef.Arn,
	}
	deps := []pulumi.Resource{args.network.capacity}

	if args.api != nil {
		// The API Gateway integration targets the Cloud Map service that
		// Service Connect registers under the port mapping name.
		serviceArgs.ServiceConnectConfiguration = &ecs.ServiceServiceConnectConfigurationArgs{
			Enabled:   pulumi.Bool(true),
			Namespace: args.network.namespace.Arn,
			Services: ecs.ServiceServiceConnectConfigurationServiceArray{
				ecs.ServiceServiceConnectConfigurationServiceArgs{
					PortName:      pulumi.String(cfg.DiscoveryName),
					DiscoveryName: pulumi.String(cfg.DiscoveryName),
				},
			},
		}
	} else {
		serviceArgs.LoadBalancers = ecs.ServiceLoadBalancerArray{
			ecs.ServiceLoadBalancerArgs{
				TargetGroupArn: args.alb.targetGroup.Arn,
				ContainerName:  pulumi.String(containerName),
				ContainerPort:  pulumi.Int(cfg.ContainerPort),
			},
		}
		serviceArgs.HealthCheckGracePeriodSeconds = pulumi.IntPtr(60)
		deps = append(deps, args.alb.listener)
	}

	ecsService.service, err = ecs.NewService(ctx, "service", serviceArgs, pulumi.DependsOn(deps))
	if err != nil {
		return nil, fmt.Errorf("Error creating service: %w", err)
	}

	return ecsService, nil
}
