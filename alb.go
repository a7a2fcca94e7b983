package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ec2"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lb"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type AlbArgs struct {
	network *Network
	config  *StackConfig
}

type Alb struct {
	lb          *lb.LoadBalancer
	targetGroup *lb.TargetGroup
	listener    *lb.Listener
	sg          *ec2.SecurityGroup
}

// NewAlb fronts the service with an internet-facing ALB listening on 80.
func NewAlb(ctx *pulumi.Context, args AlbArgs) (*Alb, error) {
	alb := &Alb{}
	var err error

	alb.sg, err = ec2.NewSecurityGroup(ctx, "alb-sg", &ec2.SecurityGroupArgs{
		VpcId:               args.network.vpc.VpcId,
		Ingress:             ingressAnywhere(80),
		Egress:              egressAll(),
		RevokeRulesOnDelete: pulumi.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating alb security group: %w", err)
	}

	alb.lb, err = lb.NewLoadBalancer(ctx, "alb", &lb.LoadBalancerArgs{
		LoadBalancerType: pulumi.String("application"),
		SecurityGroups:   pulumi.StringArray{alb.sg.ID()},
		Subnets:          args.network.vpc.PublicSubnetIds,
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating load balancer: %w", err)
	}

	alb.targetGroup, err = lb.NewTargetGroup(ctx, "backend-tg", &lb.TargetGroupArgs{
		Port:                pulumi.IntPtr(args.config.ContainerPort),
		Protocol:            pulumi.String("HTTP"),
		TargetType:          pulumi.String("ip"),
		VpcId:               args.network.vpc.VpcId,
		DeregistrationDelay: pulumi.IntPtr(10),
		HealthCheck: &lb.TargetGroupHealthCheckArgs{
			Path:     pulumi.String("/"),
			Interval: pulumi.IntPtr(10),
			Timeout:  pulumi.IntPtr(5),
			Matcher:  pulumi.String("200"),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating target group: %w", err)
	}

	alb.listener, err = lb.NewListener(ctx, "http-listener", &lb.ListenerArgs{
		LoadBalancerArn: alb.lb.Arn,
		Port:            pulumi.IntPtr(80),
		Protocol:        pulumi.String("HTTP"),
		DefaultActions: lb.ListenerDefaultActionArray{
			lb.ListenerDefaultActionArgs{
				Type:           pulumi.String("forward"),
				TargetGroupArn: alb.targetGroup.Arn,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating listener: %w", err)
	}

	ctx.Export("url", pulumi.Sprintf("http://%s", alb.lb.DnsName))

	return alb, nil
}
