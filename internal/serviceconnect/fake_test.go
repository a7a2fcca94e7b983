package serviceconnect

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

type fakeECS struct {
	out   *ecs.DescribeServicesOutput
	err   error
	calls []*ecs.DescribeServicesInput
}

func (f *fakeECS) DescribeServices(_ context.Context, in *ecs.DescribeServicesInput, _ ...func(*ecs.Options)) (*ecs.DescribeServicesOutput, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return nil, f.err
	}
	if f.out == nil {
		return &ecs.DescribeServicesOutput{}, nil
	}
	return f.out, nil
}

func serviceWith(deployments ...types.Deployment) *ecs.DescribeServicesOutput {
	return &ecs.DescribeServicesOutput{
		Services: []types.Service{{
			ServiceName: aws.String("backend"),
			Deployments: deployments,
		}},
	}
}

func deploymentWith(resources ...types.ServiceConnectServiceResource) types.Deployment {
	return types.Deployment{
		Id:                      aws.String("ecs-svc/1"),
		ServiceConnectResources: resources,
	}
}

func resource(name, arn string) types.ServiceConnectServiceResource {
	return types.ServiceConnectServiceResource{
		DiscoveryName: aws.String(name),
		DiscoveryArn:  aws.String(arn),
	}
}
