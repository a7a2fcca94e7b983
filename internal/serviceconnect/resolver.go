package serviceconnect

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
)

// Resolver looks up the Cloud Map service that ECS Service Connect created
// for a service.
type Resolver struct {
	client ecs.DescribeServicesAPIClient
}

func NewResolver(client ecs.DescribeServicesAPIClient) *Resolver {
	return &Resolver{client: client}
}

// Resolve returns the discovery ARN registered under discoveryName by the
// first deployment of the service. An empty string with a nil error means the
// deployment has Service Connect resources but none with that name.
func (r *Resolver) Resolve(ctx context.Context, clusterName, serviceName, discoveryName string) (string, error) {
	out, err := r.client.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(clusterName),
		Services: []string{serviceName},
	})
	if err != nil {
		return "", fmt.Errorf("describe service %s in cluster %s: %w", serviceName, clusterName, err)
	}

	if len(out.Services) == 0 {
		return "", fmt.Errorf("service %s in cluster %s: %w", serviceName, clusterName, ErrServiceNotFound)
	}
	service := out.Services[0]

	if len(service.Deployments) == 0 {
		return "", fmt.Errorf("service %s: %w", serviceName, ErrNoDeployments)
	}

	// Only the first deployment is consulted, even mid-rollout.
	resources := service.Deployments[0].ServiceConnectResources
	if len(resources) == 0 {
		return "", fmt.Errorf("service %s: %w", serviceName, ErrNoServiceConnectResources)
	}

	for _, res := range resources {
		if aws.ToString(res.DiscoveryName) == discoveryName {
			return aws.ToString(res.DiscoveryArn), nil
		}
	}
	return "", nil
}
