package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudformation"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

const (
	serviceConnectResourceType = "Custom::ServiceConnectHandler"
	serviceArnOutput           = "ServiceArn"
)

type ServiceConnectLookupArgs struct {
	network *Network
	service *EcsService
	handler *ServiceConnectHandler
	config  *StackConfig
}

type ServiceConnectLookup struct {
	stack *cloudformation.Stack
	// serviceArn is the Cloud Map service ARN, empty while Service Connect
	// has not registered the discovery name yet.
	serviceArn pulumi.StringOutput
}

type serviceConnectProperties struct {
	serviceToken  pulumi.StringInput
	clusterName   pulumi.StringInput
	serviceName   pulumi.StringInput
	discoveryName string
	handlerHash   string
}

func serviceConnectTemplate(props serviceConnectProperties) pulumi.StringOutput {
	return pulumi.JSONMarshal(map[string]interface{}{
		"AWSTemplateFormatVersion": "2010-09-09",
		"Resources": map[string]interface{}{
			"ServiceConnectHandler": map[string]interface{}{
				"Type": serviceConnectResourceType,
				"Properties": map[string]interface{}{
					"ServiceToken":  props.serviceToken,
					"clusterName":   props.clusterName,
					"serviceName":   props.serviceName,
					"discoveryName": props.discoveryName,
					"handlerHash":   props.handlerHash,
				},
			},
		},
		"Outputs": map[string]interface{}{
			serviceArnOutput: map[string]interface{}{
				"Value": map[string]interface{}{
					"Fn::GetAtt": []string{"ServiceConnectHandler", "serviceArn"},
				},
			},
		},
	})
}

// NewServiceConnectLookup resolves the Cloud Map service ARN that Service
// Connect created for the ECS service. The ARN only exists after the service
// is deployed, so the lookup runs as a CloudFormation custom resource backed
// by the service connect handler.
func NewServiceConnectLookup(ctx *pulumi.Context, args ServiceConnectLookupArgs) (*ServiceConnectLookup, error) {
	lookup := &ServiceConnectLookup{}

	template := serviceConnectTemplate(serviceConnectProperties{
		serviceToken:  args.handler.function.Arn,
		clusterName:   args.network.cluster.Name,
		serviceName:   args.service.service.Name,
		discoveryName: args.config.DiscoveryName,
		handlerHash:   args.handler.sourceHash,
	})

	stack, err := cloudformation.NewStack(ctx, "service-connect-lookup", &cloudformation.StackArgs{
		TemplateBody: template,
	}, pulumi.DependsOn([]pulumi.Resource{
		args.service.service,
		args.handler.policy,
		args.handler.logGroup,
	}))
	if err != nil {
		return nil, fmt.Errorf("Error creating service connect lookup stack: %w", err)
	}
	lookup.stack = stack
	lookup.serviceArn = stack.Outputs.MapIndex(pulumi.String(serviceArnOutput))

	return lookup, nil
}
