package main

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/cloudwatch"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/iam"
	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/lambda"
	"github.com/pulumi/pulumi-command/sdk/go/command/local"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// handlerSources are the files and directories compiled into the custom resource
// handler. Their hash is passed to the custom resource so code changes
// trigger an Update.
var handlerSources = []string{
	"cmd/serviceconnect",
	"internal/serviceconnect",
	"internal/logging",
	"go.mod",
	"go.sum",
}

type ServiceConnectHandler struct {
	function   *lambda.Function
	policy     *iam.RolePolicy
	logGroup   *cloudwatch.LogGroup
	sourceHash string
}

type ServiceConnectHandlerArgs struct {
	service *EcsService
	config  *StackConfig
}

func buildCommand() string {
	return strings.Join([]string{
		"rm -rf asset && mkdir asset",
		"GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -mod=readonly -tags lambda.norpc -o ./asset/bootstrap ./cmd/serviceconnect",
		"chmod +x ./asset/bootstrap",
	}, " && ")
}

func describeServicesPolicy(service pulumi.StringInput) pulumi.StringOutput {
	return pulumi.JSONMarshal(map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":   "Allow",
				"Action":   []string{"ecs:DescribeServices"},
				"Resource": []interface{}{service},
			},
		},
	})
}

func NewServiceConnectHandler(ctx *pulumi.Context, args ServiceConnectHandlerArgs) (*ServiceConnectHandler, error) {
	h := &ServiceConnectHandler{}

	sourceHash, err := hashDirectories(handlerSources...)
	if err != nil {
		return nil, fmt.Errorf("Error hashing handler sources: %w", err)
	}
	h.sourceHash = sourceHash

	_, err = local.Run(ctx, &local.RunArgs{
		Dir:        pulumi.StringRef("."),
		Command:    buildCommand(),
		AssetPaths: []string{"asset/bootstrap"},
	})
	if err != nil {
		return nil, fmt.Errorf("Error running local command: %w", err)
	}

	assumeRolePolicy, err := iam.GetPolicyDocument(ctx, &iam.GetPolicyDocumentArgs{
		Statements: []iam.GetPolicyDocumentStatement{
			{
				Actions: []string{"sts:AssumeRole"},
				Principals: []iam.GetPolicyDocumentStatementPrincipal{
					{Type: "Service", Identifiers: []string{"lambda.amazonaws.com"}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating AssumeRolePolicy: %w", err)
	}
	executionRole, err := iam.NewRole(ctx, "service-connect-handler-role", &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(assumeRolePolicy.Json),
		ManagedPolicyArns: pulumi.ToStringArray([]string{
			string(iam.ManagedPolicyAWSLambdaBasicExecutionRole),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating execution role: %w", err)
	}
	h.policy, err = iam.NewRolePolicy(ctx, "service-connect-handler-describe-services", &iam.RolePolicyArgs{
		Role:   executionRole.Name,
		Policy: describeServicesPolicy(args.service.service.ID().ToStringOutput()),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating describe services policy: %w", err)
	}

	code := pulumi.NewAssetArchive(map[string]interface{}{"bootstrap": pulumi.NewFileAsset("./asset/bootstrap")})
	h.function, err = lambda.NewFunction(ctx, "service-connect-handler", &lambda.FunctionArgs{
		Architectures: pulumi.ToStringArray([]string{"arm64"}),
		Role:          executionRole.Arn,
		Code:          code,
		Handler:       pulumi.String("bootstrap"),
		Runtime:       pulumi.String("provided.al2023"),
		Timeout:       pulumi.IntPtr(60),
		Environment: &lambda.FunctionEnvironmentArgs{
			Variables: pulumi.StringMap{
				"LOG_LEVEL": pulumi.String(args.config.LogLevel),
			},
		},
	}, pulumi.DependsOn([]pulumi.Resource{h.policy}))
	if err != nil {
		return nil, fmt.Errorf("Error creating lambda function: %w", err)
	}

	h.logGroup, err = cloudwatch.NewLogGroup(ctx, "service-connect-handler-logs", &cloudwatch.LogGroupArgs{
		Name:            pulumi.Sprintf("/aws/lambda/%s", h.function.Name),
		RetentionInDays: pulumi.IntPtr(args.config.LogRetentionDays),
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating lambda log group: %w", err)
	}

	return h, nil
}
