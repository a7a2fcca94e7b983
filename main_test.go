package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mockServiceArn = "arn:aws:servicediscovery:us-east-1:123456789012:service/srv-mock"

// inHandlerSources runs the test from a directory holding stand-ins for every
// handler source, so the program can hash them.
func inHandlerSources(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cmd", "serviceconnect", "main.go"), "package main")
	writeFile(t, filepath.Join(dir, "internal", "serviceconnect", "handler.go"), "package serviceconnect")
	writeFile(t, filepath.Join(dir, "internal", "logging", "logger.go"), "package logging")
	writeFile(t, filepath.Join(dir, "go.mod"), "module ecs-service-connect")
	writeFile(t, filepath.Join(dir, "go.sum"), "")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func deploy(t *testing.T, m *mocks, cfg *StackConfig) {
	t.Helper()
	cfg.applyDefaults()
	err := pulumi.RunErr(func(ctx *pulumi.Context) error {
		network, err := NewNetwork(ctx)
		if err != nil {
			return err
		}
		build, err := NewEcrDockerBuild(ctx)
		if err != nil {
			return err
		}
		if cfg.FrontDoor == FrontDoorAlb {
			return deployBehindAlb(ctx, cfg, network, build)
		}
		return deployBehindApiGateway(ctx, cfg, network, build)
	}, withMocks(m))
	require.NoError(t, err)
}

func registeredInputs(t *testing.T, m *mocks, name string) resource.PropertyMap {
	t.Helper()
	r, ok := m.resource(name)
	require.True(t, ok, "resource %q was not registered", name)
	return r.inputs
}

func field(t *testing.T, obj resource.PropertyMap, key resource.PropertyKey) resource.PropertyValue {
	t.Helper()
	v, ok := obj[key]
	require.True(t, ok, "missing %q", key)
	return plain(v)
}

func TestApiGatewayLookupWaitsForDescribeServicesPolicy(t *testing.T) {
	inHandlerSources(t)
	m := newMocks()
	deploy(t, m, &StackConfig{FrontDoor: FrontDoorApiGateway})

	const policyType = "aws:iam/rolePolicy:RolePolicy"
	const policyName = "service-connect-handler-describe-services"

	lookup, ok := m.resource("service-connect-lookup")
	require.True(t, ok)
	assert.True(t, lookup.dependsOn(policyType, policyName), "lookup dependencies: %v", lookup.dependencies)

	fn, ok := m.resource("service-connect-handler")
	require.True(t, ok)
	assert.True(t, fn.dependsOn(policyType, policyName), "function dependencies: %v", fn.dependencies)
}

func TestApiGatewayServiceConnectConfiguration(t *testing.T) {
	inHandlerSources(t)
	m := newMocks()
	deploy(t, m, &StackConfig{FrontDoor: FrontDoorApiGateway, DiscoveryName: "api"})

	service := registeredInputs(t, m, "service")
	_, hasLoadBalancers := service["loadBalancers"]
	assert.False(t, hasLoadBalancers)

	sc := field(t, service, "serviceConnectConfiguration").ObjectValue()
	assert.True(t, field(t, sc, "enabled").BoolValue())
	assert.Equal(t, "arn:aws:mock:us-east-1:123456789012:backend.internal", field(t, sc, "namespace").StringValue())

	services := field(t, sc, "services").ArrayValue()
	require.Len(t, services, 1)
	entry := plain(services[0]).ObjectValue()
	assert.Equal(t, "api", field(t, entry, "portName").StringValue())
	assert.Equal(t, "api", field(t, entry, "discoveryName").StringValue())

	strategies := field(t, service, "capacityProviderStrategies").ArrayValue()
	require.Len(t, strategies, 1)
	strategy := plain(strategies[0]).ObjectValue()
	assert.Equal(t, "FARGATE", field(t, strategy, "capacityProvider").StringValue())
	assert.Equal(t, float64(1), field(t, strategy, "base").NumberValue())
	assert.Equal(t, float64(50), field(t, strategy, "weight").NumberValue())
}

func TestApiGatewayIntegrationTargetsResolvedServiceArn(t *testing.T) {
	inHandlerSources(t)
	m := newMocks()
	deploy(t, m, &StackConfig{FrontDoor: FrontDoorApiGateway})

	integration := registeredInputs(t, m, "integration")
	assert.Equal(t, mockServiceArn, field(t, integration, "integrationUri").StringValue())
	assert.Equal(t, "1.0", field(t, integration, "payloadFormatVersion").StringValue())
	assert.Equal(t, "ANY", field(t, integration, "integrationMethod").StringValue())
	assert.Equal(t, "HTTP_PROXY", field(t, integration, "integrationType").StringValue())
	assert.Equal(t, "VPC_LINK", field(t, integration, "connectionType").StringValue())

	route := registeredInputs(t, m, "route")
	assert.Equal(t, "$default", field(t, route, "routeKey").StringValue())
}

func TestAlbServiceRegistersWithTargetGroup(t *testing.T) {
	inHandlerSources(t)
	m := newMocks()
	deploy(t, m, &StackConfig{
		FrontDoor: FrontDoorAlb,
		CapacityProviders: []CapacityProviderStrategy{
			{CapacityProvider: "FARGATE", Base: 1, Weight: 1},
			{CapacityProvider: "FARGATE_SPOT", Weight: 3},
		},
	})

	service := registeredInputs(t, m, "service")
	_, hasServiceConnect := service["serviceConnectConfiguration"]
	assert.False(t, hasServiceConnect)

	lbs := field(t, service, "loadBalancers").ArrayValue()
	require.Len(t, lbs, 1)
	target := plain(lbs[0]).ObjectValue()
	assert.Equal(t, "arn:aws:mock:us-east-1:123456789012:backend-tg", field(t, target, "targetGroupArn").StringValue())
	assert.Equal(t, "backend", field(t, target, "containerName").StringValue())
	assert.Equal(t, float64(3001), field(t, target, "containerPort").NumberValue())

	strategies := field(t, service, "capacityProviderStrategies").ArrayValue()
	require.Len(t, strategies, 2)
	spot := plain(strategies[1]).ObjectValue()
	assert.Equal(t, "FARGATE_SPOT", field(t, spot, "capacityProvider").StringValue())
	assert.Equal(t, float64(3), field(t, spot, "weight").NumberValue())

	_, ok := m.resource("service-connect-lookup")
	assert.False(t, ok)
	_, ok = m.resource("integration")
	assert.False(t, ok)
}
