package main

import (
	"strings"
	"sync"

	"github.com/pulumi/pulumi/sdk/v3/go/common/resource"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type registered struct {
	typeToken    string
	inputs       resource.PropertyMap
	dependencies []string
}

type mocks struct {
	mu        sync.Mutex
	resources map[string]registered
}

func newMocks() *mocks {
	return &mocks{resources: map[string]registered{}}
}

func (m *mocks) NewResource(args pulumi.MockResourceArgs) (string, resource.PropertyMap, error) {
	outputs := args.Inputs.Copy()
	if _, ok := outputs["name"]; !ok {
		outputs["name"] = resource.NewStringProperty(args.Name)
	}
	outputs["arn"] = resource.NewStringProperty("arn:aws:mock:us-east-1:123456789012:" + args.Name)
	switch args.TypeToken {
	case "awsx:ec2:Vpc":
		outputs["vpcId"] = resource.NewStringProperty("vpc-mock")
		outputs["privateSubnetIds"] = resource.NewArrayProperty([]resource.PropertyValue{
			resource.NewStringProperty("subnet-private-a"),
		})
		outputs["publicSubnetIds"] = resource.NewArrayProperty([]resource.PropertyValue{
			resource.NewStringProperty("subnet-public-a"),
		})
	case "docker:index/image:Image":
		outputs["repoDigest"] = resource.NewStringProperty("123456789012.dkr.ecr.us-east-1.amazonaws.com/backend@sha256:abc")
	case "aws:cloudformation/stack:Stack":
		outputs["outputs"] = resource.NewObjectProperty(resource.PropertyMap{
			"ServiceArn": resource.NewStringProperty("arn:aws:servicediscovery:us-east-1:123456789012:service/srv-mock"),
		})
	}

	var deps []string
	if args.RegisterRPC != nil {
		deps = args.RegisterRPC.GetDependencies()
	}
	m.mu.Lock()
	m.resources[args.Name] = registered{
		typeToken:    args.TypeToken,
		inputs:       args.Inputs,
		dependencies: deps,
	}
	m.mu.Unlock()

	return args.Name + "_id", outputs, nil
}

func (m *mocks) Call(args pulumi.MockCallArgs) (resource.PropertyMap, error) {
	switch args.Token {
	case "aws:iam/getPolicyDocument:getPolicyDocument":
		return resource.PropertyMap{"json": resource.NewStringProperty(`{"Version":"2012-10-17"}`)}, nil
	case "aws:index/getRegion:getRegion":
		return resource.PropertyMap{"name": resource.NewStringProperty("us-east-1")}, nil
	case "aws:ecr/getAuthorizationToken:getAuthorizationToken":
		return resource.PropertyMap{
			"userName": resource.NewStringProperty("AWS"),
			"password": resource.NewStringProperty("token"),
		}, nil
	}
	return args.Args, nil
}

// resource returns what was registered under name.
func (m *mocks) resource(name string) (registered, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[name]
	return r, ok
}

// ofType returns every resource registered with typeToken.
func (m *mocks) ofType(typeToken string) []registered {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []registered
	for _, r := range m.resources {
		if r.typeToken == typeToken {
			out = append(out, r)
		}
	}
	return out
}

func (r registered) dependsOn(typeToken, name string) bool {
	suffix := "::" + typeToken + "::" + name
	for _, urn := range r.dependencies {
		if strings.HasSuffix(urn, suffix) {
			return true
		}
	}
	return false
}

// plain strips output and secret wrappers from a registered input value.
func plain(v resource.PropertyValue) resource.PropertyValue {
	for {
		switch {
		case v.IsOutput():
			v = v.OutputValue().Element
		case v.IsSecret():
			v = v.SecretValue().Element
		default:
			return v
		}
	}
}

func withMocks(m *mocks) pulumi.RunOption {
	return pulumi.WithMocks("project", "stack", m)
}

// await blocks until out resolves and returns its value.
func await[T any](out pulumi.Output) T {
	var wg sync.WaitGroup
	var v T
	wg.Add(1)
	out.ApplyT(func(x T) T {
		v = x
		wg.Done()
		return x
	})
	wg.Wait()
	return v
}
