package main

import (
	"fmt"
	"strings"

	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

type FrontDoor string

const (
	FrontDoorApiGateway FrontDoor = "apigateway"
	FrontDoorAlb        FrontDoor = "alb"
)

func parseFrontDoor(s string) (FrontDoor, error) {
	switch FrontDoor(strings.ToLower(s)) {
	case "", FrontDoorApiGateway:
		return FrontDoorApiGateway, nil
	case FrontDoorAlb:
		return FrontDoorAlb, nil
	default:
		return "", fmt.Errorf("unknown frontDoor %q, expected %q or %q", s, FrontDoorApiGateway, FrontDoorAlb)
	}
}

type CapacityProviderStrategy struct {
	CapacityProvider string `json:"capacityProvider"`
	Base             int    `json:"base"`
	Weight           int    `json:"weight"`
}

var defaultCapacityProviderStrategies = []CapacityProviderStrategy{
	{CapacityProvider: "FARGATE", Base: 1, Weight: 50},
}

type StackConfig struct {
	FrontDoor         FrontDoor
	DiscoveryName     string
	ContainerPort     int
	DesiredCount      int
	LogRetentionDays  int
	LogLevel          string
	CapacityProviders []CapacityProviderStrategy
}

func loadStackConfig(ctx *pulumi.Context) (*StackConfig, error) {
	cfg := config.New(ctx, "")

	frontDoor, err := parseFrontDoor(cfg.Get("frontDoor"))
	if err != nil {
		return nil, err
	}

	// An explicit 0 scales the service down, so only an absent key defaults.
	desiredCount := 1
	if cfg.Get("desiredCount") != "" {
		if desiredCount, err = cfg.TryInt("desiredCount"); err != nil {
			return nil, fmt.Errorf("Error reading desiredCount: %w", err)
		}
	}

	sc := &StackConfig{
		FrontDoor:        frontDoor,
		DiscoveryName:    cfg.Get("discoveryName"),
		ContainerPort:    cfg.GetInt("containerPort"),
		DesiredCount:     desiredCount,
		LogRetentionDays: cfg.GetInt("logRetentionDays"),
		LogLevel:         cfg.Get("logLevel"),
	}
	if err := cfg.GetObject("capacityProviders", &sc.CapacityProviders); err != nil {
		return nil, fmt.Errorf("Error reading capacityProviders: %w", err)
	}
	sc.applyDefaults()
	return sc, nil
}

func (c *StackConfig) applyDefaults() {
	if c.DiscoveryName == "" {
		c.DiscoveryName = "default"
	}
	if c.ContainerPort == 0 {
		c.ContainerPort = 3001
	}
	if c.LogRetentionDays == 0 {
		c.LogRetentionDays = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if len(c.CapacityProviders) == 0 {
		c.CapacityProviders = defaultCapacityProviderStrategies
	}
}
