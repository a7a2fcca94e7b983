package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ecs"

	"ecs-service-connect/internal/logging"
	"ecs-service-connect/internal/serviceconnect"
)

func main() {
	logger := logging.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		logger.Error("load aws config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	resolver := serviceconnect.NewResolver(ecs.NewFromConfig(cfg))
	handler := serviceconnect.NewHandler(resolver, logger)

	lambda.Start(cfn.LambdaWrap(handler.CustomResourceFunction()))
}
