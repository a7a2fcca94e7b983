package main

import (
	"fmt"

	"github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	"github.com/pulumi/pulumi-docker/sdk/v4/go/docker"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

type EcrImage struct {
	repo  *ecr.Repository
	image *docker.Image
}

// NewEcrDockerBuild builds the backend image from app/Dockerfile and pushes
// it to a fresh ECR repository.
func NewEcrDockerBuild(ctx *pulumi.Context) (*EcrImage, error) {
	ecrImage := &EcrImage{}
	repo, err := ecr.NewRepository(ctx, "backend-repository", &ecr.RepositoryArgs{
		ForceDelete: pulumi.BoolPtr(true),
		ImageScanningConfiguration: &ecr.RepositoryImageScanningConfigurationArgs{
			ScanOnPush: pulumi.Bool(true),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Error creating repo: %w", err)
	}
	ecrImage.repo = repo
	authToken := ecr.GetAuthorizationTokenOutput(ctx, ecr.GetAuthorizationTokenOutputArgs{
		RegistryId: repo.RegistryId,
	})
	ecrImage.image, err = docker.NewImage(ctx, "backend-image", &docker.ImageArgs{
		Registry: docker.RegistryArgs{
			Username: authToken.UserName(),
			Password: pulumi.ToSecret(authToken.ApplyT(func(authToken ecr.GetAuthorizationTokenResult) (*string, error) {
				return &authToken.Password, nil
			})).(pulumi.StringPtrOutput),
		},
		Build: docker.DockerBuildArgs{
			Platform:   pulumi.String("linux/arm64"),
			Context:    pulumi.String("."),
			Dockerfile: pulumi.String("app/Dockerfile"),
		},
		ImageName: repo.RepositoryUrl.ApplyT(func(url string) string {
			return fmt.Sprintf("%s:latest", url)
		}).(pulumi.StringOutput),
	})
	if err != nil {
		return nil, fmt.Errorf("Error building image: %w", err)
	}

	return ecrImage, nil
}
