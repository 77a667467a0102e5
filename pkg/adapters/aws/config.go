package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Clients bundles the adapters backed by one AWS configuration.
type Clients struct {
	Instances    *Instances
	Images       *Images
	Roles        *Roles
	Users        *Users
	Buckets      *Buckets
	Repositories *Repositories
}

// Load resolves the default credential chain. An empty region falls back
// to the shared config and environment.
func Load(ctx context.Context, region string) (*Clients, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewClients(cfg), nil
}

// NewClients builds every adapter from cfg.
func NewClients(cfg aws.Config) *Clients {
	ec2Client := ec2.NewFromConfig(cfg)
	iamClient := iam.NewFromConfig(cfg)
	return &Clients{
		Instances:    NewInstances(ec2Client),
		Images:       NewImages(ec2Client),
		Roles:        NewRoles(iamClient),
		Users:        NewUsers(iamClient),
		Buckets:      NewBuckets(s3.NewFromConfig(cfg)),
		Repositories: NewRepositories(ecr.NewFromConfig(cfg)),
	}
}
