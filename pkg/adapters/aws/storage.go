package aws

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const (
	BucketResourceType     = "S3Bucket"
	RepositoryResourceType = "EcrRepository"
)

// S3API is the subset of the S3 client used by the adapters.
type S3API interface {
	ListBuckets(ctx context.Context, in *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// ECRAPI is the subset of the ECR client used by the adapters.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
}

// Bucket is an S3 bucket.
type Bucket struct {
	raw s3types.Bucket
}

// Summary implements resource.Resource.
func (b *Bucket) Summary() resource.Summary {
	name := aws.ToString(b.raw.Name)
	return resource.Summary{
		Name:         name,
		IRI:          "arn:aws:s3:::" + name,
		ResourceType: BucketResourceType,
	}
}

// Buckets lists S3 buckets.
type Buckets struct {
	client S3API
}

var _ resource.Lister[*Bucket] = (*Buckets)(nil)

// NewBuckets creates the bucket adapter.
func NewBuckets(client S3API) *Buckets { return &Buckets{client: client} }

// List returns every bucket owned by the caller.
func (a *Buckets) List(ctx context.Context) ([]*Bucket, error) {
	resp, err := a.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	out := make([]*Bucket, 0, len(resp.Buckets))
	for _, raw := range resp.Buckets {
		out = append(out, &Bucket{raw: raw})
	}
	return out, nil
}

// Repository is an ECR repository.
type Repository struct {
	raw ecrtypes.Repository
}

// Summary implements resource.Resource.
func (r *Repository) Summary() resource.Summary {
	return resource.Summary{
		Name:         aws.ToString(r.raw.RepositoryName),
		IRI:          aws.ToString(r.raw.RepositoryArn),
		ResourceType: RepositoryResourceType,
		Detail: map[string]string{
			"uri": aws.ToString(r.raw.RepositoryUri),
		},
	}
}

// Repositories lists ECR repositories.
type Repositories struct {
	client ECRAPI
}

var _ resource.Lister[*Repository] = (*Repositories)(nil)

// NewRepositories creates the repository adapter.
func NewRepositories(client ECRAPI) *Repositories { return &Repositories{client: client} }

// List pages through every repository.
func (a *Repositories) List(ctx context.Context) ([]*Repository, error) {
	var (
		out   []*Repository
		token *string
	)
	for {
		resp, err := a.client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("describe repositories: %w", err)
		}
		for _, raw := range resp.Repositories {
			out = append(out, &Repository{raw: raw})
		}
		if aws.ToString(resp.NextToken) == "" {
			return out, nil
		}
		token = resp.NextToken
	}
}
