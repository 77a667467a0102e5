package aws

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

const (
	InstanceIRIPrefix = "aws:ec2/instance/"
	ImageIRIPrefix    = "aws:ec2/image/"

	InstanceResourceType = "EC2Instance"
	ImageResourceType    = "EC2Image"
)

// EC2API is the subset of the EC2 client used by the adapters.
type EC2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	RunInstances(ctx context.Context, in *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	TerminateInstances(ctx context.Context, in *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	DescribeImages(ctx context.Context, in *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
}

// Instance is the server's view of an EC2 instance as last listed.
type Instance struct {
	raw types.Instance
}

// ID returns the EC2 instance id.
func (i *Instance) ID() string { return aws.ToString(i.raw.InstanceId) }

// Summary implements resource.Resource.
func (i *Instance) Summary() resource.Summary {
	return resource.Summary{
		Name:         i.ID(),
		IRI:          InstanceIRIPrefix + i.ID(),
		ResourceType: InstanceResourceType,
		Description:  "An EC2 Instance",
		Detail: map[string]string{
			"instance_type": string(i.raw.InstanceType),
			"image_id":      aws.ToString(i.raw.ImageId),
		},
	}
}

func (i *Instance) stateName() types.InstanceStateName {
	if i.raw.State == nil {
		return ""
	}
	return i.raw.State.Name
}

// State implements resource.Stateful.
func (i *Instance) State() string {
	switch i.stateName() {
	case types.InstanceStateNamePending:
		return "Pending"
	case types.InstanceStateNameRunning:
		return "Running"
	case types.InstanceStateNameStopping:
		return "Stopping"
	case types.InstanceStateNameStopped:
		return "Stopped"
	case types.InstanceStateNameShuttingDown:
		return "Shutting down"
	case types.InstanceStateNameTerminated:
		return "Terminated"
	case "":
		return "unknown"
	default:
		return string(i.stateName())
	}
}

// IsTransient implements resource.Stateful.
func (i *Instance) IsTransient() bool {
	switch i.stateName() {
	case types.InstanceStateNamePending, types.InstanceStateNameStopping, types.InstanceStateNameShuttingDown:
		return true
	default:
		return false
	}
}

// Instances lists, creates and terminates EC2 instances. Listed and
// created instances are remembered for GetResource.
type Instances struct {
	client EC2API

	// InstanceType is used for new instances.
	InstanceType types.InstanceType

	mu    sync.Mutex
	known map[string]*Instance
}

var (
	_ resource.Lister[*Instance]   = (*Instances)(nil)
	_ resource.Creator[*Instance]  = (*Instances)(nil)
	_ resource.Registry[*Instance] = (*Instances)(nil)
	_ resource.Deleter             = (*Instances)(nil)
)

// NewInstances creates the instance adapter.
func NewInstances(client EC2API) *Instances {
	return &Instances{
		client:       client,
		InstanceType: types.InstanceTypeT4gNano,
		known:        make(map[string]*Instance),
	}
}

// List describes every instance visible to the caller.
func (a *Instances) List(ctx context.Context) ([]*Instance, error) {
	var (
		out   []*Instance
		token *string
	)
	for {
		resp, err := a.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{NextToken: token})
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}
		for _, res := range resp.Reservations {
			for _, raw := range res.Instances {
				out = append(out, &Instance{raw: raw})
			}
		}
		if aws.ToString(resp.NextToken) == "" {
			break
		}
		token = resp.NextToken
	}

	a.mu.Lock()
	clear(a.known)
	for _, inst := range out {
		a.known[InstanceIRIPrefix+inst.ID()] = inst
	}
	a.mu.Unlock()

	return out, nil
}

// Create launches one instance from input["image_id"], which may be a
// bare AMI id or an image IRI.
func (a *Instances) Create(ctx context.Context, input map[string]string) (*Instance, error) {
	image := lastSegment(input["image_id"])
	if image == "" {
		return nil, fmt.Errorf("run instances: image_id is required")
	}

	resp, err := a.client.RunInstances(ctx, &ec2.RunInstancesInput{
		ImageId:      aws.String(image),
		InstanceType: a.InstanceType,
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("run instances: %w", err)
	}
	if len(resp.Instances) == 0 {
		return nil, fmt.Errorf("run instances: no instance returned")
	}

	inst := &Instance{raw: resp.Instances[0]}
	a.mu.Lock()
	a.known[InstanceIRIPrefix+inst.ID()] = inst
	a.mu.Unlock()
	return inst, nil
}

// GetResource returns a previously listed or created instance.
func (a *Instances) GetResource(_ context.Context, iri string) (*Instance, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	inst, ok := a.known[iri]
	return inst, ok
}

// Delete terminates the instance identified by iri.
func (a *Instances) Delete(ctx context.Context, iri string) error {
	if !strings.HasPrefix(iri, InstanceIRIPrefix) {
		return fmt.Errorf("%w: %s", resource.ErrNotFound, iri)
	}
	id := strings.TrimPrefix(iri, InstanceIRIPrefix)

	if _, err := a.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{id},
	}); err != nil {
		return fmt.Errorf("terminate instance %s: %w", id, err)
	}

	a.mu.Lock()
	delete(a.known, iri)
	a.mu.Unlock()
	return nil
}

// Image is an AMI available for new instances.
type Image struct {
	raw types.Image
}

// ID returns the AMI id.
func (i *Image) ID() string { return aws.ToString(i.raw.ImageId) }

// Summary implements resource.Resource.
func (i *Image) Summary() resource.Summary {
	name := aws.ToString(i.raw.Name)
	if name == "" {
		name = i.ID()
	}
	return resource.Summary{
		Name:         name,
		IRI:          ImageIRIPrefix + i.ID(),
		ResourceType: ImageResourceType,
		Description:  aws.ToString(i.raw.Description),
		Detail: map[string]string{
			"architecture": string(i.raw.Architecture),
		},
	}
}

// Images lists public arm64 EBS images owned by the caller or Amazon.
type Images struct {
	client EC2API
}

var _ resource.Lister[*Image] = (*Images)(nil)

// NewImages creates the image adapter.
func NewImages(client EC2API) *Images {
	return &Images{client: client}
}

// List describes the matching images.
func (a *Images) List(ctx context.Context) ([]*Image, error) {
	resp, err := a.client.DescribeImages(ctx, &ec2.DescribeImagesInput{
		Owners: []string{"self", "amazon"},
		Filters: []types.Filter{
			{Name: aws.String("root-device-type"), Values: []string{"ebs"}},
			{Name: aws.String("state"), Values: []string{"available"}},
			{Name: aws.String("is-public"), Values: []string{"true"}},
			{Name: aws.String("architecture"), Values: []string{"arm64"}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe images: %w", err)
	}

	out := make([]*Image, 0, len(resp.Images))
	for _, raw := range resp.Images {
		out = append(out, &Image{raw: raw})
	}
	return out, nil
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
