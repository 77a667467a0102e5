package aws

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/iam/types"
)

const (
	RoleResourceType = "IamRole"
	UserResourceType = "IamUser"
)

// IAMAPI is the subset of the IAM client used by the adapters.
type IAMAPI interface {
	ListRoles(ctx context.Context, in *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
	ListUsers(ctx context.Context, in *iam.ListUsersInput, optFns ...func(*iam.Options)) (*iam.ListUsersOutput, error)
}

// Role is an IAM role.
type Role struct {
	raw types.Role
}

// Summary implements resource.Resource.
func (r *Role) Summary() resource.Summary {
	return resource.Summary{
		Name:         aws.ToString(r.raw.RoleName),
		IRI:          aws.ToString(r.raw.Arn),
		ResourceType: RoleResourceType,
		Description:  aws.ToString(r.raw.Description),
	}
}

// Roles lists IAM roles.
type Roles struct {
	client IAMAPI
}

var _ resource.Lister[*Role] = (*Roles)(nil)

// NewRoles creates the role adapter.
func NewRoles(client IAMAPI) *Roles { return &Roles{client: client} }

// List pages through every role.
func (a *Roles) List(ctx context.Context) ([]*Role, error) {
	var (
		out    []*Role
		marker *string
	)
	for {
		resp, err := a.client.ListRoles(ctx, &iam.ListRolesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("list roles: %w", err)
		}
		for _, raw := range resp.Roles {
			out = append(out, &Role{raw: raw})
		}
		if !resp.IsTruncated {
			return out, nil
		}
		marker = resp.Marker
	}
}

// User is an IAM user.
type User struct {
	raw types.User
}

// Summary implements resource.Resource.
func (u *User) Summary() resource.Summary {
	return resource.Summary{
		Name:         aws.ToString(u.raw.UserName),
		IRI:          aws.ToString(u.raw.Arn),
		ResourceType: UserResourceType,
	}
}

// Users lists IAM users.
type Users struct {
	client IAMAPI
}

var _ resource.Lister[*User] = (*Users)(nil)

// NewUsers creates the user adapter.
func NewUsers(client IAMAPI) *Users { return &Users{client: client} }

// List pages through every user.
func (a *Users) List(ctx context.Context) ([]*User, error) {
	var (
		out    []*User
		marker *string
	)
	for {
		resp, err := a.client.ListUsers(ctx, &iam.ListUsersInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, raw := range resp.Users {
			out = append(out, &User{raw: raw})
		}
		if !resp.IsTruncated {
			return out, nil
		}
		marker = resp.Marker
	}
}
