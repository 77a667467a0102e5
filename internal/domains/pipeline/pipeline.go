// Package pipeline offers SAM CLI pipelines: a template flow driven by the
// template's questions manifest, and a stage flow that runs
// `sam pipeline bootstrap` when completed.
package pipeline

import (
	"context"
	"fmt"

	"github.com/aretw0/formwork/internal/catalog"
	"github.com/aretw0/formwork/internal/domains"
	"github.com/aretw0/formwork/internal/domains/spawned"
	"github.com/aretw0/formwork/pkg/dsl"
	"github.com/aretw0/formwork/pkg/flow"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/resource"
	"github.com/aretw0/formwork/pkg/schema"
	"github.com/aretw0/formwork/pkg/tools"
)

const (
	Scope        = "aws:sam-cli"
	ResourceType = "SAMCLI"

	FeatureCreatePipeline = "create-sam-pipeline"
	FeatureCreateStage    = "create-sam-pipeline-stage"
	FeatureListTemplates  = "list-sam-pipeline-templates"
	FeatureListBuckets    = "list-s3-buckets"
	FeatureListRoles      = "list-iam-roles"
	FeatureListUsers      = "list-iam-users"
	FeatureListRepos      = "list-ecr-repositories"

	// TemplateField is the state key holding the chosen template.
	TemplateField = "template_id"

	// DefaultCommand is the SAM CLI executable.
	DefaultCommand = "sam"
)

// Executor spawns tools.
type Executor interface {
	Execute(ctx context.Context, req tools.Request) (*tools.SpawnedTool, error)
}

// Resources lists the AWS resources a stage refers to. Nil listers are
// not offered as features.
type Resources struct {
	Buckets      registry.ListFunc
	Roles        registry.ListFunc
	Users        registry.ListFunc
	Repositories registry.ListFunc
}

// Domain wires pipeline templates and stage bootstrapping into the registry.
type Domain struct {
	templates *Templates
	executor  Executor
	command   string
	resources Resources
}

// Option configures a Domain.
type Option func(*Domain)

// WithCommand overrides the SAM CLI executable.
func WithCommand(command string) Option {
	return func(d *Domain) {
		if command != "" {
			d.command = command
		}
	}
}

// WithResources offers the given resource listers.
func WithResources(r Resources) Option {
	return func(d *Domain) {
		d.resources = r
	}
}

// New creates the pipeline domain.
func New(templates *Templates, executor Executor, opts ...Option) *Domain {
	d := &Domain{
		templates: templates,
		executor:  executor,
		command:   DefaultCommand,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Summary describes the SAM CLI scope.
func Summary() resource.Summary {
	return resource.Summary{
		Name:         "SAM CLI",
		IRI:          Scope,
		ResourceType: ResourceType,
		Description:  "AWS Serverless Application Model CLI",
	}
}

func (d *Domain) templateSchema() schema.Schema {
	return dsl.New().
		Add(TemplateField).
		Name("Pipeline template").
		Type(TemplateResourceType).
		Describe("The template used to initialize the pipeline").
		Options(d.templates.Options()...).
		Required().
		Order(0).
		MustBuild()
}

// NewTemplateFlow starts a pipeline flow. Until a known template is chosen
// the only field is TemplateField; afterwards the schema is generated from
// the template's questions.
func (d *Domain) NewTemplateFlow() *flow.Flow {
	return flow.New(d.templateSchema(), flow.WithRecomputer(flow.RecomputeFunc(d.recompute)))
}

func (d *Domain) recompute(_ schema.Schema, state flow.State) schema.Schema {
	id, ok := state.String(TemplateField)
	if !ok {
		return d.templateSchema()
	}
	m, err := d.templates.Manifest(id)
	if err != nil {
		return d.templateSchema()
	}
	return schema.Generate(m, state)
}

// StageSchema is the schema of the stage flow.
func StageSchema() schema.Schema {
	return dsl.New().
		Add("name").
		Name("Stage name").
		Describe("Name for the stage").
		Required().
		Add("region").
		Name("Region").
		Type("Region").
		Describe("The region where these resources will be created").
		Required().
		Add("pipeline_user").
		Name("Pipeline User ARN").
		Type("IamUser").
		Describe("An IAM user used to manage the pipeline").
		Add("pipeline_execution_role").
		Name("Pipeline Execution Role ARN").
		Type("IamRole").
		Describe("An IAM role used to execute the pipeline").
		Add("cloudformation_execution_role").
		Name("CloudFormation Execution Role ARN").
		Type("IamRole").
		Describe("An IAM role used to deploy pipeline resources").
		Add("artifact_bucket").
		Name("Artifact Bucket").
		Type("S3Bucket").
		Describe("Bucket used to store pipeline artifacts").
		Add("image_repository").
		Name("ECR Image Repository").
		Type("EcrRepository").
		Describe("Repository to store image-based lambdas").
		MustBuild()
}

var stageFlags = []struct {
	key  string
	flag string
}{
	{"pipeline_user", "--pipeline-user"},
	{"pipeline_execution_role", "--pipeline-execution-role"},
	{"cloudformation_execution_role", "--cloudformation-execution-role"},
	{"artifact_bucket", "--bucket"},
	{"image_repository", "--image-repository"},
}

// BootstrapArgs renders the stage state as `sam pipeline bootstrap` arguments.
func BootstrapArgs(state map[string]string) []string {
	args := []string{
		"pipeline", "bootstrap",
		"--no-interactive",
		"--no-confirm-changeset",
		"--stage", state["name"],
		"--region", state["region"],
	}
	for _, f := range stageFlags {
		if v := state[f.key]; v != "" {
			args = append(args, f.flag, v)
		}
	}
	return args
}

// NewStageFlow starts a stage flow.
func (d *Domain) NewStageFlow() *flow.Flow {
	return flow.New(StageSchema(), flow.WithCompleter(flow.CompleteFunc(d.completeStage)))
}

func (d *Domain) completeStage(ctx context.Context, state flow.State) (string, error) {
	if err := schema.Validate(schema.ContractFor(StageSchema()), state); err != nil {
		return "", err
	}

	tool, err := d.executor.Execute(ctx, tools.Request{
		Tool:    "sam",
		Command: d.command,
		Args:    BootstrapArgs(state.Strings()),
	})
	if err != nil {
		return "", fmt.Errorf("pipeline bootstrap: %w", err)
	}
	return tool.ID().String(), nil
}

// Register adds the SAM CLI scope and features to reg.
func (d *Domain) Register(reg *registry.Registry) error {
	if err := reg.RegisterScope(Summary(), domains.List[Template](d.templates)); err != nil {
		return err
	}

	targets := []string{ResourceType}
	entries := []registry.Entry{
		{
			Feature: registry.Feature{ID: FeatureCreatePipeline, Name: "Create SAM pipeline", Type: registry.FeatureCreate, Targets: targets},
			Create: func(context.Context, string) (*flow.Flow, error) {
				return d.NewTemplateFlow(), nil
			},
		},
		{
			Feature: registry.Feature{ID: FeatureCreateStage, Name: "Create SAM pipeline stage", Type: registry.FeatureCreate, Targets: targets},
			Create: func(context.Context, string) (*flow.Flow, error) {
				return d.NewStageFlow(), nil
			},
			Invalidates: []string{
				catalog.FeatureScope(FeatureListBuckets, ""),
				catalog.FeatureScope(FeatureListRoles, ""),
				catalog.FeatureScope(FeatureListUsers, ""),
				catalog.FeatureScope(FeatureListRepos, ""),
				spawned.Scope,
				catalog.FeatureScope(spawned.FeatureList, ""),
			},
		},
		{
			Feature: registry.Feature{ID: FeatureListTemplates, Name: "List SAM pipeline templates", Type: registry.FeatureList, Targets: targets},
			List:    domains.List[Template](d.templates),
		},
	}

	optional := []struct {
		id, name, target string
		list             registry.ListFunc
	}{
		{FeatureListBuckets, "List S3 buckets", "S3Bucket", d.resources.Buckets},
		{FeatureListRoles, "List IAM roles", "IamRole", d.resources.Roles},
		{FeatureListUsers, "List IAM users", "IamUser", d.resources.Users},
		{FeatureListRepos, "List ECR repositories", "EcrRepository", d.resources.Repositories},
	}
	for _, o := range optional {
		if o.list == nil {
			continue
		}
		entries = append(entries, registry.Entry{
			Feature: registry.Feature{ID: o.id, Name: o.name, Type: registry.FeatureList, Targets: []string{ResourceType, o.target}},
			List:    o.list,
		})
	}

	for _, e := range entries {
		if err := reg.Register(e); err != nil {
			return err
		}
	}
	return nil
}
