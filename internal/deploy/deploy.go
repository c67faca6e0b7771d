// Package deploy provisions a declared stack directly through the AWS SDK.
//
// Apply walks the stack in dependency order and creates each resource, or
// adopts it when it already exists: buckets by name, origin access
// identities and distributions by comment. Destroy walks the reverse order.
// Calls are sequential; retries are left to the SDK.
package deploy

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"

	"github.com/lex00/wetwire-staticsite-go/internal/logger"
	"github.com/lex00/wetwire-staticsite-go/internal/plan"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	sitecf "github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	sites3 "github.com/lex00/wetwire-staticsite-go/resources/s3"
)

// DefaultWaitTimeout bounds the wait for a disabled distribution to finish
// deploying before it can be deleted.
const DefaultWaitTimeout = 45 * time.Minute

// Action records what the provisioner did with a resource.
type Action string

// Actions.
const (
	ActionCreated Action = "created"
	ActionAdopted Action = "adopted"
	ActionApplied Action = "applied"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionSkipped Action = "skipped"
)

// Step is the outcome for one resource.
type Step struct {
	Resource string `json:"resource"`
	Type     string `json:"type"`
	Action   Action `json:"action"`
	// ID is the physical identifier, when the resource has one.
	ID string `json:"id,omitempty"`
}

// Result is the outcome of Apply or Destroy.
type Result struct {
	Steps []Step `json:"steps"`
	// Outputs holds the stack outputs after Apply.
	Outputs map[string]string `json:"outputs,omitempty"`
}

// Provisioner applies stacks to an AWS account.
type Provisioner struct {
	S3         S3API
	CloudFront CloudFrontAPI
	Region     string

	// WaitTimeout overrides DefaultWaitTimeout.
	WaitTimeout time.Duration

	waiterOptions []func(*cloudfront.DistributionDeployedWaiterOptions)
}

// New creates a provisioner.
func New(s3Client S3API, cfClient CloudFrontAPI, region string) *Provisioner {
	return &Provisioner{
		S3:         s3Client,
		CloudFront: cfClient,
		Region:     region,
	}
}

// Apply creates or adopts every resource of st.
func (p *Provisioner) Apply(ctx context.Context, st *stack.Stack) (*Result, error) {
	order, err := p.order(st)
	if err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx)
	e := newEnv(st, p.Region)
	result := &Result{}

	for _, name := range order {
		entry, _ := st.Get(name)
		log.Debug().Str("resource", name).Str("type", entry.Resource.TerraformType()).Msg("applying")

		step, err := p.apply(ctx, e, entry)
		if err != nil {
			return result, fmt.Errorf("%s: %w", name, err)
		}
		step.Resource = name
		step.Type = entry.Resource.TerraformType()
		result.Steps = append(result.Steps, step)

		log.Info().
			Str("resource", name).
			Str("action", string(step.Action)).
			Str("id", step.ID).
			Msg("resource ready")
	}

	result.Outputs = make(map[string]string, len(st.Outputs()))
	for _, out := range st.Outputs() {
		v, err := e.String(out.Value)
		if err != nil {
			return result, fmt.Errorf("output %s: %w", out.Name, err)
		}
		result.Outputs[out.Name] = v
	}

	return result, nil
}

// Destroy deletes every resource of st, in reverse dependency order.
// Resources that no longer exist are skipped.
func (p *Provisioner) Destroy(ctx context.Context, st *stack.Stack) (*Result, error) {
	order, err := p.order(st)
	if err != nil {
		return nil, err
	}

	log := logger.Ctx(ctx)
	e := newEnv(st, p.Region)
	result := &Result{}

	for _, name := range plan.Reverse(order) {
		entry, _ := st.Get(name)
		log.Debug().Str("resource", name).Str("type", entry.Resource.TerraformType()).Msg("destroying")

		step, err := p.destroy(ctx, e, entry)
		if err != nil {
			return result, fmt.Errorf("%s: %w", name, err)
		}
		step.Resource = name
		step.Type = entry.Resource.TerraformType()
		result.Steps = append(result.Steps, step)

		log.Info().
			Str("resource", name).
			Str("action", string(step.Action)).
			Str("id", step.ID).
			Msg("resource removed")
	}

	return result, nil
}

func (p *Provisioner) order(st *stack.Stack) ([]string, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return plan.Order(st.Discovered())
}

func (p *Provisioner) apply(ctx context.Context, e *env, entry *stack.Entry) (Step, error) {
	switch r := entry.Resource.(type) {
	case sites3.Bucket:
		return p.applyBucket(ctx, r)
	case sites3.OwnershipControls:
		return p.applyOwnershipControls(ctx, e, r)
	case sites3.BucketACL:
		return p.applyBucketACL(ctx, e, r)
	case sites3.WebsiteConfiguration:
		return p.applyWebsite(ctx, e, r)
	case sites3.PublicAccessBlock:
		return p.applyPublicAccessBlock(ctx, e, r)
	case sites3.BucketPolicy:
		return p.applyBucketPolicy(ctx, e, r)
	case sitecf.OriginAccessIdentity:
		return p.applyIdentity(ctx, e, entry.Name, r)
	case sitecf.Distribution:
		return p.applyDistribution(ctx, e, entry.Name, r)
	}
	return Step{}, fmt.Errorf("%w: %s", ErrUnsupported, entry.Resource.ResourceType())
}

func (p *Provisioner) destroy(ctx context.Context, e *env, entry *stack.Entry) (Step, error) {
	switch r := entry.Resource.(type) {
	case sites3.Bucket:
		return p.destroyBucket(ctx, r)
	case sites3.OwnershipControls:
		return p.destroyOwnershipControls(ctx, e, r)
	case sites3.BucketACL:
		// The ACL goes with the bucket.
		return Step{Action: ActionSkipped}, nil
	case sites3.WebsiteConfiguration:
		return p.destroyWebsite(ctx, e, r)
	case sites3.PublicAccessBlock:
		return p.destroyPublicAccessBlock(ctx, e, r)
	case sites3.BucketPolicy:
		return p.destroyBucketPolicy(ctx, e, r)
	case sitecf.OriginAccessIdentity:
		return p.destroyIdentity(ctx, r)
	case sitecf.Distribution:
		return p.destroyDistribution(ctx, r)
	}
	return Step{}, fmt.Errorf("%w: %s", ErrUnsupported, entry.Resource.ResourceType())
}

func (p *Provisioner) waitTimeout() time.Duration {
	if p.WaitTimeout > 0 {
		return p.WaitTimeout
	}
	return DefaultWaitTimeout
}

// callerReference is the idempotency token for CloudFront creates. It is
// derived from the logical name and comment so reruns reuse it.
func callerReference(name, comment string) string {
	return "wetwire-staticsite/" + name + "/" + comment
}
