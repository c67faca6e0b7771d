package deploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	"github.com/lex00/wetwire-staticsite-go/internal/logger"
	sitecf "github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
)

func (p *Provisioner) applyIdentity(ctx context.Context, e *env, name string, r sitecf.OriginAccessIdentity) (Step, error) {
	existing, err := p.findIdentity(ctx, r.Comment)
	if err != nil {
		return Step{}, err
	}
	if existing != nil {
		id := aws.ToString(existing.Id)
		e.set(name, identityValues(id, aws.ToString(existing.S3CanonicalUserId)))
		return Step{Action: ActionAdopted, ID: id}, nil
	}

	out, err := p.CloudFront.CreateCloudFrontOriginAccessIdentity(ctx, &cloudfront.CreateCloudFrontOriginAccessIdentityInput{
		CloudFrontOriginAccessIdentityConfig: &cftypes.CloudFrontOriginAccessIdentityConfig{
			CallerReference: aws.String(callerReference(name, r.Comment)),
			Comment:         aws.String(r.Comment),
		},
	})
	if err != nil {
		return Step{}, fmt.Errorf("creating origin access identity: %w", err)
	}
	if out.CloudFrontOriginAccessIdentity == nil {
		return Step{}, fmt.Errorf("creating origin access identity: empty response")
	}

	identity := out.CloudFrontOriginAccessIdentity
	id := aws.ToString(identity.Id)
	e.set(name, identityValues(id, aws.ToString(identity.S3CanonicalUserId)))
	return Step{Action: ActionCreated, ID: id}, nil
}

// findIdentity returns the origin access identity with the given comment.
func (p *Provisioner) findIdentity(ctx context.Context, comment string) (*cftypes.CloudFrontOriginAccessIdentitySummary, error) {
	if comment == "" {
		return nil, nil
	}

	var marker *string
	for {
		out, err := p.CloudFront.ListCloudFrontOriginAccessIdentities(ctx, &cloudfront.ListCloudFrontOriginAccessIdentitiesInput{
			Marker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("listing origin access identities: %w", err)
		}

		list := out.CloudFrontOriginAccessIdentityList
		if list == nil {
			return nil, nil
		}
		for i := range list.Items {
			if aws.ToString(list.Items[i].Comment) == comment {
				return &list.Items[i], nil
			}
		}
		if !aws.ToBool(list.IsTruncated) || list.NextMarker == nil {
			return nil, nil
		}
		marker = list.NextMarker
	}
}

func (p *Provisioner) destroyIdentity(ctx context.Context, r sitecf.OriginAccessIdentity) (Step, error) {
	existing, err := p.findIdentity(ctx, r.Comment)
	if err != nil {
		return Step{}, err
	}
	if existing == nil {
		return Step{Action: ActionSkipped}, nil
	}
	id := existing.Id

	got, err := p.CloudFront.GetCloudFrontOriginAccessIdentity(ctx, &cloudfront.GetCloudFrontOriginAccessIdentityInput{Id: id})
	if err != nil {
		if isNotFound(err) {
			return Step{Action: ActionSkipped, ID: aws.ToString(id)}, nil
		}
		return Step{}, fmt.Errorf("reading origin access identity %s: %w", aws.ToString(id), err)
	}

	_, err = p.CloudFront.DeleteCloudFrontOriginAccessIdentity(ctx, &cloudfront.DeleteCloudFrontOriginAccessIdentityInput{
		Id:      id,
		IfMatch: got.ETag,
	})
	switch {
	case isNotFound(err):
		return Step{Action: ActionSkipped, ID: aws.ToString(id)}, nil
	case err != nil:
		return Step{}, fmt.Errorf("deleting origin access identity %s: %w", aws.ToString(id), err)
	}
	return Step{Action: ActionDeleted, ID: aws.ToString(id)}, nil
}

func (p *Provisioner) applyDistribution(ctx context.Context, e *env, name string, r sitecf.Distribution) (Step, error) {
	existing, err := p.findDistribution(ctx, r.Comment)
	if err != nil {
		return Step{}, err
	}

	if existing != nil {
		return p.updateDistribution(ctx, e, name, aws.ToString(existing.Id), r)
	}

	cfg, err := e.distributionConfig(r, callerReference(name, r.Comment))
	if err != nil {
		return Step{}, err
	}

	out, err := p.CloudFront.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{DistributionConfig: cfg})
	if err != nil {
		return Step{}, fmt.Errorf("creating distribution: %w", err)
	}
	if out.Distribution == nil {
		return Step{}, fmt.Errorf("creating distribution: empty response")
	}

	id := aws.ToString(out.Distribution.Id)
	e.set(name, distributionValues(id, aws.ToString(out.Distribution.DomainName)))
	return Step{Action: ActionCreated, ID: id}, nil
}

// updateDistribution replaces the configuration of an adopted distribution,
// keeping its original caller reference.
func (p *Provisioner) updateDistribution(ctx context.Context, e *env, name, id string, r sitecf.Distribution) (Step, error) {
	current, err := p.CloudFront.GetDistributionConfig(ctx, &cloudfront.GetDistributionConfigInput{Id: aws.String(id)})
	if err != nil {
		return Step{}, fmt.Errorf("reading distribution %s: %w", id, err)
	}

	ref := callerReference(name, r.Comment)
	if current.DistributionConfig != nil && current.DistributionConfig.CallerReference != nil {
		ref = aws.ToString(current.DistributionConfig.CallerReference)
	}
	cfg, err := e.distributionConfig(r, ref)
	if err != nil {
		return Step{}, err
	}

	out, err := p.CloudFront.UpdateDistribution(ctx, &cloudfront.UpdateDistributionInput{
		Id:                 aws.String(id),
		IfMatch:            current.ETag,
		DistributionConfig: cfg,
	})
	if err != nil {
		return Step{}, fmt.Errorf("updating distribution %s: %w", id, err)
	}
	if out.Distribution == nil {
		return Step{}, fmt.Errorf("updating distribution %s: empty response", id)
	}

	e.set(name, distributionValues(id, aws.ToString(out.Distribution.DomainName)))
	return Step{Action: ActionUpdated, ID: id}, nil
}

// findDistribution returns the distribution with the given comment.
func (p *Provisioner) findDistribution(ctx context.Context, comment string) (*cftypes.DistributionSummary, error) {
	if comment == "" {
		return nil, nil
	}

	var marker *string
	for {
		out, err := p.CloudFront.ListDistributions(ctx, &cloudfront.ListDistributionsInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("listing distributions: %w", err)
		}

		list := out.DistributionList
		if list == nil {
			return nil, nil
		}
		for i := range list.Items {
			if aws.ToString(list.Items[i].Comment) == comment {
				return &list.Items[i], nil
			}
		}
		if !aws.ToBool(list.IsTruncated) || list.NextMarker == nil {
			return nil, nil
		}
		marker = list.NextMarker
	}
}

// destroyDistribution disables the distribution, waits for the change to
// deploy, then deletes it.
func (p *Provisioner) destroyDistribution(ctx context.Context, r sitecf.Distribution) (Step, error) {
	existing, err := p.findDistribution(ctx, r.Comment)
	if err != nil {
		return Step{}, err
	}
	if existing == nil {
		return Step{Action: ActionSkipped}, nil
	}
	id := aws.ToString(existing.Id)

	current, err := p.CloudFront.GetDistributionConfig(ctx, &cloudfront.GetDistributionConfigInput{Id: aws.String(id)})
	if err != nil {
		return Step{}, fmt.Errorf("reading distribution %s: %w", id, err)
	}

	if current.DistributionConfig != nil && aws.ToBool(current.DistributionConfig.Enabled) {
		cfg := current.DistributionConfig
		cfg.Enabled = aws.Bool(false)
		if _, err := p.CloudFront.UpdateDistribution(ctx, &cloudfront.UpdateDistributionInput{
			Id:                 aws.String(id),
			IfMatch:            current.ETag,
			DistributionConfig: cfg,
		}); err != nil {
			return Step{}, fmt.Errorf("disabling distribution %s: %w", id, err)
		}
		logger.Ctx(ctx).Info().Str("id", id).Dur("timeout", p.waitTimeout()).Msg("waiting for distribution to disable")
	}

	waiter := cloudfront.NewDistributionDeployedWaiter(p.CloudFront, p.waiterOptions...)
	deployed, err := waiter.WaitForOutput(ctx, &cloudfront.GetDistributionInput{Id: aws.String(id)}, p.waitTimeout())
	if err != nil {
		return Step{}, fmt.Errorf("waiting for distribution %s: %w", id, err)
	}

	_, err = p.CloudFront.DeleteDistribution(ctx, &cloudfront.DeleteDistributionInput{
		Id:      aws.String(id),
		IfMatch: deployed.ETag,
	})
	switch {
	case isNotFound(err):
		return Step{Action: ActionSkipped, ID: id}, nil
	case err != nil:
		return Step{}, fmt.Errorf("deleting distribution %s: %w", id, err)
	}
	return Step{Action: ActionDeleted, ID: id}, nil
}
