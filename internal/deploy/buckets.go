package deploy

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lex00/wetwire-staticsite-go/internal/logger"
	sites3 "github.com/lex00/wetwire-staticsite-go/resources/s3"
)

// usEast1 takes no location constraint on CreateBucket.
const usEast1 = "us-east-1"

func (p *Provisioner) applyBucket(ctx context.Context, b sites3.Bucket) (Step, error) {
	_, err := p.S3.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(b.Name)})
	switch {
	case err == nil:
		return Step{Action: ActionAdopted, ID: b.Name}, nil
	case !isNotFound(err):
		return Step{}, fmt.Errorf("checking bucket %s: %w", b.Name, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(b.Name)}
	if p.Region != "" && p.Region != usEast1 {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(p.Region),
		}
	}

	if _, err := p.S3.CreateBucket(ctx, input); err != nil {
		if isAlreadyOwned(err) {
			return Step{Action: ActionAdopted, ID: b.Name}, nil
		}
		return Step{}, fmt.Errorf("creating bucket %s: %w", b.Name, err)
	}
	return Step{Action: ActionCreated, ID: b.Name}, nil
}

func (p *Provisioner) applyOwnershipControls(ctx context.Context, e *env, r sites3.OwnershipControls) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}

	_, err = p.S3.PutBucketOwnershipControls(ctx, &s3.PutBucketOwnershipControlsInput{
		Bucket: aws.String(bucket),
		OwnershipControls: &s3types.OwnershipControls{
			Rules: []s3types.OwnershipControlsRule{
				{ObjectOwnership: s3types.ObjectOwnership(r.Rule.ObjectOwnership)},
			},
		},
	})
	if err != nil {
		return Step{}, fmt.Errorf("putting ownership controls on %s: %w", bucket, err)
	}
	return Step{Action: ActionApplied, ID: bucket}, nil
}

func (p *Provisioner) applyBucketACL(ctx context.Context, e *env, r sites3.BucketACL) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}

	_, err = p.S3.PutBucketAcl(ctx, &s3.PutBucketAclInput{
		Bucket: aws.String(bucket),
		ACL:    s3types.BucketCannedACL(r.ACL),
	})
	if err != nil {
		return Step{}, fmt.Errorf("putting ACL %s on %s: %w", r.ACL, bucket, err)
	}
	return Step{Action: ActionApplied, ID: bucket}, nil
}

func (p *Provisioner) applyWebsite(ctx context.Context, e *env, r sites3.WebsiteConfiguration) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}

	website := &s3types.WebsiteConfiguration{
		IndexDocument: &s3types.IndexDocument{Suffix: aws.String(r.IndexDocument.Suffix)},
	}
	if r.ErrorDocument != nil {
		website.ErrorDocument = &s3types.ErrorDocument{Key: aws.String(r.ErrorDocument.Key)}
	}

	_, err = p.S3.PutBucketWebsite(ctx, &s3.PutBucketWebsiteInput{
		Bucket:               aws.String(bucket),
		WebsiteConfiguration: website,
	})
	if err != nil {
		return Step{}, fmt.Errorf("putting website configuration on %s: %w", bucket, err)
	}
	return Step{Action: ActionApplied, ID: bucket}, nil
}

func (p *Provisioner) applyPublicAccessBlock(ctx context.Context, e *env, r sites3.PublicAccessBlock) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}

	_, err = p.S3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(bucket),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       r.BlockPublicAcls,
			BlockPublicPolicy:     r.BlockPublicPolicy,
			IgnorePublicAcls:      r.IgnorePublicAcls,
			RestrictPublicBuckets: r.RestrictPublicBuckets,
		},
	})
	if err != nil {
		return Step{}, fmt.Errorf("putting public access block on %s: %w", bucket, err)
	}
	return Step{Action: ActionApplied, ID: bucket}, nil
}

func (p *Provisioner) applyBucketPolicy(ctx context.Context, e *env, r sites3.BucketPolicy) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}
	policy, err := e.JSON(r.Policy)
	if err != nil {
		return Step{}, fmt.Errorf("rendering policy: %w", err)
	}

	_, err = p.S3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return Step{}, fmt.Errorf("putting policy on %s: %w", bucket, err)
	}
	return Step{Action: ActionApplied, ID: bucket}, nil
}

func (p *Provisioner) destroyBucket(ctx context.Context, b sites3.Bucket) (Step, error) {
	if b.ForceDestroy {
		if err := p.emptyBucket(ctx, b.Name); err != nil {
			if isNotFound(err) {
				return Step{Action: ActionSkipped, ID: b.Name}, nil
			}
			return Step{}, err
		}
	}

	_, err := p.S3.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(b.Name)})
	switch {
	case isNotFound(err):
		return Step{Action: ActionSkipped, ID: b.Name}, nil
	case err != nil:
		return Step{}, fmt.Errorf("deleting bucket %s: %w", b.Name, err)
	}
	return Step{Action: ActionDeleted, ID: b.Name}, nil
}

// emptyBucket deletes every object in bucket, one listing page at a time.
func (p *Provisioner) emptyBucket(ctx context.Context, bucket string) error {
	paginator := s3.NewListObjectsV2Paginator(p.S3, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("listing %s: %w", bucket, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]s3types.ObjectIdentifier, len(page.Contents))
		for i, obj := range page.Contents {
			objects[i] = s3types.ObjectIdentifier{Key: obj.Key}
		}

		out, err := p.S3.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucket),
			Delete: &s3types.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("emptying %s: %w", bucket, err)
		}
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return fmt.Errorf("emptying %s: %d objects not deleted, first %s: %s",
				bucket, len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
		deleted += len(objects)
	}

	if deleted > 0 {
		logger.Ctx(ctx).Info().Str("bucket", bucket).Int("objects", deleted).Msg("emptied bucket")
	}
	return nil
}

func (p *Provisioner) destroyOwnershipControls(ctx context.Context, e *env, r sites3.OwnershipControls) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}
	_, err = p.S3.DeleteBucketOwnershipControls(ctx, &s3.DeleteBucketOwnershipControlsInput{Bucket: aws.String(bucket)})
	return deleteStep(bucket, "ownership controls", err)
}

func (p *Provisioner) destroyWebsite(ctx context.Context, e *env, r sites3.WebsiteConfiguration) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}
	_, err = p.S3.DeleteBucketWebsite(ctx, &s3.DeleteBucketWebsiteInput{Bucket: aws.String(bucket)})
	return deleteStep(bucket, "website configuration", err)
}

func (p *Provisioner) destroyPublicAccessBlock(ctx context.Context, e *env, r sites3.PublicAccessBlock) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}
	_, err = p.S3.DeletePublicAccessBlock(ctx, &s3.DeletePublicAccessBlockInput{Bucket: aws.String(bucket)})
	return deleteStep(bucket, "public access block", err)
}

func (p *Provisioner) destroyBucketPolicy(ctx context.Context, e *env, r sites3.BucketPolicy) (Step, error) {
	bucket, err := e.String(r.Bucket)
	if err != nil {
		return Step{}, err
	}
	_, err = p.S3.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{Bucket: aws.String(bucket)})
	return deleteStep(bucket, "policy", err)
}

func deleteStep(bucket, what string, err error) (Step, error) {
	switch {
	case isNotFound(err):
		return Step{Action: ActionSkipped, ID: bucket}, nil
	case err != nil:
		return Step{}, fmt.Errorf("deleting %s of %s: %w", what, bucket, err)
	}
	return Step{Action: ActionDeleted, ID: bucket}, nil
}
