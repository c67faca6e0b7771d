// Package site declares the static-website stack: a log bucket, a content
// bucket served through CloudFront, and the identity and policy binding
// them.
package site

import (
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

// Logical names.
const (
	LogBucket                  = "LogBucket"
	LogBucketOwnershipControls = "LogBucketOwnershipControls"
	LogBucketACL               = "LogBucketAcl"
	SiteBucket                 = "SiteBucket"
	SiteWebsiteConfiguration   = "SiteWebsiteConfiguration"
	SitePublicAccessBlock      = "SitePublicAccessBlock"
	OriginAccessIdentity       = "OriginAccessIdentity"
	SiteBucketPolicy           = "SiteBucketPolicy"
	Distribution               = "Distribution"
)

// Output names.
const (
	OutputSiteBucketName         = "SiteBucketName"
	OutputDistributionDomainName = "DistributionDomainName"
	OutputDistributionID         = "DistributionID"
)

// S3OriginID is the distribution's identifier for the site bucket origin.
const S3OriginID = "S3Origin"

// Declare builds the stack for cfg.
func Declare(cfg config.Site) (*stack.Stack, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st := stack.New("Static website " + cfg.SiteBucketName() + " served through CloudFront")

	logs := st.Add(LogBucket, s3.Bucket{
		Name:         cfg.LogBucketName(),
		ForceDestroy: cfg.ForceDestroy,
	})

	// CloudFront log delivery writes through the bucket ACL.
	controls := st.Add(LogBucketOwnershipControls, s3.OwnershipControls{
		Bucket: logs.Ref(),
		Rule:   s3.OwnershipControlsRule{ObjectOwnership: s3.ObjectOwnershipBucketOwnerPreferred},
	})
	logACL := st.Add(LogBucketACL, s3.BucketACL{
		Bucket: logs.Ref(),
		ACL:    s3.CannedACLLogDeliveryWrite,
	}, controls)

	content := st.Add(SiteBucket, s3.Bucket{
		Name:         cfg.SiteBucketName(),
		ForceDestroy: cfg.ForceDestroy,
	})

	website := s3.WebsiteConfiguration{
		Bucket:        content.Ref(),
		IndexDocument: s3.IndexDocument{Suffix: cfg.IndexDocument},
	}
	if cfg.ErrorDocument != "" {
		website.ErrorDocument = &s3.ErrorDocument{Key: cfg.ErrorDocument}
	}
	st.Add(SiteWebsiteConfiguration, website)

	st.Add(SitePublicAccessBlock, s3.PublicAccessBlock{
		Bucket:                content.Ref(),
		BlockPublicAcls:       s3.Bool(false),
		BlockPublicPolicy:     s3.Bool(false),
		IgnorePublicAcls:      s3.Bool(false),
		RestrictPublicBuckets: s3.Bool(false),
	})

	oai := st.Add(OriginAccessIdentity, cloudfront.OriginAccessIdentity{
		Comment: cfg.OAIComment(),
	})

	st.Add(SiteBucketPolicy, s3.BucketPolicy{
		Bucket: content.Ref(),
		Policy: intrinsics.NewPolicyDocument(intrinsics.PolicyStatement{
			Effect:    intrinsics.EffectAllow,
			Principal: intrinsics.AWSPrincipal{oai.Attr(cloudfront.AttrIAMArn)},
			Action:    intrinsics.ActionS3GetObject,
			Resource:  intrinsics.Concat(content.Attr(s3.AttrArn), "/*"),
		}),
	})

	// Log delivery must be granted before the distribution starts logging.
	dist := st.Add(Distribution, cloudfront.Distribution{
		Enabled:           true,
		IPv6Enabled:       true,
		Comment:           cfg.SiteBucketName(),
		DefaultRootObject: cfg.IndexDocument,
		PriceClass:        cfg.PriceClass,
		Origins: intrinsics.List(cloudfront.Origin{
			ID:         S3OriginID,
			DomainName: content.Attr(s3.AttrRegionalDomainName),
			S3OriginConfig: &cloudfront.S3OriginConfig{
				OriginAccessIdentity: oai.Attr(cloudfront.AttrPath),
			},
		}),
		DefaultCacheBehavior: cloudfront.CacheBehavior{
			TargetOriginID:       S3OriginID,
			AllowedMethods:       []string{cloudfront.MethodGET, cloudfront.MethodHEAD},
			CachedMethods:        []string{cloudfront.MethodGET, cloudfront.MethodHEAD},
			ViewerProtocolPolicy: cloudfront.ViewerProtocolRedirectToHTTPS,
			ForwardedValues: cloudfront.ForwardedValues{
				QueryString: false,
				Cookies:     cloudfront.Cookies{Forward: cloudfront.ForwardNone},
			},
			MinTTL:     cloudfront.Int(0),
			DefaultTTL: cloudfront.Int(3600),
			MaxTTL:     cloudfront.Int(86400),
		},
		Logging: &cloudfront.Logging{
			Bucket:         logs.Attr(s3.AttrDomainName),
			Prefix:         cfg.LogPrefix,
			IncludeCookies: false,
		},
		Restrictions: cloudfront.Restrictions{
			GeoRestriction: cloudfront.GeoRestriction{RestrictionType: cloudfront.RestrictionTypeNone},
		},
		ViewerCertificate: cloudfront.ViewerCertificate{CloudFrontDefaultCertificate: true},
	}, logACL)

	st.Output(OutputSiteBucketName, "Bucket holding the site content", content.Ref())
	st.Output(OutputDistributionDomainName, "Domain name serving the site", dist.Attr(cloudfront.AttrDomainName))
	st.Output(OutputDistributionID, "Distribution identifier for cache invalidations", dist.Ref())

	if err := st.Err(); err != nil {
		return nil, err
	}
	return st, nil
}
