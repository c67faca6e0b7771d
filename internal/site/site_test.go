package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

func declare(t *testing.T) *stack.Stack {
	t.Helper()
	cfg := config.Default()
	cfg.BaseName = "example"
	st, err := Declare(cfg)
	require.NoError(t, err)
	return st
}

func get(t *testing.T, st *stack.Stack, name string) staticsite.Resource {
	t.Helper()
	e, ok := st.Get(name)
	require.True(t, ok, name)
	return e.Resource
}

func TestDeclare_Resources(t *testing.T) {
	st := declare(t)

	assert.Equal(t, []string{
		LogBucket,
		LogBucketOwnershipControls,
		LogBucketACL,
		SiteBucket,
		SiteWebsiteConfiguration,
		SitePublicAccessBlock,
		OriginAccessIdentity,
		SiteBucketPolicy,
		Distribution,
	}, st.Names())
	assert.NoError(t, st.Validate())
	assert.Len(t, st.Outputs(), 3)
}

func TestDeclare_BucketNames(t *testing.T) {
	st := declare(t)

	logs := get(t, st, LogBucket).(s3.Bucket)
	assert.Equal(t, "example-logs", logs.Name)
	assert.True(t, logs.ForceDestroy)

	content := get(t, st, SiteBucket).(s3.Bucket)
	assert.Equal(t, "example-site", content.Name)
}

func TestDeclare_Website(t *testing.T) {
	st := declare(t)

	website := get(t, st, SiteWebsiteConfiguration).(s3.WebsiteConfiguration)
	assert.Equal(t, "index.html", website.IndexDocument.Suffix)
	require.NotNil(t, website.ErrorDocument)
	assert.Equal(t, "index.html", website.ErrorDocument.Key)
}

func TestDeclare_PublicAccessBlockExplicit(t *testing.T) {
	st := declare(t)

	pab := get(t, st, SitePublicAccessBlock).(s3.PublicAccessBlock)
	for name, flag := range pab.Flags() {
		require.NotNil(t, flag, name)
		assert.False(t, *flag, name)
	}
}

func TestDeclare_Policy(t *testing.T) {
	st := declare(t)

	policy := get(t, st, SiteBucketPolicy).(s3.BucketPolicy)
	assert.Equal(t, staticsite.AttrRef{Resource: SiteBucket}, policy.Bucket)
	require.Len(t, policy.Policy.Statement, 1)

	stmt := policy.Policy.Statement[0]
	assert.Equal(t, intrinsics.EffectAllow, stmt.Effect)
	assert.Equal(t, intrinsics.ActionS3GetObject, stmt.Action)
	assert.Equal(t, intrinsics.AWSPrincipal{staticsite.AttrRef{Resource: OriginAccessIdentity, Attribute: cloudfront.AttrIAMArn}}, stmt.Principal)
	assert.Equal(t, intrinsics.Concat(staticsite.AttrRef{Resource: SiteBucket, Attribute: s3.AttrArn}, "/*"), stmt.Resource)
}

func TestDeclare_Distribution(t *testing.T) {
	st := declare(t)

	dist := get(t, st, Distribution).(cloudfront.Distribution)
	assert.True(t, dist.Enabled)
	assert.Equal(t, "index.html", dist.DefaultRootObject)

	require.Len(t, dist.Origins, 1)
	origin := dist.Origins[0]
	assert.Equal(t, staticsite.AttrRef{Resource: SiteBucket, Attribute: s3.AttrRegionalDomainName}, origin.DomainName)
	require.NotNil(t, origin.S3OriginConfig)
	assert.Equal(t, staticsite.AttrRef{Resource: OriginAccessIdentity, Attribute: cloudfront.AttrPath}, origin.S3OriginConfig.OriginAccessIdentity)

	cb := dist.DefaultCacheBehavior
	assert.Equal(t, S3OriginID, cb.TargetOriginID)
	assert.Equal(t, []string{"GET", "HEAD"}, cb.AllowedMethods)
	assert.Equal(t, []string{"GET", "HEAD"}, cb.CachedMethods)
	assert.Equal(t, cloudfront.ViewerProtocolRedirectToHTTPS, cb.ViewerProtocolPolicy)
	assert.False(t, cb.ForwardedValues.QueryString)
	assert.Equal(t, cloudfront.ForwardNone, cb.ForwardedValues.Cookies.Forward)

	require.NotNil(t, dist.Logging)
	assert.Equal(t, staticsite.AttrRef{Resource: LogBucket, Attribute: s3.AttrDomainName}, dist.Logging.Bucket)
	assert.Equal(t, "logs/", dist.Logging.Prefix)
	assert.False(t, dist.Logging.IncludeCookies)

	assert.Equal(t, cloudfront.RestrictionTypeNone, dist.Restrictions.GeoRestriction.RestrictionType)
	assert.True(t, dist.ViewerCertificate.CloudFrontDefaultCertificate)
}

func TestDeclare_DistributionAfterLogDelivery(t *testing.T) {
	st := declare(t)

	e, ok := st.Get(Distribution)
	require.True(t, ok)
	assert.Equal(t, []string{LogBucketACL}, e.DependsOn)
	assert.Contains(t, st.Dependencies(Distribution), LogBucketACL)
}

func TestDeclare_InvalidConfig(t *testing.T) {
	_, err := Declare(config.Site{BaseName: "Bad_Name", Region: "us-east-1", IndexDocument: "index.html"})
	assert.Error(t, err)
}
