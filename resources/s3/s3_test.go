package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
)

var (
	_ staticsite.AttributeResolver = Bucket{}
	_ staticsite.Attachment        = OwnershipControls{}
	_ staticsite.Attachment        = BucketACL{}
	_ staticsite.Attachment        = WebsiteConfiguration{}
	_ staticsite.Attachment        = PublicAccessBlock{}
)

func TestBucket_CloudFormationAttr(t *testing.T) {
	ref, err := Bucket{}.CloudFormationAttr("SiteBucket", "")
	require.NoError(t, err)
	assert.Equal(t, intrinsics.Ref{LogicalName: "SiteBucket"}, ref)

	for _, attr := range []string{AttrArn, AttrDomainName, AttrRegionalDomainName, AttrWebsiteURL} {
		v, err := Bucket{}.CloudFormationAttr("SiteBucket", attr)
		require.NoError(t, err, attr)
		assert.Equal(t, intrinsics.GetAtt{LogicalName: "SiteBucket", Attribute: attr}, v)
	}

	_, err = Bucket{}.CloudFormationAttr("SiteBucket", "Tags")
	assert.Error(t, err)
}

func TestBucket_TerraformAttr(t *testing.T) {
	tests := map[string]string{
		"":                     "id",
		AttrArn:                "arn",
		AttrDomainName:         "bucket_domain_name",
		AttrRegionalDomainName: "bucket_regional_domain_name",
		AttrWebsiteURL:         "website_endpoint",
	}
	for attr, want := range tests {
		got, err := Bucket{}.TerraformAttr(attr)
		require.NoError(t, err, attr)
		assert.Equal(t, want, got)
	}

	_, err := Bucket{}.TerraformAttr("Tags")
	assert.Error(t, err)
}

func TestAttachments_AttachedTo(t *testing.T) {
	bucket := staticsite.AttrRef{Resource: "LogBucket"}

	assert.Equal(t, bucket, OwnershipControls{Bucket: bucket}.AttachedTo())
	assert.Equal(t, bucket, BucketACL{Bucket: bucket}.AttachedTo())
	assert.Equal(t, bucket, WebsiteConfiguration{Bucket: bucket}.AttachedTo())
	assert.Equal(t, bucket, PublicAccessBlock{Bucket: bucket}.AttachedTo())
}

func TestBucketACL_CloudFormationFragment(t *testing.T) {
	tests := []struct {
		acl  string
		want string
	}{
		{CannedACLLogDeliveryWrite, "LogDeliveryWrite"},
		{CannedACLPrivate, "Private"},
		{CannedACLPublicRead, "PublicRead"},
		{"bucket-owner-full-control", "BucketOwnerFullControl"},
		{"Custom", "Custom"},
	}
	for _, tt := range tests {
		t.Run(tt.acl, func(t *testing.T) {
			frag := BucketACL{ACL: tt.acl}.CloudFormationFragment()
			assert.Equal(t, map[string]any{"AccessControl": tt.want}, frag)
		})
	}
}

func TestOwnershipControls_CloudFormationFragment(t *testing.T) {
	frag := OwnershipControls{
		Rule: OwnershipControlsRule{ObjectOwnership: ObjectOwnershipBucketOwnerPreferred},
	}.CloudFormationFragment()

	assert.Equal(t, map[string]any{
		"OwnershipControls": map[string]any{
			"Rules": []any{map[string]any{"ObjectOwnership": "BucketOwnerPreferred"}},
		},
	}, frag)
}

func TestWebsiteConfiguration_CloudFormationFragment(t *testing.T) {
	t.Run("index only", func(t *testing.T) {
		frag := WebsiteConfiguration{IndexDocument: IndexDocument{Suffix: "index.html"}}.CloudFormationFragment()
		assert.Equal(t, map[string]any{
			"WebsiteConfiguration": map[string]any{"IndexDocument": "index.html"},
		}, frag)
	})

	t.Run("with error document", func(t *testing.T) {
		frag := WebsiteConfiguration{
			IndexDocument: IndexDocument{Suffix: "index.html"},
			ErrorDocument: &ErrorDocument{Key: "404.html"},
		}.CloudFormationFragment()
		assert.Equal(t, map[string]any{
			"WebsiteConfiguration": map[string]any{"IndexDocument": "index.html", "ErrorDocument": "404.html"},
		}, frag)
	})
}

func TestPublicAccessBlock_CloudFormationFragment(t *testing.T) {
	frag := PublicAccessBlock{
		BlockPublicAcls:   Bool(false),
		BlockPublicPolicy: Bool(true),
	}.CloudFormationFragment()

	assert.Equal(t, map[string]any{
		"PublicAccessBlockConfiguration": map[string]any{
			"BlockPublicAcls":   false,
			"BlockPublicPolicy": true,
		},
	}, frag)
}

func TestPublicAccessBlock_Flags(t *testing.T) {
	pab := PublicAccessBlock{IgnorePublicAcls: Bool(true)}
	flags := pab.Flags()

	assert.Len(t, flags, 4)
	assert.Nil(t, flags["BlockPublicAcls"])
	require.NotNil(t, flags["IgnorePublicAcls"])
	assert.True(t, *flags["IgnorePublicAcls"])
}
