package schema

// resourceSchemas holds the schemas of the resource types a site stack
// renders. Properties the site never sets are omitted; strict validation
// reports them as unknown.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::S3::Bucket": {
		Type: "AWS::S3::Bucket",
		Properties: map[string]PropertySchema{
			"BucketName": {Type: "String"},
			"AccessControl": {Type: "String", AllowedValues: []string{
				"AuthenticatedRead", "AwsExecRead", "BucketOwnerFullControl", "BucketOwnerRead",
				"LogDeliveryWrite", "Private", "PublicRead", "PublicReadWrite",
			}},
			"OwnershipControls": {
				Type:     "Map",
				Required: []string{"Rules"},
				Properties: map[string]PropertySchema{
					"Rules": {
						Type:     "List",
						Required: []string{"ObjectOwnership"},
						Properties: map[string]PropertySchema{
							"ObjectOwnership": {Type: "String", AllowedValues: []string{
								"BucketOwnerEnforced", "BucketOwnerPreferred", "ObjectWriter",
							}},
						},
					},
				},
			},
			"PublicAccessBlockConfiguration": {
				Type: "Map",
				Properties: map[string]PropertySchema{
					"BlockPublicAcls":       {Type: "Boolean"},
					"BlockPublicPolicy":     {Type: "Boolean"},
					"IgnorePublicAcls":      {Type: "Boolean"},
					"RestrictPublicBuckets": {Type: "Boolean"},
				},
			},
			"WebsiteConfiguration": {
				Type: "Map",
				Properties: map[string]PropertySchema{
					"IndexDocument": {Type: "String"},
					"ErrorDocument": {Type: "String"},
				},
			},
		},
	},
	"AWS::S3::BucketPolicy": {
		Type:     "AWS::S3::BucketPolicy",
		Required: []string{"Bucket", "PolicyDocument"},
		Properties: map[string]PropertySchema{
			"Bucket":         {Type: "String"},
			"PolicyDocument": {Type: "Json"},
		},
	},
	"AWS::CloudFront::CloudFrontOriginAccessIdentity": {
		Type:     "AWS::CloudFront::CloudFrontOriginAccessIdentity",
		Required: []string{"CloudFrontOriginAccessIdentityConfig"},
		Properties: map[string]PropertySchema{
			"CloudFrontOriginAccessIdentityConfig": {
				Type:     "Map",
				Required: []string{"Comment"},
				Properties: map[string]PropertySchema{
					"Comment": {Type: "String"},
				},
			},
		},
	},
	"AWS::CloudFront::Distribution": {
		Type:     "AWS::CloudFront::Distribution",
		Required: []string{"DistributionConfig"},
		Properties: map[string]PropertySchema{
			"DistributionConfig": {
				Type:       "Map",
				Required:   []string{"DefaultCacheBehavior", "Enabled"},
				Properties: distributionConfig,
			},
		},
	},
}

var distributionConfig = map[string]PropertySchema{
	"Enabled":           {Type: "Boolean"},
	"IPV6Enabled":       {Type: "Boolean"},
	"Comment":           {Type: "String"},
	"DefaultRootObject": {Type: "String"},
	"PriceClass": {Type: "String", AllowedValues: []string{
		"PriceClass_100", "PriceClass_200", "PriceClass_All",
	}},
	"Origins": {
		Type:     "List",
		Required: []string{"DomainName", "Id"},
		Properties: map[string]PropertySchema{
			"Id":         {Type: "String"},
			"DomainName": {Type: "String"},
			"S3OriginConfig": {
				Type: "Map",
				Properties: map[string]PropertySchema{
					"OriginAccessIdentity": {Type: "String"},
				},
			},
		},
	},
	"DefaultCacheBehavior": {
		Type:     "Map",
		Required: []string{"TargetOriginId", "ViewerProtocolPolicy"},
		Properties: map[string]PropertySchema{
			"TargetOriginId": {Type: "String"},
			"AllowedMethods": {Type: "List"},
			"CachedMethods":  {Type: "List"},
			"ViewerProtocolPolicy": {Type: "String", AllowedValues: []string{
				"allow-all", "https-only", "redirect-to-https",
			}},
			"ForwardedValues": {
				Type:     "Map",
				Required: []string{"QueryString"},
				Properties: map[string]PropertySchema{
					"QueryString": {Type: "Boolean"},
					"Cookies": {
						Type:     "Map",
						Required: []string{"Forward"},
						Properties: map[string]PropertySchema{
							"Forward": {Type: "String", AllowedValues: []string{"all", "none", "whitelist"}},
						},
					},
				},
			},
			"Compress":   {Type: "Boolean"},
			"MinTTL":     {Type: "Integer"},
			"DefaultTTL": {Type: "Integer"},
			"MaxTTL":     {Type: "Integer"},
		},
	},
	"Logging": {
		Type:     "Map",
		Required: []string{"Bucket"},
		Properties: map[string]PropertySchema{
			"Bucket":         {Type: "String"},
			"Prefix":         {Type: "String"},
			"IncludeCookies": {Type: "Boolean"},
		},
	},
	"Restrictions": {
		Type:     "Map",
		Required: []string{"GeoRestriction"},
		Properties: map[string]PropertySchema{
			"GeoRestriction": {
				Type:     "Map",
				Required: []string{"RestrictionType"},
				Properties: map[string]PropertySchema{
					"RestrictionType": {Type: "String", AllowedValues: []string{"blacklist", "none", "whitelist"}},
					"Locations":       {Type: "List"},
				},
			},
		},
	},
	"ViewerCertificate": {
		Type: "Map",
		Properties: map[string]PropertySchema{
			"CloudFrontDefaultCertificate": {Type: "Boolean"},
		},
	},
}

// KnownResourceTypes returns the resource types that have schemas.
func KnownResourceTypes() []string {
	types := make([]string, 0, len(resourceSchemas))
	for t := range resourceSchemas {
		types = append(types, t)
	}
	return types
}
