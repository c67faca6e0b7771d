package lint

import (
	"fmt"
	"sort"
	"strings"

	staticsite "github.com/lex00/wetwire-staticsite-go"
	"github.com/lex00/wetwire-staticsite-go/intrinsics"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
	"github.com/lex00/wetwire-staticsite-go/resources/cloudfront"
	"github.com/lex00/wetwire-staticsite-go/resources/s3"
)

// AllRules returns all rules in ID order.
func AllRules() []Rule {
	return []Rule{
		PublicAccessBlockExplicit{},
		PolicyResourceScope{},
		ACLAfterOwnershipControls{},
		OriginRegionalDomain{},
		LoggingTargetsLogBucket{},
		ViewerProtocolHTTPS{},
		RelaxedPublicAccessBlock{},
	}
}

// PublicAccessBlockExplicit requires every public access block to set all
// four flags, and every bucket with a website configuration to have a
// public access block. A nil flag leaves the account default in force,
// which differs between accounts.
type PublicAccessBlockExplicit struct{}

func (r PublicAccessBlockExplicit) ID() string { return "SS001" }
func (r PublicAccessBlockExplicit) Description() string {
	return "Public access blocks set all four flags explicitly"
}

func (r PublicAccessBlockExplicit) Check(st *stack.Stack) []Issue {
	var issues []Issue
	blocked := make(map[string]bool)

	for _, e := range st.Entries() {
		pab, ok := e.Resource.(s3.PublicAccessBlock)
		if !ok {
			continue
		}
		blocked[pab.Bucket.Resource] = true

		var missing []string
		for name, flag := range pab.Flags() {
			if flag == nil {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			issues = append(issues, newIssue(r, SeverityError, e,
				"public access block leaves "+strings.Join(missing, ", ")+" unset"))
		}
	}

	for _, e := range st.Entries() {
		website, ok := e.Resource.(s3.WebsiteConfiguration)
		if !ok || blocked[website.Bucket.Resource] {
			continue
		}
		issues = append(issues, newIssue(r, SeverityWarning, e,
			"website bucket "+website.Bucket.Resource+" has no public access block"))
	}

	return issues
}

// PolicyResourceScope requires bucket policy statements to target exactly
// the objects of the bucket the policy is attached to.
type PolicyResourceScope struct{}

func (r PolicyResourceScope) ID() string { return "SS002" }
func (r PolicyResourceScope) Description() string {
	return "Bucket policies grant objects of their own bucket only"
}

func (r PolicyResourceScope) Check(st *stack.Stack) []Issue {
	var issues []Issue

	for _, e := range st.Entries() {
		policy, ok := e.Resource.(s3.BucketPolicy)
		if !ok {
			continue
		}
		want := policy.Bucket.Resource + "." + s3.AttrArn + "/*"

		for i, stmt := range policy.Policy.Statement {
			if isObjectScope(stmt.Resource, policy.Bucket.Resource) {
				continue
			}
			issues = append(issues, newIssue(r, SeverityError, e,
				fmt.Sprintf("statement %d resource must be exactly %s", i, want)))
		}
	}

	return issues
}

// isObjectScope reports whether v is Join("", [bucket.Arn, "/*"]).
func isObjectScope(v any, bucket string) bool {
	join, ok := v.(intrinsics.Join)
	if !ok || join.Delimiter != "" || len(join.Values) != 2 {
		return false
	}
	ref, ok := join.Values[0].(staticsite.AttrRef)
	if !ok || ref.Resource != bucket || ref.Attribute != s3.AttrArn {
		return false
	}
	suffix, ok := join.Values[1].(string)
	return ok && suffix == "/*"
}

// ACLAfterOwnershipControls requires each bucket ACL to depend explicitly
// on the ownership controls of the same bucket. Applying the ACL first
// fails while the bucket still enforces owner-only object ownership.
type ACLAfterOwnershipControls struct{}

func (r ACLAfterOwnershipControls) ID() string { return "SS003" }
func (r ACLAfterOwnershipControls) Description() string {
	return "Bucket ACLs depend on the bucket's ownership controls"
}

func (r ACLAfterOwnershipControls) Check(st *stack.Stack) []Issue {
	var issues []Issue

	controls := make(map[string][]string)
	for _, e := range st.Entries() {
		if oc, ok := e.Resource.(s3.OwnershipControls); ok {
			controls[oc.Bucket.Resource] = append(controls[oc.Bucket.Resource], e.Name)
		}
	}

	for _, e := range st.Entries() {
		acl, ok := e.Resource.(s3.BucketACL)
		if !ok {
			continue
		}

		candidates := controls[acl.Bucket.Resource]
		if len(candidates) == 0 {
			issues = append(issues, newIssue(r, SeverityError, e,
				"bucket "+acl.Bucket.Resource+" has an ACL but no ownership controls"))
			continue
		}

		if !dependsOnAny(e, candidates) {
			issues = append(issues, newIssue(r, SeverityError, e,
				"ACL must depend on "+strings.Join(candidates, " or ")))
		}
	}

	return issues
}

func dependsOnAny(e *stack.Entry, names []string) bool {
	for _, dep := range e.DependsOn {
		for _, name := range names {
			if dep == name {
				return true
			}
		}
	}
	return false
}

// OriginRegionalDomain requires S3 origins to point at the bucket's
// regional domain name. The website endpoint does not accept origin
// access identities, and the global name redirects outside us-east-1.
type OriginRegionalDomain struct{}

func (r OriginRegionalDomain) ID() string { return "SS004" }
func (r OriginRegionalDomain) Description() string {
	return "S3 origins use the bucket's regional domain name"
}

func (r OriginRegionalDomain) Check(st *stack.Stack) []Issue {
	var issues []Issue

	for _, e := range st.Entries() {
		dist, ok := e.Resource.(cloudfront.Distribution)
		if !ok {
			continue
		}

		for _, origin := range dist.Origins {
			if origin.S3OriginConfig == nil {
				continue
			}

			ref, ok := origin.DomainName.(staticsite.AttrRef)
			if !ok {
				issues = append(issues, newIssue(r, SeverityError, e,
					fmt.Sprintf("origin %s domain must reference a bucket's %s", origin.ID, s3.AttrRegionalDomainName)))
				continue
			}

			isBucket := false
			if target, found := st.Get(ref.Resource); found {
				_, isBucket = target.Resource.(s3.Bucket)
			}

			switch {
			case !isBucket:
				issues = append(issues, newIssue(r, SeverityError, e,
					fmt.Sprintf("origin %s domain references %s, which is not a bucket", origin.ID, ref)))
			case ref.Attribute == s3.AttrWebsiteURL:
				issues = append(issues, newIssue(r, SeverityError, e,
					fmt.Sprintf("origin %s uses the website endpoint %s; use %s", origin.ID, ref, s3.AttrRegionalDomainName)))
			case ref.Attribute != s3.AttrRegionalDomainName:
				issues = append(issues, newIssue(r, SeverityError, e,
					fmt.Sprintf("origin %s uses %s; use %s", origin.ID, ref, s3.AttrRegionalDomainName)))
			}
		}
	}

	return issues
}

// LoggingTargetsLogBucket requires distribution access logs to go to a
// bucket's domain name, where that bucket is neither an origin nor a
// website bucket, and accepts log delivery through its ACL.
type LoggingTargetsLogBucket struct{}

func (r LoggingTargetsLogBucket) ID() string { return "SS005" }
func (r LoggingTargetsLogBucket) Description() string {
	return "Distribution logs go to a dedicated log bucket"
}

func (r LoggingTargetsLogBucket) Check(st *stack.Stack) []Issue {
	var issues []Issue

	origins := make(map[string]bool)
	websites := make(map[string]bool)
	logDelivery := make(map[string]bool)
	for _, e := range st.Entries() {
		switch res := e.Resource.(type) {
		case cloudfront.Distribution:
			for _, origin := range res.Origins {
				if ref, ok := origin.DomainName.(staticsite.AttrRef); ok {
					origins[ref.Resource] = true
				}
			}
		case s3.WebsiteConfiguration:
			websites[res.Bucket.Resource] = true
		case s3.BucketACL:
			if res.ACL == s3.CannedACLLogDeliveryWrite {
				logDelivery[res.Bucket.Resource] = true
			}
		}
	}

	for _, e := range st.Entries() {
		dist, ok := e.Resource.(cloudfront.Distribution)
		if !ok || dist.Logging == nil {
			continue
		}

		ref, ok := dist.Logging.Bucket.(staticsite.AttrRef)
		if !ok || ref.Attribute != s3.AttrDomainName {
			issues = append(issues, newIssue(r, SeverityError, e,
				"logging bucket must reference a bucket's "+s3.AttrDomainName))
			continue
		}

		target, found := st.Get(ref.Resource)
		if !found {
			continue
		}
		if _, isBucket := target.Resource.(s3.Bucket); !isBucket {
			issues = append(issues, newIssue(r, SeverityError, e,
				"logging target "+ref.Resource+" is not a bucket"))
			continue
		}

		switch {
		case origins[ref.Resource]:
			issues = append(issues, newIssue(r, SeverityError, e,
				"logs are written to origin bucket "+ref.Resource))
		case websites[ref.Resource]:
			issues = append(issues, newIssue(r, SeverityError, e,
				"logs are written to website bucket "+ref.Resource))
		case !logDelivery[ref.Resource]:
			issues = append(issues, newIssue(r, SeverityWarning, e,
				"log bucket "+ref.Resource+" has no "+s3.CannedACLLogDeliveryWrite+" ACL"))
		}
	}

	return issues
}

// ViewerProtocolHTTPS flags cache behaviours that serve plain HTTP.
type ViewerProtocolHTTPS struct{}

func (r ViewerProtocolHTTPS) ID() string { return "SS006" }
func (r ViewerProtocolHTTPS) Description() string {
	return "Viewers are redirected to or restricted to HTTPS"
}

func (r ViewerProtocolHTTPS) Check(st *stack.Stack) []Issue {
	var issues []Issue

	for _, e := range st.Entries() {
		dist, ok := e.Resource.(cloudfront.Distribution)
		if !ok {
			continue
		}
		switch dist.DefaultCacheBehavior.ViewerProtocolPolicy {
		case cloudfront.ViewerProtocolRedirectToHTTPS, cloudfront.ViewerProtocolHTTPSOnly:
		default:
			issues = append(issues, newIssue(r, SeverityWarning, e,
				fmt.Sprintf("viewer protocol policy %q serves plain HTTP", dist.DefaultCacheBehavior.ViewerProtocolPolicy)))
		}
	}

	return issues
}

// RelaxedPublicAccessBlock notes buckets whose public access block is
// relaxed although every policy on the bucket grants an origin access
// identity only. Reads still go through CloudFront; the block is simply
// not what stops public access.
type RelaxedPublicAccessBlock struct{}

func (r RelaxedPublicAccessBlock) ID() string { return "SS007" }
func (r RelaxedPublicAccessBlock) Description() string {
	return "Relaxed public access block on an identity-gated bucket"
}

func (r RelaxedPublicAccessBlock) Check(st *stack.Stack) []Issue {
	var issues []Issue

	gated := make(map[string]bool)
	for _, e := range st.Entries() {
		policy, ok := e.Resource.(s3.BucketPolicy)
		if !ok {
			continue
		}
		bucket := policy.Bucket.Resource
		if _, seen := gated[bucket]; !seen {
			gated[bucket] = true
		}
		for _, stmt := range policy.Policy.Statement {
			if !grantsIdentityOnly(st, stmt.Principal) {
				gated[bucket] = false
			}
		}
	}

	for _, e := range st.Entries() {
		pab, ok := e.Resource.(s3.PublicAccessBlock)
		if !ok || !gated[pab.Bucket.Resource] {
			continue
		}

		var relaxed []string
		for name, flag := range pab.Flags() {
			if flag != nil && !*flag {
				relaxed = append(relaxed, name)
			}
		}
		if len(relaxed) == 0 {
			continue
		}
		sort.Strings(relaxed)
		issues = append(issues, newIssue(r, SeverityInfo, e,
			fmt.Sprintf("%s disabled on %s although its policy grants an origin access identity only",
				strings.Join(relaxed, ", "), pab.Bucket.Resource)))
	}

	return issues
}

// grantsIdentityOnly reports whether principal names only origin access
// identities of the stack.
func grantsIdentityOnly(st *stack.Stack, principal any) bool {
	p, ok := principal.(intrinsics.AWSPrincipal)
	if !ok || len(p) == 0 {
		return false
	}
	for _, item := range p {
		ref, ok := item.(staticsite.AttrRef)
		if !ok {
			return false
		}
		target, found := st.Get(ref.Resource)
		if !found {
			return false
		}
		if _, isOAI := target.Resource.(cloudfront.OriginAccessIdentity); !isOAI {
			return false
		}
	}
	return true
}
