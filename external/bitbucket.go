package external

import (
	"context"
	"net/http"

	"github.com/wbrefvem/go-bitbucket"
)

// BitBucketResolver finds BitBucket users by email.
type BitBucketResolver struct {
	token  string
	client *bitbucket.APIClient
}

// NewBitBucketResolver creates a new resolver given a BitBucket personal access token.
// https://id.atlassian.com/manage/api-tokens
func NewBitBucketResolver(apiURL, token string) (Resolver, error) {
	config := bitbucket.NewConfiguration()
	if apiURL != "" {
		config.BasePath = apiURL
	}
	return BitBucketResolver{token: token, client: bitbucket.NewAPIClient(config)}, nil
}

// ResolveByEmail returns the BitBucket account registered with the given email.
func (r BitBucketResolver) ResolveByEmail(ctx context.Context, email string) (Profile, error) {
	return resolveAsync(ctx, func() (Profile, error) {
		authCtx := ctx
		if r.token != "" {
			authCtx = context.WithValue(ctx, bitbucket.ContextAPIKey, bitbucket.APIKey{Key: r.token})
		}
		// According to https://confluence.atlassian.com/bitbucket/rate-limits-668173227.html
		// this API is not rate-limited.
		u, response, err := r.client.UsersApi.UsersUsernameGet(authCtx, email)
		if err != nil {
			if response != nil && response.StatusCode == http.StatusNotFound {
				return Profile{}, ErrNoMatches
			}
			return Profile{}, err
		}
		return Profile{User: u.AccountId, Name: u.DisplayName}, nil
	})
}
