package external

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/xanzy/go-gitlab"
)

// GitLabResolver finds GitLab users by email.
type GitLabResolver struct {
	client *gitlab.Client
}

// NewGitLabResolver creates a new resolver given a GitLab OAuth token.
// https://gitlab.com/profile/personal_access_tokens
func NewGitLabResolver(apiURL, token string) (Resolver, error) {
	if apiURL == "" {
		apiURL = "https://gitlab.com/api/v4"
	}
	r := GitLabResolver{gitlab.NewClient(nil, token)}
	if err := r.client.SetBaseURL(apiURL); err != nil {
		return GitLabResolver{}, err
	}
	return r, nil
}

// ResolveByEmail returns the first GitLab user found by the given email.
func (r GitLabResolver) ResolveByEmail(ctx context.Context, email string) (Profile, error) {
	return resolveAsync(ctx, func() (Profile, error) {
		opts := &gitlab.ListUsersOptions{Search: gitlab.String(email)}
		// TODO: back off on 429, see https://github.com/xanzy/go-gitlab/issues/630
		users, _, err := r.client.Users.ListUsers(opts, gitlab.WithContext(ctx))
		if err != nil {
			return Profile{}, err
		}
		if len(users) == 0 {
			logrus.Warnf("unable to find users for email: %s", email)
			return Profile{}, ErrNoMatches
		}
		return Profile{User: users[0].Username, Name: users[0].Name}, nil
	})
}
