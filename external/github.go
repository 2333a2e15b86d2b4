package external

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"gopkg.in/google/go-github.v15/github"
)

const maxGitHubFailures = 8

// GitHubResolver finds GitHub users by email.
type GitHubResolver struct {
	client *github.Client
	// retryBase is the first back-off delay, doubled on every failure.
	retryBase time.Duration
}

// NewGitHubResolver creates a new resolver given a GitHub token.
// https://github.com/settings/tokens
func NewGitHubResolver(apiURL, token string) (Resolver, error) {
	if apiURL == "" {
		apiURL = "https://api.github.com/"
	}
	var c *http.Client
	if token != "" {
		c = oauth2.NewClient(
			context.Background(),
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		)
	}
	// The actual upload URL does not matter - we are not going to upload anything.
	client, err := github.NewEnterpriseClient(apiURL, apiURL, c)
	if err != nil {
		return GitHubResolver{}, err
	}
	return GitHubResolver{client: client, retryBase: time.Second}, nil
}

var searchOpts = &github.SearchOptions{
	Sort:        "joined",
	ListOptions: github.ListOptions{PerPage: 1},
}

type callStatus int

const (
	success callStatus = iota
	retry
	fail
)

// ResolveByEmail returns the most recently joined GitHub user with the given email.
func (r GitHubResolver) ResolveByEmail(ctx context.Context, email string) (Profile, error) {
	return resolveAsync(ctx, func() (Profile, error) {
		var failures uint
		user, err := r.findUser(ctx, email, &failures)
		if err != nil {
			return Profile{}, err
		}
		for { // api rate limit retry loop
			u, response, err := r.client.Users.Get(ctx, user)
			switch r.check(ctx, response, err, &failures) {
			case retry:
				continue
			case fail:
				return Profile{}, failure(response, err)
			}
			return Profile{User: u.GetLogin(), Name: u.GetName()}, nil
		}
	})
}

func (r GitHubResolver) findUser(ctx context.Context, email string, failures *uint) (string, error) {
	if isNoReplyEmail(email) {
		return userFromEmail(email), nil
	}
	query := email + " in:email"
	for { // api rate limit retry loop
		result, response, err := r.client.Search.Users(ctx, query, searchOpts)
		switch r.check(ctx, response, err, failures) {
		case retry:
			continue
		case fail:
			return "", failure(response, err)
		}
		if len(result.Users) == 0 {
			if strings.Contains(query, "@") {
				// user+domain may work instead of user@domain
				query = strings.Replace(query, "@", " ", 1)
				continue
			}
			logrus.Warnf("unable to find users for email: %s", email)
			return "", ErrNoMatches
		}
		return result.Users[0].GetLogin(), nil
	}
}

// check classifies the outcome of an API call and sleeps before a retry.
func (r GitHubResolver) check(ctx context.Context, response *github.Response, err error, failures *uint) callStatus {
	if ctx.Err() != nil {
		return fail
	}
	code := 0
	if response != nil && response.Response != nil {
		code = response.StatusCode
	}
	if err == nil && code >= 200 && code < 300 {
		return success
	}

	if code == http.StatusForbidden && response.Header.Get("X-Ratelimit-Remaining") == "0" {
		t, parseErr := strconv.ParseInt(response.Header.Get("X-Ratelimit-Reset"), 10, 64)
		if parseErr != nil {
			logrus.Errorf("bad X-Ratelimit-Reset header: %v", parseErr)
			return fail
		}
		resetTime := time.Unix(t, 0).Add(time.Second)
		logrus.Warnf("rate limit was hit, waiting until %s", resetTime.String())
		if !sleep(ctx, time.Until(resetTime)) {
			return fail
		}
		return retry
	}

	if code == 0 || code >= 500 && code < 600 || code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests {
		*failures++
		if *failures > maxGitHubFailures {
			logrus.Errorf("giving up after %d failures: %v", *failures-1, err)
			return fail
		}
		sleepTime := r.retryBase << (*failures - 1)
		logrus.Warnf("HTTP %d: %v. Sleeping for %s", code, err, sleepTime)
		if !sleep(ctx, sleepTime) {
			return fail
		}
		return retry
	}
	if code != http.StatusNotFound && code != http.StatusUnprocessableEntity {
		logrus.Warnf("HTTP %d: %v", code, err)
	}
	return fail
}

// failure converts the error of a failed call, a missing user is not an API error.
func failure(response *github.Response, err error) error {
	if err == nil ||
		response != nil && response.Response != nil && response.StatusCode == http.StatusNotFound {
		return ErrNoMatches
	}
	return err
}

// sleep waits for d and reports false if ctx was canceled meanwhile.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func isNoReplyEmail(email string) bool {
	return strings.HasSuffix(email, "@users.noreply.github.com")
}

func userFromEmail(email string) string {
	user := strings.Split(email, "@")[0]

	// Some emails can be of the form xxxxx+yyyyyy@users.noreply.github.com
	if strings.Contains(user, "+") {
		user = strings.Split(user, "+")[1]
	}

	return user
}
