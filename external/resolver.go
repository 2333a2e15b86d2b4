// Package external resolves speaker profiles through the public APIs of code
// hosting services, given the email a speaker submitted their talk with.
package external

import (
	"context"
	"errors"
)

// Profile is the public identity of a speaker on an external service.
type Profile struct {
	User string
	Name string
}

// DisplayName returns the personal name if the profile has one and the
// username otherwise.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.User
}

// Resolver defines the external profile service API, currently only by email.
type Resolver interface {
	ResolveByEmail(ctx context.Context, email string) (Profile, error)
}

// ResolverConstructor is the Resolver constructor function type.
type ResolverConstructor func(apiURL, token string) (Resolver, error)

// ErrNoMatches is returned when no matches were found.
var ErrNoMatches = errors.New("no matches found")

// Resolvers is the registered external resolver constructors mapped to shorthands.
var Resolvers = map[string]ResolverConstructor{
	"github":    NewGitHubResolver,
	"gitlab":    NewGitLabResolver,
	"bitbucket": NewBitBucketResolver,
}

// resolveAsync runs resolve in the background and gives up as soon as ctx is
// done. The HTTP clients of the services do not all honor the context.
func resolveAsync(ctx context.Context, resolve func() (Profile, error)) (Profile, error) {
	type result struct {
		profile Profile
		err     error
	}
	if ctx.Err() != nil {
		return Profile{}, context.Canceled
	}
	finished := make(chan result, 1)
	go func() {
		profile, err := resolve()
		finished <- result{profile, err}
	}()
	select {
	case r := <-finished:
		return r.profile, r.err
	case <-ctx.Done():
		return Profile{}, context.Canceled
	}
}
