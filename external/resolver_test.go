package external

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeResolver knows a fixed set of profiles and counts the calls.
type fakeResolver struct {
	mu       sync.Mutex
	profiles map[string]Profile
	calls    map[string]int
	err      error
}

func newFakeResolver(profiles map[string]Profile) *fakeResolver {
	return &fakeResolver{profiles: profiles, calls: map[string]int{}}
}

func (r *fakeResolver) ResolveByEmail(ctx context.Context, email string) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[email]++
	if r.err != nil {
		return Profile{}, r.err
	}
	if p, ok := r.profiles[email]; ok {
		return p, nil
	}
	return Profile{}, ErrNoMatches
}

func (r *fakeResolver) callCount(email string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[email]
}

func TestProfileDisplayName(t *testing.T) {
	require := require.New(t)
	require.Equal("Ada Lovelace", Profile{User: "ada", Name: "Ada Lovelace"}.DisplayName())
	require.Equal("ada", Profile{User: "ada"}.DisplayName())
	require.Equal("", Profile{}.DisplayName())
}

func TestResolversRegistry(t *testing.T) {
	require := require.New(t)
	for _, name := range []string{"github", "gitlab", "bitbucket"} {
		require.Contains(Resolvers, name)
		r, err := Resolvers[name]("", "")
		require.NoError(err)
		require.NotNil(r)
	}
}

func TestResolveAsyncCanceled(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	profile, err := resolveAsync(ctx, func() (Profile, error) {
		return Profile{User: "never"}, nil
	})
	require.Equal(context.Canceled, err)
	require.Equal(Profile{}, profile)

	block := make(chan struct{})
	defer close(block)
	ctx, cancel = context.WithCancel(context.Background())
	go cancel()
	_, err = resolveAsync(ctx, func() (Profile, error) {
		<-block
		return Profile{}, nil
	})
	require.Equal(context.Canceled, err)
}

func TestResolveAsyncResult(t *testing.T) {
	profile, err := resolveAsync(context.Background(), func() (Profile, error) {
		return Profile{User: "ada"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, "ada", profile.User)
}
