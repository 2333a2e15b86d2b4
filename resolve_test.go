package slugs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/src-d/schedule-slugs/external"
	"github.com/src-d/schedule-slugs/reporter"
)

type testResolver struct {
	profiles map[string]external.Profile
	errs     map[string]error
	calls    []string
	cancel   context.CancelFunc
}

func (r *testResolver) ResolveByEmail(ctx context.Context, email string) (external.Profile, error) {
	r.calls = append(r.calls, email)
	if r.cancel != nil {
		r.cancel()
		return external.Profile{}, context.Canceled
	}
	if err, ok := r.errs[email]; ok {
		return external.Profile{}, err
	}
	if p, ok := r.profiles[email]; ok {
		return p, nil
	}
	return external.Profile{}, external.ErrNoMatches
}

func newUnresolvedSchedule() Schedule {
	return Schedule{
		1: {ID: 1, Kind: KindSpeaker, Name: "", Email: "ada@lovelace.org"},
		2: {ID: 2, Kind: KindSpeaker, Name: "Grace Hopper", Email: "grace@navy.mil"},
		3: {ID: 3, Kind: KindSpeaker, Name: "", Email: "linus@kernel.org"},
		4: {ID: 4, Kind: KindSpeaker, Name: "", Email: "ghost@nowhere.org"},
		5: {ID: 5, Kind: KindSpeaker, Name: "", Email: "broken@api.org"},
		6: {ID: 6, Kind: KindTalk, Name: "", Email: "talk@fosdem.org"},
		7: {ID: 7, Kind: KindSpeaker, Name: "", Email: "anon@fosdem.org"},
	}
}

func TestResolveSpeakers(t *testing.T) {
	require := require.New(t)
	reporter.Reset()
	defer reporter.Reset()
	resolver := &testResolver{
		profiles: map[string]external.Profile{
			"ada@lovelace.org": {User: "ada", Name: " Ada  Lovelace "},
			"linus@kernel.org": {User: "torvalds"},
			"anon@fosdem.org":  {User: "anon42", Name: "Unknown"},
		},
		errs: map[string]error{"broken@api.org": errors.New("HTTP 500")},
	}
	schedule := newUnresolvedSchedule()
	require.NoError(ResolveSpeakers(context.Background(), schedule, resolver, newTestIgnoreList(t)))
	require.Equal([]string{
		"ada@lovelace.org", "linus@kernel.org", "ghost@nowhere.org", "broken@api.org", "anon@fosdem.org",
	}, resolver.calls)
	require.Equal("Ada Lovelace", schedule[1].Name)
	require.Equal("Grace Hopper", schedule[2].Name)
	require.Equal("torvalds", schedule[3].Name)
	require.Equal("", schedule[4].Name)
	require.Equal("", schedule[5].Name)
	require.Equal("", schedule[6].Name)
	require.Equal("anon42", schedule[7].Name)

	val, _ := reporter.Get("resolved speakers")
	require.Equal(3, val)
	val, _ = reporter.Get("unresolved speakers")
	require.Equal(2, val)
}

func TestResolveSpeakersCanceled(t *testing.T) {
	require := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	resolver := &testResolver{cancel: cancel}
	schedule := newUnresolvedSchedule()
	err := ResolveSpeakers(ctx, schedule, resolver, newTestIgnoreList(t))
	require.Equal(context.Canceled, err)
	require.Equal([]string{"ada@lovelace.org"}, resolver.calls)
	require.Equal("", schedule[1].Name)
}
