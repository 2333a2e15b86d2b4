package slugs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/src-d/schedule-slugs/external"
	"github.com/src-d/schedule-slugs/reporter"
)

// ResolveSpeakers fills in the names of the speakers who only left an email,
// asking the given external service for their public profile.
func ResolveSpeakers(ctx context.Context, s Schedule, r external.Resolver, ignore IgnoreList) error {
	var err error
	s.ForEach(func(id int64, e *Entry) bool {
		if e.Kind != KindSpeaker || e.Name != "" || e.Email == "" {
			return false
		}
		profile, resolveErr := r.ResolveByEmail(ctx, e.Email)
		if ctx.Err() != nil {
			err = ctx.Err()
			return true
		}
		if resolveErr != nil {
			if resolveErr != external.ErrNoMatches {
				logrus.Errorf("error resolving email %s: %s", e.Email, resolveErr)
			}
			reporter.Increment("unresolved speakers")
			return false
		}
		name := cleanName(profile.DisplayName())
		if ignore.isIgnoredName(name) {
			name = cleanName(profile.User)
		}
		if name == "" {
			reporter.Increment("unresolved speakers")
			return false
		}
		e.Name = name
		reporter.Increment("resolved speakers")
		return false
	})
	return err
}
