package external

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// CachedProfile is a resolved profile or a remembered miss.
type CachedProfile struct {
	Profile
	Matched bool // false if there is no match from the external API
}

// CachedResolver is a wrapper around Resolver with an on-disk cache of the
// queried emails. It is safe for concurrent use.
type CachedResolver struct {
	resolver  Resolver
	cachePath string

	lock  sync.RWMutex
	cache map[string]CachedProfile
	dirty int // entries added since the last dump
}

const saveFreq = 20 // Dump cache to file each saveFreq new emails
const csvTrue = "1"
const csvFalse = "0"

var cacheHeader = []string{"email", "user", "name", "match"}

// PathExists reports whether a file or directory exists.
func PathExists(path string) bool {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

// NewCachedResolver creates a new resolver with a cache for a given resolver.
func NewCachedResolver(resolver Resolver, cachePath string) (*CachedResolver, error) {
	if cachePath == "" {
		return nil, fmt.Errorf("cachePath cannot be empty")
	}
	logrus.WithFields(logrus.Fields{
		"cachePath": cachePath,
	}).Info("using caching for external resolution")
	cached := &CachedResolver{
		resolver: resolver, cachePath: cachePath, cache: make(map[string]CachedProfile)}
	var err error
	if PathExists(cachePath) {
		err = cached.LoadCache()
	} else {
		// Dump empty cache to make sure that it is possible to write to the file
		err = cached.DumpCache()
	}
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// ResolveByEmail returns the cached profile of email if it was queried
// before and asks the wrapped resolver otherwise.
func (r *CachedResolver) ResolveByEmail(ctx context.Context, email string) (Profile, error) {
	if cached, exists := r.get(email); exists {
		if cached.Matched {
			return cached.Profile, nil
		}
		return Profile{}, ErrNoMatches
	}
	profile, err := r.resolver.ResolveByEmail(ctx, email)
	switch err {
	case nil:
		r.put(email, CachedProfile{profile, true})
	case ErrNoMatches:
		r.put(email, CachedProfile{Matched: false})
	default:
		return profile, err
	}
	if r.needsDump() {
		if dumpErr := r.DumpCache(); dumpErr != nil {
			return profile, dumpErr
		}
	}
	return profile, err
}

func (r *CachedResolver) get(email string) (CachedProfile, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	val, exists := r.cache[email]
	return val, exists
}

func (r *CachedResolver) put(email string, profile CachedProfile) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.cache[email] = profile
	r.dirty++
}

func (r *CachedResolver) needsDump() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.dirty >= saveFreq
}

// LoadCache reads the cache contents from disk.
func (r *CachedResolver) LoadCache() (err error) {
	file, err := os.Open(r.cachePath)
	if err != nil {
		return err
	}
	defer func() {
		errClose := file.Close()
		if err == nil {
			err = errClose
		}
	}()

	reader := csv.NewReader(file)
	header := make(map[string]int)
	r.lock.Lock()
	defer r.lock.Unlock()
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(header) == 0 {
			if len(record) != len(cacheHeader) {
				return fmt.Errorf("invalid CSV file: should have %d columns", len(cacheHeader))
			}
			for index, name := range record {
				header[name] = index
			}
			continue
		}
		if len(record) != len(header) {
			return fmt.Errorf("invalid CSV record: %s", strings.Join(record, ","))
		}
		r.cache[record[header["email"]]] = CachedProfile{
			Profile{User: record[header["user"]], Name: record[header["name"]]},
			record[header["match"]] == csvTrue}
	}
	return nil
}

// DumpCache saves the cache on disk.
func (r *CachedResolver) DumpCache() (err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	logrus.Infof("dumping %d cached profiles to %s", len(r.cache), r.cachePath)
	file, err := os.Create(r.cachePath)
	if err != nil {
		return err
	}
	defer func() {
		errClose := file.Close()
		if err == nil {
			err = errClose
		}
	}()

	writer := csv.NewWriter(file)
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		}
	}()
	if err = writer.Write(cacheHeader); err != nil {
		return err
	}
	emails := make([]string, 0, len(r.cache))
	for email := range r.cache {
		emails = append(emails, email)
	}
	sort.Strings(emails)
	for _, email := range emails {
		cached := r.cache[email]
		match := csvFalse
		if cached.Matched {
			match = csvTrue
		}
		if err = writer.Write([]string{email, cached.User, cached.Name, match}); err != nil {
			return err
		}
	}
	r.dirty = 0
	return nil
}
