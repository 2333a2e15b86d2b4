package slugs

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	_ "github.com/go-sql-driver/mysql" // mysql driver registration
	"github.com/sirupsen/logrus"

	"github.com/src-d/schedule-slugs/reporter"
)

// Kind is the type of schedule item a name belongs to.
type Kind string

const (
	// KindTalk is a talk, lightning talk or workshop title.
	KindTalk Kind = "talk"
	// KindSpeaker is a speaker name.
	KindSpeaker Kind = "speaker"
	// KindTrack is a track or devroom name.
	KindTrack Kind = "track"
	// KindRoom is a room name.
	KindRoom Kind = "room"
)

func parseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindTalk, KindSpeaker, KindTrack, KindRoom:
		return k, nil
	}
	return "", fmt.Errorf("unknown schedule entry kind %q", s)
}

// rawEntry is a single row of the schedule export.
type rawEntry struct {
	kind  string
	name  string
	email string
}

// Entry is a named item of the schedule together with its slug.
type Entry struct {
	ID    int64
	Kind  Kind
	Name  string
	Email string
	Slug  string
}

// String describes the entry.
func (e Entry) String() string {
	return fmt.Sprintf("%s:%s||%s", e.Kind, e.Name, e.Email)
}

// Schedule is a map of entries indexed by their ID.
type Schedule map[int64]*Entry

func newSchedule(raws []rawEntry, ignore IgnoreList) (Schedule, error) {
	result := make(Schedule)
	var id int64
	for _, raw := range raws {
		kind, err := parseKind(raw.kind)
		if err != nil {
			return nil, err
		}
		name := cleanName(raw.name)
		email := cleanEmail(raw.email)
		if email != "" && ignore.isIgnoredEmail(email) {
			reporter.Increment("ignored emails")
			email = ""
		}
		if name == "" || ignore.isIgnoredName(name) {
			if kind != KindSpeaker || email == "" {
				reporter.Increment("ignored names")
				continue
			}
			// the speaker can still be resolved by the email
			name = ""
			reporter.Increment("unnamed speakers")
		}
		id++
		result[id] = &Entry{ID: id, Kind: kind, Name: name, Email: email}
	}
	reporter.Commit("entries after filtering", len(result))
	return result, nil
}

// cleanName keeps the display casing, only the white space is normalized.
func cleanName(name string) string {
	cleaned := normalizeSpaces(TrimEnd(name))
	if cleaned == name {
		reporter.Increment("clean names")
	}
	return cleaned
}

func cleanEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ForEach executes a function over each entry in the schedule.
// The order is fixed and constant.
func (s Schedule) ForEach(f func(int64, *Entry) bool) {
	var keys = make([]int64, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if stop := f(k, s[k]); stop {
			return
		}
	}
}

// AssignSlugs sets the slug of every entry from its name.
func (s Schedule) AssignSlugs() {
	s.ForEach(func(id int64, e *Entry) bool {
		e.Slug = ToSlug(e.Name)
		if !hasAlphanumeric(e.Slug) {
			logrus.Warnf("cannot make a slug for %s", e)
			reporter.Increment("unsluggable names")
		}
		return false
	})
}

// RemoveUnnamed deletes the entries which still have no name.
func (s Schedule) RemoveUnnamed() int {
	removed := 0
	for id, e := range s {
		if e.Name == "" {
			delete(s, id)
			removed++
		}
	}
	if removed > 0 {
		reporter.Commit("unnamed entries removed", removed)
	}
	return removed
}

// FindEntries returns all the schedule entries in the database or from the disk cache.
func FindEntries(ctx context.Context, connString string, cachePath string,
	ignore IgnoreList) (Schedule, error) {
	raws, err := findRawEntries(ctx, connString, cachePath)
	if err != nil {
		return nil, err
	}
	reporter.Commit("entries found", len(raws))
	return newSchedule(raws, ignore)
}

const findEntriesSQL = `
SELECT kind, name, COALESCE(email, '')
FROM schedule_entries;
`

var rawEntriesHeader = []string{"kind", "name", "email"}

func readRawEntriesFromDisk(filePath string) (entries []rawEntry, err error) {
	var file *os.File
	file, err = os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		errClose := file.Close()
		if err == nil {
			err = errClose
		}
	}()

	r := csv.NewReader(file)
	header := make(map[string]int)
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(header) == 0 {
			if len(record) != len(rawEntriesHeader) {
				return nil, fmt.Errorf("invalid CSV file: should have %d columns",
					len(rawEntriesHeader))
			}
			for index, name := range record {
				header[name] = index
			}
			for _, name := range rawEntriesHeader {
				if _, exists := header[name]; !exists {
					return nil, fmt.Errorf("invalid CSV file: missing column %s", name)
				}
			}
			continue
		}
		entries = append(entries, rawEntry{
			kind:  record[header["kind"]],
			name:  record[header["name"]],
			email: record[header["email"]]})
	}
	return entries, nil
}

func readRawEntriesFromDatabase(ctx context.Context, conn string) (result []rawEntry, err error) {
	db, err := sql.Open("mysql", conn)
	if err != nil {
		return nil, err
	}
	defer func() {
		errClose := db.Close()
		if err == nil {
			err = errClose
		}
	}()

	rows, err := db.QueryContext(ctx, findEntriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spin := spinner.New(spinner.CharSets[11], 100*time.Millisecond)
	spin.Start()
	defer spin.Stop()
	for rows.Next() {
		spin.Suffix = fmt.Sprintf(" %d", len(result)+1)
		var kind, name, email string
		if err := rows.Scan(&kind, &name, &email); err != nil {
			return nil, err
		}
		result = append(result, rawEntry{kind, name, email})
	}

	return result, rows.Err()
}

func storeRawEntriesOnDisk(filePath string, entries []rawEntry) (err error) {
	var file *os.File
	file, err = os.Create(filePath)
	if err != nil {
		return
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
	err = writer.Write(rawEntriesHeader)
	if err != nil {
		return
	}
	for _, e := range entries {
		err = writer.Write([]string{e.kind, e.name, e.email})
		if err != nil {
			return
		}
	}
	return
}

func findRawEntries(ctx context.Context, connStr string, path string) ([]rawEntry, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return readRawEntriesFromDisk(path)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	logrus.Printf("not cached in %s, loading from the database", path)
	result, err := readRawEntriesFromDatabase(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if path != "" {
		logrus.Printf("caching the result to %s", path)
		if err := storeRawEntriesOnDisk(path, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}
