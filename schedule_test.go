package slugs

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/src-d/schedule-slugs/reporter"
)

var rawEntries = []rawEntry{
	{kind: "talk", name: "Café de l’Europe!!", email: ""},
	{kind: "Speaker", name: "  Ada   Lovelace ", email: "Ada@Lovelace.org"},
	{kind: "speaker", name: "TBA", email: "grace@navy.mil"},
	{kind: "speaker", name: "", email: "nobody@example.com"},
	{kind: "track", name: "Go", email: ""},
	{kind: "room", name: "unknown", email: ""},
	{kind: "room", name: "K.1.105 (La Fontaine)\t", email: ""},
}

func TestScheduleNew(t *testing.T) {
	require := require.New(t)
	reporter.Reset()
	defer reporter.Reset()
	expected := Schedule{
		1: {ID: 1, Kind: KindTalk, Name: "Café de l’Europe!!"},
		2: {ID: 2, Kind: KindSpeaker, Name: "Ada Lovelace", Email: "ada@lovelace.org"},
		3: {ID: 3, Kind: KindSpeaker, Name: "", Email: "grace@navy.mil"},
		4: {ID: 4, Kind: KindTrack, Name: "Go"},
		5: {ID: 5, Kind: KindRoom, Name: "K.1.105 (La Fontaine)"},
	}
	schedule, err := newSchedule(rawEntries, newTestIgnoreList(t))
	require.NoError(err)
	require.Equal(expected, schedule)

	val, _ := reporter.Get("ignored names")
	require.Equal(2, val)
	val, _ = reporter.Get("ignored emails")
	require.Equal(1, val)
	val, _ = reporter.Get("unnamed speakers")
	require.Equal(1, val)
	val, _ = reporter.Get("entries after filtering")
	require.Equal(5, val)
}

func TestScheduleNewUnknownKind(t *testing.T) {
	_, err := newSchedule([]rawEntry{{kind: "keynote", name: "Opening"}}, newTestIgnoreList(t))
	require.EqualError(t, err, `unknown schedule entry kind "keynote"`)
}

func TestScheduleAssignSlugs(t *testing.T) {
	require := require.New(t)
	reporter.Reset()
	defer reporter.Reset()
	schedule, err := newSchedule(rawEntries, newTestIgnoreList(t))
	require.NoError(err)
	schedule.AssignSlugs()
	var slugs []string
	schedule.ForEach(func(id int64, e *Entry) bool {
		slugs = append(slugs, e.Slug)
		return false
	})
	require.Equal([]string{"cafe_de_leurope", "ada_lovelace", "", "go", "k_1_105_la_fontaine"}, slugs)
	val, _ := reporter.Get("unsluggable names")
	require.Equal(1, val)
}

func TestScheduleRemoveUnnamed(t *testing.T) {
	require := require.New(t)
	schedule, err := newSchedule(rawEntries, newTestIgnoreList(t))
	require.NoError(err)
	require.Equal(1, schedule.RemoveUnnamed())
	require.Len(schedule, 4)
	require.NotContains(schedule, int64(3))
	require.Equal(0, schedule.RemoveUnnamed())
}

func TestScheduleForEach(t *testing.T) {
	require := require.New(t)
	schedule, err := newSchedule(rawEntries, newTestIgnoreList(t))
	require.NoError(err)
	var ids []int64
	schedule.ForEach(func(id int64, e *Entry) bool {
		ids = append(ids, id)
		return false
	})
	require.Equal([]int64{1, 2, 3, 4, 5}, ids)

	ids = nil
	schedule.ForEach(func(id int64, e *Entry) bool {
		ids = append(ids, id)
		return id == 2
	})
	require.Equal([]int64{1, 2}, ids)
}

func TestEntryString(t *testing.T) {
	e := Entry{Kind: KindSpeaker, Name: "Ada Lovelace", Email: "ada@lovelace.org"}
	require.Equal(t, "speaker:Ada Lovelace||ada@lovelace.org", e.String())
}

func TestParseKind(t *testing.T) {
	require := require.New(t)
	for _, s := range []string{"talk", " TALK ", "Speaker", "track", "room"} {
		_, err := parseKind(s)
		require.NoError(err, s)
	}
	_, err := parseKind("")
	require.Error(err)
}

func TestCleanName(t *testing.T) {
	require := require.New(t)
	require.Equal("Ada Lovelace", cleanName(" Ada  Lovelace\t\n"))
	require.Equal("Éowyn", cleanName("Éowyn"))
	require.Equal("", cleanName("   "))
}

func tempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "schedule-slugs")
	require.NoError(t, err)
	return dir, func() {
		require.NoError(t, os.RemoveAll(dir))
	}
}

func TestRawEntriesOnDisk(t *testing.T) {
	require := require.New(t)
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "cache.csv")
	require.NoError(storeRawEntriesOnDisk(path, rawEntries))
	loaded, err := readRawEntriesFromDisk(path)
	require.NoError(err)
	require.Equal(rawEntries, loaded)
}

func TestReadRawEntriesFromDiskInvalid(t *testing.T) {
	require := require.New(t)
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "cache.csv")
	require.NoError(ioutil.WriteFile(path, []byte("kind,name\ntalk,Go\n"), 0666))
	_, err := readRawEntriesFromDisk(path)
	require.EqualError(err, "invalid CSV file: should have 3 columns")

	require.NoError(ioutil.WriteFile(path, []byte("kind,name,mail\ntalk,Go,\n"), 0666))
	_, err = readRawEntriesFromDisk(path)
	require.EqualError(err, "invalid CSV file: missing column email")
}

func TestFindEntriesFromCache(t *testing.T) {
	require := require.New(t)
	reporter.Reset()
	defer reporter.Reset()
	dir, cleanup := tempDir(t)
	defer cleanup()
	path := filepath.Join(dir, "cache.csv")
	require.NoError(ioutil.WriteFile(path, []byte(
		"name,kind,email\n"+
			"Zürich Room,room,\n"+
			"Lightning Talks,track,\n"), 0666))
	// the connection string is never used when the cache exists
	schedule, err := FindEntries(context.Background(), "invalid", path, NewIgnoreList())
	require.NoError(err)
	require.Equal(Schedule{
		1: {ID: 1, Kind: KindRoom, Name: "Zürich Room"},
		2: {ID: 2, Kind: KindTrack, Name: "Lightning Talks"},
	}, schedule)
	val, _ := reporter.Get("entries found")
	require.Equal(2, val)
}
