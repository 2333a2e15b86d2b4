package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	slugs "github.com/src-d/schedule-slugs"
	"github.com/src-d/schedule-slugs/external"
	"github.com/src-d/schedule-slugs/reporter"
)

type cliArgs struct {
	Host            string
	Port            uint
	User            string
	Password        string
	Database        string
	Cache           string
	Output          string
	Postgres        string
	PostgresTable   string
	External        string
	APIURL          string
	Token           string
	ExternalCache   string
	FailOnCollision bool
	Names           []string
}

const tokenEnv = "SCHEDULE_SLUGS_TOKEN"

var version string
var build string
var commit string

func printBanner() {
	fmt.Println(strings.Repeat("=", 80))

	wrap := func(s string) string {
		return s + strings.Repeat(" ", 80-len(s)-1) + "="
	}

	fmt.Println(wrap("= src-d/schedule-slugs " + version))
	fmt.Println(wrap("= git " + commit))
	fmt.Println(wrap("= built on " + build))
	fmt.Println(strings.Repeat("=", 80))
}

func main() {
	args := parseArgs()
	if len(args.Names) > 0 {
		if err := printSlugs(os.Stdin, os.Stdout, args.Names); err != nil {
			logrus.Fatalf("failed to read the names: %v", err)
		}
		return
	}
	printBanner()

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt)
	go func() {
		<-signals
		cancel()
	}()

	var resolver external.Resolver
	if args.External != "" {
		var err error
		resolver, err = external.Resolvers[args.External](args.APIURL, args.Token)
		if err != nil {
			logrus.Fatalf("failed to initialize %s: %v", args.External, err)
		}
		if args.ExternalCache != "" {
			resolver, err = external.NewCachedResolver(resolver, args.ExternalCache)
			if err != nil {
				logrus.Fatalf("failed to initialize cached %s: %v", args.External, err)
			}
		}
	}

	logrus.Info("fetching the schedule entries")
	start := time.Now()
	schedule, err := slugs.FindEntries(ctx, mysqlDSN(args), args.Cache, slugs.NewIgnoreList())
	if err != nil {
		logrus.Fatalf("failed to fetch the schedule: %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"elapsed": time.Since(start),
		"count":   len(schedule),
	}).Info("found entries")

	if resolver != nil {
		logrus.Info("resolving speakers")
		start = time.Now()
		err := slugs.ResolveSpeakers(ctx, schedule, resolver, slugs.NewIgnoreList())
		if cached, ok := resolver.(*external.CachedResolver); ok {
			if dumpErr := cached.DumpCache(); dumpErr != nil {
				logrus.Errorf("failed to save the %s cache: %v", args.External, dumpErr)
			}
		}
		if err != nil {
			logrus.Fatalf("failed to resolve speakers: %v", err)
		}
		logrus.WithFields(logrus.Fields{
			"elapsed": time.Since(start),
		}).Info("resolved speakers")
	}
	if removed := schedule.RemoveUnnamed(); removed > 0 {
		logrus.Warnf("dropped %d speakers without a name", removed)
	}

	start = time.Now()
	schedule.AssignSlugs()
	collisions := schedule.Collisions()
	for _, c := range collisions {
		logrus.WithFields(logrus.Fields{
			"kind":  c.Kind,
			"slug":  c.Slug,
			"names": strings.Join(c.Names, " | "),
		}).Warn("slug collision")
	}
	logrus.WithFields(logrus.Fields{
		"elapsed":    time.Since(start),
		"collisions": len(collisions),
	}).Info("assigned slugs")
	if args.FailOnCollision && len(collisions) > 0 {
		logrus.Fatalf("%d slug collisions found", len(collisions))
	}

	if args.Output != "" {
		start = time.Now()
		if err := schedule.WriteToParquet(args.Output); err != nil {
			logrus.Fatalf("failed to store the slugs: %v", err)
		}
		logrus.WithFields(logrus.Fields{
			"elapsed": time.Since(start),
			"path":    args.Output,
		}).Info("stored slugs")
	}
	if args.Postgres != "" {
		start = time.Now()
		if err := schedule.WriteToPostgres(ctx, args.Postgres, args.PostgresTable); err != nil {
			logrus.Fatalf("failed to store the slugs in postgres: %v", err)
		}
		logrus.WithFields(logrus.Fields{
			"elapsed": time.Since(start),
			"table":   args.PostgresTable,
		}).Info("stored slugs in postgres")
	}

	if err := reporter.Write(os.Stdout); err != nil {
		logrus.Fatalf("failed to write the report: %v", err)
	}
}

// printSlugs writes the slug of every name, "-" stands for the lines of in.
func printSlugs(in io.Reader, out io.Writer, names []string) error {
	for _, name := range names {
		if name != "-" {
			if _, err := fmt.Fprintln(out, slugs.ToSlug(name)); err != nil {
				return err
			}
			continue
		}
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if _, err := fmt.Fprintln(out, slugs.ToSlug(slugs.TrimEnd(scanner.Text()))); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return err
		}
	}
	return nil
}

func mysqlDSN(args cliArgs) string {
	config := mysql.NewConfig()
	config.User = args.User
	config.Passwd = args.Password
	config.Net = "tcp"
	config.Addr = fmt.Sprintf("%s:%d", args.Host, args.Port)
	config.DBName = args.Database
	return config.FormatDSN()
}

func parseArgs() cliArgs {
	var resolvers []string
	for key := range external.Resolvers {
		resolvers = append(resolvers, key)
	}
	sort.Strings(resolvers)

	args := cliArgs{}
	flag.StringVar(&args.Host, "host", "0.0.0.0", "schedule database host")
	flag.UintVar(&args.Port, "port", 3306, "schedule database port")
	flag.StringVar(&args.User, "user", "root", "schedule database user")
	flag.StringVar(&args.Password, "password", "", "schedule database password")
	flag.StringVar(&args.Database, "database", "schedule", "schedule database name")
	flag.StringVar(&args.Cache, "cache", "cache-schedule.csv",
		"path to the cached schedule entries, loaded instead of the database if it exists")
	flag.StringVar(&args.Output, "output", "", "path to the parquet file to write")
	flag.StringVar(&args.Postgres, "postgres", "",
		"Postgres connection string to store the slugs, the blank value disables it")
	flag.StringVar(&args.PostgresTable, "postgres-table", "slugs", "Postgres table to create")
	flag.StringVar(&args.External, "external", "",
		"resolve speakers without a name by email, options: "+strings.Join(resolvers, ", "))
	flag.StringVar(&args.APIURL, "api-url", "",
		"API URL of the external service, the blank value means the public website")
	flag.StringVar(&args.Token, "token", "",
		"API token for the external service, defaults to $"+tokenEnv)
	flag.StringVar(&args.ExternalCache, "external-cache", "cache-external-{provider}.csv",
		"path to the cached profiles found by the external service. "+
			"{provider} will be replaced with the external service name.")
	flag.BoolVar(&args.FailOnCollision, "fail-on-collision", false,
		"exit with an error if different names of the same kind share a slug")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [name...]\n\n"+
			"With names, prints their slugs, \"-\" reads the names from stdin.\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.CommandLine.SortFlags = false
	flag.Parse()
	args.Names = flag.Args()

	if args.External != "" {
		if _, exists := external.Resolvers[args.External]; !exists {
			logrus.Fatalf("unsupported external service: %s", args.External)
		}
	}
	if args.Token == "" {
		args.Token = os.Getenv(tokenEnv)
	}
	args.ExternalCache = strings.ReplaceAll(args.ExternalCache, "{provider}", args.External)
	return args
}
