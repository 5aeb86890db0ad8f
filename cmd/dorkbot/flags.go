package main

import (
	"flag"
	"strings"
)

// multiFlag collects repeatable flag values.
type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

// AppFlags holds the parsed command-line surface.
type AppFlags struct {
	ConfigFile string
	Directory  string
	Database   string
	LogFile    string
	Verbose    bool

	Source     string
	ShowSource bool
	Count      int
	CountSet   bool
	Random     bool

	ListTargets   bool
	ListUnscanned bool
	AddTarget     string
	DeleteTarget  string
	FlushTargets  bool

	Indexer     string
	IndexerArgs []string

	Scanner     string
	ScannerArgs []string
	ReportDir   string
	Label       string

	FlushFingerprints bool

	ListBlocklist      bool
	AddBlocklistItem   string
	DeleteBlocklistItem string
	FlushBlocklist     bool
	ExternalBlocklists []string

	Prune bool
}

// HasOperation reports whether any database operation was requested;
// without one the program prints usage and exits.
func (f AppFlags) HasOperation() bool {
	return f.Indexer != "" || f.Scanner != "" || f.Prune ||
		f.ListTargets || f.ListUnscanned || f.FlushTargets ||
		f.AddTarget != "" || f.DeleteTarget != "" ||
		f.ListBlocklist || f.FlushBlocklist ||
		f.AddBlocklistItem != "" || f.DeleteBlocklistItem != "" ||
		f.FlushFingerprints
}

// ParseFlags parses the command line. Short aliases mirror their long
// forms and the long form wins when both are given.
func ParseFlags() AppFlags {
	configFile := flag.String("config", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	configFileAlias := flag.String("c", "", "Alias for -config")

	directory := flag.String("directory", "", "Working directory (default location of database and reports)")
	directoryAlias := flag.String("r", "", "Alias for -directory")

	database := flag.String("database", "", "Database file or connection URI (postgresql:// or phoenixdb://)")
	databaseAlias := flag.String("d", "", "Alias for -database")

	logFile := flag.String("log", "", "Path to log file")
	verbose := flag.Bool("verbose", false, "Enable verbose logging (debug output)")
	verboseAlias := flag.Bool("v", false, "Alias for -verbose")

	source := flag.String("source", "", "Label associated with targets")
	showSource := flag.Bool("show-source", false, "Include the source label when listing targets")
	count := flag.Int("count", -1, "Number of urls to scan or list, or -1 for all")
	random := flag.Bool("random", false, "Retrieve urls in random order")

	listTargets := flag.Bool("list-targets", false, "List targets in database")
	listTargetsAlias := flag.Bool("l", false, "Alias for -list-targets")
	listUnscanned := flag.Bool("list-unscanned", false, "List unscanned targets in database")
	addTarget := flag.String("add-target", "", "Add a url to the target database")
	deleteTarget := flag.String("delete-target", "", "Delete a url from the target database")
	flushTargets := flag.Bool("flush-targets", false, "Delete all targets")

	indexerName := flag.String("indexer", "", "Indexer module to use")
	indexerNameAlias := flag.String("i", "", "Alias for -indexer")
	var indexerArgs multiFlag
	flag.Var(&indexerArgs, "indexer-arg", "Pass a key=value argument to the indexer module (repeatable)")
	flag.Var(&indexerArgs, "o", "Alias for -indexer-arg")

	scannerName := flag.String("scanner", "", "Scanner module to use")
	scannerNameAlias := flag.String("s", "", "Alias for -scanner")
	var scannerArgs multiFlag
	flag.Var(&scannerArgs, "scanner-arg", "Pass a key=value argument to the scanner module (repeatable)")
	flag.Var(&scannerArgs, "p", "Alias for -scanner-arg")
	reportDir := flag.String("report-dir", "", "Directory to store scan reports")
	label := flag.String("label", "", "Label written into scan reports")

	flushFingerprints := flag.Bool("flush-fingerprints", false, "Delete all fingerprints of previously-scanned items")
	flushFingerprintsAlias := flag.Bool("f", false, "Alias for -flush-fingerprints")

	listBlocklist := flag.Bool("list-blocklist", false, "List internal blocklist entries")
	addBlocklistItem := flag.String("add-blocklist-item", "", "Add an ip/host/regex pattern to the internal blocklist")
	deleteBlocklistItem := flag.String("delete-blocklist-item", "", "Delete an item from the internal blocklist")
	flushBlocklist := flag.Bool("flush-blocklist", false, "Delete all internal blocklist items")
	var externalBlocklists multiFlag
	flag.Var(&externalBlocklists, "external-blocklist", "Supplemental external blocklist file/db (repeatable)")
	flag.Var(&externalBlocklists, "b", "Alias for -external-blocklist")

	pruneFlag := flag.Bool("prune", false, "Apply fingerprinting and blocklist without scanning")
	pruneFlagAlias := flag.Bool("u", false, "Alias for -prune")

	flag.Parse()

	flags := AppFlags{
		LogFile:             *logFile,
		Verbose:             *verbose || *verboseAlias,
		Source:              *source,
		ShowSource:          *showSource,
		Count:               *count,
		Random:              *random,
		ListTargets:         *listTargets || *listTargetsAlias,
		ListUnscanned:       *listUnscanned,
		AddTarget:           *addTarget,
		DeleteTarget:        *deleteTarget,
		FlushTargets:        *flushTargets,
		IndexerArgs:         indexerArgs,
		ScannerArgs:         scannerArgs,
		ReportDir:           *reportDir,
		Label:               *label,
		FlushFingerprints:   *flushFingerprints || *flushFingerprintsAlias,
		ListBlocklist:       *listBlocklist,
		AddBlocklistItem:    *addBlocklistItem,
		DeleteBlocklistItem: *deleteBlocklistItem,
		FlushBlocklist:      *flushBlocklist,
		ExternalBlocklists:  externalBlocklists,
		Prune:               *pruneFlag || *pruneFlagAlias,
	}

	flags.ConfigFile = firstNonEmpty(*configFile, *configFileAlias)
	flags.Directory = firstNonEmpty(*directory, *directoryAlias)
	flags.Database = firstNonEmpty(*database, *databaseAlias)
	flags.Indexer = firstNonEmpty(*indexerName, *indexerNameAlias)
	flags.Scanner = firstNonEmpty(*scannerName, *scannerNameAlias)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "count" {
			flags.CountSet = true
		}
	})

	return flags
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// parseModuleArgs turns repeated key=value arguments into a map. A bare
// key maps to an empty value.
func parseModuleArgs(args []string) map[string]string {
	parsed := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		parsed[key] = value
	}
	return parsed
}
