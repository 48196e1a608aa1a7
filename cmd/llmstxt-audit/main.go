package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"llmstxt-audit/pkg/assess"
	"llmstxt-audit/pkg/classify"
	"llmstxt-audit/pkg/config"
	"llmstxt-audit/pkg/crawler"
	"llmstxt-audit/pkg/export"
	"llmstxt-audit/pkg/extract"
	"llmstxt-audit/pkg/fetch"
	"llmstxt-audit/pkg/generate"
	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/profile"
	"llmstxt-audit/pkg/storage"
	"llmstxt-audit/pkg/synth"
	"llmstxt-audit/pkg/validate"
)

const version = "0.9.1"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "audit":
		runAudit(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list":
		runList(os.Args[2:])
	case "dismiss":
		runDismiss(os.Args[2:])
	case "version":
		fmt.Printf("llmstxt-audit %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`llmstxt-audit - llms.txt validator and site auditor for charity and funder websites

Usage:
  llmstxt-audit <command> [options]

Commands:
  audit     Crawl a site and assess its llms.txt candidate
  validate  Validate a candidate document without crawling
  list      List stored audit runs
  dismiss   Dismiss findings on a stored audit and re-score
  version   Show version info

Run 'llmstxt-audit <command> -h' for command-specific help.`)
}

// setupLogger creates a configured logrus.Logger with the given log level.
func setupLogger(logLevelStr string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})

	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to 'info'", logLevelStr)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// loadConfig loads and parses the config file. An empty path yields a config
// of pure defaults.
func loadConfig(path string, log *logrus.Logger) *config.AppConfig {
	var cfg config.AppConfig

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read config '%s': %v", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Failed to parse config '%s': %v", path, err)
		}
	}

	warnings, _ := cfg.Validate()
	for _, w := range warnings {
		log.Warnf("Config: %s", w)
	}
	return &cfg
}

// auditContext returns a context cancelled by SIGINT/SIGTERM, with a forced
// exit on the second signal.
func auditContext(log *logrus.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Warnf("Received signal: %v. Initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig = <-sigChan:
			log.Warnf("Received second signal: %v. Forcing exit.", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn("Graceful shutdown period exceeded after signal. Forcing exit.")
			os.Exit(1)
		}
	}()

	return ctx, cancel
}

func runAudit(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	baseURL := fs.String("url", "", "Base URL of the site to audit (required)")
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	profileName := fs.String("profile", "charity", "Assessment profile (charity, funder)")
	candidateFile := fs.String("candidate", "", "Path to the llms.txt candidate to validate against the crawl")
	pageCap := fs.Int("pages", 30, "Maximum pages to fetch")
	maxDepth := fs.Int("depth", 2, "Maximum link depth from the base URL")
	timeout := fs.Duration("timeout", 5*time.Minute, "Overall crawl time budget")
	ignoreRobots := fs.Bool("ignore-robots", false, "Skip robots.txt policy checks (use only on sites you operate)")
	draft := fs.Bool("draft", false, "Write a draft llms.txt skeleton built from the crawl")
	outDir := fs.String("out", "", "Output directory (defaults to config output_base_dir)")
	logLevel := fs.String("loglevel", "info", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llmstxt-audit audit [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  llmstxt-audit audit -url https://example-charity.org.uk\n")
		fmt.Fprintf(os.Stderr, "  llmstxt-audit audit -url https://example-funder.org.uk -profile funder -candidate llms.txt\n")
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	if *baseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -url is required")
		fs.Usage()
		os.Exit(1)
	}

	prof, err := profile.ByName(*profileName)
	if err != nil {
		log.Fatalf("Unknown profile '%s' (expected charity or funder)", *profileName)
	}

	appCfg := loadConfig(*configFile, log)
	crawlCfg := &appCfg.Crawl
	crawlCfg.BaseURL = *baseURL
	crawlCfg.PageCap = *pageCap
	crawlCfg.MaxDepth = *maxDepth
	crawlCfg.CrawlTimeout = *timeout
	crawlCfg.IgnoreRobots = *ignoreRobots

	crawlWarnings, err := crawlCfg.Validate()
	if err != nil {
		log.Fatalf("Invalid crawl configuration: %v", err)
	}
	for _, w := range crawlWarnings {
		log.Warnf("Config: %s", w)
	}

	dir := *outDir
	if dir == "" {
		dir = appCfg.OutputBaseDir
	}

	ctx, cancel := auditContext(log)
	defer cancel()

	// Crawl
	client := fetch.NewClient(appCfg.HTTPClient, log)
	c, err := crawler.New(appCfg, crawlCfg, client, log)
	if err != nil {
		log.Fatalf("Failed to initialize crawler: %v", err)
	}

	crawlResult, err := c.Run(ctx)
	if err != nil {
		log.Warnf("Crawl ended early: %v", err)
	}
	log.Infof("Crawl complete: %d pages, %d failures, %d skips",
		len(crawlResult.Pages), len(crawlResult.Failures), len(crawlResult.Skips))

	if len(crawlResult.Pages) == 0 {
		log.Warn("No pages fetched; the report will record an empty crawl")
	}

	// Extract and classify
	classifier := classify.New(nil)
	pipeline := extract.NewPipeline(appCfg.ExtractWorkers, classifier.Classify, log.WithField("component", "extract"))
	pages, err := pipeline.Run(ctx, crawlResult.Pages)
	if err != nil {
		log.Fatalf("Content extraction failed: %v", err)
	}
	log.Infof("Extracted %d pages", len(pages))

	// Synthesis evidence payload
	if err := synth.InitTokenizer(appCfg.TokenizerEncoding); err != nil {
		log.Warnf("Tokenizer unavailable, falling back to size estimates: %v", err)
	}
	payload, err := synth.BuildPayload(crawlResult.BaseURL, pages, synth.PayloadConfig{})
	if err != nil {
		log.Fatalf("Failed to build evidence payload: %v", err)
	}
	log.Infof("Evidence payload: %d sections, %d tokens", len(payload.Sections), payload.TotalTokens)

	if err := writePayload(dir, payload); err != nil {
		log.Warnf("Failed to write evidence payload: %v", err)
	}

	// Validate and assess the candidate, if one was supplied
	var validation *validate.Result
	var assessment *assess.AssessmentResult
	if *candidateFile != "" {
		doc, err := os.ReadFile(*candidateFile)
		if err != nil {
			log.Fatalf("Failed to read candidate '%s': %v", *candidateFile, err)
		}

		validation = validate.New(prof, log.WithField("component", "validate")).Validate(string(doc))
		assessment = assess.NewAssessor(prof, nil, log.WithField("component", "assess")).
			Assess(validation, crawlResult, pages, nil)

		log.Infof("Assessment: overall %d (%s), completeness %d, quality %d",
			assessment.OverallScore, assessment.Grade,
			assessment.CompletenessScore, assessment.QualityScore)
		for _, f := range assessment.Findings {
			log.Infof("  [%s/%s] %s", f.Category, f.Severity, f.Message)
		}
	}

	// Draft skeleton from the crawl evidence
	if *draft {
		skeleton := generate.Organisation(draftProfile(crawlResult.BaseURL, pages, prof))
		if _, err := export.WriteCandidate(dir, skeleton, log.WithField("component", "export")); err != nil {
			log.Warnf("Failed to write draft candidate: %v", err)
		}
	}

	// Page archive
	if appCfg.EnableArchive {
		archiver := export.NewArchiver(filepath.Join(dir, "pages"), log.WithField("component", "archive"))
		archiver.ArchiveAll(crawlResult)
	}

	// Report
	report := export.NewReport(prof.Name, crawlResult, validation, assessment)
	if _, err := report.WriteJSON(dir, log.WithField("component", "export")); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	// Persist the run
	store, err := storage.NewAuditStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	defer store.Close()

	record, err := store.CreateAudit(crawlResult.BaseURL, prof.Name)
	if err != nil {
		log.Fatalf("Failed to record audit: %v", err)
	}
	if err := store.PutCrawl(record.ID, crawlResult); err != nil {
		log.Errorf("Failed to store crawl result: %v", err)
	}
	if assessment != nil {
		if err := store.PutAssessment(record.ID, assessment); err != nil {
			log.Errorf("Failed to store assessment: %v", err)
		}
	}
	log.Infof("Audit stored with ID %s", record.ID)
}

// draftProfile assembles a skeleton organisation profile from crawl evidence
// alone: page titles become link entries grouped under the profile's
// recommended section names.
func draftProfile(baseURL string, pages []models.ExtractedPage, prof *profile.Profile) *synth.OrganisationProfile {
	name := baseURL
	mission := ""
	var contact models.ContactFacts
	charityNumber := ""

	byCategory := make(map[models.PageCategory][]synth.LinkEntry)
	for _, page := range pages {
		if page.Category == models.CategoryHome {
			if page.Title != "" {
				name = page.Title
			}
			mission = page.Description
		}
		if page.Contact != nil {
			if contact.Email == "" {
				contact.Email = page.Contact.Email
			}
			if contact.Phone == "" {
				contact.Phone = page.Contact.Phone
			}
		}
		if charityNumber == "" {
			charityNumber = page.CharityNumber
		}
		title := page.Title
		if title == "" {
			title = page.URL
		}
		byCategory[page.Category] = append(byCategory[page.Category], synth.LinkEntry{
			Title:       title,
			URL:         page.URL,
			Description: page.Description,
		})
	}

	var sections []synth.ProfileSection
	for _, sectionName := range prof.RecommendedSections {
		tag := strings.ReplaceAll(strings.ToLower(sectionName), " ", "-")
		cat, ok := models.ParsePageCategory(tag)
		if !ok {
			continue
		}
		entries := byCategory[cat]
		if len(entries) == 0 {
			continue
		}
		sections = append(sections, synth.ProfileSection{Name: sectionName, Entries: entries})
	}

	return &synth.OrganisationProfile{
		Name:          name,
		Mission:       mission,
		CharityNumber: charityNumber,
		Contact:       contact,
		Sections:      sections,
	}
}

func writePayload(dir string, payload *synth.Payload) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "evidence_payload.json"), data, 0644)
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	file := fs.String("file", "llms.txt", "Path to the candidate document")
	profileName := fs.String("profile", "charity", "Assessment profile (charity, funder)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llmstxt-audit validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	os.Exit(doValidate(*file, *profileName, log, os.Stdout, os.Stderr))
}

// doValidate validates one document and writes a human-readable summary.
// Returns the exit code (0 = valid, 1 = invalid or error).
func doValidate(file, profileName string, log *logrus.Logger, stdout, stderr io.Writer) int {
	prof, err := profile.ByName(profileName)
	if err != nil {
		fmt.Fprintf(stderr, "Error: unknown profile '%s' (expected charity or funder)\n", profileName)
		return 1
	}

	doc, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result := validate.New(prof, log.WithField("component", "validate")).Validate(string(doc))

	for _, issue := range result.Issues {
		where := ""
		if issue.Line > 0 {
			where = fmt.Sprintf(" (line %d)", issue.Line)
		}
		fmt.Fprintf(stdout, "%s: %s%s\n", strings.ToUpper(string(issue.Severity)), issue.Message, where)
	}
	fmt.Fprintf(stdout, "Structural compliance: %.2f\n", result.StructuralCompliance)
	fmt.Fprintf(stdout, "Sector completeness:   %.2f\n", result.SectorCompleteness)
	if result.TransparencyTier != "" {
		fmt.Fprintf(stdout, "Transparency tier:     %s\n", result.TransparencyTier)
	}

	if !result.IsValid {
		fmt.Fprintln(stdout, "\nDocument is INVALID.")
		return 1
	}
	fmt.Fprintln(stdout, "\nDocument is valid.")
	return 0
}

func runList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)
	appCfg := loadConfig(*configFile, log)

	store, err := storage.NewAuditStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	defer store.Close()

	records, err := store.ListAudits()
	if err != nil {
		log.Fatalf("Failed to list audits: %v", err)
	}
	if len(records) == 0 {
		fmt.Println("No stored audits.")
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s  %-8s %s\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.Profile, r.BaseURL)
	}
}

func runDismiss(args []string) {
	fs := flag.NewFlagSet("dismiss", flag.ExitOnError)
	auditID := fs.String("id", "", "Audit ID (required)")
	findings := fs.String("findings", "", "Comma-separated finding IDs to dismiss (required)")
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	logLevel := fs.String("loglevel", "warn", "Log level (debug, info, warn, error, fatal)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: llmstxt-audit dismiss [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	log := setupLogger(*logLevel)

	if *auditID == "" || *findings == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -findings are required")
		fs.Usage()
		os.Exit(1)
	}

	var findingIDs []string
	for _, id := range strings.Split(*findings, ",") {
		if id = strings.TrimSpace(id); id != "" {
			findingIDs = append(findingIDs, id)
		}
	}

	appCfg := loadConfig(*configFile, log)
	store, err := storage.NewAuditStore(appCfg.StateDir, log.WithField("component", "storage"))
	if err != nil {
		log.Fatalf("Failed to open audit store: %v", err)
	}
	defer store.Close()

	assessment, err := store.GetAssessment(*auditID)
	if err != nil {
		log.Fatalf("Failed to load assessment for audit '%s': %v", *auditID, err)
	}

	if _, err := store.AddDismissed(*auditID, findingIDs...); err != nil {
		log.Fatalf("Failed to record dismissals: %v", err)
	}

	snapshot := assessment.Dismiss(findingIDs...)
	if err := store.PutAssessment(*auditID, assessment); err != nil {
		log.Fatalf("Failed to store re-scored assessment: %v", err)
	}

	fmt.Printf("Overall:      %d (%s)\n", snapshot.OverallScore, snapshot.Grade)
	fmt.Printf("Completeness: %d\n", snapshot.CompletenessScore)
	fmt.Printf("Quality:      %d\n", snapshot.QualityScore)
}
