package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL of the site (e.g., https://example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`

	// Content configuration
	RegistryFile string `long:"registry-file" env:"REGISTRY_FILE" default:"./posts.yml" description:"YAML file listing published posts"`
	PostsDir     string `long:"posts-dir" env:"POSTS_DIR" default:"./posts" description:"Directory holding post markdown files"`
	ContentURL   string `long:"content-url" env:"CONTENT_URL" description:"Remote content store base URL (posts are fetched from <url>/posts/<filename>)"`
	DBPath       string `long:"db-path" env:"DB_PATH" default:"./data/folio.db" description:"SQLite database file for view statistics"`

	// Rendering
	Renderer     string `long:"renderer" env:"RENDERER" default:"legacy" choice:"legacy" choice:"goldmark" description:"Markdown engine"`
	OrderedLists bool   `long:"ordered-lists" env:"ORDERED_LISTS" description:"Render runs of numbered items as <ol> instead of <ul>"`
	Sanitize     bool   `long:"sanitize" env:"SANITIZE" description:"Sanitize rendered HTML"`

	// Site metadata
	SiteTitle       string `long:"site-title" env:"SITE_TITLE" default:"Blog" description:"Site title used by the page shell and RSS feed"`
	SiteDescription string `long:"site-description" env:"SITE_DESCRIPTION" description:"Site description used by the RSS feed"`

	// Background tasks
	WorkerCount       int `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers"`
	SchedulerInterval int `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Folio/1.0" description:"User agent string for content store requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		APIAccessKey:      raw.APIAccessKey,
		RegistryFile:      raw.RegistryFile,
		PostsDir:          raw.PostsDir,
		ContentURL:        raw.ContentURL,
		DBPath:            raw.DBPath,
		Renderer:          raw.Renderer,
		OrderedLists:      raw.OrderedLists,
		Sanitize:          raw.Sanitize,
		SiteTitle:         raw.SiteTitle,
		SiteDescription:   raw.SiteDescription,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
