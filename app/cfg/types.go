package cfg

type Cfg struct {
	// Server configuration
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Content configuration
	RegistryFile string
	PostsDir     string
	ContentURL   string
	DBPath       string

	// Rendering
	Renderer     string
	OrderedLists bool
	Sanitize     bool

	// Site metadata
	SiteTitle       string
	SiteDescription string

	// Background tasks
	WorkerCount       int
	SchedulerInterval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
