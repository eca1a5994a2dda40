package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" validate:"required"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db" validate:"uint"`
	DialTimeout time.Duration `yaml:"dialTimeout"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GameConfig holds the per-player starting balances and store layout knobs.
type GameConfig struct {
	Namespace          string        `yaml:"namespace" validate:"required"`
	StartingCinnamon   int           `yaml:"startingCinnamon" validate:"uint"`
	StartingSeeds      int           `yaml:"startingSeeds" validate:"uint"`
	StartingEnergy     int           `yaml:"startingEnergy" validate:"uint"`
	MaxCinnamon        int           `yaml:"maxCinnamon" validate:"required|min:1"`
	HistoryLimit       int           `yaml:"historyLimit"`
	ActivePlayerWindow time.Duration `yaml:"activePlayerWindow"`
}

type ActionsConfig struct {
	Costs           map[string]int           `yaml:"costs"`
	Cooldowns       map[string]time.Duration `yaml:"cooldowns"`
	CooldownScope   string                   `yaml:"cooldownScope" validate:"in:player,action"`
	CollectAmount   int                      `yaml:"collectAmount"`
	CollectCooldown time.Duration            `yaml:"collectCooldown"`
}

type RetryConfig struct {
	Attempts    int           `yaml:"attempts"`
	BaseDelay   time.Duration `yaml:"baseDelay"`
	CASAttempts int           `yaml:"casAttempts"`
}

type ChronicleConfig struct {
	Enabled        bool          `yaml:"enabled"`
	TickInterval   time.Duration `yaml:"tickInterval"`
	MilestonePosts bool          `yaml:"milestonePosts"`
}

type ArchiveConfig struct {
	FilePath string        `yaml:"filePath"`
	Interval time.Duration `yaml:"interval"`
}

type PlatformConfig struct {
	Enabled        bool          `yaml:"enabled"`
	BaseURL        string        `yaml:"baseURL"`
	Token          string        `yaml:"token"`
	Timeout        time.Duration `yaml:"timeout"`
	UsernameHeader string        `yaml:"usernameHeader"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server          `yaml:"webServer"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Game      GameConfig      `yaml:"game"`
	Actions   ActionsConfig   `yaml:"actions"`
	Retry     RetryConfig     `yaml:"retry"`
	Chronicle ChronicleConfig `yaml:"chronicle"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Platform  PlatformConfig  `yaml:"platform"`
}

const (
	CooldownScopePlayer = "player"
	CooldownScopeAction = "action"
)

var defaultCosts = map[string]int{
	"plant":  5,
	"feed":   3,
	"charge": 10,
	"post":   0,
}

var defaultCooldowns = map[string]time.Duration{
	"plant":  60 * time.Second,
	"feed":   60 * time.Second,
	"charge": 60 * time.Second,
	"post":   300 * time.Second,
}

// Cost returns the cinnamon price of an action, falling back to the built-in table.
func (a ActionsConfig) Cost(action string) int {
	if c, ok := a.Costs[action]; ok {
		return c
	}
	return defaultCosts[action]
}

func (a ActionsConfig) Cooldown(action string) time.Duration {
	if d, ok := a.Cooldowns[action]; ok && d > 0 {
		return d
	}
	return defaultCooldowns[action]
}

func (a ActionsConfig) PerAction() bool {
	return a.CooldownScope == CooldownScopeAction
}

func (g GameConfig) HistoryCap() int {
	if g.HistoryLimit <= 0 {
		return 1000
	}
	return g.HistoryLimit
}

func (g GameConfig) ActiveWindow() time.Duration {
	if g.ActivePlayerWindow <= 0 {
		return time.Hour
	}
	return g.ActivePlayerWindow
}
