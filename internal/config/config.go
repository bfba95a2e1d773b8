// Package config parses the MCP_* environment variables into an immutable
// BrowserConfig and loads an optional .env file the same way the original
// Pocket-Omega agent does.
package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from a .env file, searching the
// executable directory (walking up to 3 parents) and then the current
// working directory. Silently continues if none is found.
func LoadEnv(paths ...string) {
	if len(paths) > 0 {
		if err := godotenv.Load(paths...); err != nil {
			log.Printf("[Config] No .env file at specified path(s), using system environment variables")
		}
		return
	}
	for _, p := range resolveEnvCandidates() {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err != nil {
				log.Printf("[Config] Failed to load .env from %s: %v", p, err)
			} else {
				log.Printf("[Config] Loaded .env from %s", p)
			}
			return
		}
	}
	log.Printf("[Config] No .env file found, using system environment variables")
}

func resolveEnvCandidates() []string {
	var candidates []string
	seen := map[string]bool{}
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			candidates = append(candidates, p)
		}
	}
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		dir := filepath.Dir(exe)
		for i := 0; i <= 3; i++ {
			add(filepath.Join(dir, ".env"))
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		add(filepath.Join(cwd, ".env"))
	}
	return candidates
}

// Mode selects how the Launcher obtains a Chromium process.
type Mode string

const (
	ModeLaunch    Mode = "launch"
	ModeAttach    Mode = "attach"
	ModeExtension Mode = "extension"
)

// ToolsetVersion selects the default report shape and tool subset (§6).
type ToolsetVersion string

const (
	ToolsetV1 ToolsetVersion = "v1"
	ToolsetV2 ToolsetVersion = "v2"
)

// TimeoutProfile scales the per-step watchdog default (§4.1).
type TimeoutProfile string

const (
	TimeoutFast    TimeoutProfile = "fast"
	TimeoutDefault TimeoutProfile = "default"
	TimeoutSlow    TimeoutProfile = "slow"
)

// BrowserConfig is static, immutable-after-construction process configuration
// (spec.md §3, Core entities / BrowserConfig).
type BrowserConfig struct {
	Binary  string
	Profile string
	Port    int
	Mode    Mode
	Flags   []string

	AllowHosts []string

	HTTPTimeout    time.Duration
	HTTPMaxBytes   int64
	Headless       bool
	WindowW        int
	WindowH        int
	AutoPortFall   bool
	Toolset        ToolsetVersion
	TimeoutProfile TimeoutProfile

	DumpFrames bool
	Trace      bool

	AgentMemoryDir string
	DownloadDir    string

	ExtensionConnectTimeout time.Duration

	MetricsAddr string
}

// FromEnv builds a BrowserConfig from the MCP_* environment variables
// documented in spec.md §6. Unset variables take conservative defaults.
func FromEnv() BrowserConfig {
	c := BrowserConfig{
		Binary:                  os.Getenv("MCP_BROWSER_BINARY"),
		Profile:                 os.Getenv("MCP_BROWSER_PROFILE"),
		Port:                    envInt("MCP_BROWSER_PORT", 9222),
		Mode:                    Mode(envDefault("MCP_BROWSER_MODE", string(ModeLaunch))),
		Flags:                   splitNonEmpty(os.Getenv("MCP_BROWSER_FLAGS")),
		AllowHosts:              splitNonEmpty(os.Getenv("MCP_ALLOW_HOSTS")),
		HTTPTimeout:             time.Duration(envInt("MCP_HTTP_TIMEOUT", 10)) * time.Second,
		HTTPMaxBytes:            int64(envInt("MCP_HTTP_MAX_BYTES", 1<<20)),
		Headless:                envBool("MCP_HEADLESS", true),
		AutoPortFall:            envBool("MCP_AUTO_PORT_FALLBACK", true),
		Toolset:                 ToolsetVersion(envDefault("MCP_TOOLSET", string(ToolsetV2))),
		TimeoutProfile:          TimeoutProfile(envDefault("MCP_TIMEOUT_PROFILE", string(TimeoutDefault))),
		DumpFrames:              envBool("MCP_DUMP_FRAMES", false),
		Trace:                   envBool("MCP_TRACE", false),
		AgentMemoryDir:          envDefault("MCP_AGENT_MEMORY_DIR", ".browser-mcp"),
		DownloadDir:             envDefault("MCP_DOWNLOAD_DIR", filepath.Join(os.TempDir(), "browser-mcp-downloads")),
		ExtensionConnectTimeout: time.Duration(envInt("MCP_EXTENSION_CONNECT_TIMEOUT", 5)) * time.Second,
		MetricsAddr:             os.Getenv("MCP_METRICS_ADDR"),
	}
	w, h := envWindowSize(os.Getenv("MCP_WINDOW_SIZE"))
	c.WindowW, c.WindowH = w, h
	return c
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[Config] invalid int for %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[Config] invalid bool for %s=%q, using default %v", key, v, def)
		return def
	}
	return b
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envWindowSize(s string) (int, int) {
	const defW, defH = 1280, 800
	if s == "" {
		return defW, defH
	}
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return defW, defH
	}
	w, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return defW, defH
	}
	return w, h
}
