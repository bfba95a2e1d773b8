// Command browser-mcp is the JSON-RPC-over-stdio MCP server (spec.md §6):
// it wires a browser.Launcher/Session to the mandatory tool catalog
// (internal/tool/builtin) and serves it over mark3labs/mcp-go's stdio
// transport for an MCP-speaking agent to drive.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AmirTlinov/browser-mcp/internal/affordance"
	"github.com/AmirTlinov/browser-mcp/internal/artifact"
	"github.com/AmirTlinov/browser-mcp/internal/browser"
	"github.com/AmirTlinov/browser-mcp/internal/config"
	"github.com/AmirTlinov/browser-mcp/internal/debugserver"
	"github.com/AmirTlinov/browser-mcp/internal/macro"
	"github.com/AmirTlinov/browser-mcp/internal/mcpserver"
	"github.com/AmirTlinov/browser-mcp/internal/memory"
	"github.com/AmirTlinov/browser-mcp/internal/policy"
	"github.com/AmirTlinov/browser-mcp/internal/telemetry"
	"github.com/AmirTlinov/browser-mcp/internal/tool"
	"github.com/AmirTlinov/browser-mcp/internal/tool/builtin"
)

// serverName/serverVersion surface in the MCP initialize response.
const (
	serverName    = "browser-mcp"
	serverVersion = "0.1.0"
)

func main() {
	root := &cobra.Command{
		Use:   serverName,
		Short: "MCP server that drives Chromium over CDP for an AI agent",
		RunE:  runServe,
	}
	root.AddCommand(newContractSnapshotCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	cfg := config.FromEnv()

	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║           browser-mcp                ║")
	fmt.Println("║   CDP automation over MCP stdio       ║")
	fmt.Println("╚══════════════════════════════════════╝")
	fmt.Printf("🧭 Mode: %s  Headless: %v  Toolset: %s\n", cfg.Mode, cfg.Headless, cfg.Toolset)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	launcher := browser.NewLauncher(cfg)
	sess, err := launcher.Start(ctx)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer launcher.Stop()
	fmt.Printf("🌐 Browser: started (port %d)\n", cfg.Port)

	memStore, err := memory.NewWithPersistence(memory.DefaultCapacity, memoryPath(cfg))
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}
	defer func() {
		if err := memStore.Save(); err != nil {
			log.Printf("⚠️  memory save: %v", err)
		}
	}()

	artDir := artifactDir(cfg)
	artifacts, err := artifact.Open(artDir)
	if err != nil {
		return fmt.Errorf("open artifact store: %w", err)
	}
	defer artifacts.Close()
	fmt.Printf("📦 Artifacts: %s\n", artDir)

	pol, err := policy.New(policyMode(), reliabilityLevel(), nil)
	if err != nil {
		return fmt.Errorf("build policy: %w", err)
	}
	fmt.Printf("🛡️  Policy: mode=%s reliability=%d\n", pol.Mode, pol.Reliability)

	deps := builtin.Deps{
		Session:     sess,
		Telemetry:   telemetry.NewManager(),
		Affordances: affordance.NewRegistry(),
		Memory:      memStore,
		Artifacts:   artifacts,
		Policy:      pol,
		Config:      cfg,
	}

	reg := tool.NewRegistry()
	builtin.RegisterAll(reg, deps)
	if err := reg.InitAll(ctx); err != nil {
		return fmt.Errorf("init tools: %w", err)
	}
	defer reg.CloseAll()
	fmt.Printf("🛠️  Tools: %d registered\n", len(reg.List()))

	cookbookDir := filepath.Join(cfg.AgentMemoryDir, "macros")
	if n, err := macro.LoadOverrides(cookbookDir); err != nil {
		log.Printf("⚠️  macro cookbook: %v", err)
	} else if n > 0 {
		fmt.Printf("📚 Cookbook: %d macro override(s) from %s\n", n, cookbookDir)
	}

	if cfg.MetricsAddr != "" {
		dbg := debugserver.New(reg, launcher)
		go func() {
			if err := dbg.ListenAndServe(cfg.MetricsAddr); err != nil {
				log.Printf("⚠️  debug server: %v", err)
			}
		}()
		fmt.Printf("📈 Debug server: %s (/healthz, /metrics)\n", cfg.MetricsAddr)
	}

	adapter := mcpserver.New(reg, serverName, serverVersion)
	fmt.Println("🔌 Serving MCP over stdio — waiting for tools/call...")
	return adapter.Serve(ctx)
}

func memoryPath(cfg config.BrowserConfig) string {
	if cfg.AgentMemoryDir == "" {
		return ""
	}
	if err := os.MkdirAll(cfg.AgentMemoryDir, 0o700); err != nil {
		log.Printf("⚠️  mkdir %s: %v", cfg.AgentMemoryDir, err)
		return ""
	}
	return filepath.Join(cfg.AgentMemoryDir, "agent_memory.json")
}

func artifactDir(cfg config.BrowserConfig) string {
	dir := cfg.AgentMemoryDir
	if dir == "" {
		dir = ".browser-mcp"
	}
	return filepath.Join(dir, "artifacts")
}

// policyMode/reliabilityLevel read the two policy knobs directly (rather
// than through internal/config) since they gate confirmation/recovery
// behavior the run engine consults per step, not browser-process shape.
func policyMode() policy.Mode {
	if os.Getenv("MCP_POLICY_MODE") == string(policy.ModeStrict) {
		return policy.ModeStrict
	}
	return policy.ModePermissive
}

func reliabilityLevel() int {
	v := os.Getenv("MCP_RELIABILITY")
	if v == "" {
		return int(policy.ReliabilityStandard)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  invalid MCP_RELIABILITY=%q, using default", v)
		return int(policy.ReliabilityStandard)
	}
	return n
}

func newContractSnapshotCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "contract-snapshot",
		Short: "emit the tool catalog (names + schemas) as JSON and Markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runContractSnapshot(outPath)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "contract", "output path prefix (writes <prefix>.json and <prefix>.md)")
	return cmd
}

func runContractSnapshot(outPrefix string) error {
	cfg := config.FromEnv()
	reg := tool.NewRegistry()

	// A snapshot doesn't need a live browser: tools only need Init() for
	// resources the catalog/schema inspection never touches.
	deps := builtin.Deps{
		Config:      cfg,
		Telemetry:   telemetry.NewManager(),
		Affordances: affordance.NewRegistry(),
	}
	builtin.RegisterAll(reg, deps)

	jsonPath := outPrefix + ".json"
	mdPath := outPrefix + ".md"
	if err := writeContractJSON(reg, jsonPath); err != nil {
		return err
	}
	if err := writeContractMarkdown(reg, mdPath); err != nil {
		return err
	}
	fmt.Printf("📄 Wrote %s, %s (%d tools) at %s\n", jsonPath, mdPath, len(reg.List()), time.Now().Format(time.RFC3339))
	return nil
}
