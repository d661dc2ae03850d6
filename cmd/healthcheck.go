package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckOffline bool
)

// errUnhealthy is returned when a required check fails
var errUnhealthy = errors.New("health check failed")

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that xerochat can store sessions and reach its endpoint",
	Long: `Check the health of xerochat by verifying:
  • Configuration loading
  • Storage access
  • Stored session data
  • The rendering pipeline
  • Endpoint reachability (skipped with --offline)

This command is useful for debugging configuration and storage issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ok := func(msg string) { fmt.Fprintln(out, successStyle.Render("✅ "+msg)) }
		warn := func(msg string) { fmt.Fprintln(out, warningStyle.Render("⚠️  "+msg)) }
		fail := func(msg string, err error) { fmt.Fprintln(out, errorStyle.Render("❌ "+msg+":"), err) }
		detail := func(format string, args ...interface{}) {
			if healthcheckVerbose {
				fmt.Fprintf(out, "   "+format+"\n", args...)
			}
		}

		fmt.Fprintln(out, sectionStyle.Render("🔍 xerochat Health Check"))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		cfg, paths, err := loadConfig()
		if err != nil {
			fail("Failed to load configuration", err)
			return errUnhealthy
		}
		ok("Configuration loaded")
		detail("Config dir: %s", paths.ConfigDir)
		detail("Data dir: %s", paths.DataDir)
		detail("Endpoint: %s", cfg.Endpoint)
		detail("Default model: %s", cfg.DefaultModel)
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 2: Opening storage..."))
		a, err := openApp(cmd)
		if err != nil {
			fail("Failed to open storage", err)
			return errUnhealthy
		}
		defer a.Close()
		keys, err := a.kv.Keys(internal.KeyPrefix)
		if err != nil {
			fail("Storage is not readable", err)
			return errUnhealthy
		}
		ok(fmt.Sprintf("%s storage readable", cfg.Storage))
		detail("Records: %d", len(keys))
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 3: Loading session data..."))
		sessionCount := a.store.Len()
		if sessionCount > 0 {
			ok(fmt.Sprintf("Found %d session(s)", sessionCount))
			for i, sess := range a.store.List("") {
				if i == 5 {
					detail("... and %d more", sessionCount-5)
					break
				}
				detail("[%d] %s (ID: %s)", i+1, sess.Name, shortID(sess.ID))
			}
		} else {
			warn("No sessions found")
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 4: Checking the rendering pipeline..."))
		probe := a.pipeline.Render("**ok** `code`\n\n```go\nfunc main() {}\n```", true)
		if len(render.ExtractCodeBlocks(probe.HTML)) != 1 {
			fail("Rendering pipeline", fmt.Errorf("unexpected output %q", probe.HTML))
			return errUnhealthy
		}
		ok("Rendering pipeline works")
		detail("Capabilities: %s", a.pipeline.Describe())
		fmt.Fprintln(out)

		fmt.Fprintln(out, infoStyle.Render("Step 5: Checking the endpoint..."))
		detail("Endpoint: %s", a.client.Endpoint())
		endpointOK := true
		if healthcheckOffline {
			warn("Skipped (--offline)")
		} else {
			ctx, cancel := context.WithTimeout(commandContext(cmd), 10*time.Second)
			status, err := a.client.Ping(ctx)
			cancel()
			switch {
			case err != nil:
				endpointOK = false
				fail("Endpoint unreachable", err)
			case status >= http.StatusInternalServerError:
				endpointOK = false
				fail("Endpoint unhealthy", fmt.Errorf("status %d", status))
			default:
				ok("Endpoint reachable")
				detail("Status: %d", status)
			}
		}
		fmt.Fprintln(out)

		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)
		if !endpointOK {
			fmt.Fprintln(out, warningStyle.Render("⚠️  Sessions are usable, but replies cannot be fetched"))
			return errUnhealthy
		}
		fmt.Fprintln(out, successStyle.Render("✅ xerochat is ready"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "details", "d", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().BoolVar(&healthcheckOffline, "offline", false, "Skip the endpoint check")
}
