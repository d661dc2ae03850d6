package cmd

import (
	"fmt"

	"github.com/iksnae/xerochat/internal"
	"github.com/iksnae/xerochat/internal/chat"
	"github.com/iksnae/xerochat/internal/completion"
	"github.com/iksnae/xerochat/internal/render"
	"github.com/iksnae/xerochat/internal/terminal"
	"github.com/spf13/cobra"
)

// app holds the components shared by the commands
type app struct {
	paths    internal.StoragePaths
	cfg      *internal.Config
	kv       internal.KVStore
	persist  *internal.Persistence
	store    *internal.Store
	settings *internal.SettingsManager
	pipeline *render.Pipeline
	client   *completion.Client
	view     *terminal.View
	ctl      *chat.Controller
}

// resolvePaths applies --data-dir over the detected locations
func resolvePaths() (internal.StoragePaths, error) {
	paths, err := internal.DetectStoragePaths()
	if err != nil && dataDir == "" {
		return internal.StoragePaths{}, fmt.Errorf("failed to detect storage paths: %w", err)
	}
	if dataDir != "" {
		paths.DataDir = dataDir
		if paths.ConfigDir == "" {
			paths.ConfigDir = dataDir
		}
	}
	return paths, nil
}

// loadConfig reads the config file and applies the persistent flag overrides
func loadConfig() (*internal.Config, internal.StoragePaths, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, paths, err
	}
	path := configPath
	if path == "" {
		path = paths.ConfigPath()
	}
	cfg, err := internal.LoadConfig(path)
	if err != nil {
		return nil, paths, err
	}
	if cfg.DataDir != "" && dataDir == "" {
		paths.DataDir = cfg.DataDir
	}
	if storageDriver != "" {
		cfg.Storage = storageDriver
	}
	if endpointURL != "" {
		cfg.Endpoint = endpointURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, paths, err
	}
	return cfg, paths, nil
}

// newPipeline assembles the render pipeline selected by the config
func newPipeline(rc internal.RenderConfig) *render.Pipeline {
	var opts []render.Option
	if rc.Markdown == "goldmark" {
		opts = append(opts, render.WithMarkdown(render.NewGoldmark()))
	}
	if rc.Sanitizer == "bluemonday" {
		opts = append(opts, render.WithSanitizer(render.NewBluemonday()))
	}
	if rc.Highlight {
		opts = append(opts, render.WithHighlighter(render.NewHighlighter(rc.HighlightStyle)))
	}
	if rc.Math {
		opts = append(opts, render.WithTypesetter(render.DelimiterTypesetter{}))
	}
	return render.New(opts...)
}

// openApp wires storage, settings, rendering, the endpoint client, and the
// terminal view. Callers must Close the returned app.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, paths, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := cfg.OpenKV(paths)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage, err)
	}
	internal.LogDebug("Using %s storage in %s", cfg.Storage, paths.DataDir)

	a := &app{
		paths:    paths,
		cfg:      cfg,
		kv:       kv,
		persist:  internal.NewPersistence(kv),
		pipeline: newPipeline(cfg.Render),
		client:   completion.New(cfg.Endpoint, completion.WithTimeout(cfg.RequestTimeout)),
		view:     terminal.New(cmd.OutOrStdout()),
	}
	a.store = internal.NewStore(a.persist, internal.WithDefaultModel(cfg.DefaultModel))
	a.settings = internal.NewSettingsManager(a.persist)
	a.settings.OnApply(a.view.Apply)
	a.view.Apply(a.settings.Applied())
	a.ctl = chat.NewController(a.store, a.settings, a.pipeline, a.client, a.view,
		chat.WithFallbackModel(cfg.DefaultModel))
	return a, nil
}

// Close releases the storage
func (a *app) Close() {
	if err := a.kv.Close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// resolveSession finds the session named by ref, or the active one when ref is empty
func (a *app) resolveSession(ref string) (*internal.Session, error) {
	if ref == "" {
		sess, ok := a.store.Active()
		if !ok {
			return nil, internal.ErrNoActiveSession
		}
		return sess, nil
	}
	sess, ok := a.store.Resolve(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", internal.ErrSessionNotFound, ref)
	}
	return sess, nil
}

func firstArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}
