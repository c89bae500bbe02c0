package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/ChamsBouzaiene/autoloop/internal/commands"
	"github.com/ChamsBouzaiene/autoloop/internal/commands/builtin"
	"github.com/ChamsBouzaiene/autoloop/internal/config"
	"github.com/ChamsBouzaiene/autoloop/internal/engine"
	"github.com/ChamsBouzaiene/autoloop/internal/memory"
	"github.com/ChamsBouzaiene/autoloop/internal/plugins"
	"github.com/ChamsBouzaiene/autoloop/internal/project"
	"github.com/ChamsBouzaiene/autoloop/internal/prompts"
	"github.com/ChamsBouzaiene/autoloop/internal/providers"
	"github.com/ChamsBouzaiene/autoloop/internal/session"
)

type runtimeEnv struct {
	Workspace string
	Config    *config.Config
	Agent     *engine.Agent
	Session   *session.Session
	Memory    memory.Provider

	store      *session.Store
	summarizer *session.Summarizer
	memCloser  io.Closer
	events     *eventLog
	logger     *log.Logger
}

func (r *runtimeEnv) Close() {
	if r.events != nil {
		if err := r.events.Close(); err != nil {
			r.logger.Printf("⚠️  Event log: %v", err)
		}
		r.events = nil
	}
	if r.memCloser != nil {
		if err := r.memCloser.Close(); err != nil {
			r.logger.Printf("⚠️  Failed to close memory: %v", err)
		}
	}
}

// Persist saves the session after each step. The title is generated once,
// after the first step.
func (r *runtimeEnv) Persist(ctx context.Context, a *engine.Agent) error {
	r.Session.Capture(a)
	if r.Session.Title == "" && len(r.Session.Records) > 0 {
		title, err := r.summarizer.GenerateTitle(ctx, r.Session.Records)
		if err != nil {
			r.logger.Printf("⚠️  %v", err)
			title = "New Session"
		}
		r.Session.Title = title
	}
	if err := r.store.Save(r.Session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Finish stores a summary of the run for the session list. Failures are
// logged only; the session itself is already saved.
func (r *runtimeEnv) Finish(ctx context.Context) {
	if len(r.Session.Records) == 0 {
		return
	}
	summary, err := r.summarizer.GenerateSummary(ctx, r.Session.Records)
	if err != nil {
		r.logger.Printf("⚠️  %v", err)
		return
	}
	r.Session.Summary = summary
	if err := r.store.Save(r.Session); err != nil {
		r.logger.Printf("⚠️  Failed to save session summary: %v", err)
		return
	}
	r.logger.Printf("💾 Session %s saved", r.Session.ID)
}

func resolveWorkspace(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get current directory: %w", err)
		}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve workspace path: %w", err)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return "", fmt.Errorf("workspace is not a valid directory: %s", abs)
	}
	return abs, nil
}

func loadConfig(flags cliFlags, getenv func(string) string, logger *log.Logger) (*config.Config, *config.Manager, error) {
	var manager *config.Manager
	if flags.ConfigDir != "" {
		manager = config.NewManagerAt(flags.ConfigDir)
	} else {
		var err error
		manager, err = config.NewManager()
		if err != nil {
			return nil, nil, err
		}
	}

	cfg, err := manager.Load()
	if err != nil {
		return nil, nil, err
	}
	if manager.Exists() {
		logger.Printf("User config loaded from: %s", manager.GetConfigPath())
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, nil, err
	}
	if flags.AISettings != "" {
		cfg.AISettingsFile = flags.AISettings
	}
	if flags.PromptSettings != "" {
		cfg.PromptSettingsFile = flags.PromptSettings
	}
	if flags.Functions {
		cfg.OpenAIFunctions = true
	}
	return cfg, manager, nil
}

// loadProfile reads the AI settings, falling back to the default profile when
// the file does not exist.
func loadProfile(path string, logger *log.Logger) (prompts.AIProfile, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Printf("No AI settings at %s, using the default profile", path)
		return prompts.DefaultProfile(), nil
	}
	return prompts.LoadProfile(path)
}

func loadDirectives(path string, logger *log.Logger) (prompts.Directives, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Printf("No prompt settings at %s, using the built-in directives", path)
		return prompts.DefaultDirectives(), nil
	}
	return prompts.LoadDirectives(path)
}

// applyProject layers the workspace's .autoloop overrides onto the loaded
// settings. The returned config is never nil.
func applyProject(workspace string, cfg *config.Config, profile *prompts.AIProfile, directives *prompts.Directives, logger *log.Logger) (*project.ProjectConfig, error) {
	proj, err := project.LoadConfig(workspace)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		proj = &project.ProjectConfig{}
	} else {
		logger.Printf("Project config loaded from: %s", filepath.Join(workspace, project.Dir, project.ConfigFile))
	}

	rules, err := project.LoadRules(workspace)
	if err != nil {
		return nil, err
	}
	directives.Constraints = append(directives.Constraints, rules...)
	profile.Goals = append(profile.Goals, proj.Goals...)
	if cfg.NotesFile == "" {
		cfg.NotesFile = proj.NotesFile
	}
	return proj, nil
}

func relativeTo(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func prepareRuntimeEnv(ctx context.Context, flags cliFlags, getenv func(string) string, out io.Writer) (*runtimeEnv, error) {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	workspace, err := resolveWorkspace(flags.Workspace)
	if err != nil {
		return nil, err
	}
	logger.Printf("Workspace: %s", workspace)

	cfg, manager, err := loadConfig(flags, getenv, logger)
	if err != nil {
		return nil, err
	}

	llm, providerModel, err := providers.NewLLMClient(providerEnv(cfg, getenv))
	if err != nil {
		return nil, err
	}
	cfg.DefaultModels(providerModel)
	for _, w := range cfg.Validate() {
		logger.Printf("⚠️  %s", w)
	}

	profile, err := loadProfile(relativeTo(workspace, cfg.AISettingsFile), logger)
	if err != nil {
		return nil, err
	}
	directives, err := loadDirectives(relativeTo(workspace, cfg.PromptSettingsFile), logger)
	if err != nil {
		return nil, err
	}
	proj, err := applyProject(workspace, cfg, &profile, &directives, logger)
	if err != nil {
		return nil, err
	}

	mem, memCloser, err := memory.New(ctx, cfg.MemoryOptions(filepath.Join(manager.Dir(), "memory")))
	if err != nil {
		return nil, fmt.Errorf("failed to set up memory: %w", err)
	}
	env := &runtimeEnv{
		Workspace: workspace,
		Config:    cfg,
		Memory:    mem,
		memCloser: memCloser,
		logger:    logger,
	}
	if stats, err := mem.GetStats(ctx); err == nil {
		logger.Printf("🧠 Memory: %s", stats)
	}

	var cmdMemory memory.Provider
	if cfg.MemoryBackend != memory.BackendNone {
		cmdMemory = mem
	}
	cmds, err := builtin.Defaults(workspace, cmdMemory)
	if err != nil {
		env.Close()
		return nil, err
	}
	registry, err := commands.NewRegistry(cmds...)
	if err != nil {
		env.Close()
		return nil, err
	}
	for _, name := range proj.DisabledCommands {
		if !registry.Unregister(name) {
			logger.Printf("⚠️  Project disables unknown command %q", name)
		}
	}

	planning := []engine.Plugin{plugins.NewMemoryRecall(mem)}
	if cfg.NotesFile != "" {
		notes, err := plugins.NewNotes(relativeTo(workspace, cfg.NotesFile), "")
		if err != nil {
			env.Close()
			return nil, err
		}
		planning = append(planning, notes)
	}

	env.store = session.NewStore(manager.Dir())
	sess, err := openSession(env.store, flags.Session, workspace, profile.Name)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Session = sess

	llm = providers.WithRetry(llm, logger)

	agentCfg := engine.DefaultAgentConfig()
	agentCfg.Profile = profile
	agentCfg.Directives = directives
	agentCfg.BigBrain = !flags.Fast
	agentCfg.SmartLLM = cfg.SmartLLM
	agentCfg.FastLLM = cfg.FastLLM
	agentCfg.UseFunctions = cfg.OpenAIFunctions
	agentCfg.SendTokenLimit = cfg.SendTokenLimit
	agentCfg.SummaryMaxTokens = cfg.SummaryMaxTokens
	agentCfg.Temperature = cfg.Temperature
	switch {
	case flags.Continuous && flags.ContinuousLimit > 0:
		agentCfg.CycleBudget = engine.Cycles(flags.ContinuousLimit)
	case flags.Continuous:
		agentCfg.CycleBudget = nil
		logger.Println("⚠️  Continuous mode: commands run without authorization")
	default:
		// nothing is authorized until the user answers
		agentCfg.CycleBudget = engine.Cycles(0)
	}

	responseHook := engine.NewResponseHook(profile.Name)
	responseHook.Writer = out
	hooks := engine.Hooks{engine.LoggerHook{L: logger}, responseHook}
	if flags.EventsFile != "" {
		events, err := openEventLog(flags.EventsFile)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.events = events
		hooks = append(hooks, events.Hook())
	}

	agent, err := engine.NewAgentBuilder().
		WithLLM(llm).
		WithRegistry(registry).
		WithConfig(agentCfg).
		WithPlugins(planning...).
		WithHooks(hooks).
		WithSummarizer(engine.NewLLMHistorySummarizer(llm, cfg.FastLLM)).
		WithHistory(sess.History()).
		WithCycleCount(sess.Cycles).
		WithLogger(logger).
		Build()
	if err != nil {
		env.Close()
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	env.Agent = agent
	env.summarizer = session.NewSummarizer(llm, cfg.FastLLM)

	return env, nil
}

func openSession(store *session.Store, id, workspace, aiName string) (*session.Session, error) {
	switch id {
	case "":
		return session.New(workspace, aiName), nil
	case "latest":
		sess, err := store.Latest(workspace)
		if errors.Is(err, session.ErrNotFound) {
			return session.New(workspace, aiName), nil
		}
		return sess, err
	default:
		return store.Load(id, workspace)
	}
}
