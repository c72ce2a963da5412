package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNewBot(t *testing.T) {
	cfg := &Config{
		DiscordToken: "test-token",
	}

	b := NewBot(cfg)

	if b == nil {
		t.Fatal("expected bot to be created, got nil")
	}
	if b.config != cfg {
		t.Error("expected config to be stored")
	}
}

func TestBot_LoadModules_InitializesModules(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	initCalled := false
	mod := &stubModule{
		name:    "test",
		initErr: nil,
	}
	// Track if Init was called by wrapping
	origMod := mod
	b.modules = []Module{origMod}

	// Use a custom stub that tracks init
	trackingMod := &trackingStubModule{
		stubModule: stubModule{name: "tracking"},
		initCalled: &initCalled,
	}
	b.modules = []Module{trackingMod}

	err := b.initModules()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !initCalled {
		t.Error("expected Init to be called")
	}
}

func TestBot_LoadModules_ReturnsInitError(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	expectedErr := errors.New("init failed")
	mod := &stubModule{
		name:    "failing",
		initErr: expectedErr,
	}
	b.modules = []Module{mod}

	err := b.initModules()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestBot_BuildHandlerMap(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}

	mod := &stubModule{
		name: "test",
		handlers: map[string]InteractionHandler{
			"ping": handler,
		},
	}
	b.modules = []Module{mod}

	b.buildHandlerMap()

	if _, ok := b.handlers["ping"]; !ok {
		t.Error("expected ping handler to be registered")
	}
}

func TestBot_BuildHandlerMap_MultipleModules(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	handler1 := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}
	handler2 := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}

	mod1 := &stubModule{
		name: "mod1",
		handlers: map[string]InteractionHandler{
			"cmd1": handler1,
		},
	}
	mod2 := &stubModule{
		name: "mod2",
		handlers: map[string]InteractionHandler{
			"cmd2": handler2,
		},
	}
	b.modules = []Module{mod1, mod2}

	b.buildHandlerMap()

	if len(b.handlers) != 2 {
		t.Errorf("expected 2 handlers, got %d", len(b.handlers))
	}
}

func TestBot_CollectCommands(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	cmd := &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Ping command",
	}

	mod := &stubModule{
		name:     "test",
		commands: []*discordgo.ApplicationCommand{cmd},
	}
	b.modules = []Module{mod}

	commands := b.collectCommands()

	if len(commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(commands))
	}
	if commands[0].Name != "ping" {
		t.Errorf("expected command name %q, got %q", "ping", commands[0].Name)
	}
}

// trackingStubModule is a stub that tracks if Init was called
type trackingStubModule struct {
	stubModule
	initCalled *bool
}

func (m *trackingStubModule) Init(deps ModuleDependencies) error {
	*m.initCalled = true
	return m.stubModule.Init(deps)
}

// configurableStubModule is a stub that records LoadConfig calls
type configurableStubModule struct {
	stubModule
	loadErr    error
	loadCalled bool
}

func (m *configurableStubModule) LoadConfig() error {
	m.loadCalled = true
	return m.loadErr
}

func TestBot_LoadModuleConfigs(t *testing.T) {
	tests := []struct {
		name    string
		loadErr error
		wantErr bool
	}{
		{name: "config loaded", loadErr: nil, wantErr: false},
		{name: "config error propagated", loadErr: errors.New("missing env"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBot(&Config{DiscordToken: "test-token"})
			configurable := &configurableStubModule{
				stubModule: stubModule{name: "configurable"},
				loadErr:    tt.loadErr,
			}
			plain := &stubModule{name: "plain"}
			b.modules = []Module{plain, configurable}

			err := b.loadModuleConfigs()
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tt.wantErr && !errors.Is(err, tt.loadErr) {
				t.Errorf("expected wrapped %v, got %v", tt.loadErr, err)
			}
			if !configurable.loadCalled {
				t.Error("expected LoadConfig to be called")
			}
		})
	}
}

func TestBot_InitModules_PassesSession(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})
	b.session = &discordgo.Session{}

	var got ModuleDependencies
	mod := &depsRecordingModule{deps: &got}
	b.modules = []Module{mod}

	if err := b.initModules(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Session != b.session {
		t.Error("expected session to be passed to module")
	}
}

// depsRecordingModule records the dependencies passed to Init
type depsRecordingModule struct {
	stubModule
	deps *ModuleDependencies
}

func (m *depsRecordingModule) Init(deps ModuleDependencies) error {
	*m.deps = deps
	return nil
}

// autocompleteStubModule is a stub that provides autocomplete handlers
type autocompleteStubModule struct {
	stubModule
	autocomplete map[string]AutocompleteHandler
}

func (m *autocompleteStubModule) AutocompleteHandlers() map[string]AutocompleteHandler {
	return m.autocomplete
}

func TestBot_BuildHandlerMap_Autocomplete(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})

	called := false
	mod := &autocompleteStubModule{
		stubModule: stubModule{name: "music"},
		autocomplete: map[string]AutocompleteHandler{
			"play": func(s *discordgo.Session, i *discordgo.InteractionCreate) { called = true },
		},
	}
	b.modules = []Module{mod, &stubModule{name: "plain"}}

	b.buildHandlerMap()

	handler, ok := b.autocomplete["play"]
	if !ok {
		t.Fatal("expected play autocomplete handler to be registered")
	}
	handler(nil, nil)
	if !called {
		t.Error("expected registered handler to be the module's handler")
	}
	if len(b.autocomplete) != 1 {
		t.Errorf("expected 1 autocomplete handler, got %d", len(b.autocomplete))
	}
}
