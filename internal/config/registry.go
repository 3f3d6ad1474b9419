package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/solpercival/thoth/pkg/provider/chat"
	"github.com/solpercival/thoth/pkg/provider/synth"
	"github.com/solpercival/thoth/pkg/provider/transcriber"
)

// ErrProviderNotRegistered is returned by the Create* methods when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps backend names to their constructor functions, one map per
// provider kind. The Conversation Core and Date Reasoner each resolve their
// own chat backend by name through the same Registry, since the two may
// point at different providers; the Transcriber and
// Synthesizer backends are registered the same way so main() wires every
// provider kind through one consistent mechanism.
type Registry struct {
	mu          sync.RWMutex
	chat        map[string]func(ChatConfig) (chat.Provider, error)
	transcriber map[string]func(TranscriberConfig) (transcriber.Provider, error)
	synth       map[string]func(SynthConfig) (synth.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		chat:        make(map[string]func(ChatConfig) (chat.Provider, error)),
		transcriber: make(map[string]func(TranscriberConfig) (transcriber.Provider, error)),
		synth:       make(map[string]func(SynthConfig) (synth.Provider, error)),
	}
}

// RegisterChat registers a chat provider factory under name. Subsequent calls
// with the same name overwrite the previous registration.
func (r *Registry) RegisterChat(name string, factory func(ChatConfig) (chat.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chat[name] = factory
}

// CreateChat instantiates a chat provider using the factory registered under name.
// Returns [ErrProviderNotRegistered] if no factory has been registered for that name.
func (r *Registry) CreateChat(name string, cfg ChatConfig) (chat.Provider, error) {
	r.mu.RLock()
	factory, ok := r.chat[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: chat/%q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}

// RegisterTranscriber registers a speech-to-text provider factory under name.
func (r *Registry) RegisterTranscriber(name string, factory func(TranscriberConfig) (transcriber.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// CreateTranscriber instantiates a transcriber provider using the factory
// registered under name. Returns [ErrProviderNotRegistered] if none was
// registered for that name.
func (r *Registry) CreateTranscriber(name string, cfg TranscriberConfig) (transcriber.Provider, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcriber/%q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}

// RegisterSynth registers a text-to-speech provider factory under name.
func (r *Registry) RegisterSynth(name string, factory func(SynthConfig) (synth.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synth[name] = factory
}

// CreateSynth instantiates a synthesizer provider using the factory
// registered under name. Returns [ErrProviderNotRegistered] if none was
// registered for that name.
func (r *Registry) CreateSynth(name string, cfg SynthConfig) (synth.Provider, error) {
	r.mu.RLock()
	factory, ok := r.synth[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: synth/%q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}
