package testutil

import (
	"context"

	"github.com/vk/widgetgrid/internal/node"
	"github.com/vk/widgetgrid/internal/registry"
)

// RecordingModule registers kinds whose runtimes record every callback:
//
//   - "K" emits the value of an "emit" setting, notifies the map under a
//     "notify" setting, and re-emits its input when the "relay" setting is true.
//   - "Relay" re-emits every input unchanged.
//   - "Async" emits the value of an "emit" setting later, through Submit.
//   - "Panic" panics on every callback.
type RecordingModule struct {
	Recorder *Recorder
}

// NewRecordingModule creates a module with a fresh recorder.
func NewRecordingModule() *RecordingModule {
	return &RecordingModule{Recorder: NewRecorder()}
}

// Register implements the registry.Module interface.
func (m *RecordingModule) Register(r *registry.Registry) {
	r.RegisterKind("K", func(h node.Host) (node.Runtime, error) {
		return &recordingRuntime{host: h, rec: m.Recorder}, nil
	})
	r.RegisterKind("Relay", func(h node.Host) (node.Runtime, error) {
		return &recordingRuntime{host: h, rec: m.Recorder, relay: true}, nil
	})
	r.RegisterKind("Async", func(h node.Host) (node.Runtime, error) {
		return &recordingRuntime{host: h, rec: m.Recorder, async: true}, nil
	})
	r.RegisterKind("Panic", func(h node.Host) (node.Runtime, error) {
		return panicRuntime{}, nil
	})
}

type recordingRuntime struct {
	host  node.Host
	rec   *Recorder
	relay bool
	async bool
}

func (r *recordingRuntime) Start(ctx context.Context) {
	r.rec.record(r.host.ID(), "start", nil)
}

func (r *recordingRuntime) Close() {
	r.rec.record(r.host.ID(), "close", nil)
}

func (r *recordingRuntime) OnSettingsChanged(ctx context.Context, delta map[string]any) {
	r.rec.record(r.host.ID(), "settings", delta)

	if state, ok := delta["notify"].(map[string]any); ok {
		r.host.Notify(ctx, state)
	}
	v, ok := delta["emit"]
	if !ok {
		return
	}
	if r.async {
		r.host.Submit(func(ctx context.Context) { r.host.Emit(ctx, v) })
		return
	}
	r.host.Emit(ctx, v)
}

func (r *recordingRuntime) OnInput(ctx context.Context, data node.Value) {
	r.rec.record(r.host.ID(), "input", data)
	if r.relay || r.host.Settings()["relay"] == true {
		r.host.Emit(ctx, data)
	}
}

type panicRuntime struct{}

func (panicRuntime) Start(context.Context)                            { panic("start") }
func (panicRuntime) OnSettingsChanged(context.Context, map[string]any) { panic("settings") }
func (panicRuntime) OnInput(context.Context, node.Value)               { panic("input") }
