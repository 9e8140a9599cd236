// Package onnx runs the exported landmark classifier through onnxruntime.
package onnx

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	ort "github.com/yalue/onnxruntime_go"
)

type Config struct {
	ModelPath    string
	MetadataPath string
	LibraryPath  string // onnxruntime shared library; empty uses the platform default
	UseGPU       bool
	NumThreads   int
}

// Engine owns one session with fixed input/output buffers.
// Run is not safe for concurrent use; callers serialize access.
type Engine struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	Metadata     Metadata
	Device       string
}

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		if !ort.IsInitialized() {
			envErr = ort.InitializeEnvironment()
		}
	})
	return envErr
}

func New(cfg Config) (*Engine, error) {
	meta, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	if err := initEnvironment(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.InputShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(meta.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	e := &Engine{inputTensor: inputTensor, outputTensor: outputTensor, Metadata: meta}

	if cfg.UseGPU {
		if err := e.openSession(cfg, true); err == nil {
			e.Device = "cuda"
		} else {
			log.Warn().Err(err).Msg("CUDA execution provider unavailable, falling back to CPU")
		}
	}
	if e.session == nil {
		if err := e.openSession(cfg, false); err != nil {
			e.Close()
			return nil, err
		}
		e.Device = "cpu"
	}

	log.Info().
		Str("model", cfg.ModelPath).
		Str("device", e.Device).
		Int("classes", len(meta.ClassToIdx)).
		Msg("onnx session ready")
	return e, nil
}

func (e *Engine) openSession(cfg Config, gpu bool) error {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("session options: %w", err)
	}
	defer opts.Destroy()

	if cfg.NumThreads > 0 {
		_ = opts.SetIntraOpNumThreads(cfg.NumThreads)
	}
	if gpu {
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("cuda options: %w", err)
		}
		defer cuda.Destroy()
		if err := opts.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("append cuda provider: %w", err)
		}
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{e.Metadata.InputName}, []string{e.Metadata.OutputName},
		[]ort.ArbitraryTensor{e.inputTensor}, []ort.ArbitraryTensor{e.outputTensor},
		opts)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session: %w", err)
	}
	e.session = session
	return nil
}

// Run copies input into the bound tensor, runs the graph and returns a copy of the logits.
func (e *Engine) Run(input []float32) ([]float32, error) {
	if want := e.Metadata.InputLen(); len(input) != want {
		return nil, fmt.Errorf("input has %d values, model expects %d", len(input), want)
	}
	copy(e.inputTensor.GetData(), input)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("session run: %w", err)
	}
	src := e.outputTensor.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

func (e *Engine) Close() {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
		e.outputTensor = nil
	}
}

// Shutdown releases the process-wide onnxruntime environment.
func Shutdown() {
	if ort.IsInitialized() {
		if err := ort.DestroyEnvironment(); err != nil {
			log.Warn().Err(err).Msg("destroy onnx environment")
		}
	}
}
