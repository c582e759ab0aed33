package hugot

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"go.uber.org/zap"
)

type modelConfig struct {
	name        string
	onxFilePath string
}

type Adapter struct {
	session         *hugot.Session
	embedding       *pipelines.FeatureExtractionPipeline
	embeddingConfig modelConfig
	modelsDir       string
	logger          *zap.Logger
}

type Option func(*Adapter)

func WithEmbeddingModelName(name string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.name = name
	}
}

func WithEmbeddingModelOnnxFilePath(path string) Option {
	return func(a *Adapter) {
		a.embeddingConfig.onxFilePath = path
	}
}

func WithModelsDir(path string) Option {
	return func(a *Adapter) {
		a.modelsDir = path
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const (
	defaultModelsDir          = "/models"
	defaultOnxFilePath        = "onnx/model.onnx"
	defaultEmbeddingModelName = "sentence-transformers/all-MiniLM-L6-v2"
)

func New(ctx context.Context, session *hugot.Session, options ...Option) (*Adapter, error) {
	a := &Adapter{
		session: session,
		embeddingConfig: modelConfig{
			name:        defaultEmbeddingModelName,
			onxFilePath: defaultOnxFilePath,
		},
		modelsDir: defaultModelsDir,
		logger:    zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	a.logger.Sugar().With(
		"embedding model config", a.embeddingConfig,
		"models dir", a.modelsDir,
	).Info("init hugot adapter")

	if err := a.init(ctx); err != nil {
		return nil, err
	}

	return a, nil
}

const adapterName = "hugot"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) init(ctx context.Context) error {
	if a.embeddingConfig.name == "" {
		return fmt.Errorf("embedding model must be specified")
	}

	modelPath, err := checkModelExists(a.modelsDir, a.embeddingConfig.name)
	if err != nil {
		return fmt.Errorf("failed to check embedding model: %w", err)
	}

	if modelPath == "" {
		a.logger.Sugar().Info("start downloading embedding model: ", a.embeddingConfig.name)

		downloadOptions := hugot.NewDownloadOptions()
		downloadOptions.OnnxFilePath = a.embeddingConfig.onxFilePath
		modelPath, err = hugot.DownloadModel(a.embeddingConfig.name, a.modelsDir, downloadOptions)
		if err != nil {
			return fmt.Errorf("failed to download embedding model: %w", err)
		}

		a.logger.Sugar().Info("downloaded embedding model: ", a.embeddingConfig.name)
	} else {
		a.logger.Sugar().Info("embedding model already exists, skipping download: ", modelPath)
	}

	// Create feature extraction pipeline configuration
	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embeddingPipeline",
	}

	// Create the feature extraction pipeline
	a.embedding, err = hugot.NewPipeline(a.session, config)
	if err != nil {
		return fmt.Errorf("failed to create embedding pipeline: %w", err)
	}

	return nil
}

func checkModelExists(destination, modelName string) (string, error) {
	modelP := modelName
	if strings.Contains(modelP, ":") {
		modelP = strings.Split(modelName, ":")[0]
	}
	modelPath := path.Join(destination, strings.ReplaceAll(modelP, "/", "_"))

	_, err := os.Stat(modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return modelPath, nil
}
