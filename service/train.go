package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/moviekit/moviekit/cf"
	"github.com/moviekit/moviekit/core"
	"github.com/moviekit/moviekit/feedback"
)

// TrainModel 执行一次完整的离线训练：
// 全量交互 → 加权偏好矩阵 → ALS → 原子落盘。
// 返回训练好的模型；调用方训练完应触发 Loader.Reload。
func TrainModel(ctx context.Context, interactions core.InteractionStore, modelPath string, logger *slog.Logger) (*cf.Model, error) {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()
	records, err := interactions.All(ctx)
	if err != nil {
		return nil, err
	}

	matrix := feedback.Build(records, feedback.DefaultBuildOptions())
	logger.Info("preference matrix built",
		"records", len(records),
		"users", matrix.NumUsers(),
		"items", matrix.NumItems(),
		"interactions", matrix.Interactions)

	trainer := cf.NewTrainer()
	model, err := trainer.Train(ctx, matrix)
	if err != nil {
		return nil, err
	}
	if err := model.Save(modelPath); err != nil {
		return nil, err
	}

	logger.Info("cf model trained",
		"path", modelPath,
		"factors", model.Factors,
		"iterations", model.Iterations,
		"elapsed", time.Since(start))
	return model, nil
}
