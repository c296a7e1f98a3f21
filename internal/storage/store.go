package storage

import (
	"context"

	"morphogen/internal/model"
)

// Store persists run configurations, best members, and best-fitness history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveBestMember(ctx context.Context, best model.BestMemberRecord) error
	GetBestMember(ctx context.Context, runID string) (model.BestMemberRecord, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []int) error
	GetFitnessHistory(ctx context.Context, runID string) ([]int, bool, error)
}
