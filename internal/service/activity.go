package service

import (
	"context"

	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityRecorder decouples audit writes from the commit path. The worker
// dispatcher implements it by enqueueing; tests use a synchronous stub.
// Only successful state changes go through here, except authentication
// failures, which are audited too.
type ActivityRecorder interface {
	Record(ctx context.Context, entry model.ActivityLog)
}

// record is a nil-safe helper so services can log without guarding.
func record(ctx context.Context, rec ActivityRecorder, entry model.ActivityLog) {
	if rec != nil {
		rec.Record(ctx, entry)
	}
}

// runTx executes fn inside a GORM transaction when db is available, or calls
// fn(nil) directly in unit-test mode.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ActivityService reads the audit trail.
type ActivityService interface {
	List(ctx context.Context, tenantID uuid.UUID, filter dto.ActivityFilter) (*dto.ActivityListResponse, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) List(ctx context.Context, tenantID uuid.UUID, filter dto.ActivityFilter) (*dto.ActivityListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	entries, total, err := s.repo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ActivityResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, activityToResponse(&e))
	}
	return &dto.ActivityListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func activityToResponse(e *model.ActivityLog) dto.ActivityResponse {
	var userID, targetID *string
	if e.UserID != nil {
		v := e.UserID.String()
		userID = &v
	}
	if e.TargetID != nil {
		v := e.TargetID.String()
		targetID = &v
	}
	return dto.ActivityResponse{
		ID:          e.ID.String(),
		UserID:      userID,
		Module:      e.Module,
		Action:      e.Action,
		Description: e.Description,
		TargetID:    targetID,
		TargetType:  e.TargetType,
		Details:     e.Details,
		IPAddress:   e.IPAddress,
		CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
