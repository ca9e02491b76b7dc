package usecase

import (
	"context"
	"fmt"
	"time"

	"local-electrician/internal/domain/entity"
	"local-electrician/internal/domain/repository"
	"local-electrician/pkg/logger"
)

// Reviews records the customer's one-shot rating of completed work.
type Reviews struct {
	requestRepo repository.RequestRepository
	logger      logger.Logger
}

// NewReviews creates a new review recorder
func NewReviews(requestRepo repository.RequestRepository, log logger.Logger) *Reviews {
	return &Reviews{
		requestRepo: requestRepo,
		logger:      log,
	}
}

// Submit records a rating. Legal only while the request is in SUCCESS with no
// rating yet; the conditional write makes a repeat submission fail
// ErrNotReviewable instead of overwriting the first one.
func (r *Reviews) Submit(ctx context.Context, requestID string, rating int, comment string) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", entity.ErrValidation)
	}

	changed, err := r.requestRepo.SetRatingOnce(ctx, requestID, rating, comment, time.Now().UTC())
	if err != nil {
		return err
	}
	if changed {
		r.logger.Info("Review recorded", "requestId", requestID, "rating", rating)
		return nil
	}

	req, err := r.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return entity.ErrNotFound
	}
	return entity.ErrNotReviewable
}
