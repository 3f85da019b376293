package usecase

import (
	"fmt"

	"github.com/hari200698/Mocksy/internal/domain"
)

// FeedbackService provides read access to feedback documents and job status.
type FeedbackService struct {
	Feedback domain.FeedbackRepository
	Jobs     domain.JobRepository
}

// NewFeedbackService constructs a FeedbackService with the given repositories.
func NewFeedbackService(f domain.FeedbackRepository, j domain.JobRepository) FeedbackService {
	return FeedbackService{Feedback: f, Jobs: j}
}

// Get returns one feedback document by id.
func (s FeedbackService) Get(ctx domain.Context, id string) (domain.EnhancedFeedback, error) {
	if id == "" {
		return domain.EnhancedFeedback{}, fmt.Errorf("%w: feedback id required", domain.ErrInvalidArgument)
	}
	fb, err := s.Feedback.Get(ctx, id)
	if err != nil {
		return domain.EnhancedFeedback{}, fmt.Errorf("op=feedback.get: %w", err)
	}
	return fb, nil
}

// GetByInterview returns the feedback document for an interview scoped to
// the owning user.
func (s FeedbackService) GetByInterview(ctx domain.Context, interviewID, userID string) (domain.EnhancedFeedback, error) {
	if interviewID == "" {
		return domain.EnhancedFeedback{}, fmt.Errorf("%w: interview id required", domain.ErrInvalidArgument)
	}
	fb, err := s.Feedback.GetByInterview(ctx, interviewID, userID)
	if err != nil {
		return domain.EnhancedFeedback{}, fmt.Errorf("op=feedback.get_by_interview: %w", err)
	}
	return fb, nil
}

// JobStatus returns the generation job record for polling clients.
func (s FeedbackService) JobStatus(ctx domain.Context, jobID string) (domain.GenerationJob, error) {
	if jobID == "" {
		return domain.GenerationJob{}, fmt.Errorf("%w: job id required", domain.ErrInvalidArgument)
	}
	job, err := s.Jobs.Get(ctx, jobID)
	if err != nil {
		return domain.GenerationJob{}, fmt.Errorf("op=job.get: %w", err)
	}
	return job, nil
}
