package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flockdir/flock-backend/internal/domain"
	"github.com/flockdir/flock-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const draftKeyPrefix = "onboarding:draft:"

type draftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore keeps drafts as JSON values that expire ttl after the last
// save.
func NewDraftStore(client *redis.Client, ttl time.Duration) repository.DraftStore {
	return &draftStore{client: client, ttl: ttl}
}

func draftKey(userID uuid.UUID) string {
	return draftKeyPrefix + userID.String()
}

func (s *draftStore) Get(ctx context.Context, userID uuid.UUID) (*domain.Draft, error) {
	data, err := s.client.Get(ctx, draftKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load onboarding draft: %w", err)
	}
	return decodeDraft(data)
}

func (s *draftStore) Save(ctx context.Context, userID uuid.UUID, draft *domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode onboarding draft: %w", err)
	}
	if err := s.client.Set(ctx, draftKey(userID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save onboarding draft: %w", err)
	}
	return nil
}

func (s *draftStore) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, draftKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete onboarding draft: %w", err)
	}
	return nil
}

func decodeDraft(data []byte) (*domain.Draft, error) {
	var draft domain.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to decode onboarding draft: %w", err)
	}
	if draft.Visibility == nil {
		draft.Visibility = domain.VisibilityOptions{}
	}
	draft.Step = domain.ResumeStep(int(draft.Step))
	return &draft, nil
}
