package sessions

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jakekang28/GenAIHCI-sub001/domain"
	"github.com/jakekang28/GenAIHCI-sub001/room"
)

const (
	codeAlphabet     = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength       = 6
	codeAttempts     = 3
	maxDisplayName   = 50
	maxSelectionsCap = 10
)

type service struct {
	repo    Repo
	newID   func() string
	newCode func() (string, error)
	now     func() time.Time
}

func NewService(repo Repo) *service {
	return &service{repo: repo, newID: uuid.NewString, newCode: randomCode, now: time.Now}
}

func randomCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func validateUser(userID, displayName string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		return fmt.Errorf("%w: displayName is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > maxDisplayName {
		return fmt.Errorf("%w: displayName cannot exceed %d characters", ErrValidation, maxDisplayName)
	}
	return nil
}

// Create opens a session hosted by hostUserID. Code collisions are retried a few times.
func (s *service) Create(ctx context.Context, hostUserID, hostName string) (domain.Session, error) {
	if err := validateUser(hostUserID, hostName); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID: s.newID(),
		Participants: []domain.Participant{{
			UserID:      hostUserID,
			DisplayName: strings.TrimSpace(hostName),
			IsHost:      true,
			IsActive:    true,
		}},
		Status:       domain.SessionStatusActive,
		CurrentStage: string(room.StageSetup),
		CreatedAt:    s.now(),
	}

	var err error
	for range codeAttempts {
		if session.Code, err = s.newCode(); err != nil {
			return domain.Session{}, err
		}
		err = s.repo.CreateSession(ctx, session)
		if !errors.Is(err, domain.ErrDuplicateCode) {
			break
		}
	}
	if err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func (s *service) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.repo.GetSession(ctx, id)
}

func (s *service) AddParticipant(ctx context.Context, id, userID, displayName string) (domain.Participant, error) {
	if err := validateUser(userID, displayName); err != nil {
		return domain.Participant{}, err
	}
	p := domain.Participant{UserID: userID, DisplayName: strings.TrimSpace(displayName), IsActive: true}
	if err := s.repo.AddParticipant(ctx, id, p); err != nil {
		return domain.Participant{}, err
	}

	// re-read so a returning host keeps its flag in the response
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return domain.Participant{}, err
	}
	if stored, ok := session.Participant(userID); ok {
		return stored, nil
	}
	return p, nil
}

// SetVotingPolicy stores per-kind selection quotas used when a round does not ask for one.
func (s *service) SetVotingPolicy(ctx context.Context, id string, policy room.VotingPolicy) error {
	if len(policy.MaxSelectionsByType) == 0 {
		return fmt.Errorf("%w: maxSelectionsByType is required", ErrValidation)
	}
	for kind, n := range policy.MaxSelectionsByType {
		if !kind.Votable() {
			return fmt.Errorf("%w: unknown kind %s", ErrValidation, kind)
		}
		if n < 1 || n > maxSelectionsCap {
			return fmt.Errorf("%w: %s must be between 1 and %d", ErrValidation, kind, maxSelectionsCap)
		}
	}
	raw, err := json.Marshal(policy)
	if err != nil {
		return err
	}
	return s.repo.SetSessionState(ctx, id, room.PolicyKey, raw)
}
