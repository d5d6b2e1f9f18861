package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/cache"
	"hackathon_portal/internal/platform/logger"
	"hackathon_portal/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const deadlineNotice = "The submission deadline has passed. Problem statement selection is now closed."

var (
	errDeadlinePassed    = common.NewUserError(common.ErrDeadlinePassed, "Deadline passed", "The submission deadline has passed")
	errSelectionLocked   = common.NewUserError(common.ErrSelectionLocked, "Selection locked", "Your problem statement selection is locked and cannot be changed")
	errSelectionRequired = common.NewUserError(common.ErrValidation, "Selection required", "Please select a problem statement")
	errUnknownProblem    = common.NewUserError(common.ErrValidation, "Invalid selection", "Please select a valid problem statement")
	errTeamSubmitted     = common.NewUserError(common.ErrConflict, "Already submitted", "Your team has already submitted a problem statement")
	errOpenNeedsConfirm  = common.NewUserError(common.ErrConfirmationRequired, "Confirm Open Problem Statement", "Selecting the open problem statement will lock your selection and cannot be changed later")
	errTeamBusy          = common.NewUserError(common.ErrSubmissionInProgress, "Please wait", "A teammate is submitting a problem statement right now")
)

type SelectionOptions struct {
	Deadline           time.Time
	OpenProblemFormURL string
	// TeamLockTTL bounds the per-team lock. Zero disables it.
	TeamLockTTL time.Duration
	Now         func() time.Time
}

type SelectionService struct {
	profileRepo      repository.ProfileRepository
	teamSubRepo      repository.TeamSubmissionRepository
	notificationRepo repository.NotificationRepository
	locker           *cache.Locker
	db               *sql.DB
	opts             SelectionOptions
}

func NewSelectionService(
	profileRepo repository.ProfileRepository,
	teamSubRepo repository.TeamSubmissionRepository,
	notificationRepo repository.NotificationRepository,
	locker *cache.Locker,
	db *sql.DB,
	opts SelectionOptions,
) *SelectionService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SelectionService{
		profileRepo:      profileRepo,
		teamSubRepo:      teamSubRepo,
		notificationRepo: notificationRepo,
		locker:           locker,
		db:               db,
		opts:             opts,
	}
}

type SelectionStateResponse struct {
	ProblemStatements       []model.ProblemStatement     `json:"problem_statements"`
	Deadline                time.Time                    `json:"deadline"`
	DeadlinePassed          bool                         `json:"deadline_passed"`
	Notice                  string                       `json:"notice,omitempty"`
	State                   model.SelectionState         `json:"state"`
	Locked                  bool                         `json:"locked"`
	SelectedProblem         *string                      `json:"selected_problem,omitempty"`
	TeamSubmission          *model.TeamProblemSubmission `json:"team_submission,omitempty"`
	OpenProblemConfirmation []string                     `json:"open_problem_confirmation"`
}

type SelectRequest struct {
	ProblemID   string `json:"problem_id" validate:"max=64"`
	ConfirmOpen bool   `json:"confirm_open"`
}

type SelectResponse struct {
	SelectedProblem string `json:"selected_problem"`
	Locked          bool   `json:"locked"`
	Redirect        string `json:"redirect"`
	OpenURL         string `json:"open_url,omitempty"`
}

func (s *SelectionService) deadlinePassed() bool {
	return s.opts.Now().After(s.opts.Deadline)
}

// GetState returns the catalog and the caller's selection. A caller whose
// team already selected, but whose own profile was never updated, is synced
// here, also after the deadline since it only copies a committed choice. A
// failed sync is only logged and reported as pending-submit.
func (s *SelectionService) GetState(ctx context.Context, profile *model.Profile) (*SelectionStateResponse, error) {
	resp := &SelectionStateResponse{
		ProblemStatements:       model.ProblemStatements(),
		Deadline:                s.opts.Deadline,
		DeadlinePassed:          s.deadlinePassed(),
		OpenProblemConfirmation: model.OpenProblemConfirmation,
	}
	if resp.DeadlinePassed {
		resp.Notice = deadlineNotice
	}

	if profile.HasTeam() {
		sub, err := s.teamSubRepo.FindByTeamID(ctx, *profile.TeamID)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("failed to load team submission: %w", err)
		}
		resp.TeamSubmission = sub
		if sub != nil && !profile.ProblemSubmissionLocked {
			s.syncFromTeam(ctx, profile, sub)
		}
	}

	resp.Locked = profile.ProblemSubmissionLocked
	resp.SelectedProblem = profile.SelectedProblem
	switch {
	case resp.Locked:
		resp.State = model.SelectionLocked
	case resp.TeamSubmission != nil:
		resp.State = model.SelectionPendingSubmit
	default:
		resp.State = model.SelectionUnselected
	}
	return resp, nil
}

func (s *SelectionService) syncFromTeam(ctx context.Context, profile *model.Profile, sub *model.TeamProblemSubmission) {
	updated, err := s.profileRepo.LockSelection(ctx, nil, profile.ID, sub.SelectedProblem, sub.SubmittedAt)
	if err != nil {
		logger.L().Error("Failed to sync profile with team submission",
			zap.String("profile_id", profile.ID), zap.String("team_id", sub.TeamID), zap.Error(err))
		return
	}
	if updated {
		selected, at := sub.SelectedProblem, sub.SubmittedAt
		profile.SelectedProblem = &selected
		profile.ProblemSelectedAt = &at
		profile.ProblemSubmissionLocked = true
	}
}

// Select commits the caller's problem statement. Team members select for the
// whole team; the first team submission wins.
func (s *SelectionService) Select(ctx context.Context, profile *model.Profile, req SelectRequest) (*SelectResponse, error) {
	scope := "individual"
	if profile.HasTeam() {
		scope = "team"
	}
	resp, err := s.selectProblem(ctx, profile, req)
	outcome := "success"
	if err != nil {
		outcome = "rejected"
		if common.HTTPStatusFromError(err) >= 500 {
			outcome = "error"
		}
	}
	metrics.ProblemSelections.WithLabelValues(scope, outcome).Inc()
	return resp, err
}

func (s *SelectionService) selectProblem(ctx context.Context, profile *model.Profile, req SelectRequest) (*SelectResponse, error) {
	if s.deadlinePassed() {
		return nil, errDeadlinePassed
	}
	if profile.ProblemSubmissionLocked {
		return nil, errSelectionLocked
	}

	problemID := strings.TrimSpace(req.ProblemID)
	if problemID == "" {
		return nil, errSelectionRequired
	}
	problem, ok := model.FindProblemStatement(problemID)
	if !ok {
		return nil, errUnknownProblem
	}
	if problem.IsOpenProblem && !req.ConfirmOpen {
		return nil, errOpenNeedsConfirm
	}

	now := s.opts.Now().UTC()
	if profile.HasTeam() {
		if err := s.selectForTeam(ctx, profile, problem.ID, now); err != nil {
			return nil, err
		}
	} else {
		updated, err := s.profileRepo.LockSelection(ctx, nil, profile.ID, problem.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to save selection: %w", err)
		}
		if !updated {
			return nil, errSelectionLocked
		}
	}

	resp := &SelectResponse{SelectedProblem: problem.ID, Locked: true, Redirect: common.RouteApplications}
	if problem.IsOpenProblem {
		resp.OpenURL = s.opts.OpenProblemFormURL
	}
	return resp, nil
}

func (s *SelectionService) selectForTeam(ctx context.Context, profile *model.Profile, problemID string, now time.Time) error {
	teamID := *profile.TeamID

	if s.locker != nil && s.opts.TeamLockTTL > 0 {
		lock, err := s.locker.TryAcquire(ctx, "team_selection:"+teamID, s.opts.TeamLockTTL)
		if err != nil {
			// The unique constraint still guards the insert.
			logger.L().Warn("Team lock unavailable", zap.String("team_id", teamID), zap.Error(err))
		} else if lock == nil {
			return errTeamBusy
		} else {
			defer func() {
				if _, err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					logger.L().Warn("Failed to release team lock", zap.String("team_id", teamID), zap.Error(err))
				}
			}()
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.teamSubRepo.InsertIfAbsent(ctx, tx, &model.TeamProblemSubmission{
		TeamID:          teamID,
		SelectedProblem: problemID,
		SubmittedBy:     profile.ID,
		SubmittedAt:     now,
	})
	if err != nil {
		return fmt.Errorf("failed to record team submission: %w", err)
	}
	if !inserted {
		return errTeamSubmitted
	}

	if _, err := s.profileRepo.LockTeamSelection(ctx, tx, teamID, problemID, now); err != nil {
		return fmt.Errorf("failed to update team profiles: %w", err)
	}

	memberIDs, err := s.profileRepo.ListTeamMemberIDs(ctx, tx, teamID)
	if err != nil {
		return fmt.Errorf("failed to load team members: %w", err)
	}
	notifications := make([]model.Notification, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id == profile.ID {
			continue
		}
		notifications = append(notifications, model.Notification{
			ID:      uuid.NewString(),
			UserID:  id,
			Type:    model.NotificationProblemSelected,
			Title:   "Problem Statement Selected",
			Message: fmt.Sprintf("%s has selected a problem statement for your team", profile.UserID),
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, tx, notifications); err != nil {
		return fmt.Errorf("failed to notify team members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit team selection: %w", err)
	}
	logger.L().Info("Team problem statement selected",
		zap.String("team_id", teamID), zap.String("problem_id", problemID), zap.String("profile_id", profile.ID))
	return nil
}
