package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/logger"
	"hackathon_portal/internal/platform/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	errTeamApplied        = common.NewUserError(common.ErrConflict, "Error", "Your team has already submitted an application")
	errScreenshotRequired = common.NewUserError(common.ErrValidation, "Error", "Please upload a screenshot/logo of your application")
	errUnknownProblemType = common.NewUserError(common.ErrValidation, "Error", "Please choose a valid problem type")
)

var fieldLabels = map[model.ApplicationField]string{
	model.FieldTitle:       "title",
	model.FieldDescription: "description",
	model.FieldURL:         "application URL",
	model.FieldVideoURL:    "video URL",
	model.FieldGithubURL:   "GitHub URL",
}

type ApplicationService struct {
	applicationRepo  repository.ApplicationRepository
	profileRepo      repository.ProfileRepository
	notificationRepo repository.NotificationRepository
	db               *sql.DB
	validate         *validator.Validate
}

func NewApplicationService(
	applicationRepo repository.ApplicationRepository,
	profileRepo repository.ProfileRepository,
	notificationRepo repository.NotificationRepository,
	db *sql.DB,
) *ApplicationService {
	return &ApplicationService{
		applicationRepo:  applicationRepo,
		profileRepo:      profileRepo,
		notificationRepo: notificationRepo,
		db:               db,
		validate:         validator.New(),
	}
}

type SubmitApplicationRequest struct {
	Title         string            `json:"title" validate:"max=200"`
	Description   string            `json:"description" validate:"max=20000"`
	URL           string            `json:"url" validate:"max=2048"`
	VideoURL      string            `json:"video_url" validate:"max=2048"`
	GithubURL     string            `json:"github_url" validate:"max=2048"`
	ScreenshotURL string            `json:"screenshot_url" validate:"max=2048"`
	Tags          string            `json:"tags" validate:"max=1000"`
	ProblemType   model.ProblemType `json:"problem_type"`
}

type SubmitApplicationResponse struct {
	Application *model.Application `json:"application"`
	Message     string             `json:"message"`
	Redirect    string             `json:"redirect"`
}

func (r SubmitApplicationRequest) field(f model.ApplicationField) string {
	switch f {
	case model.FieldTitle:
		return r.Title
	case model.FieldDescription:
		return r.Description
	case model.FieldURL:
		return r.URL
	case model.FieldVideoURL:
		return r.VideoURL
	case model.FieldGithubURL:
		return r.GithubURL
	}
	return ""
}

func isURLField(f model.ApplicationField) bool {
	return f == model.FieldURL || f == model.FieldVideoURL || f == model.FieldGithubURL
}

// checkFields applies the problem type's required fields. URL fields must
// also parse as absolute URLs.
func (s *ApplicationService) checkFields(req SubmitApplicationRequest, rules model.ProblemTypeRules) error {
	for _, f := range rules.Required {
		value := strings.TrimSpace(req.field(f))
		if value == "" {
			return common.NewUserError(common.ErrValidation, "Error", "Please fill in the "+fieldLabels[f])
		}
		if isURLField(f) {
			if err := s.validate.Var(value, "url"); err != nil {
				return common.NewUserError(common.ErrValidation, "Error", "Please enter a valid "+fieldLabels[f])
			}
		}
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func (s *ApplicationService) Submit(ctx context.Context, profile *model.Profile, req SubmitApplicationRequest) (*SubmitApplicationResponse, error) {
	if profile.HasTeam() {
		exists, err := s.applicationRepo.ExistsForTeam(ctx, *profile.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to check team application: %w", err)
		}
		if exists {
			return nil, errTeamApplied
		}
	}

	if strings.TrimSpace(req.ScreenshotURL) == "" {
		return nil, errScreenshotRequired
	}

	rules, ok := model.RulesForProblemType(req.ProblemType)
	if !ok {
		return nil, errUnknownProblemType
	}
	if err := s.checkFields(req, rules); err != nil {
		return nil, err
	}

	app := &model.Application{
		ID:              uuid.NewString(),
		Title:           strings.TrimSpace(req.Title),
		Description:     req.Description,
		URL:             strings.TrimSpace(req.URL),
		ScreenshotURL:   strings.TrimSpace(req.ScreenshotURL),
		VideoURL:        optional(req.VideoURL),
		GithubURL:       optional(req.GithubURL),
		Tags:            model.ParseTags(req.Tags),
		CreatorID:       profile.ID,
		TeamID:          profile.TeamID,
		CommentsEnabled: true,
		Status:          model.ApplicationStatusPending,
		ProblemType:     req.ProblemType,
		Score:           0,
	}
	if rules.Forbids(model.FieldGithubURL) {
		app.GithubURL = nil
	}

	if err := s.create(ctx, profile, app); err != nil {
		if errors.Is(err, common.ErrConflict) && profile.HasTeam() {
			return nil, errTeamApplied
		}
		return nil, err
	}

	metrics.ApplicationsSubmitted.WithLabelValues(string(app.ProblemType)).Inc()
	logger.L().Info("Application submitted",
		zap.String("application_id", app.ID), zap.String("profile_id", profile.ID), zap.String("problem_type", string(app.ProblemType)))
	return &SubmitApplicationResponse{
		Application: app,
		Message:     "Your application has been submitted for review",
		Redirect:    common.RouteProfile,
	}, nil
}

// create inserts the application and one notification per admin as a unit.
func (s *ApplicationService) create(ctx context.Context, profile *model.Profile, app *model.Application) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.applicationRepo.Create(ctx, tx, app); err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	adminIDs, err := s.profileRepo.ListAdminIDs(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to load admins: %w", err)
	}
	notifications := make([]model.Notification, 0, len(adminIDs))
	for _, adminID := range adminIDs {
		appID, actor := app.ID, profile.ID
		notifications = append(notifications, model.Notification{
			ID:            uuid.NewString(),
			UserID:        adminID,
			Type:          model.NotificationSubmission,
			Title:         "New Application Submission",
			Message:       fmt.Sprintf(`%s submitted "%s" for review`, profile.UserID, app.Title),
			ApplicationID: &appID,
			ActionUserID:  &actor,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, tx, notifications); err != nil {
		return fmt.Errorf("failed to notify admins: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit application: %w", err)
	}
	return nil
}

func (s *ApplicationService) List(ctx context.Context, profile *model.Profile) ([]model.Application, error) {
	apps, err := s.applicationRepo.ListForProfile(ctx, profile.ID, profile.TeamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}
