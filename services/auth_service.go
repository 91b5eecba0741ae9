package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/models"
	"github.com/collegelover/college-lover-api/utils"
)

// Session is what a successful sign-in hands back to the client.
type Session struct {
	Token string          `json:"token"`
	User  models.UserView `json:"user"`
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Semester *int
}

// ProfileInput carries optional profile changes. Nil fields are left alone.
type ProfileInput struct {
	Name     *string
	Email    *string
	Avatar   *string
	Semester *int
}

type AuthService struct {
	db       *gorm.DB
	tokens   *utils.TokenIssuer
	verifier IdentityVerifier
	log      *logrus.Logger
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenIssuer, verifier IdentityVerifier, log *logrus.Logger) *AuthService {
	if verifier == nil {
		verifier = DisabledVerifier{}
	}
	return &AuthService{db: db, tokens: tokens, verifier: verifier, log: log}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user := models.User{
		Name:         in.Name,
		Email:        in.Email,
		Semester:     in.Semester,
		Role:         models.RoleStudent,
		AuthProvider: models.ProviderLocal,
	}
	user.Normalize()

	errs := user.Validate(false)
	errs = append(errs, models.ValidateName(user.Name)...)
	errs = append(errs, models.ValidatePassword(in.Password)...)
	if len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	taken, err := s.emailTaken(ctx, user.Email, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("A user with this email already exists")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, utils.Internal(err, "could not hash password")
	}
	user.Password = hash

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.NewConflictError("A user with this email already exists")
		}
		return nil, utils.Internal(err, "could not create user")
	}

	s.log.WithField("user_id", user.ID).Info("user registered")
	return s.issue(&user)
}

// Login authenticates a local account. Unknown email and wrong password fail
// identically.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = models.NormalizeEmail(email)

	var errs models.ValidationErrors
	if email == "" {
		errs.Add("email", "Please provide an email")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	if len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewAuthError("Invalid credentials")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load user")
	}

	if user.AuthProvider != models.ProviderLocal {
		name := user.AuthProvider.DisplayName()
		return nil, utils.NewAuthError(`This account uses %s sign-in. Please use "Continue with %s" instead.`, name, name)
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, utils.NewAuthError("Invalid credentials")
	}

	return s.issue(&user)
}

// SocialLogin signs in with an external ID token, creating or linking the
// account. A matched local account is switched to the social provider.
func (s *AuthService) SocialLogin(ctx context.Context, idToken string) (*Session, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, utils.NewValidationError("Firebase ID token is required")
	}

	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		s.log.WithError(err).Warn("identity token verification failed")
		return nil, utils.NewAuthError("Invalid or expired authentication token")
	}
	email := models.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, utils.NewValidationError("Email is required for authentication")
	}

	var user models.User
	err = s.db.WithContext(ctx).Where("firebase_uid = ?", identity.UID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	}

	switch {
	case err == nil:
		if err := s.link(ctx, &user, identity); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.createSocial(ctx, &user, identity, email); err != nil {
			return nil, err
		}
	default:
		return nil, utils.Internal(err, "could not load user")
	}

	return s.issue(&user)
}

func (s *AuthService) link(ctx context.Context, user *models.User, identity *Identity) error {
	updates := map[string]interface{}{}
	if user.FirebaseUID == nil || *user.FirebaseUID == "" {
		uid := identity.UID
		user.FirebaseUID = &uid
		updates["firebase_uid"] = uid
	}
	if user.Avatar == "" && identity.Picture != "" {
		user.Avatar = identity.Picture
		updates["avatar"] = identity.Picture
	}
	if user.AuthProvider == models.ProviderLocal && identity.Provider != models.ProviderLocal {
		user.AuthProvider = identity.Provider
		user.ProviderID = identity.UID
		updates["auth_provider"] = identity.Provider
		updates["provider_id"] = identity.UID
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return utils.Internal(err, "could not link identity")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": user.AuthProvider}).Info("external identity linked")
	return nil
}

func (s *AuthService) createSocial(ctx context.Context, user *models.User, identity *Identity, email string) error {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	uid := identity.UID
	*user = models.User{
		Name:         name,
		Email:        email,
		Role:         models.RoleStudent,
		Avatar:       identity.Picture,
		AuthProvider: identity.Provider,
		FirebaseUID:  &uid,
		ProviderID:   uid,
	}
	user.Normalize()
	if errs := user.Validate(true); len(errs) > 0 {
		return utils.ValidationFailed(errs)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return utils.Internal(err, "could not create user")
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "provider": user.AuthProvider}).Info("social user created")
	return nil
}

// Me returns the account with its bookmarked materials.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.UserView, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Bookmarks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Bookmarks.Material").
		Preload("Bookmarks.Material.Subjects", orderSubjects).
		Preload("Bookmarks.Material.UploadedBy").
		Preload("Bookmarks.Material.Likes").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load user")
	}

	view := user.Public()
	view.Bookmarks = make([]models.MaterialView, 0, len(user.Bookmarks))
	for i := range user.Bookmarks {
		view.Bookmarks = append(view.Bookmarks, user.Bookmarks[i].Material.View())
	}
	return &view, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.UserView, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && *in.Name != "" {
		user.Name = *in.Name
	}
	if in.Email != nil && *in.Email != "" {
		user.Email = *in.Email
	}
	if in.Avatar != nil && *in.Avatar != "" {
		user.Avatar = *in.Avatar
	}
	if in.Semester != nil {
		user.Semester = in.Semester
	}
	user.Normalize()
	errs := user.Validate(false)
	if in.Name != nil && *in.Name != "" {
		errs = append(errs, models.ValidateName(*in.Name)...)
	}
	if len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	taken, err := s.emailTaken(ctx, user.Email, user.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("A user with this email already exists")
	}

	err = s.db.WithContext(ctx).Model(user).Select("name", "email", "avatar", "semester").Updates(user).Error
	if err != nil {
		return nil, utils.Internal(err, "could not update profile")
	}
	view := user.Public()
	return &view, nil
}

func (s *AuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, next string) (*Session, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AuthProvider != models.ProviderLocal {
		return nil, utils.NewPolicyError("Password change is not available for social login accounts")
	}
	if !utils.CheckPassword(user.Password, current) {
		return nil, utils.NewAuthError("Current password is incorrect")
	}
	if errs := models.ValidatePassword(next); len(errs) > 0 {
		return nil, utils.ValidationFailed(errs)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return nil, utils.Internal(err, "could not hash password")
	}
	user.Password = hash
	if err := s.db.WithContext(ctx).Model(user).Update("password", hash).Error; err != nil {
		return nil, utils.Internal(err, "could not update password")
	}

	return s.issue(user)
}

func (s *AuthService) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, utils.Internal(err, "could not load user")
	}
	return &user, nil
}

func (s *AuthService) emailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, utils.Internal(err, "could not check email")
	}
	return count > 0, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(user.ID.String(), string(user.Role))
	if err != nil {
		return nil, utils.Internal(err, "could not sign token")
	}
	return &Session{Token: token, User: user.Public()}, nil
}
