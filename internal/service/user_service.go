package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

// UserService handles registration, authentication and role management.
type UserService struct {
	db  *gorm.DB
	jwt config.JWTConfig
}

func NewUserService(db *gorm.DB, jwtCfg config.JWTConfig) *UserService {
	return &UserService{db: db, jwt: jwtCfg}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
	Roles    []string
}

// Register creates the user with a bcrypt hash and grants the requested
// roles in one transaction.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		IsActive:     true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		for _, roleName := range in.Roles {
			if err := s.grantRoleTx(tx, user.ID, roleName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Claims is the JWT payload carried by authenticated requests.
type Claims struct {
	UserID      string   `json:"uid"`
	Roles       []string `json:"roles"`
	IsSuperuser bool     `json:"superuser"`
	jwt.RegisteredClaims
}

// Authenticate checks the password and mints a signed token carrying the
// user's roles.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (string, *model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ? AND is_deleted = ?", username, true, false).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	roles, err := s.RolesOf(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	now := time.Now()
	claims := Claims{
		UserID:      user.ID,
		Roles:       roles,
		IsSuperuser: user.IsSuperuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwt.TTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwt.Secret))
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// ParseToken validates a signed token and returns its claims.
func (s *UserService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwt.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// GrantRole binds the named role to the user, creating the role row on first
// use.
func (s *UserService) GrantRole(ctx context.Context, userID, roleName string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.grantRoleTx(tx, userID, roleName)
	})
}

func (s *UserService) grantRoleTx(tx *gorm.DB, userID, roleName string) error {
	var role model.Role
	err := tx.Where("name = ?", roleName).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		role = model.Role{ID: uuid.New().String(), Name: roleName}
		if err := tx.Create(&role).Error; err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	var existing model.UserRole
	err = tx.Where("user_id = ? AND role_id = ?", userID, role.ID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return tx.Create(&model.UserRole{
		ID:         uuid.New().String(),
		UserID:     userID,
		RoleID:     role.ID,
		AssignedAt: time.Now(),
	}).Error
}

// RolesOf returns the user's role names for the policy gate.
func (s *UserService) RolesOf(ctx context.Context, userID string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&model.Role{}).
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.name", &names).Error
	return names, err
}

// ActorFor loads the policy actor for a user id.
func (s *UserService) ActorFor(ctx context.Context, userID string) (Actor, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Actor{}, ErrNotFound
	}
	if err != nil {
		return Actor{}, err
	}
	roles, err := s.RolesOf(ctx, userID)
	if err != nil {
		return Actor{}, err
	}
	return Actor{ID: user.ID, Roles: roles, IsSuperuser: user.IsSuperuser}, nil
}
