package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/internal/model"
)

// CustomerService handles intake: profiles and measurement sets.
type CustomerService struct {
	db    *gorm.DB
	users *UserService
	audit *AuditService
}

func NewCustomerService(db *gorm.DB, users *UserService, audit *AuditService) *CustomerService {
	return &CustomerService{db: db, users: users, audit: audit}
}

type CreateCustomerInput struct {
	Username     string
	Email        string
	Password     string
	FullName     string
	PhoneNumber  string
	AddressLine1 string
	AddressLine2 string
	City         string
	PostalCode   string
	State        string
	Country      string
	AllowContact bool
}

// Create registers the customer user with the customer role and its profile
// in one transaction.
func (s *CustomerService) Create(ctx context.Context, actor Actor, in CreateCustomerInput) (*model.CustomerProfile, error) {
	user, err := s.users.Register(ctx, RegisterInput{
		Username: in.Username,
		Email:    in.Email,
		Password: in.Password,
		FullName: in.FullName,
		Roles:    []string{model.RoleCustomer},
	})
	if err != nil {
		return nil, err
	}

	profile := &model.CustomerProfile{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		PhoneNumber:  in.PhoneNumber,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		PostalCode:   in.PostalCode,
		State:        in.State,
		Country:      in.Country,
		AllowContact: in.AllowContact,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		return s.audit.LogActivity(tx, "customer", profile.ID, model.AuditCreate, actor.ID,
			"customer profile created", nil)
	})
	if err != nil {
		return nil, err
	}
	profile.User = user
	return profile, nil
}

func (s *CustomerService) Get(ctx context.Context, customerID string) (*model.CustomerProfile, error) {
	var profile model.CustomerProfile
	err := s.db.WithContext(ctx).Preload("User").
		Where("id = ? AND is_deleted = ?", customerID, false).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// List returns live customer profiles, newest first.
func (s *CustomerService) List(ctx context.Context, limit, offset int) ([]model.CustomerProfile, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var profiles []model.CustomerProfile
	err := s.db.WithContext(ctx).Preload("User").
		Where("is_deleted = ?", false).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&profiles).Error
	return profiles, err
}

type RecordMeasurementsInput struct {
	CustomerID    string
	GarmentTypeID string
	IsDefault     bool
	Notes         string
	Values        map[string]float64 // field name -> value
	Unit          string
}

// RecordMeasurements creates a measurement set with its values. Marking the
// set default clears the flag on the customer's other sets for the same
// garment type.
func (s *CustomerService) RecordMeasurements(ctx context.Context, actor Actor, in RecordMeasurementsInput) (*model.MeasurementSet, error) {
	if in.Unit == "" {
		in.Unit = "inches"
	}
	set := &model.MeasurementSet{
		ID:              uuid.New().String(),
		CustomerID:      in.CustomerID,
		GarmentTypeID:   in.GarmentTypeID,
		MeasurementDate: time.Now(),
		TakenByID:       actor.ID,
		IsDefault:       in.IsDefault,
		Notes:           in.Notes,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.IsDefault {
			if err := tx.Model(&model.MeasurementSet{}).
				Where("customer_id = ? AND garment_type_id = ?", in.CustomerID, in.GarmentTypeID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(set).Error; err != nil {
			return err
		}
		for field, value := range in.Values {
			if err := tx.Create(&model.MeasurementValue{
				ID:               uuid.New().String(),
				MeasurementSetID: set.ID,
				FieldName:        field,
				Value:            value,
				Unit:             in.Unit,
			}).Error; err != nil {
				return err
			}
		}
		return s.audit.LogActivity(tx, "measurement_set", set.ID, model.AuditCreate, actor.ID,
			"measurements recorded", nil)
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// Measurements returns the values of a set keyed by field name.
func (s *CustomerService) Measurements(ctx context.Context, setID string) (map[string]float64, error) {
	var values []model.MeasurementValue
	err := s.db.WithContext(ctx).Where("measurement_set_id = ?", setID).Find(&values).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(values))
	for _, v := range values {
		out[v.FieldName] = v.Value
	}
	return out, nil
}
