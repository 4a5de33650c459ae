package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/d60-Lab/tailorshop/config"
	"github.com/d60-Lab/tailorshop/internal/model"
	"github.com/d60-Lab/tailorshop/internal/service"
	"github.com/d60-Lab/tailorshop/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Seeds reference data plus a sample catalog and an admin account for local
// development.
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))

	if err := model.AutoMigrate(db); err != nil {
		panic(err)
	}
	if err := model.SeedReferenceData(db); err != nil {
		panic(err)
	}

	garments := []model.GarmentType{
		{Name: "Shirt", BasePrice: 800, FabricRequirementMeters: 2.5, StitchingDaysEstimate: 5},
		{Name: "Trousers", BasePrice: 900, FabricRequirementMeters: 1.5, StitchingDaysEstimate: 5},
		{Name: "Suit (2 piece)", BasePrice: 6500, FabricRequirementMeters: 4.5, StitchingDaysEstimate: 14},
		{Name: "Sherwani", BasePrice: 8000, FabricRequirementMeters: 5.0, StitchingDaysEstimate: 18},
		{Name: "Blouse", BasePrice: 600, FabricRequirementMeters: 1.0, StitchingDaysEstimate: 4},
	}
	for _, g := range garments {
		var existing model.GarmentType
		err := db.Where("name = ?", g.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.ID = uuid.New().String()
			g.IsActive = true
			if err := db.Create(&g).Error; err != nil {
				panic(err)
			}
		}
	}

	workTypes := []model.WorkType{
		{Name: "Embroidery", ExtraCharge: 500, LaborHoursEstimate: 12},
		{Name: "Lining", ExtraCharge: 300, LaborHoursEstimate: 6},
		{Name: "Hand stitching", ExtraCharge: 700, LaborHoursEstimate: 16},
		{Name: "Monogram", ExtraCharge: 150, LaborHoursEstimate: 2},
	}
	for _, wt := range workTypes {
		var existing model.WorkType
		err := db.Where("name = ?", wt.Name).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			wt.ID = uuid.New().String()
			if err := db.Create(&wt).Error; err != nil {
				panic(err)
			}
		}
	}

	users := service.NewUserService(db, cfg.JWT)
	var admin model.User
	err := db.Where("username = ?", "admin").First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		created := must(users.Register(context.Background(), service.RegisterInput{
			Username: "admin",
			Email:    "admin@tailorshop.local",
			Password: "change-me-now",
			FullName: "Shop Admin",
			Roles:    []string{model.RoleAdmin},
		}))
		if err := db.Model(&model.User{}).Where("id = ?", created.ID).
			Update("is_superuser", true).Error; err != nil {
			panic(err)
		}
		fmt.Println("created admin user:", created.Username)
	}

	fmt.Println("seed complete")
}
