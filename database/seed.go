package database

import (
	"os"

	"github.com/lunchline/pos-server/models"
	"github.com/lunchline/pos-server/services"
	"github.com/lunchline/pos-server/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed provisions a fresh install when POS_SEED=true: a manager login,
// the cash placeholder account, and a starter item catalog. Every row
// is created only if missing, so running it against a live database
// changes nothing.
func Seed(db *gorm.DB) error {
	if os.Getenv("POS_SEED") != "true" {
		return nil
	}

	if err := seedManager(db); err != nil {
		return err
	}
	if err := seedCashAccount(db); err != nil {
		return err
	}
	if err := seedCatalog(db); err != nil {
		return err
	}

	utils.InfoLogger.Println("Seed completed.")
	return nil
}

func seedManager(db *gorm.DB) error {
	password := os.Getenv("POS_SEED_MANAGER_PASSWORD")
	if password == "" {
		password = "changeme"
		utils.InfoLogger.Println("POS_SEED_MANAGER_PASSWORD not set, seeding manager with default password")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	manager := models.User{
		Name:     "Cafeteria Manager",
		Username: "manager",
		Password: string(hashed),
		Role:     models.RoleManager,
	}
	return db.Where("username = ?", manager.Username).FirstOrCreate(&manager).Error
}

func seedCashAccount(db *gorm.DB) error {
	cash := models.Customer{
		AccountNo: services.CashCode,
		FirstName: "Cash",
		LastName:  "Customer",
		Status:    "active",
	}
	return db.Where("account_no = ?", cash.AccountNo).FirstOrCreate(&cash).Error
}

func seedCatalog(db *gorm.DB) error {
	items := []models.Item{
		{Name: "Student Lunch", Type: models.ItemTypeLunch, TransCode: "LU", Price: 2.75},
		{Name: "Student Breakfast", Type: models.ItemTypeBreakfast, TransCode: "BR", Price: 1.50},
		{Name: "Milk", Type: models.ItemTypeMilk, TransCode: "MK", Price: 0.50},
		{Name: "A La Carte Entree", Type: models.ItemTypeALaCarte, TransCode: models.TransCodeALaCarte, Price: 3.25},
		{Name: "Adult Meal", Type: models.ItemTypeStaff, TransCode: "AD", Price: 4.50},
	}

	for i := range items {
		err := db.Where("name = ?", items[i].Name).FirstOrCreate(&items[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
