package db

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/locentra/locentra-api/config"
	"github.com/locentra/locentra-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	DB *gorm.DB
}

func GetDB(c *config.Config) *GormDB {
	gormDB := &GormDB{}
	gormDB.Init(c)
	return gormDB
}

func (g *GormDB) Init(c *config.Config) {
	g.DB = getPostgresDB(c)

	if err := Migrate(g.DB); err != nil {
		log.Fatalf("unable to run migrations: %v", err)
	}
}

func getPostgresDB(c *config.Config) *gorm.DB {
	postgresDSN := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d TimeZone=Australia/Sydney",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresPort)

	gormConfig := &gorm.Config{}
	if c.Env != "prod" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN: postgresDSN,
	}), gormConfig)
	if err != nil {
		log.Fatal(err)
	}

	return gormDB
}

// SeedRoles ensures the two marketplace roles exist.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{ID: uuid.New(), Name: models.RoleHomeowner},
		{ID: uuid.New(), Name: models.RoleTradie},
	}

	for _, role := range roles {
		if err := db.FirstOrCreate(&role, models.Role{Name: role.Name}).Error; err != nil {
			return err
		}
	}

	return nil
}

// Migrate runs the schema migrations and seeds the roles.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Blacklist{},
		&models.Job{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migrations error: %v", err)
	}

	if err := SeedRoles(db); err != nil {
		return fmt.Errorf("seeding roles error: %v", err)
	}

	return nil
}
