package platform

import (
	"fmt"
	"log"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var (
	DB *gorm.DB
)

// Config 包含数据库连接的配置信息
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

func InitDB() {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "mysql"
	}

	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "sqlite":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "flowchat.db"
		}
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		config := Config{
			Host:     os.Getenv("SQL_HOST"),
			Port:     os.Getenv("SQL_PORT"),
			User:     os.Getenv("SQL_USER"),
			Password: os.Getenv("SQL_PASSWORD"),
			DBName:   os.Getenv("SQL_DBNAME"),
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.User, config.Password, config.Host, config.Port, config.DBName)
		db, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
		return
	}
	DB = db
}
