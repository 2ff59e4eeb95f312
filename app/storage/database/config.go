package database

import (
	"fmt"
)

const defaultSSLMode = "disable"

type Config struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslMode"`
	MigrationsTable string `mapstructure:"migrationsTable"`
}

// dbName falls back to the user name by convention.
func (c *Config) dbName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.User
}

func (c *Config) sslMode() string {
	if c.SSLMode != "" {
		return c.SSLMode
	}
	return defaultSSLMode
}

func (c *Config) DBConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.dbName(), c.User, c.Password, c.sslMode(),
	)
}

func (c *Config) DBConnectionStringForMigration() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s&x-migrations-table=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.dbName(),
		c.sslMode(),
		c.MigrationsTable,
	)
}
