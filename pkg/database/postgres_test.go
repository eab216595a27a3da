package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDSNCarriesLockTimeout(t *testing.T) {
	cfg := Config{
		Host: "db", Port: "5432", User: "app", Password: "pw", DBName: "insumos", SSLMode: "disable",
		LockTimeout: 5 * time.Second,
	}

	assert.Equal(t,
		"host=db port=5432 user=app password=pw dbname=insumos sslmode=disable lock_timeout=5000",
		cfg.DSN())

	cfg.LockTimeout = 0
	assert.NotContains(t, cfg.DSN(), "lock_timeout")
}
