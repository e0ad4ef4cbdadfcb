package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr      string
	MySQLDSN      string
	RedisAddr     string
	MigrationsDir string

	// LockWaitTimeout bounds how long a placement waits on a contended
	// product row before failing.
	LockWaitTimeout   time.Duration
	MaxLineQuantity   int
	OrdersPerPage     int
	InventoryPerPage  int
	InventoryCacheTTL time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		MySQLDSN:          getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/store?parseTime=true"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		MigrationsDir:     getenv("MIGRATIONS_DIR", "migrations"),
		LockWaitTimeout:   getduration("LOCK_WAIT_TIMEOUT", 5*time.Second),
		MaxLineQuantity:   getint("MAX_LINE_QUANTITY", 100),
		OrdersPerPage:     getint("ORDERS_PER_PAGE", 10),
		InventoryPerPage:  getint("INVENTORY_PER_PAGE", 10),
		InventoryCacheTTL: getduration("INVENTORY_CACHE_TTL", 10*time.Minute),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getduration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
