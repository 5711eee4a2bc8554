//go:build functional

package test_functional

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Host       string `mapstructure:"HOST"`
		Port       string `mapstructure:"PORT"`
		DBHost     string `mapstructure:"DB_HOST"`
		DBPort     string `mapstructure:"DB_PORT"`
		DBUser     string `mapstructure:"DB_USER"`
		DBPassword string `mapstructure:"DB_PASSWORD"`
		DBName     string `mapstructure:"DB_NAME"`
	}
)

var (
	AppBaseURL url.URL
	DBConn     *pgxpool.Pool
)

func TestMain(m *testing.M) {
	v := viper.New()
	v.SetEnvPrefix("TEST_RUNNER")

	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "1323")
	v.SetDefault("DB_HOST", "0.0.0.0")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "user")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "db")

	envs := []string{"HOST", "PORT", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"}
	for _, key := range envs {
		if err := v.BindEnv(key); err != nil {
			panic(err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		panic(err)
	}

	AppBaseURL = url.URL{
		Scheme: "http",
		Host:   cfg.Host + ":" + cfg.Port,
	}

	////////

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)

	cl := resty.New().SetTimeout(time.Second)
	pingURL := AppBaseURL
	pingURL.Path = "/ping"
	for {
		if pingCtx.Err() != nil {
			panic(pingCtx.Err())
		}
		resp, err := cl.R().SetContext(pingCtx).Get(pingURL.String())
		if err == nil && resp.String() == "pong" {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	cancel()

	fmt.Println("pinged successfully")

	///////

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		panic(err)
	}
	DBConn = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

// FlushDB empties every table the app writes to.
func FlushDB() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := DBConn.Exec(ctx,
		"TRUNCATE recipe_tags, recipe_ingredients, recipes, tags, ingredients, users RESTART IDENTITY CASCADE")
	if err != nil {
		panic(err)
	}
}

func endpoint(path string) string {
	u := AppBaseURL
	u.Path = path
	return u.String()
}
