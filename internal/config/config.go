package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"battle-quiz-service/internal/battle"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // text or json
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL  string `yaml:"ttl"`
		File string `yaml:"file"`
	} `yaml:"quiz"`
	Battle Battle `yaml:"battle"`
}

// Battle overrides the default rules and pacing. Zero values keep the defaults.
type Battle struct {
	PlayerMaxHP       int    `yaml:"playerMaxHp"`
	EnemyDamage       []int  `yaml:"enemyDamage"`  // [min, max]
	PlayerDamage      []int  `yaml:"playerDamage"` // [min, max]
	ItemRewardPercent int    `yaml:"itemRewardPercent"`
	AttackWindup      string `yaml:"attackWindup"`
	Impact            string `yaml:"impact"`
	ResultShown       string `yaml:"resultShown"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields an empty Config.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
}

// LoadEnv loads a .env file into the process environment if one exists.
func LoadEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Rules applies overrides on top of battle.DefaultRules.
func (b Battle) Rules() battle.Rules {
	rules := battle.DefaultRules()
	if b.PlayerMaxHP > 0 {
		rules.PlayerMaxHP = b.PlayerMaxHP
	}
	if r, ok := damageRange(b.EnemyDamage); ok {
		rules.EnemyDamage = r
	}
	if r, ok := damageRange(b.PlayerDamage); ok {
		rules.PlayerDamage = r
	}
	if b.ItemRewardPercent > 0 {
		rules.ItemRewardPercent = b.ItemRewardPercent
	}
	return rules
}

// Pacing applies overrides on top of battle.DefaultPacing.
func (b Battle) Pacing() battle.Pacing {
	pacing := battle.DefaultPacing()
	pacing.AttackWindup = TTLDuration(b.AttackWindup, pacing.AttackWindup)
	pacing.Impact = TTLDuration(b.Impact, pacing.Impact)
	pacing.ResultShown = TTLDuration(b.ResultShown, pacing.ResultShown)
	return pacing
}

func damageRange(v []int) (battle.DamageRange, bool) {
	if len(v) != 2 || v[0] < 0 || v[1] < v[0] {
		return battle.DamageRange{}, false
	}
	return battle.DamageRange{Min: v[0], Max: v[1]}, true
}
