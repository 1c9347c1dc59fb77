package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Auth:   AuthConfig{JWTSecret: "test-secret-key-for-unit-testing-2026"},
		Report: ReportConfig{Timezone: "UTC"},
		Alert:  AlertConfig{SweepEnabled: true, Cron: "0 7 * * *"},
		RateLimit: RateLimitConfig{
			Login:  RateRule{Limit: 10, Window: time.Minute},
			Global: RateRule{Limit: 300, Window: time.Minute},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"合法配置", func(*Config) {}, ""},
		{"JWT 密钥为空", func(c *Config) { c.Auth.JWTSecret = "" }, "jwt_secret"},
		{"JWT 密钥过短", func(c *Config) { c.Auth.JWTSecret = "short" }, "jwt_secret"},
		{"端口越界", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"时区无效", func(c *Config) { c.Report.Timezone = "Mars/Olympus" }, "report.timezone"},
		{"cron 无效", func(c *Config) { c.Alert.Cron = "every day" }, "alert.cron"},
		{"扫描关闭时忽略 cron", func(c *Config) { c.Alert.SweepEnabled = false; c.Alert.Cron = "" }, ""},
		{"限流规则为零", func(c *Config) { c.RateLimit.Login.Limit = 0 }, "rate_limit.login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("期望通过校验，实际: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("期望包含 %q 的错误，实际: %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CMCI_AUTH_JWT_SECRET", "env-secret-key-for-unit-testing")
	t.Setenv("CMCI_SERVER_PORT", "9090")
	t.Setenv("CMCI_REPORT_TIMEZONE", "Europe/Paris")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望端口 9090，实际 %d", cfg.Server.Port)
	}
	if cfg.Report.Timezone != "Europe/Paris" {
		t.Errorf("期望时区 Europe/Paris，实际 %s", cfg.Report.Timezone)
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("默认 AccessTokenTTL 应为 15m，实际 %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Alert.Cron != "0 7 * * *" {
		t.Errorf("默认 cron 错误: %s", cfg.Alert.Cron)
	}
}
