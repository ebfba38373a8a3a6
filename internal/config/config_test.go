package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "GRADING_CASE_SENSITIVE", "LOG_MODE", "ENABLE_LOCAL_AUTH"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline {
		t.Fatalf("Mode = %q", c.Mode)
	}
	if c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("addr=%q driver=%q", c.HTTPAddr, c.DBDriver)
	}
	if c.GradingCaseSensitive {
		t.Fatal("grading should be case-insensitive by default")
	}
	if !c.EnableLocalAuth || c.LogMode != "development" {
		t.Fatalf("offline defaults: local auth=%v log=%q", c.EnableLocalAuth, c.LogMode)
	}
}

func TestFromEnvOnline(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("ENABLE_LOCAL_AUTH", "")
	t.Setenv("LOG_MODE", "")
	t.Setenv("GRADING_CASE_SENSITIVE", "true")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")

	c := FromEnv()
	if c.EnableLocalAuth {
		t.Fatal("local auth should default off online")
	}
	if c.LogMode != "production" {
		t.Fatalf("LogMode = %q", c.LogMode)
	}
	if !c.GradingCaseSensitive {
		t.Fatal("GRADING_CASE_SENSITIVE not honoured")
	}
	got := c.CORSOrigins()
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", got)
	}
}
