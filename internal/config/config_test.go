package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"ADDR", "API_BASE", "REFRESH_INTERVAL", "REFRESH_PREWARM_LIMIT", "WAREHOUSE_QUERY_TIMEOUT", "MOCK_DATA_ONLY", "WAREHOUSE_DRIVER"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Addr != ":3000" {
		t.Fatalf("addr = %q", c.Addr)
	}
	if c.APIBase != "/api" {
		t.Fatalf("api base = %q", c.APIBase)
	}
	if c.RefreshInterval != time.Hour {
		t.Fatalf("refresh interval = %v", c.RefreshInterval)
	}
	if c.RefreshPrewarmLimit != 5 {
		t.Fatalf("prewarm = %d", c.RefreshPrewarmLimit)
	}
	if c.Warehouse.QueryTimeout != 30*time.Second {
		t.Fatalf("timeout = %v", c.Warehouse.QueryTimeout)
	}
	if c.MockDataOnly {
		t.Fatal("mock only should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("API_BASE", "/v1/")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("WAREHOUSE_QUERY_TIMEOUT", "10")
	t.Setenv("REFRESH_PREWARM_LIMIT", "-3")
	t.Setenv("MOCK_DATA_ONLY", "true")
	t.Setenv("APP_ENV", "Production")
	c := Load()
	if c.APIBase != "/v1" {
		t.Fatalf("api base = %q", c.APIBase)
	}
	if c.RefreshInterval != 15*time.Minute {
		t.Fatalf("refresh interval = %v", c.RefreshInterval)
	}
	if c.Warehouse.QueryTimeout != 10*time.Second {
		t.Fatalf("timeout = %v", c.Warehouse.QueryTimeout)
	}
	if c.RefreshPrewarmLimit != 0 {
		t.Fatalf("negative prewarm should clamp to 0, got %d", c.RefreshPrewarmLimit)
	}
	if !c.MockDataOnly || !c.Production() {
		t.Fatal("flags not applied")
	}
}

func TestWarehouseConfigured(t *testing.T) {
	cases := []struct {
		w    WarehouseConfig
		want bool
	}{
		{WarehouseConfig{Driver: "snowflake"}, false},
		{WarehouseConfig{Driver: "snowflake", SnowflakeAccount: "acct", SnowflakeUser: "u"}, true},
		{WarehouseConfig{Driver: "postgres", PGHost: "db"}, true},
		{WarehouseConfig{Driver: "mysql", PGHost: "db"}, false},
	}
	for i, c := range cases {
		if got := c.w.Configured(); got != c.want {
			t.Errorf("case %d: got %v want %v", i, got, c.want)
		}
	}
}
