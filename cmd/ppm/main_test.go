package main

import (
	"testing"

	"github.com/matthieumontaigu/plex-poster-manager/internal/tasks"
)

func TestParseArgs_Run(t *testing.T) {
	ca, err := parseArgs("run", []string{"--config-path", "/etc/ppm.json"}, false)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ca.ConfigPath != "/etc/ppm.json" {
		t.Fatalf("期望 /etc/ppm.json，实际 %q", ca.ConfigPath)
	}

	ca, err = parseArgs("run", []string{"-c=/tmp/c.json"}, false)
	if err != nil || ca.ConfigPath != "/tmp/c.json" {
		t.Fatalf("短参数解析失败：%+v %v", ca, err)
	}
}

func TestParseArgs_Once(t *testing.T) {
	ca, err := parseArgs("once", []string{tasks.NameMissingArtworks, "--config-path=/c.json"}, true)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if ca.Task != tasks.NameMissingArtworks || ca.ConfigPath != "/c.json" {
		t.Fatalf("解析结果不正确：%+v", ca)
	}
}

func TestParseArgs_Help(t *testing.T) {
	ca, err := parseArgs("once", []string{"--help"}, true)
	if err != nil || !ca.Help {
		t.Fatalf("期望 help，实际 %+v %v", ca, err)
	}
}

func TestParseArgs_Errors(t *testing.T) {
	cases := []struct {
		name     string
		args     []string
		wantTask bool
	}{
		{"missing config path", nil, false},
		{"unknown flag", []string{"--apply", "-c", "x"}, false},
		{"extra positional", []string{"-c", "x", "extra"}, false},
		{"missing task", []string{"-c", "x"}, true},
		{"unknown task", []string{"-c", "x", "sync"}, true},
		{"two tasks", []string{"-c", "x", tasks.NameRecentlyAdded, tasks.NameMissingArtworks}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseArgs("cmd", tc.args, tc.wantTask); err == nil {
				t.Fatalf("期望错误：%v", tc.args)
			}
		})
	}
}
