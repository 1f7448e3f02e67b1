package ui

import (
	"reflect"
	"testing"
)

func TestMatchCommands(t *testing.T) {
	commands := []string{"/help", "/history", "/save", "/status", "/exit"}
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{"plain text", "hello", nil},
		{"slash only", "/", commands},
		{"prefix", "/s", []string{"/save", "/status"}},
		{"two matches", "/h", []string{"/help", "/history"}},
		{"complete command", "/exit", nil},
		{"argument typed", "/save notes", nil},
		{"no match", "/zzz", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchCommands(commands, tt.value)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchCommands(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
