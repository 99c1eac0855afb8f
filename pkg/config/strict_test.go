package config

import (
	"errors"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/epicast/pkg/models"
)

func TestCheckIntegers(t *testing.T) {
	type inner struct {
		Days []int `yaml:"days"`
	}
	type doc struct {
		Count int     `yaml:"count"`
		Rate  float64 `yaml:"rate"`
		Inner *inner  `yaml:"inner"`
	}

	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"Whole numbers", "count: 3\nrate: 2\ninner: {days: [1, 2]}", ""},
		{"Float into float", "rate: 0.5", ""},
		{"Null int", "count: ~", ""},
		{"Fraction", "count: 2.5", "count"},
		{"Exponent", "count: 1e3", "count"},
		{"Nested sequence", "inner: {days: [1, 2.5]}", "inner.days[1]"},
		{"Through alias", "base: &n 4.5\ncount: *n", "count"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var node yaml.Node
			if err := yaml.Unmarshal([]byte(tt.yaml), &node); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			err := CheckIntegers(&node, reflect.TypeOf(doc{}))
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cfgErr *models.ConfigError
			if !errors.As(err, &cfgErr) || cfgErr.Field != tt.field {
				t.Fatalf("expected ConfigError on %s, got %v", tt.field, err)
			}
		})
	}
}
