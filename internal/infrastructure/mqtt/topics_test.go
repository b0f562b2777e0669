package mqtt

import (
	"errors"
	"testing"
)

func TestDeviceTemplates(t *testing.T) {
	mac := "AA:BB:CC:DD:EE:FF"

	tests := []struct {
		template string
		want     string
	}{
		{TemplateStatus, mac + "/status"},
		{TemplateConn, mac + "/conn"},
		{TemplateDeviceSensor, mac + "/device/sensor"},
		{TemplateDeviceConfirm, mac + "/device/confirm"},
		{TemplateDeviceControl, mac + "/device/control"},
		{TemplateReset, mac + "/reset"},
		{TemplateStop, mac + "/stop"},
		{TemplateResume, mac + "/resume"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			tmpl := MustTemplate(tt.template)
			if got := tmpl.Placeholders(); len(got) != 1 || got[0] != "mac" {
				t.Fatalf("Placeholders() = %v, want [mac]", got)
			}
			got, err := tmpl.Concrete(map[string]string{"mac": mac})
			if err != nil {
				t.Fatalf("Concrete() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Concrete() = %q, want %q", got, tt.want)
			}
			if _, err := tmpl.Concrete(map[string]string{"mac": "AA/BB"}); !errors.Is(err, ErrInvalidTopic) {
				t.Errorf("Concrete(AA/BB) error = %v, want ErrInvalidTopic", err)
			}
		})
	}

	if TopicSystemStatus != "gardencore/system/status" {
		t.Errorf("TopicSystemStatus = %q, want %q", TopicSystemStatus, "gardencore/system/status")
	}
}
