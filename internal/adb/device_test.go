package adb

import "testing"

func TestParseDeviceList(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []Device
	}{
		{
			name:    "single emulator with attributes",
			payload: "emulator-5554          device product:sdk_gphone64_x86_64 model:sdk_gphone64_x86_64 device:emu64xa transport_id:1\n",
			want: []Device{
				{
					Serial: "emulator-5554",
					State:  "device",
					Attrs: map[string]string{
						"product":      "sdk_gphone64_x86_64",
						"model":        "sdk_gphone64_x86_64",
						"device":       "emu64xa",
						"transport_id": "1",
					},
				},
			},
		},
		{
			name: "multiple devices",
			payload: "emulator-5554          device product:sdk model:sdk device:emu transport_id:1\n" +
				"R58M12ABCDE            device product:beyond1lte model:SM_G973F device:beyond1 transport_id:2\n",
			want: []Device{
				{Serial: "emulator-5554", State: "device"},
				{Serial: "R58M12ABCDE", State: "device"},
			},
		},
		{
			name:    "unauthorized device reports no attributes",
			payload: "R58M12ABCDE            unauthorized transport_id:3\n",
			want: []Device{
				{
					Serial: "R58M12ABCDE",
					State:  "unauthorized",
					Attrs:  map[string]string{"transport_id": "3"},
				},
			},
		},
		{
			name:    "empty payload",
			payload: "",
			want:    nil,
		},
		{
			name:    "blank lines and truncated lines are skipped",
			payload: "\n\nhalf-a-line\n\nemulator-5556 offline\n",
			want: []Device{
				{Serial: "emulator-5556", State: "offline", Attrs: map[string]string{}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDeviceList(tt.payload)
			if len(got) != len(tt.want) {
				t.Fatalf("parseDeviceList() returned %d devices, want %d", len(got), len(tt.want))
			}
			for i, want := range tt.want {
				if got[i].Serial != want.Serial {
					t.Errorf("device %d serial = %q, want %q", i, got[i].Serial, want.Serial)
				}
				if got[i].State != want.State {
					t.Errorf("device %d state = %q, want %q", i, got[i].State, want.State)
				}
				if want.Attrs != nil {
					for k, v := range want.Attrs {
						if got[i].Attrs[k] != v {
							t.Errorf("device %d attr %q = %q, want %q", i, k, got[i].Attrs[k], v)
						}
					}
				}
			}
		})
	}
}

func TestDeviceAttr(t *testing.T) {
	dev := Device{
		Serial: "emulator-5554",
		State:  "device",
		Attrs:  map[string]string{"model": "sdk_gphone64_x86_64"},
	}

	if got := dev.Model(); got != "sdk_gphone64_x86_64" {
		t.Errorf("Model() = %q, want %q", got, "sdk_gphone64_x86_64")
	}

	// Missing attributes render as "?" instead of an empty cell
	if got := dev.Product(); got != "?" {
		t.Errorf("Product() = %q, want %q", got, "?")
	}

	var empty Device
	if got := empty.Attr("model"); got != "?" {
		t.Errorf("Attr() on zero device = %q, want %q", got, "?")
	}
}

func TestDeviceString(t *testing.T) {
	dev := Device{
		Serial: "emulator-5554",
		State:  "device",
		Attrs:  map[string]string{"model": "sdk_gphone64_x86_64", "product": "sdk"},
	}

	want := "emulator-5554 (device, model=sdk_gphone64_x86_64, product=sdk)"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	unauthorized := Device{Serial: "R58M12ABCDE", State: "unauthorized"}
	want = "R58M12ABCDE (unauthorized, model=?, product=?)"
	if got := unauthorized.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
