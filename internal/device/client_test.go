package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// Mock settings response - the full key set a current firmware reports
const mockSettingsResponse = `{"minDistance":30,"maxDistance":300,"brightness":200,"movingLightSpan":40,"numLeds":300,"redValue":255,"greenValue":128,"blueValue":0,"backgroundMode":false,"directionalLight":true,"lightMode":1,"effectSpeed":50,"effectIntensity":100,"centerShift":0,"trailLength":5,"motionSmoothingEnabled":true,"positionSmoothingFactor":0.2,"velocitySmoothingFactor":0.1,"predictionFactor":0.5,"positionPGain":0.1,"positionIGain":0.01}`

// Settings response with trailing garbage (real device behavior)
const mockGarbageSettingsResponse = mockSettingsResponse + `<html>ok</html>`

func TestNewClient(t *testing.T) {
	client := NewClient("192.168.1.57", 80)

	if client.BaseURL != "http://192.168.1.57:80" {
		t.Errorf("BaseURL = %s, want http://192.168.1.57:80", client.BaseURL)
	}

	if client.Host != "192.168.1.57" {
		t.Errorf("Host = %s, want 192.168.1.57", client.Host)
	}

	if client.HTTPClient == nil {
		t.Error("HTTPClient should not be nil")
	}
}

func TestNewClientWithURL(t *testing.T) {
	client := NewClientWithURL("http://192.168.1.57:8080")

	if client.BaseURL != "http://192.168.1.57:8080" {
		t.Errorf("BaseURL = %s, want http://192.168.1.57:8080", client.BaseURL)
	}

	if client.Host != "192.168.1.57" {
		t.Errorf("Host = %s, want 192.168.1.57", client.Host)
	}
}

func TestSetTimeout(t *testing.T) {
	client := NewClient("192.168.1.57", 80)
	client.SetTimeout(2 * time.Second)

	if client.HTTPClient.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", client.HTTPClient.Timeout)
	}
}

func TestFetchDistance_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/distance" {
			t.Errorf("Request path = %s, want /distance", r.URL.Path)
		}
		w.Write([]byte("150"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	distance, err := client.FetchDistance(context.Background())

	if err != nil {
		t.Fatalf("FetchDistance() error = %v, want nil", err)
	}
	if distance != 150 {
		t.Errorf("FetchDistance() = %d, want 150", distance)
	}
}

func TestFetchDistance_Whitespace(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(" 150\r\n"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	distance, err := client.FetchDistance(context.Background())

	if err != nil {
		t.Fatalf("FetchDistance() error = %v, want nil", err)
	}
	if distance != 150 {
		t.Errorf("FetchDistance() = %d, want 150", distance)
	}
}

func TestFetchDistance_NonNumeric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>boot</html>"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, err := client.FetchDistance(context.Background())

	if err == nil {
		t.Fatal("FetchDistance() should return error for non-numeric body")
	}
	if !IsParseError(err) {
		t.Errorf("FetchDistance() error should be parse error, got %T: %v", err, err)
	}
}

func TestFetchDistance_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, err := client.FetchDistance(context.Background())

	if err == nil {
		t.Fatal("FetchDistance() should return error for HTTP 500")
	}
	if !IsHTTPError(err) {
		t.Errorf("FetchDistance() error should be HTTP error, got %T: %v", err, err)
	}
}

func TestFetchDistance_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte("150"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	client.SetTimeout(50 * time.Millisecond)

	_, err := client.FetchDistance(context.Background())

	if err == nil {
		t.Fatal("FetchDistance() should return error for timeout")
	}
	if !IsTimeout(err) {
		t.Errorf("FetchDistance() error should be timeout, got %T: %v", err, err)
	}
}

func TestFetchSettings_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/settings" {
			t.Errorf("Request path = %s, want /settings", r.URL.Path)
		}
		w.Write([]byte(mockSettingsResponse))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	settings, err := client.FetchSettings(context.Background())

	if err != nil {
		t.Fatalf("FetchSettings() error = %v, want nil", err)
	}

	if v, ok := settings["minDistance"].(float64); !ok || v != 30 {
		t.Errorf("minDistance = %v, want 30", settings["minDistance"])
	}
	if v, ok := settings["directionalLight"].(bool); !ok || !v {
		t.Errorf("directionalLight = %v, want true", settings["directionalLight"])
	}
}

func TestFetchSettings_TrailingGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mockGarbageSettingsResponse))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	settings, err := client.FetchSettings(context.Background())

	if err != nil {
		t.Fatalf("FetchSettings() error = %v, want nil for response with trailing garbage", err)
	}
	if v, ok := settings["brightness"].(float64); !ok || v != 200 {
		t.Errorf("brightness = %v, want 200", settings["brightness"])
	}
}

func TestFetchSettings_Malformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"minDistance":30,`))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	settings, err := client.FetchSettings(context.Background())

	if err == nil {
		t.Fatal("FetchSettings() should return error for truncated JSON")
	}
	if !IsParseError(err) {
		t.Errorf("FetchSettings() error should be parse error, got %T: %v", err, err)
	}
	// A parse failure must never look like "no settings"
	if settings != nil {
		t.Errorf("FetchSettings() = %v, want nil map on parse failure", settings)
	}
}

func TestFetchSettings_NoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, err := client.FetchSettings(context.Background())

	if err == nil {
		t.Fatal("FetchSettings() should return error when no JSON object is present")
	}
	if !IsParseError(err) {
		t.Errorf("FetchSettings() error should be parse error, got %T: %v", err, err)
	}
}

func TestSendCommand_Success(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	status, body, err := client.SendCommand(context.Background(), "/set", map[string]string{
		"minDist":    "42",
		"brightness": "200",
	})

	if err != nil {
		t.Fatalf("SendCommand() error = %v, want nil", err)
	}
	if status != http.StatusOK {
		t.Errorf("SendCommand() status = %d, want 200", status)
	}
	if body != "OK" {
		t.Errorf("SendCommand() body = %q, want OK", body)
	}
	if gotPath != "/set" {
		t.Errorf("Request path = %s, want /set", gotPath)
	}
	if got := gotQuery["minDist"]; len(got) != 1 || got[0] != "42" {
		t.Errorf("minDist query = %v, want [42]", got)
	}
	if got := gotQuery["brightness"]; len(got) != 1 || got[0] != "200" {
		t.Errorf("brightness query = %v, want [200]", got)
	}
}

func TestSendCommand_NoQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("RawQuery = %q, want empty", r.URL.RawQuery)
		}
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	_, _, err := client.SendCommand(context.Background(), "/set", nil)

	if err != nil {
		t.Errorf("SendCommand() error = %v, want nil", err)
	}
}

func TestSendCommand_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad param"))
	}))
	defer server.Close()

	client := NewClientWithURL(server.URL)
	status, body, err := client.SendCommand(context.Background(), "/setLightMode", map[string]string{"mode": "9"})

	if err == nil {
		t.Fatal("SendCommand() should return error for HTTP 400")
	}
	if !IsHTTPError(err) {
		t.Errorf("SendCommand() error should be HTTP error, got %T: %v", err, err)
	}
	if status != http.StatusBadRequest {
		t.Errorf("SendCommand() status = %d, want 400", status)
	}
	// The body is still returned for diagnostics
	if body != "bad param" {
		t.Errorf("SendCommand() body = %q, want %q", body, "bad param")
	}
}

func TestSendCommand_NetworkFailure(t *testing.T) {
	// TEST-NET-1 (guaranteed unreachable)
	client := NewClient("192.0.2.1", 80)
	client.SetTimeout(100 * time.Millisecond)

	_, _, err := client.SendCommand(context.Background(), "/set", map[string]string{"minDist": "42"})

	if err == nil {
		t.Fatal("SendCommand() should return error for network failure")
	}
	if !IsNetworkError(err) {
		t.Errorf("SendCommand() error should be network error, got %T: %v", err, err)
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "clean object",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "trailing garbage",
			input:    `{"a":1}</div>junk`,
			expected: `{"a":1}`,
		},
		{
			name:     "leading garbage",
			input:    `HTTP junk {"a":1}`,
			expected: `{"a":1}`,
		},
		{
			name:     "nested objects",
			input:    `{"a":{"b":{"c":1}}}extra`,
			expected: `{"a":{"b":{"c":1}}}`,
		},
		{
			name:     "braces inside strings",
			input:    `{"a":"}{"}tail`,
			expected: `{"a":"}{"}`,
		},
		{
			name:     "escaped quote inside string",
			input:    `{"a":"say \"}\" loud"}tail`,
			expected: `{"a":"say \"}\" loud"}`,
		},
		{
			name:    "no object",
			input:   `plain text`,
			wantErr: true,
		},
		{
			name:    "unclosed object",
			input:   `{"a":1`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Errorf("ExtractJSONObject(%q) error = nil, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractJSONObject(%q) error = %v, want nil", tt.input, err)
			}
			if string(got) != tt.expected {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
