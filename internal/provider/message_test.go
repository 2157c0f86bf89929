package provider

import "testing"

func TestExtractMessage_RuleOrder(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json string body", 400, `"quota exceeded"`, "quota exceeded"},
		{"plain text body", 502, "Bad Gateway", "Bad Gateway"},
		{"message wins over error", 400, `{"message":"invalid avatar","error":"x","detail":"y"}`, "invalid avatar"},
		{"error string", 401, `{"error":"unauthorized"}`, "unauthorized"},
		{"error object encoded", 400, `{"error":{"code":"E1"}}`, `{"code":"E1"}`},
		{"empty message falls through", 400, `{"message":"","detail":"missing session"}`, "missing session"},
		{"detail", 422, `{"detail":"session_id is required"}`, "session_id is required"},
		{"fallback", 500, `{"code":10001}`, `HeyGen API error (500): {"code":10001}`},
		{"array fallback", 500, `[1,2]`, `HeyGen API error (500): [1,2]`},
		{"empty body fallback", 503, ``, `HeyGen API error (503): `},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractMessage(tc.status, []byte(tc.body)); got != tc.want {
				t.Fatalf("ExtractMessage=%q, want %q", got, tc.want)
			}
		})
	}
}
