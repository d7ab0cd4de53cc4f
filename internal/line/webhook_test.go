package line

import (
	"encoding/json"
	"testing"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"events":[]}`)
	sig := Sign("secret", body)

	tests := []struct {
		name   string
		secret string
		body   []byte
		sig    string
		want   bool
	}{
		{name: "valid", secret: "secret", body: body, sig: sig, want: true},
		{name: "wrong secret", secret: "other", body: body, sig: sig},
		{name: "tampered body", secret: "secret", body: []byte(`{"events":[{}]}`), sig: sig},
		{name: "empty signature", secret: "secret", body: body, sig: ""},
		{name: "not base64", secret: "secret", body: body, sig: "%%%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.secret, tt.body, tt.sig); got != tt.want {
				t.Fatalf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvent_Text(t *testing.T) {
	raw := `{"events":[
		{"type":"message","replyToken":"r1","source":{"type":"user","userId":"U1"},"message":{"id":"1","type":"text","text":"hi"}},
		{"type":"message","replyToken":"r2","source":{"type":"user","userId":"U2"},"message":{"id":"2","type":"sticker"}},
		{"type":"follow","replyToken":"r3","source":{"type":"user","userId":"U3"}}
	]}`
	var req WebhookRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(req.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(req.Events))
	}
	if !req.Events[0].IsText() || req.Events[0].Text() != "hi" {
		t.Fatalf("first event should be text 'hi'")
	}
	if req.Events[1].IsText() || req.Events[1].Text() != "" {
		t.Fatalf("sticker should not be text")
	}
	if req.Events[2].IsText() {
		t.Fatalf("follow event has no message")
	}
	if req.Events[0].Source.UserID != "U1" || req.Events[0].ReplyToken != "r1" {
		t.Fatalf("unexpected first event: %+v", req.Events[0])
	}
}
