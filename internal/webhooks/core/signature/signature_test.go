package signature

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"webhook-analytics-service/internal/webhooks/core/domain"
)

var body = []byte(`{"object":"page","entry":[]}`)

// ------------------------------------------------------------
// HMAC CORE
// ------------------------------------------------------------

func TestVerify(t *testing.T) {
	good := SignHex(body, "s3cr3t")

	cases := []struct {
		name   string
		body   []byte
		secret string
		sig    string
		want   bool
	}{
		{"valid", body, "s3cr3t", good, true},
		{"wrong secret", body, "other", good, false},
		{"empty secret", body, "", good, false},
		{"empty signature", body, "s3cr3t", "", false},
		{"not hex", body, "s3cr3t", "zz-not-hex", false},
		{"truncated", body, "s3cr3t", good[:10], false},
		{"tampered body", []byte(string(body) + " "), "s3cr3t", good, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Verify(tc.body, tc.secret, tc.sig); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestVerifyBase64(t *testing.T) {
	sig := SignBase64(body, "k")
	if !VerifyBase64(body, "k", sig) {
		t.Fatalf("expected valid base64 signature")
	}
	if VerifyBase64(body, "k", "%%%") {
		t.Fatalf("malformed base64 must not verify")
	}
}

func TestCRCResponse(t *testing.T) {
	got := CRCResponse("challenge", "consumer-secret")
	want := "sha256=" + SignBase64([]byte("challenge"), "consumer-secret")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

// ------------------------------------------------------------
// HEADER SCHEMES
// ------------------------------------------------------------

func event(source domain.Source, header string) domain.InboundEvent {
	return domain.InboundEvent{Source: source, RawPayload: body, SignatureHeader: header}
}

func TestVerifier_Schemes(t *testing.T) {
	secrets := map[domain.Source]string{
		domain.SourceFacebook: "fb",
		domain.SourceTwitter:  "tw",
		domain.SourceLinkedIn: "li",
		domain.SourceInternal: "in",
		domain.SourceGeneric:  "gen",
	}
	v := NewVerifier(secrets, 0)

	ok := []domain.InboundEvent{
		event(domain.SourceFacebook, "sha256="+SignHex(body, "fb")),
		event(domain.SourceTwitter, "sha256="+SignBase64(body, "tw")),
		event(domain.SourceLinkedIn, SignHex(body, "li")),
		event(domain.SourceInternal, "sha256="+SignHex(body, "in")),
		event(domain.SourceInternal, SignHex(body, "in")),
		event("shopify", SignHex(body, "gen")),
	}
	for _, ev := range ok {
		if err := v.Verify(ev); err != nil {
			t.Fatalf("%s: unexpected error: %v", ev.Source, err)
		}
	}

	bad := []domain.InboundEvent{
		event(domain.SourceFacebook, SignHex(body, "fb")), // missing sha256= prefix
		event(domain.SourceTwitter, "sha256="+SignHex(body, "tw")),
		event(domain.SourceLinkedIn, SignHex(body, "fb")),
		event(domain.SourceInstagram, "sha256="+SignHex(body, "fb")), // no instagram secret
	}
	for _, ev := range bad {
		if err := v.Verify(ev); !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("%s: expected ErrAuthentication, got %v", ev.Source, err)
		}
	}
}

func TestVerifier_NoGenericSecretRejectsUnknownSource(t *testing.T) {
	v := NewVerifier(map[domain.Source]string{domain.SourceFacebook: "fb"}, 0)

	err := v.Verify(event("shopify", SignHex(body, "")))

	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestVerifier_Stripe(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := NewVerifier(map[domain.Source]string{domain.SourceStripe: "whsec"}, 5*time.Minute).
		WithClock(func() time.Time { return now })

	stripeHeader := func(ts int64, secret string) string {
		signed := fmt.Sprintf("%d.%s", ts, body)
		return fmt.Sprintf("t=%d,v1=%s", ts, SignHex([]byte(signed), secret))
	}

	if err := v.Verify(event(domain.SourceStripe, stripeHeader(now.Unix(), "whsec"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// rotated secrets produce several v1 entries
	multi := fmt.Sprintf("t=%d,v1=%s,v1=%s", now.Unix(),
		SignHex([]byte(fmt.Sprintf("%d.%s", now.Unix(), body)), "old"),
		SignHex([]byte(fmt.Sprintf("%d.%s", now.Unix(), body)), "whsec"))
	if err := v.Verify(event(domain.SourceStripe, multi)); err != nil {
		t.Fatalf("expected any matching v1 to pass, got %v", err)
	}

	rejected := map[string]string{
		"stale":         stripeHeader(now.Add(-10*time.Minute).Unix(), "whsec"),
		"future":        stripeHeader(now.Add(10*time.Minute).Unix(), "whsec"),
		"wrong secret":  stripeHeader(now.Unix(), "nope"),
		"no timestamp":  "v1=" + SignHex(body, "whsec"),
		"bad timestamp": "t=abc,v1=" + SignHex(body, "whsec"),
		"empty":         "",
	}
	for name, h := range rejected {
		if err := v.Verify(event(domain.SourceStripe, h)); !errors.Is(err, domain.ErrAuthentication) {
			t.Fatalf("%s: expected ErrAuthentication, got %v", name, err)
		}
	}
}

func TestHeaderName(t *testing.T) {
	if HeaderName(domain.SourceInstagram) != "X-Hub-Signature-256" || HeaderName("shopify") != "X-Webhook-Signature" {
		t.Fatalf("unexpected header mapping")
	}
}
