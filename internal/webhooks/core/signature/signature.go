package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"webhook-analytics-service/internal/webhooks/core/domain"
)

// Verify reports whether providedHex is the HMAC-SHA256 of body under
// secret. An empty secret or a malformed signature never verifies.
func Verify(body []byte, secret, providedHex string) bool {
	if secret == "" || providedHex == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(providedHex))
	if err != nil {
		return false
	}
	return hmac.Equal(provided, mac(body, secret))
}

// VerifyBase64 is Verify for base64 encoded signatures.
func VerifyBase64(body []byte, secret, providedB64 string) bool {
	if secret == "" || providedB64 == "" {
		return false
	}
	provided, err := base64.StdEncoding.DecodeString(strings.TrimSpace(providedB64))
	if err != nil {
		return false
	}
	return hmac.Equal(provided, mac(body, secret))
}

// SignHex returns the hex HMAC-SHA256 of body.
func SignHex(body []byte, secret string) string {
	return hex.EncodeToString(mac(body, secret))
}

// SignBase64 returns the base64 HMAC-SHA256 of body.
func SignBase64(body []byte, secret string) string {
	return base64.StdEncoding.EncodeToString(mac(body, secret))
}

// CRCResponse answers a Twitter challenge-response check.
func CRCResponse(crcToken, secret string) string {
	return "sha256=" + SignBase64([]byte(crcToken), secret)
}

func mac(body []byte, secret string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return h.Sum(nil)
}

// HeaderName returns the request header carrying the signature of source.
func HeaderName(source domain.Source) string {
	switch source {
	case domain.SourceFacebook, domain.SourceInstagram:
		return "X-Hub-Signature-256"
	case domain.SourceStripe:
		return "Stripe-Signature"
	case domain.SourceTwitter:
		return "X-Twitter-Webhooks-Signature"
	case domain.SourceLinkedIn:
		return "X-LI-Signature"
	default:
		return "X-Webhook-Signature"
	}
}

// Verifier checks inbound events against per-source secrets. A source
// without a secret rejects everything.
type Verifier struct {
	secrets   map[domain.Source]string
	tolerance time.Duration
	now       func() time.Time
}

func NewVerifier(secrets map[domain.Source]string, stripeTolerance time.Duration) *Verifier {
	cp := make(map[domain.Source]string, len(secrets))
	for k, v := range secrets {
		cp[k] = v
	}
	return &Verifier{secrets: cp, tolerance: stripeTolerance, now: time.Now}
}

// WithClock replaces the clock used for timestamp tolerance checks.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Secret returns the secret configured for source. Unknown sources use
// the generic secret.
func (v *Verifier) Secret(source domain.Source) string {
	if s, ok := v.secrets[source]; ok {
		return s
	}
	return v.secrets[domain.SourceGeneric]
}

// Verify returns nil when the event carries a valid signature and
// ErrAuthentication otherwise.
func (v *Verifier) Verify(ev domain.InboundEvent) error {
	secret := v.Secret(ev.Source)
	if secret == "" {
		return fmt.Errorf("%w: no secret configured for %s", domain.ErrAuthentication, ev.Source)
	}

	var ok bool
	switch ev.Source {
	case domain.SourceFacebook, domain.SourceInstagram:
		sig, found := strings.CutPrefix(ev.SignatureHeader, "sha256=")
		ok = found && Verify(ev.RawPayload, secret, sig)
	case domain.SourceTwitter:
		sig, found := strings.CutPrefix(ev.SignatureHeader, "sha256=")
		ok = found && VerifyBase64(ev.RawPayload, secret, sig)
	case domain.SourceStripe:
		ok = v.verifyStripe(ev.RawPayload, secret, ev.SignatureHeader)
	default:
		sig := strings.TrimPrefix(ev.SignatureHeader, "sha256=")
		ok = Verify(ev.RawPayload, secret, sig)
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAuthentication, ev.Source)
	}
	return nil
}

// verifyStripe checks "t=<unix>,v1=<hex>[,v1=<hex>]" where the signed
// payload is "<t>.<body>". Any matching v1 entry is accepted.
func (v *Verifier) verifyStripe(body []byte, secret, header string) bool {
	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts = val
		case "v1":
			sigs = append(sigs, val)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return false
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	if v.tolerance > 0 {
		age := v.now().Sub(time.Unix(unix, 0))
		if age > v.tolerance || age < -v.tolerance {
			return false
		}
	}

	signed := make([]byte, 0, len(ts)+1+len(body))
	signed = append(signed, ts...)
	signed = append(signed, '.')
	signed = append(signed, body...)
	for _, s := range sigs {
		if Verify(signed, secret, s) {
			return true
		}
	}
	return false
}
