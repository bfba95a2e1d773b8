package builtin

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AmirTlinov/browser-mcp/internal/tool"
)

// ── totp ──

// TOTPTool generates a time-based one-time password per RFC 6238, for
// `login_basic`-style two-factor flows (SPEC_FULL §3). No pack repo
// carries a TOTP library; the HOTP/TOTP construction is a dozen lines of
// stdlib crypto/hmac+crypto/sha1, so no third-party dependency is pulled in
// for it (see DESIGN.md).
type TOTPTool struct{}

func NewTOTPTool(Deps) *TOTPTool { return &TOTPTool{} }

func (t *TOTPTool) Name() string        { return "totp" }
func (t *TOTPTool) Description() string { return "Generates a time-based one-time password from a base32 secret." }

func (t *TOTPTool) InputSchema() json.RawMessage {
	return tool.BuildSchema(
		tool.SchemaParam{Name: "secret", Type: "string", Description: "base32-encoded shared secret", Required: true},
		tool.SchemaParam{Name: "digits", Type: "integer", Description: "code length, default 6"},
		tool.SchemaParam{Name: "period_s", Type: "integer", Description: "time step in seconds, default 30"},
	)
}

func (t *TOTPTool) Init(ctx context.Context) error { return noInit(ctx) }
func (t *TOTPTool) Close() error                    { return noClose() }

type totpArgs struct {
	Secret  string `json:"secret"`
	Digits  int    `json:"digits"`
	PeriodS int    `json:"period_s"`
}

func (t *TOTPTool) Execute(_ context.Context, raw json.RawMessage) (tool.Result, error) {
	var a totpArgs
	if err := decodeArgs(raw, &a); err != nil {
		return errResult(err)
	}
	if a.Secret == "" {
		return tool.Errorf("totp: secret is required"), nil
	}
	digits := orDefaultInt(a.Digits, 6)
	period := orDefaultInt(a.PeriodS, 30)

	key, err := decodeBase32Secret(a.Secret)
	if err != nil {
		return tool.Errorf("totp: invalid secret: %v", err), nil
	}

	now := time.Now().Unix()
	counter := now / int64(period)
	code := hotp(key, uint64(counter), digits)
	expiresIn := int64(period) - now%int64(period)

	return tool.JSONResult(map[string]any{"code": code, "expires_in_s": expiresIn}), nil
}

func decodeBase32Secret(secret string) ([]byte, error) {
	clean := strings.ToUpper(strings.TrimSpace(secret))
	clean = strings.ReplaceAll(clean, " ", "")
	if n := len(clean) % 8; n != 0 {
		clean += strings.Repeat("=", 8-n)
	}
	return base32.StdEncoding.DecodeString(clean)
}

// hotp implements RFC 4226 HOTP, the building block RFC 6238 TOTP layers a
// time-derived counter on top of.
func hotp(key []byte, counter uint64, digits int) string {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(buf)
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	truncated := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}
	return fmt.Sprintf("%0*d", digits, truncated%mod)
}
